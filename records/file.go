package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruteri/eir-deployer/interfaces"
)

// FileStore implements a record store using the local file system.
// Records are laid out as <baseDir>/<network>/<name>.json.
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file record store rooted at baseDir, creating it if
// it doesn't exist.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Load reads the record of name on network.
// Returns ErrRecordNotFound if the file doesn't exist.
func (s *FileStore) Load(ctx context.Context, network, name string) (*interfaces.DeploymentRecord, error) {
	filePath, err := s.filePath(network, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	s.log.Debug("Loaded deployment record",
		slog.String("path", filePath))

	return decodeRecord(data)
}

// Save writes rec, replacing any previous record with the same name.
func (s *FileStore) Save(ctx context.Context, rec *interfaces.DeploymentRecord) error {
	filePath, err := s.filePath(rec.Network, rec.Name)
	if err != nil {
		return err
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Atomic replace.
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to move record into place: %w", err)
	}

	s.log.Debug("Stored deployment record",
		slog.String("path", filePath),
		slog.String("address", rec.Address.Hex()))

	return nil
}

// List returns every record of network, ordered by name.
func (s *FileStore) List(ctx context.Context, network string) ([]interfaces.DeploymentRecord, error) {
	dir := filepath.Join(s.baseDir, network)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	var recs []interfaces.DeploymentRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		rec, err := s.Load(ctx, network, strings.TrimSuffix(entry.Name(), recordExt))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		recs = append(recs, *rec)
	}

	sortRecords(recs)
	return recs, nil
}

// LocationURI returns the URI that identifies this record store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}

func (s *FileStore) filePath(network, name string) (string, error) {
	key, err := recordKey(network, name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(key)), nil
}
