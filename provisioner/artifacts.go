package provisioner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrArtifactNotFound is returned when no artifact exists for a template name.
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is a compiled contract: its ABI and creation bytecode.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

// artifactFile covers both Hardhat ("bytecode": "0x...") and Foundry
// ("bytecode": {"object": "0x..."}) artifact layouts.
type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// ParseArtifact decodes a compiler artifact.
func ParseArtifact(data []byte) (*Artifact, error) {
	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	if len(file.ABI) == 0 {
		return nil, errors.New("invalid artifact: missing abi")
	}

	contractABI, err := abi.JSON(bytes.NewReader(file.ABI))
	if err != nil {
		return nil, fmt.Errorf("invalid artifact abi: %w", err)
	}

	var bytecodeHex string
	if len(file.Bytecode) > 0 && file.Bytecode[0] == '{' {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(file.Bytecode, &obj); err != nil {
			return nil, fmt.Errorf("invalid artifact bytecode: %w", err)
		}
		bytecodeHex = obj.Object
	} else if err := json.Unmarshal(file.Bytecode, &bytecodeHex); err != nil {
		return nil, fmt.Errorf("invalid artifact bytecode: %w", err)
	}

	bytecode, err := hexutil.Decode(bytecodeHex)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact bytecode: %w", err)
	}
	if len(bytecode) == 0 {
		return nil, errors.New("invalid artifact: empty bytecode (abstract contract or interface?)")
	}

	return &Artifact{
		ContractName: file.ContractName,
		ABI:          contractABI,
		Bytecode:     bytecode,
	}, nil
}

// ArtifactStore resolves template names to artifacts stored under a
// directory, caching parsed results.
type ArtifactStore struct {
	mu    sync.Mutex
	dir   string
	cache map[string]*Artifact
}

// NewArtifactStore creates a store reading from dir. An empty dir yields a
// store that only serves artifacts added with Register.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{
		dir:   dir,
		cache: make(map[string]*Artifact),
	}
}

// Register adds an artifact under name, replacing any cached one.
func (s *ArtifactStore) Register(name string, artifact *Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[name] = artifact
}

// Load returns the artifact for name. It looks for <dir>/<name>.json first and
// then for any <name>.json below dir, as laid out by Hardhat and Foundry.
func (s *ArtifactStore) Load(name string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if artifact, ok := s.cache[name]; ok {
		return artifact, nil
	}

	path, err := s.find(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	artifact, err := ParseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s.cache[name] = artifact
	return artifact, nil
}

func (s *ArtifactStore) find(name string) (string, error) {
	if s.dir == "" {
		return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}

	fileName := name + ".json"
	direct := filepath.Join(s.dir, fileName)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	var found string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == fileName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search artifacts: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, s.dir)
	}
	return found, nil
}
