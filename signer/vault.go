package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// VaultKeyField is the secret field holding the hex encoded key.
const VaultKeyField = "private_key"

// ErrKeyNotFound is returned when the Vault secret or its key field is missing.
var ErrKeyNotFound = errors.New("deployer key not found in Vault")

// VaultKeySource reads the deployer key from a HashiCorp Vault KV v2 secret.
type VaultKeySource struct {
	client    *api.Client
	mountPath string
	keyPath   string
	log       *slog.Logger
}

// NewVaultKeySource creates a key source authenticating with token.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token; if empty, the VAULT_TOKEN environment variable is used
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - keyPath: path of the secret within the mount (e.g. "deployer/arbitrum")
//   - log: Structured logger
func NewVaultKeySource(address, token, mountPath, keyPath string, log *slog.Logger) (*VaultKeySource, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	if mountPath == "" {
		mountPath = "secret"
	}
	keyPath = strings.Trim(keyPath, "/")
	if keyPath == "" {
		return nil, errors.New("vault key path is required")
	}

	return &VaultKeySource{
		client:    client,
		mountPath: mountPath,
		keyPath:   keyPath,
		log:       log,
	}, nil
}

// Fetch reads and decodes the key.
func (s *VaultKeySource) Fetch(ctx context.Context) (*ecdsa.PrivateKey, error) {
	path := fmt.Sprintf("%s/data/%s", s.mountPath, s.keyPath)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.log.Error("Failed to read from Vault", slog.String("path", path), "err", err)
		return nil, fmt.Errorf("failed to read %s from Vault: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response for %s", path)
	}

	value, ok := data[VaultKeyField].(string)
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: %s has no %s field", ErrKeyNotFound, path, VaultKeyField)
	}

	key, err := ParseKey(value)
	if err != nil {
		return nil, err
	}

	s.log.Info("Loaded deployer key from Vault", slog.String("path", path))
	return key, nil
}
