package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrNoKeySource is returned when no key source is configured.
	ErrNoKeySource = errors.New("no deployer key source configured")
	// ErrMultipleKeySources is returned when more than one key source is configured.
	ErrMultipleKeySources = errors.New("more than one deployer key source configured")
)

// Options selects where the deployer key is read from. Exactly one of
// PrivateKey, KeyFile and VaultAddr must be set.
type Options struct {
	// PrivateKey is a hex encoded secp256k1 key, with or without 0x prefix.
	PrivateKey string

	// KeyFile holds a hex encoded key.
	KeyFile string

	VaultAddr  string
	VaultToken string
	VaultMount string
	VaultPath  string
}

// LoadKey reads the deployer key from the source configured in opts.
func LoadKey(ctx context.Context, opts Options, log *slog.Logger) (*ecdsa.PrivateKey, error) {
	sources := 0
	for _, s := range []string{opts.PrivateKey, opts.KeyFile, opts.VaultAddr} {
		if s != "" {
			sources++
		}
	}
	switch {
	case sources == 0:
		return nil, ErrNoKeySource
	case sources > 1:
		return nil, ErrMultipleKeySources
	}

	switch {
	case opts.PrivateKey != "":
		return ParseKey(opts.PrivateKey)
	case opts.KeyFile != "":
		data, err := os.ReadFile(opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		return ParseKey(string(data))
	default:
		source, err := NewVaultKeySource(opts.VaultAddr, opts.VaultToken, opts.VaultMount, opts.VaultPath, log)
		if err != nil {
			return nil, err
		}
		return source.Fetch(ctx)
	}
}

// ParseKey decodes a hex encoded secp256k1 private key.
func ParseKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// NewTransactor creates transaction options signing with key for chainID.
func NewTransactor(key *ecdsa.PrivateKey, chainID *big.Int) (*bind.TransactOpts, error) {
	if key == nil {
		return nil, ErrNoKeySource
	}
	return bind.NewKeyedTransactorWithChainID(key, chainID)
}
