package provisioner

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const (
	// Returns the 32 byte word 0x2a for every call. Constructor arguments are ignored.
	stubBytecode = "0x600a600c600039600a6000f3602a60005260206000f3"
	// Reverts every call.
	revertingBytecode = "0x6005600c60003960056000f360006000fd"

	templateABI = `[
		{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
		{"type":"function","name":"setModuleFor","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"module","type":"address"}],"outputs":[]},
		{"type":"function","name":"setUp","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"}],"outputs":[]}
	]`
	proxyABI = `[
		{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"implementation","type":"address"},{"name":"data","type":"bytes"}]}
	]`
)

// stubOwner is the owner() reported by stub contracts.
var stubOwner = common.BigToAddress(big.NewInt(0x2a))

// committingBackend mines a block after every sent transaction.
type committingBackend struct {
	simulated.Client
	sim *simulated.Backend
}

func (b *committingBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := b.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	b.sim.Commit()
	return nil
}

// miningBackend additionally mines a block on every block number poll while
// mining is enabled, so confirmation waits make progress.
type miningBackend struct {
	*committingBackend
	mining atomic.Bool
}

func (b *miningBackend) BlockNumber(ctx context.Context) (uint64, error) {
	if b.mining.Load() {
		b.sim.Commit()
	}
	return b.committingBackend.BlockNumber(ctx)
}

// SetupTestChain creates a simulated blockchain with a single funded account.
func SetupTestChain() (*simulated.Backend, *bind.TransactOpts, *ecdsa.PrivateKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, nil, nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(1337))
	if err != nil {
		return nil, nil, nil, err
	}

	balance := new(big.Int)
	balance.SetString("10000000000000000000", 10) // 10 ETH

	genesisAlloc := map[common.Address]types.Account{
		auth.From: {Balance: balance},
	}

	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(8000000))
	return backend, auth, privateKey, nil
}

func newTestBackend(t *testing.T) (*committingBackend, *bind.TransactOpts) {
	sim, auth, _, err := SetupTestChain()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sim.Close() })
	return &committingBackend{Client: sim.Client(), sim: sim}, auth
}

func hardhatArtifact(t *testing.T, name, abiJSON, bytecode string) []byte {
	data, err := json.Marshal(map[string]any{
		"_format":      "hh-sol-artifact-1",
		"contractName": name,
		"abi":          json.RawMessage(abiJSON),
		"bytecode":     bytecode,
	})
	require.NoError(t, err)
	return data
}

func foundryArtifact(t *testing.T, abiJSON, bytecode string) []byte {
	data, err := json.Marshal(map[string]any{
		"abi": json.RawMessage(abiJSON),
		"bytecode": map[string]any{
			"object":    bytecode,
			"sourceMap": "",
		},
	})
	require.NoError(t, err)
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// newTestArtifacts returns a store holding the Template and ERC1967Proxy stubs.
func newTestArtifacts(t *testing.T, proxyBytecode string) *ArtifactStore {
	store := NewArtifactStore("")

	template, err := ParseArtifact(hardhatArtifact(t, "Template", templateABI, stubBytecode))
	require.NoError(t, err)
	store.Register("Template", template)

	proxy, err := ParseArtifact(hardhatArtifact(t, DefaultProxyTemplate, proxyABI, proxyBytecode))
	require.NoError(t, err)
	store.Register(DefaultProxyTemplate, proxy)

	return store
}
