package records

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/eir-deployer/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(network, name string) *interfaces.DeploymentRecord {
	return &interfaces.DeploymentRecord{
		Network:        network,
		Name:           name,
		Template:       "VestaEIR",
		Address:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Implementation: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		TxHash:         common.HexToHash("0xabcdef"),
		BlockNumber:    42,
		DeployedAt:     time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), slog.Default())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Load(ctx, "arbitrum", "EIR-ETH")
	assert.ErrorIs(t, err, interfaces.ErrRecordNotFound)

	rec := testRecord("arbitrum", "EIR-ETH")
	require.NoError(t, store.Save(ctx, rec))

	loaded, err := store.Load(ctx, "arbitrum", "EIR-ETH")
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)

	// Records are namespaced by network
	_, err = store.Load(ctx, "goerli", "EIR-ETH")
	assert.ErrorIs(t, err, interfaces.ErrRecordNotFound)

	// Save replaces
	rec.BlockNumber = 43
	require.NoError(t, store.Save(ctx, rec))
	loaded, err = store.Load(ctx, "arbitrum", "EIR-ETH")
	require.NoError(t, err)
	assert.Equal(t, uint64(43), loaded.BlockNumber)
}

func TestFileStore_List(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, slog.Default())
	require.NoError(t, err)
	ctx := context.Background()

	recs, err := store.List(ctx, "arbitrum")
	require.NoError(t, err)
	assert.Empty(t, recs)

	for _, name := range []string{"VestaInterestManager", "EIR-ETH", "SafetyVault"} {
		require.NoError(t, store.Save(ctx, testRecord("arbitrum", name)))
	}
	require.NoError(t, store.Save(ctx, testRecord("goerli", "SafetyVault")))

	// Unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arbitrum", "notes.txt"), []byte("x"), 0644))

	recs, err = store.List(ctx, "arbitrum")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "EIR-ETH", recs[0].Name)
	assert.Equal(t, "SafetyVault", recs[1].Name)
	assert.Equal(t, "VestaInterestManager", recs[2].Name)
}

func TestFileStore_InvalidKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), slog.Default())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "..", "a/b", `a\b`} {
		_, err := store.Load(ctx, "arbitrum", name)
		assert.Error(t, err, "name %q", name)
		assert.NotErrorIs(t, err, interfaces.ErrRecordNotFound)
	}

	assert.Error(t, store.Save(ctx, testRecord("../escape", "x")))
}

func TestFileStore_CorruptRecord(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, slog.Default())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "arbitrum"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arbitrum", "SafetyVault.json"), []byte("{"), 0644))

	_, err = store.Load(context.Background(), "arbitrum", "SafetyVault")
	assert.ErrorContains(t, err, "invalid deployment record")
}

func TestStoreFor(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		uri     string
		wantErr bool
		check   func(t *testing.T, store interfaces.RecordStore)
	}{
		{
			name: "bare path",
			uri:  filepath.Join(dir, "bare"),
			check: func(t *testing.T, store interfaces.RecordStore) {
				assert.IsType(t, &FileStore{}, store)
				assert.DirExists(t, filepath.Join(dir, "bare"))
			},
		},
		{
			name: "file uri",
			uri:  "file://" + filepath.Join(dir, "uri"),
			check: func(t *testing.T, store interfaces.RecordStore) {
				assert.IsType(t, &FileStore{}, store)
				assert.DirExists(t, filepath.Join(dir, "uri"))
			},
		},
		{
			name: "s3 uri",
			uri:  "s3://key:secret@deployments/vesta?region=eu-west-1&endpoint=http://127.0.0.1:9000&path_style=true",
			check: func(t *testing.T, store interfaces.RecordStore) {
				s3Store, ok := store.(*S3Store)
				require.True(t, ok)
				assert.Equal(t, "deployments", s3Store.bucketName)
				assert.Equal(t, "vesta", s3Store.prefix)
				assert.NotContains(t, s3Store.LocationURI(), "secret")
			},
		},
		{
			name:    "unsupported scheme",
			uri:     "ipfs://localhost:5001",
			wantErr: true,
		},
		{
			name:    "empty",
			uri:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := StoreFor(tt.uri, slog.Default())
			if tt.wantErr {
				assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
				return
			}
			require.NoError(t, err)
			tt.check(t, store)
		})
	}
}
