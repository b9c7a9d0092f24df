package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrRecordNotFound is returned when no record exists for a deployment name.
	ErrRecordNotFound = errors.New("deployment record not found")

	// ErrInvalidLocationURI is returned when a record store URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid record store location URI")
)

// DeploymentRecord describes one provisioned upgradeable resource.
type DeploymentRecord struct {
	Network        string         `json:"network"`
	Name           string         `json:"name"`
	Template       string         `json:"template"`
	Address        common.Address `json:"address"`
	Implementation common.Address `json:"implementation"`

	// InitData is the encoded initializer call the proxy was constructed
	// with. Empty for resources without an initializer.
	InitData hexutil.Bytes `json:"init_data,omitempty"`

	TxHash         common.Hash    `json:"tx_hash"`
	BlockNumber    uint64         `json:"block_number"`
	DeployedAt     time.Time      `json:"deployed_at"`
}

// RecordStore persists deployment records keyed by network and name.
type RecordStore interface {
	// Load returns the record for name, or ErrRecordNotFound.
	Load(ctx context.Context, network, name string) (*DeploymentRecord, error)

	// Save creates or replaces the record for rec.Network and rec.Name.
	Save(ctx context.Context, rec *DeploymentRecord) error

	// List returns all records of a network ordered by name.
	List(ctx context.Context, network string) ([]DeploymentRecord, error)

	// LocationURI returns URI identifying this store.
	LocationURI() string
}
