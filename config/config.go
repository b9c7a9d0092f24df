// Package config loads and validates the deployment document describing the
// vault, manager and module resources to provision on a network.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid deployment config")

// ModuleSpec describes one interest-rate module and the token it serves.
type ModuleSpec struct {
	Name        string         `yaml:"name" json:"name"`
	Symbol      string         `yaml:"symbol" json:"symbol"`
	Risk        uint64         `yaml:"risk" json:"risk"`
	LinkedToken common.Address `yaml:"linked_token" json:"linked_token"`
}

// NetworkConfig holds the settings of one target network.
type NetworkConfig struct {
	VST                common.Address `yaml:"vst" json:"vst"`
	TroveManager       common.Address `yaml:"trove_manager" json:"trove_manager"`
	PriceFeed          common.Address `yaml:"price_feed" json:"price_feed"`
	BorrowerOperations common.Address `yaml:"borrower_operations" json:"borrower_operations"`
	Admin              common.Address `yaml:"admin" json:"admin"`

	// Modules is nil when the document has no module list at all; an empty
	// list is valid and deploys no modules.
	Modules []ModuleSpec `yaml:"modules" json:"modules"`
}

// Document models the deployment YAML file.
type Document struct {
	ReconcileOwnership bool                      `yaml:"reconcile_ownership"`
	Networks           map[string]*NetworkConfig `yaml:"networks"`
}

// DeploymentConfig is the resolved configuration for a single run.
type DeploymentConfig struct {
	Network            string
	ReconcileOwnership bool

	// Configs is nil when the document has no entry for Network.
	Configs *NetworkConfig
}

// Parse decodes a deployment document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &doc, nil
}

// Load reads the document at path and selects network from it. A document
// without the network is not an error here; the orchestrator rejects it.
func Load(path, network string) (*DeploymentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return doc.Select(network), nil
}

// Select resolves the configuration for network.
func (d *Document) Select(network string) *DeploymentConfig {
	return &DeploymentConfig{
		Network:            network,
		ReconcileOwnership: d.ReconcileOwnership,
		Configs:            d.Networks[network],
	}
}

// NetworkNames returns the networks defined in the document, sorted.
func (d *Document) NetworkNames() []string {
	names := make([]string, 0, len(d.Networks))
	for name := range d.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every reference required by the resource initializers
// is set and that modules are unambiguous.
func (c *DeploymentConfig) Validate() error {
	if c.Configs == nil {
		return fmt.Errorf("%w: no configuration for network %q", ErrInvalidConfig, c.Network)
	}
	return c.Configs.Validate()
}

// Validate checks a single network configuration.
//
// Module names are deployment names and linked tokens are registry keys on the
// manager, so both must be unique: a duplicate would silently reuse a module
// or overwrite an earlier registration.
func (n *NetworkConfig) Validate() error {
	required := []struct {
		field string
		addr  common.Address
	}{
		{"vst", n.VST},
		{"trove_manager", n.TroveManager},
		{"price_feed", n.PriceFeed},
		{"borrower_operations", n.BorrowerOperations},
		{"admin", n.Admin},
	}
	for _, r := range required {
		if r.addr == (common.Address{}) {
			return fmt.Errorf("%w: %s is not set", ErrInvalidConfig, r.field)
		}
	}

	if n.Modules == nil {
		return fmt.Errorf("%w: no modules found", ErrInvalidConfig)
	}

	names := make(map[string]int, len(n.Modules))
	tokens := make(map[common.Address]int, len(n.Modules))
	for i, m := range n.Modules {
		if m.Name == "" {
			return fmt.Errorf("%w: module %d has no name", ErrInvalidConfig, i)
		}
		if m.Name == "." || m.Name == ".." || strings.ContainsAny(m.Name, `/\`) {
			return fmt.Errorf("%w: module name %q is not a valid deployment name", ErrInvalidConfig, m.Name)
		}
		if m.Symbol == "" {
			return fmt.Errorf("%w: module %s has no symbol", ErrInvalidConfig, m.Name)
		}
		if m.LinkedToken == (common.Address{}) {
			return fmt.Errorf("%w: module %s has no linked_token", ErrInvalidConfig, m.Name)
		}
		if j, ok := names[m.Name]; ok {
			return fmt.Errorf("%w: module name %s used by modules %d and %d", ErrInvalidConfig, m.Name, j, i)
		}
		if j, ok := tokens[m.LinkedToken]; ok {
			return fmt.Errorf("%w: linked_token %s used by modules %d and %d", ErrInvalidConfig, m.LinkedToken.Hex(), j, i)
		}
		names[m.Name] = i
		tokens[m.LinkedToken] = i
	}

	return nil
}
