package records

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ruteri/eir-deployer/interfaces"
)

const recordExt = ".json"

// recordKey returns "<network>/<name>.json", rejecting components that would
// escape the store's namespace.
func recordKey(network, name string) (string, error) {
	for _, part := range []string{network, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid record key component %q", part)
		}
	}
	return path.Join(network, name+recordExt), nil
}

func encodeRecord(rec *interfaces.DeploymentRecord) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

func decodeRecord(data []byte) (*interfaces.DeploymentRecord, error) {
	var rec interfaces.DeploymentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid deployment record: %w", err)
	}
	return &rec, nil
}

func sortRecords(recs []interfaces.DeploymentRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
}
