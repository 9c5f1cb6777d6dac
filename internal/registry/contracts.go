// Package registry resolves contract identifiers to contract files and
// display names, and loads canned demo results for the offline path.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/contract-guard/internal/model"
)

// ErrUnknownContract is returned for contract identifiers not present in the
// registry. It is a request-level error, reported to the caller and never
// retried.
var ErrUnknownContract = eris.New("registry: unknown contract")

// Contract is one registry entry.
type Contract struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	File string `yaml:"file" json:"file"`
}

// Registry maps contract identifiers to their files and display names.
type Registry struct {
	contracts []Contract
	byID      map[string]Contract
	baseDir   string
}

type registryFile struct {
	Contracts []Contract `yaml:"contracts"`
}

// Load reads the contract registry from a YAML file. Contract file paths are
// resolved relative to the registry file's directory.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var rf registryFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, eris.Wrapf(err, "registry: unmarshal %s", path)
	}

	byID := make(map[string]Contract, len(rf.Contracts))
	for _, c := range rf.Contracts {
		if c.ID == "" || c.File == "" {
			return nil, eris.Errorf("registry: entry missing id or file in %s", path)
		}
		byID[c.ID] = c
	}

	return &Registry{
		contracts: rf.Contracts,
		byID:      byID,
		baseDir:   filepath.Dir(path),
	}, nil
}

// List returns all registry entries in file order.
func (r *Registry) List() []Contract {
	return r.contracts
}

// Get looks up a contract by identifier.
func (r *Registry) Get(id string) (Contract, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// LoadText reads the contract text for the given identifier.
func (r *Registry) LoadText(id string) (string, error) {
	c, ok := r.byID[id]
	if !ok {
		return "", eris.Wrapf(ErrUnknownContract, "%s", id)
	}

	path := c.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "registry: read contract file %s", path)
	}
	return string(data), nil
}

// LoadDemoResults reads pre-recorded analysis results keyed by contract id.
func LoadDemoResults(path string) (map[string]model.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read demo results %s", path)
	}

	var results map[string]model.AnalysisResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, eris.Wrapf(err, "registry: unmarshal demo results %s", path)
	}
	return results, nil
}
