package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-guard/internal/registry"
)

const demoResultsFixture = `{
  "standard_saas": {
    "contract_id": "standard_saas",
    "contract_name": "Standard SaaS Agreement",
    "parties": {"provider": "CloudWorks Software, Inc.", "customer": "Meridian Health Group, LLC"},
    "total_value": 120000,
    "term_months": 12,
    "resolver_verdict": {
      "risk_score": 5,
      "confidence": 92,
      "recommendation": "approve",
      "reasoning": "Clean contract.",
      "key_factors": ["standard terms"]
    }
  }
}`

func writeDemoFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo_results.json")
	require.NoError(t, os.WriteFile(path, []byte(demoResultsFixture), 0o644))
	return path
}

func TestAnalyzeCmd_Demo(t *testing.T) {
	t.Setenv("CONTRACT_GUARD_CONTRACTS_DEMO_RESULTS_PATH", writeDemoFixture(t))

	rootCmd.SetArgs([]string{"analyze", "standard_saas", "--demo"})
	err := rootCmd.Execute()
	assert.NoError(t, err)
}

func TestAnalyzeCmd_Demo_UnknownContract(t *testing.T) {
	t.Setenv("CONTRACT_GUARD_CONTRACTS_DEMO_RESULTS_PATH", writeDemoFixture(t))

	rootCmd.SetArgs([]string{"analyze", "no_such_contract", "--demo"})
	err := rootCmd.Execute()
	assert.ErrorIs(t, err, registry.ErrUnknownContract)
}

func TestContractsCmd_MergesDemoVerdicts(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "contracts.yaml")
	require.NoError(t, os.WriteFile(registryPath, []byte(`
contracts:
  - id: standard_saas
    name: Standard SaaS Agreement
    file: contracts/standard_saas.txt
  - id: unscored
    name: Unscored Contract
    file: contracts/unscored.txt
`), 0o644))

	t.Setenv("CONTRACT_GUARD_CONTRACTS_REGISTRY_PATH", registryPath)
	t.Setenv("CONTRACT_GUARD_CONTRACTS_DEMO_RESULTS_PATH", writeDemoFixture(t))

	rootCmd.SetArgs([]string{"contracts"})
	err := rootCmd.Execute()
	assert.NoError(t, err)
}
