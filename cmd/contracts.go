package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contract-guard/internal/model"
	"github.com/sells-group/contract-guard/internal/registry"
)

// contractSummary is the lightweight listing entry: registry data plus the
// verdict from pre-recorded results when available.
type contractSummary struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	RiskScore      *int                 `json:"risk_score,omitempty"`
	Recommendation model.Recommendation `json:"recommendation,omitempty"`
	TotalValue     float64              `json:"total_value,omitempty"`
	Parties        *model.Parties       `json:"parties,omitempty"`
}

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List registered contracts with summary verdicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load(cfg.Contracts.RegistryPath)
		if err != nil {
			return eris.Wrap(err, "load contract registry")
		}

		// Demo results are optional here; without them the listing is
		// registry data only.
		demoResults, err := registry.LoadDemoResults(cfg.Contracts.DemoResultsPath)
		if err != nil {
			demoResults = nil
		}

		summaries := make([]contractSummary, 0, len(reg.List()))
		for _, c := range reg.List() {
			s := contractSummary{ID: c.ID, Name: c.Name}
			if result, ok := demoResults[c.ID]; ok {
				score := result.ResolverVerdict.RiskScore
				s.RiskScore = &score
				s.Recommendation = result.ResolverVerdict.Recommendation
				s.TotalValue = result.TotalValue
				parties := result.Parties
				s.Parties = &parties
			}
			summaries = append(summaries, s)
		}

		return printJSON(summaries)
	},
}

func init() {
	rootCmd.AddCommand(contractsCmd)
}
