package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contract-guard/internal/registry"
)

var analyzeDemo bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <contract-id>",
	Short: "Run compliance analysis for a single contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		contractID := args[0]

		if analyzeDemo {
			results, err := registry.LoadDemoResults(cfg.Contracts.DemoResultsPath)
			if err != nil {
				return eris.Wrap(err, "load demo results")
			}
			result, ok := results[contractID]
			if !ok {
				return eris.Wrapf(registry.ErrUnknownContract, "%s", contractID)
			}
			return printJSON(result)
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		result, err := e.Pipeline.Analyze(ctx, contractID)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("analysis complete",
			zap.String("contract", contractID),
			zap.Int("risk_score", result.ResolverVerdict.RiskScore),
			zap.String("recommendation", string(result.ResolverVerdict.Recommendation)),
		)

		return printJSON(result)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeDemo, "demo", false, "return pre-recorded demo results instead of running analysis")
	rootCmd.AddCommand(analyzeCmd)
}
