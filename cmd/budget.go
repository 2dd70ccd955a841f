package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/ghostswarm/internal/belief"
)

func newBudgetCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Prints the benchmark's sample and gossip budget",
		Long: `Computes the total sample budget, the per-agent share and the number of
gossip rounds the benchmark algorithm uses for the configured population.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			budget, err := benchmarkBudget(cfg, cfg.Simulation().Agents)
			if err != nil {
				return err
			}
			return printBudget(cmd.OutOrStdout(), budget, asJSON)
		},
	}

	cmd.Flags().IntP("agents", "n", 0, "Population size")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the budget as JSON")
	bindFlag(cmd, "agents", "simulation.agents")
	return cmd
}

func printBudget(w io.Writer, b belief.Budget, asJSON bool) error {
	if asJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	_, err := fmt.Fprintf(w,
		"z:                 %.4f\nepsilon:           %.4f\ntotal samples:     %.1f\nsamples per agent: %d\ngossip rounds:     %d (%.1f)\n",
		b.Z, b.Epsilon, b.TotalSamples, b.SamplesPerAgent, b.CommRounds, b.CommRoundsExact)
	return err
}
