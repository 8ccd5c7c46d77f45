package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"statmatch/internal/analysis"
	"statmatch/internal/config"
	"statmatch/internal/fingerprint"
	"statmatch/internal/store"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var ignoreGate bool

	cmd := &cobra.Command{
		Use:   "compare <id> <id>",
		Short: "Compare two stored fingerprints",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, s *store.Store) error {
				left, err := loadFingerprint(cmd, s, args[0])
				if err != nil {
					return err
				}
				right, err := loadFingerprint(cmd, s, args[1])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %s (%s)\n", left.ID, left.Field.Name, left.Field.FieldID)
				fmt.Fprintf(out, "%s: %s (%s)\n", right.ID, right.Field.Name, right.Field.FieldID)

				var distance float64
				if ignoreGate {
					distance = analysis.CompareStatistics(left.Stats, right.Stats)
				} else {
					result := analysis.CompareStatisticsGated(left.Stats, right.Stats, left.Field.FieldID, right.Field.FieldID)
					if !result.Comparable {
						fmt.Fprintln(out, "Fields are not comparable (use --ignore-gate to compare anyway)")
						return nil
					}
					distance = result.Distance
				}

				fmt.Fprintf(out, "Distance: %.4f\n", distance)
				fmt.Fprintf(out, "Interpretation: %s\n", analysis.Interpret(distance))
				fmt.Fprintf(out, "Mean diff: %.4f  Median diff: %.4f  StdDev diff: %.4f\n",
					math.Abs(left.Stats.Mean-right.Stats.Mean),
					math.Abs(left.Stats.Median-right.Stats.Median),
					math.Abs(left.Stats.StdDev-right.Stats.StdDev),
				)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&ignoreGate, "ignore-gate", false, "Compare even when the field gate rejects the pair")
	return cmd
}

func loadFingerprint(cmd *cobra.Command, s *store.Store, rawID string) (fingerprint.Fingerprint, error) {
	id := strings.TrimSpace(rawID)
	doc, err := s.Lookup(cmd.Context(), id)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	if doc == nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("fingerprint %s not found", id)
	}
	fp := fingerprint.Fingerprint{ID: id}
	fp.Stats, fp.HasStats = doc.ExtractStats()
	fp.Field = doc.ExtractField()
	if !fp.HasStats {
		return fingerprint.Fingerprint{}, fmt.Errorf("fingerprint %s has no statistics block", id)
	}
	return fp, nil
}
