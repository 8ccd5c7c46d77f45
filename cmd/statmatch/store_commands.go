package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"statmatch/internal/config"
	"statmatch/internal/fingerprint"
	"statmatch/internal/store"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Fingerprint store maintenance",
	}

	storeCmd.AddCommand(newStoreAddCommand(ctx))
	storeCmd.AddCommand(newStoreListCommand(ctx))
	storeCmd.AddCommand(newStoreShowCommand(ctx))

	return storeCmd
}

func newStoreAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <file>",
		Short: "Import a fingerprint document from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read fingerprint file: %w", err)
			}
			if _, err := fingerprint.ParseDocument(raw); err != nil {
				return fmt.Errorf("parse fingerprint document: %w", err)
			}

			return ctx.withStore(func(cfg *config.Config, s *store.Store) error {
				if err := s.Put(cmd.Context(), id, raw); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored fingerprint %s\n", id)
				return nil
			})
		},
	}
}

func newStoreListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored fingerprint identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, s *store.Store) error {
				ids, err := s.ListIDs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					fmt.Fprintln(out, "Store is empty")
					return nil
				}

				roots := make(map[string]struct{})
				for _, rootID := range cfg.RootFingerprintIDs() {
					roots[rootID] = struct{}{}
				}
				rows := make([][]string, 0, len(ids))
				for _, id := range ids {
					role := "candidate"
					if _, ok := roots[id]; ok {
						role = "root"
					}
					rows = append(rows, []string{id, role})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Role"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of identifiers to list (0 for all)")
	return cmd
}

func newStoreShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the extracted statistics of a stored fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, s *store.Store) error {
				doc, err := s.Lookup(cmd.Context(), id)
				if err != nil {
					return err
				}
				if doc == nil {
					return fmt.Errorf("fingerprint %s not found", id)
				}

				out := cmd.OutOrStdout()
				field := doc.ExtractField()
				fmt.Fprintf(out, "Fingerprint: %s\n", id)
				fmt.Fprintf(out, "Field: %s (%s)\n", field.Name, field.FieldID)
				if field.DataType != "" {
					fmt.Fprintf(out, "Type: %s\n", field.DataType)
				}

				stats, ok := doc.ExtractStats()
				if !ok {
					fmt.Fprintln(out, "No statistics block present")
					return nil
				}
				rows := [][]string{
					{"min", formatStat(stats.Min)},
					{"max", formatStat(stats.Max)},
					{"mean", formatStat(stats.Mean)},
					{"median", formatStat(stats.Median)},
					{"stdDev", formatStat(stats.StdDev)},
					{"uniqueCount", formatStat(stats.UniqueCount)},
					{"nullCount", formatStat(stats.NullCount)},
					{"p25", formatStat(stats.P25)},
					{"p50", formatStat(stats.P50)},
					{"p75", formatStat(stats.P75)},
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Statistic", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func formatStat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
