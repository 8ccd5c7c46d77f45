package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"statmatch/internal/batch"
	"statmatch/internal/config"
	"statmatch/internal/queue"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show published batch results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(cfg *config.Config, q *queue.Store) error {
				messages, err := q.Peek(cmd.Context(), cfg.Queue.OutboundQueue, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(messages) == 0 {
					fmt.Fprintln(out, "No results published yet")
					return nil
				}

				if asJSON {
					for _, msg := range messages {
						fmt.Fprintln(out, string(msg.Body))
					}
					return nil
				}

				rows := make([][]string, 0, len(messages))
				for _, msg := range messages {
					var result batch.Result
					if err := json.Unmarshal(msg.Body, &result); err != nil {
						rows = append(rows, []string{strconv.FormatInt(msg.ID, 10), "?", "", "", "", "", "unparseable"})
						continue
					}
					rows = append(rows, []string{
						strconv.FormatInt(msg.ID, 10),
						result.ExperimentID,
						strconv.Itoa(result.CandidateCount),
						formatPick(result.ClosestFingerprint, result.ClosestDistance),
						formatPick(result.FarthestFingerprint, result.FarthestDistance),
						strconv.Itoa(result.VerifiedFingerprints),
						result.Status,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Msg", "Experiment", "Candidates", "Closest", "Farthest", "Verified", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw result documents")
	return cmd
}

func formatPick(id *string, distance *float64) string {
	if id == nil {
		return "-"
	}
	if distance == nil {
		return *id
	}
	return fmt.Sprintf("%s (%.2f)", *id, *distance)
}
