package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"statmatch/internal/batch"
	"statmatch/internal/config"
	"statmatch/internal/queue"
	"statmatch/internal/services/experiments"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var experimentID string
	var envelopeFile string
	var fromAPI bool

	cmd := &cobra.Command{
		Use:   "submit [candidate-id...]",
		Short: "Publish a batch request to the inbound queue",
		Long: `Publish a batch request to the inbound queue.

Candidate ids may be given as arguments, a complete request envelope may
be supplied with --file, or --from-api fetches the candidate search
status for --experiment from the experiment API and enqueues the
response. The daemon picks the request up, ranks the candidates against
the configured roots, and publishes a result to the outbound queue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := 0
			if len(args) > 0 {
				sources++
			}
			if envelopeFile != "" {
				sources++
			}
			if fromAPI {
				sources++
			}
			if sources == 0 {
				return fmt.Errorf("provide candidate ids, --file, or --from-api")
			}
			if sources > 1 {
				return fmt.Errorf("candidate ids, --file, and --from-api are mutually exclusive")
			}
			if fromAPI && strings.TrimSpace(experimentID) == "" {
				return fmt.Errorf("--from-api requires --experiment")
			}

			var body []byte
			switch {
			case envelopeFile != "":
				raw, err := os.ReadFile(envelopeFile)
				if err != nil {
					return fmt.Errorf("read envelope file: %w", err)
				}
				if _, err := batch.ParseEnvelope(raw); err != nil {
					return fmt.Errorf("invalid envelope: %w", err)
				}
				body = raw
			case len(args) > 0:
				id := strings.TrimSpace(experimentID)
				if id == "" {
					id = uuid.NewString()
				}
				entries := make([]map[string]any, 0, len(args))
				for _, candidate := range args {
					entries = append(entries, map[string]any{"fingerprintId": candidate})
				}
				raw, err := json.Marshal(map[string]any{
					"experimentId": id,
					"fingerprints": entries,
				})
				if err != nil {
					return fmt.Errorf("encode envelope: %w", err)
				}
				body = raw
				experimentID = id
			}

			return ctx.withQueue(func(cfg *config.Config, q *queue.Store) error {
				if fromAPI {
					client := experiments.New(cfg)
					if client == nil {
						return fmt.Errorf("experiment API is not configured (set [api] base_url)")
					}
					status, err := client.CandidateSearchStatus(cmd.Context(), experimentID)
					if err != nil {
						return err
					}
					if _, err := batch.ParseEnvelope(status.Raw); err != nil {
						return fmt.Errorf("experiment API returned an invalid envelope: %w", err)
					}
					body = status.Raw
				}

				msgID, err := q.Publish(cmd.Context(), cfg.Queue.InboundQueue, body)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Submitted batch request as message %d on %s\n", msgID, cfg.Queue.InboundQueue)
				if experimentID != "" {
					fmt.Fprintf(out, "Experiment: %s\n", experimentID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&experimentID, "experiment", "e", "", "Experiment identifier (generated when omitted)")
	cmd.Flags().StringVarP(&envelopeFile, "file", "f", "", "JSON file containing a complete request envelope")
	cmd.Flags().BoolVar(&fromAPI, "from-api", false, "Fetch the request from the experiment API")
	return cmd
}
