package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"statmatch/internal/config"
	"statmatch/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Message queue maintenance",
	}

	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueuePurgeCommand(ctx))

	return queueCmd
}

func resolveQueueName(cfg *config.Config, flagValue string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(flagValue)) {
	case "", "inbound", "requests":
		return cfg.Queue.InboundQueue, nil
	case "outbound", "results":
		return cfg.Queue.OutboundQueue, nil
	default:
		return "", fmt.Errorf("unknown queue %q (use inbound or outbound)", flagValue)
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show message counts per queue and state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(cfg *config.Config, q *queue.Store) error {
				rows := make([][]string, 0, 2)
				for _, name := range []string{cfg.Queue.InboundQueue, cfg.Queue.OutboundQueue} {
					health, err := q.Health(cmd.Context(), name)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						name,
						strconv.Itoa(health.Pending),
						strconv.Itoa(health.Processing),
						strconv.Itoa(health.Done),
						strconv.Itoa(health.Dead),
						strconv.Itoa(health.Total),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Queue", "Pending", "Processing", "Done", "Dead", "Total"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var queueFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages in a queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(cfg *config.Config, q *queue.Store) error {
				name, err := resolveQueueName(cfg, queueFlag)
				if err != nil {
					return err
				}
				messages, err := q.Peek(cmd.Context(), name, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(messages) == 0 {
					fmt.Fprintf(out, "Queue %s is empty\n", name)
					return nil
				}

				rows := make([][]string, 0, len(messages))
				for _, msg := range messages {
					rows = append(rows, []string{
						strconv.FormatInt(msg.ID, 10),
						string(msg.Status),
						msg.CreatedAt.Local().Format(time.RFC3339),
						previewBody(msg.Body),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Created", "Body"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&queueFlag, "queue", "q", "inbound", "Queue to inspect (inbound or outbound)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of messages to list")
	return cmd
}

func newQueuePurgeCommand(ctx *commandContext) *cobra.Command {
	var queueFlag string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove done and dead messages from a queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(cfg *config.Config, q *queue.Store) error {
				name, err := resolveQueueName(cfg, queueFlag)
				if err != nil {
					return err
				}
				purged, err := q.Purge(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d message(s) from %s\n", purged, name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&queueFlag, "queue", "q", "inbound", "Queue to purge (inbound or outbound)")
	return cmd
}

func previewBody(body []byte) string {
	const maxPreview = 60
	text := strings.Join(strings.Fields(string(body)), " ")
	if len(text) > maxPreview {
		return text[:maxPreview-3] + "..."
	}
	return text
}
