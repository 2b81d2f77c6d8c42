package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"podbrief/internal/api"
	"podbrief/internal/ipc"
	"podbrief/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the episode queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueDescribeCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueHealthSubcommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var stats map[string]int

				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					stats = status.QueueStats
				} else {
					raw, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					stats = api.MergeQueueStats(raw)
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, stats)
				}

				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var items []ipc.QueueItem

				if client != nil {
					resp, err := client.QueueList(listStatuses)
					if err != nil {
						return err
					}
					items = resp.Items
				} else {
					var statuses []queue.Status
					for _, value := range listStatuses {
						status, ok := queue.ParseStatus(value)
						if !ok {
							return fmt.Errorf("unknown status %q", value)
						}
						statuses = append(statuses, status)
					}
					records, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					items = api.FromEpisodes(records)
				}

				if ctx.JSONMode() {
					if items == nil {
						items = []ipc.QueueItem{}
					}
					return writeJSON(cmd, items)
				}

				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Feed", "Title", "Status", "Published"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <itemID>",
		Short: "Show full details for one queued episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var item ipc.QueueItem

				if client != nil {
					resp, err := client.QueueDescribe(id)
					if err != nil {
						return err
					}
					item = resp.Item
				} else {
					record, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if record == nil {
						return fmt.Errorf("queue item %d not found", id)
					}
					item = api.FromEpisode(record)
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, item)
				}
				printQueueItemDetail(cmd, item)
				return nil
			})
		},
	}
}

func printQueueItemDetail(cmd *cobra.Command, item ipc.QueueItem) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID: %d\n", item.ID)
	fmt.Fprintf(out, "Feed: %s\n", item.FeedName)
	fmt.Fprintf(out, "Title: %s\n", item.Title)
	fmt.Fprintf(out, "GUID: %s\n", item.GUID)
	fmt.Fprintf(out, "Status: %s\n", formatStatusLabel(item.Status))
	fmt.Fprintf(out, "Lane: %s\n", item.ProcessingLane)
	if item.PageURL != "" {
		fmt.Fprintf(out, "Page URL: %s\n", item.PageURL)
	}
	if item.WatchURL != "" {
		fmt.Fprintf(out, "Watch URL: %s\n", item.WatchURL)
	}
	if item.VideoID != "" {
		fmt.Fprintf(out, "Video ID: %s\n", item.VideoID)
	}
	if item.TranscriptSource != "" {
		fmt.Fprintf(out, "Transcript source: %s\n", item.TranscriptSource)
	}
	if item.TranscriptChars > 0 {
		fmt.Fprintf(out, "Transcript length: %d chars\n", item.TranscriptChars)
	}
	if summary := strings.TrimSpace(item.Summary); summary != "" {
		fmt.Fprintf(out, "Summary:\n%s\n", summary)
	}
	if item.MessageID > 0 {
		fmt.Fprintf(out, "Telegram message ID: %d\n", item.MessageID)
	}
	if stage := strings.TrimSpace(item.Progress.Stage); stage != "" {
		fmt.Fprintf(out, "Progress: %s (%.0f%%)\n", stage, item.Progress.Percent)
	}
	if item.RetryCount > 0 {
		fmt.Fprintf(out, "Retry count: %d\n", item.RetryCount)
	}
	if item.NeedsReview {
		fmt.Fprintf(out, "Needs review: %s\n", item.ReviewReason)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", item.ErrorMessage)
	}
	if published := formatDisplayTime(item.PublishedAt); published != "" {
		fmt.Fprintf(out, "Published: %s\n", published)
	}
	if created := formatDisplayTime(item.CreatedAt); created != "" {
		fmt.Fprintf(out, "Created: %s\n", created)
	}
	if updated := formatDisplayTime(item.UpdatedAt); updated != "" {
		fmt.Fprintf(out, "Updated: %s\n", updated)
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()

				if client != nil {
					switch {
					case clearCompleted:
						resp, err := client.QueueClearCompleted()
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "Cleared %d completed items\n", resp.Removed)
					case clearFailed:
						resp, err := client.QueueClearFailed()
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "Cleared %d failed items\n", resp.Removed)
					default:
						resp, err := client.QueueClear()
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "Cleared %d queue items\n", resp.Removed)
					}
					return nil
				}

				var removed int64
				var err error
				switch {
				case clearCompleted:
					removed, err = store.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed items\n", removed)
				case clearFailed:
					removed, err = store.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed items\n", removed)
				default:
					removed, err = store.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d queue items\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed items")
	return cmd
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				if client != nil {
					resp, err := client.QueueClearFailed()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed items\n", resp.Removed)
					return nil
				}
				removed, err := store.ClearFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed items\n", removed)
				return nil
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight episodes to their last stable status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				if client != nil {
					resp, err := client.QueueReset()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Reset %d items\n", resp.Updated)
					return nil
				}
				updated, err := store.ResetStuckProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d items\n", updated)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Retry failed queue items",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()

				if client != nil {
					if len(ids) == 0 {
						resp, err := client.QueueRetry(nil)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "Retried %d failed items\n", resp.Updated)
						return nil
					}

					resp, err := client.QueueList(nil)
					if err != nil {
						return err
					}
					itemsByID := make(map[int64]ipc.QueueItem, len(resp.Items))
					for _, item := range resp.Items {
						itemsByID[item.ID] = item
					}

					for _, id := range ids {
						item, ok := itemsByID[id]
						if !ok {
							fmt.Fprintf(out, "Item %d not found\n", id)
							continue
						}
						if strings.ToLower(strings.TrimSpace(item.Status)) != string(queue.StatusFailed) {
							fmt.Fprintf(out, "Item %d is not in failed state\n", id)
							continue
						}
						retryResp, retryErr := client.QueueRetry([]int64{id})
						if retryErr != nil {
							return retryErr
						}
						if retryResp.Updated > 0 {
							fmt.Fprintf(out, "Item %d reset for retry\n", id)
						} else {
							fmt.Fprintf(out, "Item %d is not in failed state\n", id)
						}
					}
					return nil
				}

				if len(ids) == 0 {
					updated, err := store.RetryFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed items\n", updated)
					return nil
				}

				for _, id := range ids {
					item, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if item == nil {
						fmt.Fprintf(out, "Item %d not found\n", id)
						continue
					}
					if item.Status != queue.StatusFailed {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
						continue
					}
					updated, err := store.RetryFailed(cmd.Context(), id)
					if err != nil {
						return err
					}
					if updated > 0 {
						fmt.Fprintf(out, "Item %d reset for retry\n", id)
					} else {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueHealthSubcommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var health ipc.QueueHealthResponse

				if client != nil {
					resp, err := client.QueueHealth()
					if err != nil {
						return err
					}
					health = *resp
				} else {
					summary, err := store.Health(cmd.Context())
					if err != nil {
						return err
					}
					health = ipc.QueueHealthResponse{
						Total:      summary.Total,
						Pending:    summary.Pending,
						Processing: summary.Processing,
						Failed:     summary.Failed,
						Review:     summary.Review,
						Completed:  summary.Completed,
					}
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, health)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nProcessing: %d\nFailed: %d\nReview: %d\nCompleted: %d\n",
					health.Total,
					health.Pending,
					health.Processing,
					health.Failed,
					health.Review,
					health.Completed,
				)
				return nil
			})
		},
	}
}
