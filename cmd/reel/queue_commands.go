package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reel/internal/ipc"
	"reel/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	queueCmd.AddCommand(newQueueDBCheckCommand(ctx))

	return queueCmd
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				stats := make(map[string]int)
				if client != nil {
					resp, err := client.Status()
					if err != nil {
						return err
					}
					stats = resp.QueueStats
				} else {
					raw, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					for status, count := range raw {
						stats[string(status)] = count
					}
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
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var wireItems []ipc.QueueItem
				if client != nil {
					resp, err := client.QueueList(listStatuses)
					if err != nil {
						return err
					}
					wireItems = resp.Items
				} else {
					var statuses []queue.Status
					for _, raw := range listStatuses {
						if parsed, ok := queue.ParseStatus(raw); ok {
							statuses = append(statuses, parsed)
						}
					}
					items, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					wireItems = make([]ipc.QueueItem, 0, len(items))
					for _, item := range items {
						wireItems = append(wireItems, ipc.FromQueueItem(item))
					}
				}

				if ctx.JSONMode() {
					if wireItems == nil {
						wireItems = []ipc.QueueItem{}
					}
					return writeJSON(cmd, wireItems)
				}

				if len(wireItems) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Kind", "Status", "Created", "Hash"},
					buildQueueListRows(wireItems),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show details for a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			id := ids[0]

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var wireItem *ipc.QueueItem
				if client != nil {
					resp, err := client.QueueDescribe(id)
					if err != nil {
						if strings.Contains(strings.ToLower(err.Error()), "not found") {
							wireItem = nil
						} else {
							return err
						}
					} else if resp != nil {
						wireItem = &resp.Item
					}
				} else {
					item, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if item != nil {
						converted := ipc.FromQueueItem(item)
						wireItem = &converted
					}
				}

				if wireItem == nil {
					if ctx.JSONMode() {
						return writeJSON(cmd, map[string]any{"error": "not_found", "id": id})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Item %d not found\n", id)
					return nil
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, wireItem)
				}

				printQueueItemDetail(cmd, *wireItem)
				return nil
			})
		},
	}
}

func printQueueItemDetail(cmd *cobra.Command, item ipc.QueueItem) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Item #%d: %s\n", item.ID, item.Title)
	fmt.Fprintf(out, "  Kind: %s\n", formatKindLabel(item.Kind))
	fmt.Fprintf(out, "  Status: %s\n", formatStatusLabel(item.Status))
	fmt.Fprintf(out, "  Source: %s\n", item.SourcePath)
	if item.ContentHash != "" {
		fmt.Fprintf(out, "  Content hash: %s\n", item.ContentHash)
	}
	if item.ProgressStage != "" {
		fmt.Fprintf(out, "  Progress: %s (%.0f%%)", item.ProgressStage, item.ProgressPercent)
		if item.ProgressMessage != "" {
			fmt.Fprintf(out, " %s", item.ProgressMessage)
		}
		fmt.Fprintln(out)
	}
	artifacts := []struct {
		label string
		path  string
	}{
		{"Transcript", item.TranscriptFile},
		{"Edited video", item.EditedFile},
		{"Chapters", item.ChaptersFile},
		{"Rendered video", item.RenderedFile},
		{"Final output", item.FinalFile},
	}
	for _, artifact := range artifacts {
		if strings.TrimSpace(artifact.path) != "" {
			fmt.Fprintf(out, "  %s: %s\n", artifact.label, artifact.path)
		}
	}
	if item.NeedsReview {
		reason := strings.TrimSpace(item.ReviewReason)
		if reason == "" {
			reason = "unspecified"
		}
		fmt.Fprintf(out, "  Needs review: %s\n", reason)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error: %s\n", item.ErrorMessage)
	}
	if item.ItemLogPath != "" {
		fmt.Fprintf(out, "  Log: %s\n", item.ItemLogPath)
	}
	fmt.Fprintf(out, "  Created: %s\n", formatDisplayTime(item.CreatedAt))
	fmt.Fprintf(out, "  Updated: %s\n", formatDisplayTime(item.UpdatedAt))
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
				var removed int64
				var label string
				var err error

				switch {
				case clearCompleted:
					label = "completed items"
					if client != nil {
						var resp *ipc.QueueClearCompletedResponse
						resp, err = client.QueueClearCompleted()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearCompleted(cmd.Context())
					}
				case clearFailed:
					label = "failed items"
					if client != nil {
						var resp *ipc.QueueClearFailedResponse
						resp, err = client.QueueClearFailed()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearFailed(cmd.Context())
					}
				default:
					label = "queue items"
					if client != nil {
						var resp *ipc.QueueClearResponse
						resp, err = client.QueueClear()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.Clear(cmd.Context())
					}
				}
				if err != nil {
					return err
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": removed})
				}
				fmt.Fprintf(out, "Cleared %d %s\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed items")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight items to their stage start",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				var err error
				if client != nil {
					var resp *ipc.QueueResetResponse
					resp, err = client.QueueReset()
					if err == nil {
						updated = resp.Updated
					}
				} else {
					updated, err = store.ResetStuckProcessing(cmd.Context())
				}
				if err != nil {
					return err
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"updated": updated})
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
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				var retryErr error
				if client != nil {
					var resp *ipc.QueueRetryResponse
					resp, retryErr = client.QueueRetry(ids)
					if retryErr == nil {
						updated = resp.Updated
					}
				} else {
					updated, retryErr = store.RetryFailed(cmd.Context(), ids...)
				}
				if retryErr != nil {
					return retryErr
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"updated": updated})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed items\n", updated)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID...>",
		Short: "Remove specific queue items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				var removeErr error
				if client != nil {
					var resp *ipc.QueueRemoveResponse
					resp, removeErr = client.QueueRemove(ids)
					if removeErr == nil {
						removed = resp.Removed
					}
				} else {
					for _, id := range ids {
						ok, err := store.Remove(cmd.Context(), id)
						if err != nil {
							return err
						}
						if ok {
							removed++
						}
					}
				}
				if removeErr != nil {
					return removeErr
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items\n", removed)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var health queue.HealthSummary
				if client != nil {
					resp, err := client.QueueHealth()
					if err != nil {
						return err
					}
					health = queue.HealthSummary{
						Total:      resp.Total,
						Pending:    resp.Pending,
						Processing: resp.Processing,
						Failed:     resp.Failed,
						Review:     resp.Review,
						Completed:  resp.Completed,
					}
				} else {
					summary, err := store.Health(cmd.Context())
					if err != nil {
						return err
					}
					health = summary
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"total":      health.Total,
						"pending":    health.Pending,
						"processing": health.Processing,
						"failed":     health.Failed,
						"review":     health.Review,
						"completed":  health.Completed,
					})
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

func newQueueDBCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "db-check",
		Short: "Check queue database health (schema, integrity, columns)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", resp.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(resp.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(resp.DatabaseReadable))
				fmt.Fprintf(out, "Schema version: %s\n", resp.SchemaVersion)
				fmt.Fprintf(out, "queue_items table present: %s\n", yesNo(resp.TableExists))
				if len(resp.ColumnsPresent) > 0 {
					cols := append([]string(nil), resp.ColumnsPresent...)
					sort.Strings(cols)
					fmt.Fprintf(out, "Columns: %s\n", strings.Join(cols, ", "))
				}
				if len(resp.MissingColumns) > 0 {
					missing := append([]string(nil), resp.MissingColumns...)
					sort.Strings(missing)
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
				} else {
					fmt.Fprintln(out, "Missing columns: none")
				}
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(resp.IntegrityCheck))
				fmt.Fprintf(out, "Total items: %d\n", resp.TotalItems)
				if resp.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", resp.Error)
				}
				return nil
			})
		},
	}
}
