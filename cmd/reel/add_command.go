package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reel/internal/assetcache"
	"reel/internal/ipc"
	"reel/internal/queue"
	"reel/internal/textutil"
)

var videoExtensions = map[string]struct{}{
	".mp4": {},
	".mkv": {},
	".mov": {},
}

const deckExtension = ".md"

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Add a screencast recording or markdown deck to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			ext := strings.ToLower(filepath.Ext(info.Name()))
			if _, ok := videoExtensions[ext]; !ok && ext != deckExtension {
				return fmt.Errorf("unsupported file extension %q", ext)
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var wireItem ipc.QueueItem
				var existed bool

				if client != nil {
					resp, err := client.Add(absPath)
					if err != nil {
						return err
					}
					if resp == nil {
						return errors.New("empty response from daemon")
					}
					wireItem = resp.Item
					existed = resp.Existed
				} else {
					item, wasExisting, err := enqueueDirect(cmd.Context(), store, absPath, ext)
					if err != nil {
						return err
					}
					wireItem = ipc.FromQueueItem(item)
					existed = wasExisting
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"item": wireItem, "existed": existed})
				}

				out := cmd.OutOrStdout()
				if existed {
					fmt.Fprintf(out, "Already queued as item #%d (%s)\n", wireItem.ID, wireItem.Title)
					return nil
				}
				fmt.Fprintf(out, "Queued %s as item #%d (%s)\n", formatKindLabel(wireItem.Kind), wireItem.ID, wireItem.Title)
				return nil
			})
		},
	}
}

// enqueueDirect mirrors the daemon's enqueue path for when the daemon is down:
// hash the source, dedupe on content hash, derive a display title.
func enqueueDirect(ctx context.Context, store *queue.Store, absPath, ext string) (*queue.Item, bool, error) {
	contentHash, err := assetcache.HashFile(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("hash source file: %w", err)
	}

	existing, err := store.FindByContentHash(ctx, contentHash)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	title := textutil.DeriveTitle(absPath)
	if ext == deckExtension {
		item, err := store.NewSlideshow(ctx, absPath, title, contentHash)
		return item, false, err
	}
	item, err := store.NewScreencast(ctx, absPath, title, contentHash)
	return item, false, err
}
