package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"malpha/internal/download"
	"malpha/internal/history"
	"malpha/internal/httputil"
	"malpha/internal/media"
	"malpha/internal/ui"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func resolveRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient()
	if err != nil {
		return err
	}
	r, err := newResolver(client)
	if err != nil {
		return err
	}

	d, err := r.Resolve(ctx, args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		if err := printJSON(d); err != nil {
			return err
		}
	} else {
		fmt.Println(ui.Card(d))
	}

	if !cmd.Flags().Changed("download") {
		return nil
	}
	return downloadFlow(ctx, client, d)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// downloadFlow saves the chosen sources and records them in the history.
func downloadFlow(ctx context.Context, client httputil.Doer, d *media.Descriptor) error {
	dir := flagDownload
	if dir == downloadToConfigDir {
		dir = cfg.DownloadDir
	}
	expanded := *cfg
	expanded.DownloadDir = dir
	dir, err := expanded.ExpandDownloadDir()
	if err != nil {
		return fmt.Errorf("resolving download dir: %w", err)
	}

	indexes, err := chooseSources(d)
	if err != nil {
		return err
	}

	var store *history.Store
	if cfg.History {
		store, err = history.OpenDefault()
		if err != nil {
			logger.WithError(err).Warn("history disabled for this run")
		} else {
			defer store.Close()
		}
	}

	for _, i := range indexes {
		path, err := download.Download(ctx, client, d, i, dir)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", d.Sources[i].Label, err)
		}
		fmt.Fprintf(os.Stderr, "Downloaded: %s\n", path)

		if store == nil {
			continue
		}
		if err := store.Save(ctx, historyEntry(d, i, path)); err != nil {
			logger.WithError(err).Warn("could not record history")
		}
	}
	return nil
}

// chooseSources picks which sources to download: all of them with --all,
// the user's choice when several exist on a terminal, else the first.
func chooseSources(d *media.Descriptor) ([]int, error) {
	switch {
	case flagAll:
		idx := make([]int, len(d.Sources))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	case len(d.Sources) > 1 && ui.Interactive() && !flagJSON:
		i, err := ui.Select("Download which?", ui.SourceLabels(d))
		if err != nil {
			return nil, err
		}
		return []int{i}, nil
	default:
		return []int{0}, nil
	}
}

func historyEntry(d *media.Descriptor, i int, path string) media.HistoryEntry {
	return media.HistoryEntry{
		ID:           d.ID,
		InputURL:     d.InputURL,
		Platform:     d.Platform,
		Kind:         d.Kind,
		Author:       d.Author,
		Caption:      d.Caption,
		ThumbnailURL: d.ThumbnailURL,
		SourceURI:    d.Sources[i].URI,
		Path:         path,
		DownloadedAt: time.Now(),
	}
}
