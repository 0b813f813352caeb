package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"malpha/internal/history"
	"malpha/internal/ui"
)

var (
	flagClear  bool
	flagRemove string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, reopen or prune download history",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all history entries")
	historyCmd.Flags().StringVar(&flagRemove, "remove", "", "Delete the entries of one descriptor ID")
}

func historyRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, err := history.OpenDefault()
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	switch {
	case flagClear:
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("History cleared.")
		return nil
	case flagRemove != "":
		if err := store.Remove(ctx, flagRemove); err != nil {
			return err
		}
		fmt.Printf("Removed %s.\n", flagRemove)
		return nil
	}

	entries, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if flagJSON {
		return printJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	items := history.FormatForDisplay(entries)
	if !ui.Interactive() {
		for _, it := range items {
			fmt.Println(it)
		}
		return nil
	}

	idx, err := ui.Select("History", items)
	if err != nil {
		return err
	}
	selected := entries[idx]
	logger.Debugf("reopening: %s (ID: %s)", selected.InputURL, selected.ID)

	return reopen(ctx, selected.InputURL)
}

// reopen resolves a past input URL again; stored media links expire.
func reopen(ctx context.Context, inputURL string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	r, err := newResolver(client)
	if err != nil {
		return err
	}
	d, err := r.Resolve(ctx, inputURL)
	if err != nil {
		return err
	}
	fmt.Println(ui.Card(d))
	return nil
}
