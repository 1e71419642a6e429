package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	apphistory "github.com/bryanwahyu/glowreader/internal/application/history"
)

var (
	clearYes bool
	showHTML string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, replay or clear past analyses",
	Long: `Past analyses are kept locally, newest first, up to 10.

Available subcommands:
  list  - Show saved analyses
  show  - Replay one analysis by id
  clear - Delete all saved analyses`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show saved analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryList(cmd.Context(), app)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Replay a saved analysis without calling the API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryShow(cmd.Context(), app, args[0], showHTML)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryClear(cmd.Context(), app, clearYes)
	},
}

func init() {
	historyShowCmd.Flags().StringVar(&showHTML, "html", "", "Write the replayed result to this HTML file")
	historyClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)
}

func runHistoryList(ctx context.Context, a *App) error {
	entries := a.History.List(ctx)
	if len(entries) == 0 {
		fmt.Fprintln(a.Out, "No past analyses yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tMODE\tSUMMARY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Timestamp, e.Mode, ellipsis(e.SummaryText, 60))
	}
	return tw.Flush()
}

func runHistoryShow(ctx context.Context, a *App, rawID, htmlPath string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", rawID)
	}
	entry, ok := a.History.Get(ctx, id)
	if !ok {
		return fmt.Errorf("no saved analysis with id %d", id)
	}

	p := apphistory.Replay(entry)
	fmt.Fprintf(a.Out, "%s · %s\n\n", entry.Timestamp, entry.Mode)
	show(ctx, a, p)

	if htmlPath != "" {
		return writeHTML(htmlPath, p)
	}
	return nil
}

func runHistoryClear(ctx context.Context, a *App, yes bool) error {
	n := len(a.History.List(ctx))
	if n == 0 {
		fmt.Fprintln(a.Out, "History is already empty.")
		return nil
	}
	if !yes {
		fmt.Fprintf(a.Out, "Clear all %d saved analyses? [y/N] ", n)
		answer, _ := bufio.NewReader(a.In).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(a.Out, "Cancelled.")
			return nil
		}
	}
	if err := a.History.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "History cleared.")
	return nil
}

func ellipsis(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
