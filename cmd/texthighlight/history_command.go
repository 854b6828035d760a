package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"texthighlight/internal/history"
)

type historyRow struct {
	ID        string          `json:"id"`
	AudioPath string          `json:"audio_path"`
	Status    bool            `json:"status"`
	Kind      string          `json:"kind,omitempty"`
	Message   string          `json:"message,omitempty"`
	MarkCount int             `json:"mark_count"`
	Time      float64         `json:"time"`
	CreatedAt time.Time       `json:"created_at"`
	Result    json.RawMessage `json:"result,omitempty"`
}

func toHistoryRow(e history.Entry) historyRow {
	return historyRow{
		ID:        e.ID,
		AudioPath: e.AudioPath,
		Status:    e.Status,
		Kind:      e.Kind,
		Message:   e.Message,
		MarkCount: e.MarkCount,
		Time:      e.Elapsed,
		CreatedAt: e.CreatedAt,
		Result:    e.Result,
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent alignment runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				rows := make([]historyRow, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, toHistoryRow(e))
				}
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.ID,
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					outcomeLabel(e.Status),
					strconv.Itoa(e.MarkCount),
					strconv.FormatFloat(e.Elapsed, 'f', 2, 64),
					e.AudioPath,
					e.Kind,
				})
			}
			fmt.Fprintln(out, renderTable([]tableColumn{
				{Header: "Run"},
				{Header: "Started"},
				{Header: "Outcome"},
				{Header: "Marks", Align: alignRight},
				{Header: "Seconds", Align: alignRight},
				{Header: "Audio", MaxWidth: 48},
				{Header: "Error"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, history.ErrNotFound) {
					return fmt.Errorf("run %s not found", strings.TrimSpace(args[0]))
				}
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, toHistoryRow(*entry))
			}

			panel := newStatusPanel(cmd.OutOrStdout(), "Run "+entry.ID)
			panel.check("Outcome", entry.Status, entry.Kind)
			panel.info("Audio", entry.AudioPath)
			panel.info("Started", entry.CreatedAt.Local().Format(time.RFC3339))
			panel.info("Elapsed", strconv.FormatFloat(entry.Elapsed, 'f', 2, 64)+"s")
			panel.info("Marks", strconv.Itoa(entry.MarkCount))
			if entry.Message != "" {
				panel.line("Message", statusError, entry.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON including the stored result")
	return cmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("run history is disabled (history.enabled = false)")
	}
	return history.Open(cfg.HistoryPath(), cfg.History.MaxRows)
}
