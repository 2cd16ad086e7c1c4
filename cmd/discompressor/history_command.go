package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"discompressor/internal/api"
	"discompressor/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past transcodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "History is disabled")
				return nil
			}
			return ctx.withService(cmd, func(svc *api.Service) error {
				records, err := svc.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if records == nil {
						records = []api.TranscodeRecord{}
					}
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No transcodes recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderHistory(records))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistoryStore(func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
				return nil
			})
		},
	}
}

func renderHistory(records []api.TranscodeRecord) string {
	title := cases.Title(language.Und)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		output := "-"
		if r.OutputBytes > 0 {
			output = humanize.Bytes(uint64(r.OutputBytes))
		}
		rows = append(rows, []string{
			r.FinishedAt,
			filepath.Base(r.InputPath),
			strconv.Itoa(r.TargetMB) + " MB",
			output,
			title.String(r.Outcome),
			time.Duration(r.ElapsedSeconds * float64(time.Second)).Round(time.Second).String(),
		})
	}
	return renderTable(
		[]string{"Finished", "Input", "Target", "Output", "Outcome", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
	)
}
