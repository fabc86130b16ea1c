package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Scan ledger utilities",
	}

	ledgerCmd.AddCommand(newLedgerStatsCommand(ctx))
	ledgerCmd.AddCommand(newLedgerRecentCommand(ctx))
	ledgerCmd.AddCommand(newLedgerClearCommand(ctx))

	return ledgerCmd
}

func newLedgerStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded scan outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				stats, err := store.Summarize(cmd.Context())
				if err != nil {
					return err
				}

				rows := [][]string{
					{"total", strconv.Itoa(stats.Total)},
					{"succeeded", strconv.Itoa(stats.Succeeded)},
					{"failed", strconv.Itoa(stats.Failed)},
				}
				names := make([]string, 0, len(stats.ByDisposition))
				for name := range stats.ByDisposition {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					rows = append(rows, []string{name, strconv.Itoa(stats.ByDisposition[name])})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Outcome", "Files"}, rows, 2))
				return nil
			})
		},
	}
}

func newLedgerRecentCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently processed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				entries, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Ledger is empty")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					detail := entry.DestinationPath
					if !entry.Success && entry.Error != "" {
						detail = entry.Error
					}
					rows = append(rows, []string{
						entry.ProcessedAt.Local().Format(time.DateTime),
						entry.RelPath,
						entry.MediaType,
						entry.Disposition,
						detail,
					})
				}

				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"Processed", "File", "Type", "Disposition", "Destination / Error"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}

func newLedgerClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all recorded files so the next scan reprocesses everything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Ledger cleared")
				return nil
			})
		},
	}
}
