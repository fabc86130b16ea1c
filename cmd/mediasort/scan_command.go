package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/catalog"
	"mediasort/internal/config"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan all sources once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			snapshot, err := config.LoadSnapshot(cfg)
			if err != nil {
				return err
			}

			store, err := ledger.Open(cfg.Paths.LedgerPath)
			if err != nil {
				return err
			}
			defer store.Close()

			cat, err := catalog.NewTMDB(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
			if err != nil {
				return err
			}

			s, err := scanner.New(snapshot, cat, store, logger)
			if err != nil {
				return err
			}
			summary, err := s.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), renderSummary(summary))
			return nil
		},
	}
}

func renderSummary(summary *scanner.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d seen, %d placed, %d skipped, %d failed in %s\n",
		summary.RunID, summary.Seen, summary.Placed, summary.Skipped, summary.Failed,
		summary.Finished.Sub(summary.Started).Round(time.Millisecond))

	if len(summary.ByDisposition) == 0 {
		return b.String()
	}
	names := make([]string, 0, len(summary.ByDisposition))
	for name := range summary.ByDisposition {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(summary.ByDisposition[name])})
	}
	b.WriteString(renderTable([]string{"Disposition", "Files"}, rows, 2))
	b.WriteByte('\n')
	return b.String()
}
