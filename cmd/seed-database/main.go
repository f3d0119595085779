package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/forgo/storefront-e2e/internal/config"
	"github.com/forgo/storefront-e2e/internal/harness"
	"github.com/forgo/storefront-e2e/internal/service"
)

var (
	flagReset  bool
	flagJSON   bool
	flagFiller int
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON logs and a JSON report")
	rootCmd.Flags().BoolVar(&flagReset, "reset", false, "truncate fixture tables first (requires E2E_RESET_DATABASE=true)")
	rootCmd.Flags().IntVar(&flagFiller, "filler", -1, "filler customers to generate (default SEED_FILLER_CUSTOMERS)")

	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(teardownCmd)
}

var rootCmd = &cobra.Command{
	Use:   "seed-database",
	Short: "Seed the storefront store with e2e fixtures",
	Long: `Seed the storefront's SurrealDB with the canonical e2e fixtures, expanded
over the lanes in E2E_LANES.

Seeding is idempotent: records already present are skipped and drifted
credentials or keys are restored. A record whose identity disagrees with its
fixture aborts the run.

Examples:
  seed-database
  seed-database --filler 100
  E2E_RESET_DATABASE=true seed-database --reset`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHarness(cmd, func(ctx context.Context, h *harness.Harness) error {
			opts := harness.SeedOptions{Reset: flagReset}
			if cmd.Flags().Changed("filler") {
				opts.Filler = &flagFiller
			}
			report, err := h.Setup(ctx, opts)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, flagJSON)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Truncate every fixture table (requires E2E_RESET_DATABASE=true)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHarness(cmd, func(ctx context.Context, h *harness.Harness) error {
			if err := h.Connect(ctx); err != nil {
				return err
			}
			return h.Seeder.ResetDatabase(ctx)
		})
	},
}

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Delete every record carrying the seed tag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHarness(cmd, func(ctx context.Context, h *harness.Harness) error {
			if err := h.Connect(ctx); err != nil {
				return err
			}
			result, err := h.Seeder.Teardown(ctx)
			if err != nil {
				return err
			}
			return printCleanup(cmd.OutOrStdout(), result, flagJSON)
		})
	},
}

// withHarness loads configuration, wires the stack and runs fn with a
// context cancelled on SIGINT or SIGTERM
func withHarness(cmd *cobra.Command, fn func(context.Context, *harness.Harness) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log, flagJSON)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := harness.New(cfg, logger)
	defer func() { _ = h.Close() }()

	return fn(ctx, h)
}

// newLogger renders through charmbracelet/log unless JSON is requested
func newLogger(w io.Writer, cfg config.LogConfig, forceJSON bool) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if forceJSON || cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           log.Level(level),
		Prefix:          "seed",
		TimeFormat:      time.Kitchen,
		ReportTimestamp: true,
	})
	return slog.New(handler)
}

func printReport(w io.Writer, r *service.SeedReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "seed run %s (tag %q, lanes %v)\n", r.RunID, r.SeedTag, r.Lanes)
	tables := make([]string, 0, len(r.Tables))
	for name := range r.Tables {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for _, name := range tables {
		c := r.Tables[name]
		fmt.Fprintf(w, "  %-10s created %4d  skipped %4d  rearmed %4d\n", name, c.Created, c.Skipped, c.Rearmed)
	}
	fmt.Fprintf(w, "total: %d created, %d skipped, %d rearmed, %d filler customers in %dms\n",
		r.Created, r.Skipped, r.Rearmed, r.Filler, r.Duration)
	return nil
}

func printCleanup(w io.Writer, r *service.CleanupResult, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(r)
	}
	fmt.Fprintf(w, "deleted %d records in %dms\n", r.Deleted, r.Duration)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("seed-database failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
