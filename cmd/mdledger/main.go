// mdledger maintains a structural header index and a row-level content
// ledger for a collection of markdown documents, so agents and tools can
// read a specific section or row instead of whole files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/mdledger/internal/config"
	"github.com/dgallion1/mdledger/internal/index"
	"github.com/dgallion1/mdledger/internal/ledger"
	"github.com/dgallion1/mdledger/internal/store"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

// Flag overrides for the env-based config.
var (
	flagDB   string
	flagRoot string
)

// app bundles the wired services behind every subcommand.
type app struct {
	cfg     config.Config
	store   *store.Store
	indexer *index.Indexer
	ledger  *ledger.Service
	log     *slog.Logger
}

func openApp() (*app, error) {
	cfg := config.Load()
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagRoot != "" {
		cfg.Root = flagRoot
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   st,
		indexer: index.New(st, cfg.Root, log),
		ledger:  ledger.New(st, cfg.Root, log),
		log:     log,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "mdledger",
		Short:   "Structure-aware markdown navigation and table ledger",
		Version: version,
		Long: `mdledger keeps a persistent index of markdown header hierarchy with
automatic freshness management, and a ledger of pipe-delimited table rows
keyed by stable row ids, enabling targeted section access, content search
with provenance, and single-row in-place updates.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "ledger database path (default $MDLEDGER_DB or ledger.db)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "markdown document root (default $MDLEDGER_ROOT or .)")

	rootCmd.AddCommand(
		newIndexCmd(),
		newHeadersCmd(),
		newFindSectionCmd(),
		newFindContentCmd(),
		newShowCmd(),
		newIngestCmd(),
		newQueryCmd(),
		newUpdateCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
