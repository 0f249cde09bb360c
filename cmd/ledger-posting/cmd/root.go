// Package cmd provides CLI commands for ledger-posting.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/accountcache"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/categorize"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/config"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/pathutil"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/posting"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	owner   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger-posting",
	Short: "Post categorized bank transactions to a double-entry ledger",
	Long: `ledger-posting turns imported bank transactions into balanced
journal entries.

It supports:
- Seeding a chart of accounts from YAML
- Categorizing bank transactions
- Posting one or many transactions as two-line journal entries
- Exporting posted entries to Beancount files
- Serving the same operations over HTTP

Example:
  ledger-posting seed --owner acme
  ledger-posting categorize 7f3c... --category "Office Supplies"
  ledger-posting bulk-post --all-categorized
  ledger-posting stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "", "owner id (default is LEDGER_OWNER_ID)")

	// Add subcommands
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(categorizeCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(bulkPostCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

// ledgerEnv is everything an owner-scoped command needs.
type ledgerEnv struct {
	cfg   *config.Config
	paths *pathutil.PathResolver
	conn  *db.Connection
	cache *accountcache.Cache // nil when another process holds it
	store *db.Store
}

// openLedger loads configuration and opens the database and account cache
// for the owner given by --owner or LEDGER_OWNER_ID.
func openLedger() *ledgerEnv {
	// Load configuration
	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")

	if owner != "" {
		cfg.Posting.OwnerID = owner
	}

	// Validate required fields
	if err := cfg.Validate(
		[]string{"ledger", "root"},
		[]string{"posting", "ownerId"},
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	paths := newPathResolver(cfg)

	dbPath := paths.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")

	// The cache is optional; a running server may hold its lock.
	cache, err := accountcache.OpenOptional(paths.GetCachePath(), slog.Default())
	if err != nil {
		conn.Close()
		exitOnError(err, "failed to open account cache")
	}

	return &ledgerEnv{
		cfg:   cfg,
		paths: paths,
		conn:  conn,
		cache: cache,
		store: db.NewStore(conn, cfg.Posting.OwnerID),
	}
}

func newPathResolver(cfg *config.Config) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		Root:         cfg.Ledger.Root,
		DatabasePath: cfg.Ledger.DBPath,
		CachePath:    cfg.Ledger.CachePath,
		ExportDir:    cfg.Ledger.ExportDir,
		ChartPath:    cfg.Ledger.ChartPath,
		MappingPath:  cfg.Ledger.MappingPath,
	})
}

func (e *ledgerEnv) Close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			slog.Error("failed to close account cache", "error", err)
		}
	}
	if err := e.conn.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}

func (e *ledgerEnv) engine() *posting.Engine {
	daySource, err := posting.ParseDaySource(e.cfg.Posting.EntryDateSource)
	exitOnError(err, "invalid configuration")

	cfg := posting.Config{DaySource: daySource}
	if e.cache != nil {
		cfg.Resolver = posting.CachedResolver{Cache: e.cache.ForOwner(e.store.OwnerID())}
	}
	return posting.NewEngine(posting.FromStore(e.store), cfg)
}

func (e *ledgerEnv) categorizer() *categorize.Service {
	if e.cache == nil {
		return categorize.NewService(e.store)
	}
	return categorize.NewService(e.store, categorize.WithCache(e.cache.ForOwner(e.store.OwnerID())))
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
