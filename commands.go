package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/catalog"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/fuzzy"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/session"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

var (
	envFile string
	dbPath  string
	csvPath string
	cfg     AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "shopbot",
	Short: "Conversational shopping assistant for a grocery catalog",
	Long: `shopbot answers product questions from a SQLite catalog and manages a
shopping cart through a Gemini tool-calling loop.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(envFile); err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.Catalog.DB = dbPath
		}
		if cmd.Flags().Changed("csv") {
			cfg.Catalog.CSV = csvPath
		}
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive shopping session",
	Long: `Starts a chat session on stdin/stdout. Type quit, exit or bye to leave.
When --csv is given the catalog is seeded from it before the session starts.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a CSV product export into the SQLite catalog",
	Long: `Upserts every row of the CSV into the catalog database and, when Redis
is configured, drops cached catalog reads.

Required columns: product_type, product_brand, product_price, product_rating,
product_review, category_type.

Example:
  shopbot import --csv data/sample_catalog.csv --db data/catalog.db`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite catalog path (overrides CATALOG_DB)")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "CSV catalog seed (overrides CATALOG_CSV)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(importCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for chat")
	}

	acc, closeCatalog, err := openCatalog(ctx, cfg, cfg.Catalog.CSV != "")
	if err != nil {
		return err
	}
	defer closeCatalog()

	registry := tools.NewRegistry(acc, fuzzy.New(cfg.Match.Threshold))
	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Decision:     cfg.Decision,
		Conversation: cfg.Conversation,
		Registry:     registry,
	})
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}

	categories, err := acc.ListCategories(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Catalog categories unavailable; welcome message lists none")
	}
	seed, err := prompts.RenderSessionSeed(ctx, cfg.Prompt, categories)
	if err != nil {
		return err
	}

	s := session.New(runner, seed.System, seed.Welcome, cfg.Conversation.ExitKeywords)
	return s.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Catalog.CSV == "" {
		return fmt.Errorf("--csv (or CATALOG_CSV) is required")
	}

	_, closeCatalog, err := openCatalog(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeCatalog()

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into %s\n", cfg.Catalog.CSV, cfg.Catalog.DB)
	return nil
}

// openCatalog opens the SQLite catalog, optionally seeds it from the CSV, and
// fronts it with the Redis cache when Redis is configured. A Redis outage
// leaves the catalog uncached.
func openCatalog(ctx context.Context, cfg AppConfig, seed bool) (catalog.Accessor, func(), error) {
	if dir := filepath.Dir(cfg.Catalog.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}
	db, err := catalog.OpenSQLite(cfg.Catalog.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	closers := []func() error{db.Close}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	if seed {
		n, err := importCSV(ctx, db, cfg.Catalog.CSV)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		logx.Info().Int("rows", n).Str("csv", cfg.Catalog.CSV).Str("db", cfg.Catalog.DB).Msg("Catalog imported")
	}

	if !cfg.Redis.Enabled() {
		return db, closeAll, nil
	}
	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Warn().Err(err).Msg("Redis unavailable; catalog reads are uncached")
		return db, closeAll, nil
	}
	closers = append(closers, rdb.Close)

	cache := catalog.NewRedisCache(db, rdb, cfg.Catalog.CacheTTL)
	if seed {
		if n, err := cache.Invalidate(ctx); err != nil {
			logx.Warn().Err(err).Msg("Failed to invalidate catalog cache")
		} else {
			logx.Debug().Int("keys", n).Msg("Catalog cache invalidated")
		}
	}
	return cache, closeAll, nil
}

func importCSV(ctx context.Context, db *catalog.SQLite, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	products, err := catalog.LoadCSV(f)
	if err != nil {
		return 0, fmt.Errorf("load csv %s: %w", path, err)
	}
	return db.Import(ctx, products)
}
