// Package cli provides the command-line interface for saucier.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/philippgille/chromem-go"
	"github.com/spf13/cobra"

	"github.com/saucier-dev/saucier/internal/cache"
	"github.com/saucier-dev/saucier/internal/config"
	"github.com/saucier-dev/saucier/internal/llm"
	"github.com/saucier-dev/saucier/internal/service"
	"github.com/saucier-dev/saucier/internal/vectorstore"
	chromemstore "github.com/saucier-dev/saucier/internal/vectorstore/chromem"
	"github.com/saucier-dev/saucier/internal/vectorstore/memory"
	"github.com/saucier-dev/saucier/internal/vectorstore/postgres"
	"github.com/saucier-dev/saucier/internal/vectorstore/surreal"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string

	// Global config and backend handles
	cfg      config.Config
	stores   *Stores
	logClose func() error

	// Lazy-initialized LLM components
	embedder llm.Embedder
	model    *llm.Model
)

// Collection names, one vector store collection per concern.
const (
	recipeCollection   = "recipes"
	cacheCollection    = "search_cache"
	exchangeCollection = "chat_exchanges"
	sessionCollection  = "chat_sessions"
)

// Stores bundles the per-collection vector stores plus whatever backend
// handle has to be closed on shutdown.
type Stores struct {
	Recipes   vectorstore.Store
	Cache     vectorstore.Store
	Exchanges vectorstore.Store
	Sessions  vectorstore.Store

	close func(context.Context) error
}

// Close releases the underlying backend connection, if any.
func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "saucier",
	Short: "Semantic recipe search with a query cache",
	Long: `Saucier is a recipe retrieval service backed by vector similarity search.

Queries are answered from a semantic cache when a similar question was
asked recently; otherwise the configured vector store is searched and the
result cached. Includes a single-turn cooking assistant with an answer
cache and a multi-turn chat with conversational memory.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip backend connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if configFile != "" {
			var err error
			cfg, err = config.LoadFile(cfg, configFile)
			if err != nil {
				return err
			}
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		logClose = closeLog

		var err error
		stores, err = OpenStores(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open vector store: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stores != nil {
			if err := stores.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logClose != nil {
			_ = logClose()
		}
	},
}

// OpenStores connects the configured backend and carves out one store per
// collection. Shared by the CLI and the server entrypoint.
func OpenStores(ctx context.Context, cfg config.Config) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return &Stores{
			Recipes:   memory.New(),
			Cache:     memory.New(),
			Exchanges: memory.New(),
			Sessions:  memory.New(),
		}, nil

	case config.StoreChromem:
		var db *chromem.DB
		var err error
		if cfg.ChromemPath != "" {
			db, err = chromem.NewPersistentDB(cfg.ChromemPath, false)
			if err != nil {
				return nil, fmt.Errorf("open chromem at %s: %w", cfg.ChromemPath, err)
			}
		} else {
			db = chromem.NewDB()
		}
		s := &Stores{}
		for _, c := range []struct {
			name string
			dst  *vectorstore.Store
		}{
			{recipeCollection, &s.Recipes},
			{cacheCollection, &s.Cache},
			{exchangeCollection, &s.Exchanges},
			{sessionCollection, &s.Sessions},
		} {
			store, err := chromemstore.New(db, c.name)
			if err != nil {
				return nil, err
			}
			*c.dst = store
		}
		return s, nil

	case config.StoreSurreal:
		client, err := surreal.NewClient(ctx, surreal.Config{
			URL:       cfg.SurrealURL,
			Namespace: cfg.SurrealNamespace,
			Database:  cfg.SurrealDatabase,
			Username:  cfg.SurrealUser,
			Password:  cfg.SurrealPass,
			AuthLevel: cfg.SurrealAuthLevel,
		}, nil)
		if err != nil {
			return nil, err
		}
		s := &Stores{close: client.Close}
		for _, c := range []struct {
			table string
			dst   *vectorstore.Store
		}{
			{recipeCollection, &s.Recipes},
			{cacheCollection, &s.Cache},
			{exchangeCollection, &s.Exchanges},
			{sessionCollection, &s.Sessions},
		} {
			store, err := surreal.NewStore(ctx, client, c.table, cfg.EmbedDimension)
			if err != nil {
				return nil, err
			}
			*c.dst = store
		}
		return s, nil

	case config.StorePostgres:
		conn, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s := &Stores{close: func(context.Context) error { return conn.Close() }}
		for _, c := range []struct {
			table string
			dst   *vectorstore.Store
		}{
			{recipeCollection, &s.Recipes},
			{cacheCollection, &s.Cache},
			{exchangeCollection, &s.Exchanges},
			{sessionCollection, &s.Sessions},
		} {
			store, err := postgres.NewStore(ctx, conn, c.table, cfg.EmbedDimension)
			if err != nil {
				return nil, err
			}
			*c.dst = store
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// getLLM lazily initializes the embedder and completion model. Commands
// that never touch embeddings skip the provider handshake entirely.
func getLLM() (llm.Embedder, *llm.Model, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("init embedder: %w", err)
		}
		model, err = llm.NewModel(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("init model: %w", err)
		}
	}
	return embedder, model, nil
}

// getSearchService wires the search orchestrator over the semantic cache.
// requireLLM=false serves commands that only read the store (get, list, count).
func getSearchService(requireLLM bool) (*service.SearchService, error) {
	var emb llm.Embedder
	if requireLLM {
		var err error
		emb, _, err = getLLM()
		if err != nil {
			return nil, err
		}
	}

	var sc cache.Cache
	if emb != nil {
		sc = cache.NewSemantic(emb, stores.Cache, cache.Options{
			MaxDistance: cfg.CacheMaxDistance,
			Limit:       cfg.CacheLimit,
		})
	}

	return service.NewSearchService(stores.Recipes, emb, sc, service.SearchOptions{
		Limit:            cfg.SearchLimit,
		RangeMaxDistance: cfg.RangeMaxDistance,
		CacheTTL:         cfg.CacheTTL,
	}), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file overlaying environment settings")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(countCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
