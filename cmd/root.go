package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/hhlyyng/animesub/internal/api"
	"github.com/hhlyyng/animesub/internal/cachestore"
	"github.com/hhlyyng/animesub/internal/config"
	"github.com/hhlyyng/animesub/internal/pool"
	"github.com/hhlyyng/animesub/internal/settings"
	"github.com/hhlyyng/animesub/internal/source/bangumi"
	"github.com/hhlyyng/animesub/internal/source/jikan"
	"github.com/hhlyyng/animesub/internal/tmdb"
)

// CLI represents the complete command structure for the animesub application
type CLI struct {
	// Global flags
	CacheDBFile string `help:"Path to the SQLite database file" default:"./animesub.db"`
	Listen      string `help:"HTTP API listen address" default:":8080"`

	Serve ServeCmd `cmd:"" help:"Run the pool builder daemon and the HTTP API"`
	Build BuildCmd `cmd:"" help:"Build the pool once and exit"`
}

// ServeCmd runs the resident daemon.
type ServeCmd struct{}

// BuildCmd runs a single pool build.
type BuildCmd struct{}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("animesub"),
		kong.Description("Aggregates anime catalogs into a deduplicated random discovery pool."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	if err := ctx.Run(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("cache.dbfile", "./animesub.db")
	viper.SetDefault("listen", ":8080")

	// Pool build schedule defaults
	viper.SetDefault("pool.startup_delay", "10s")
	viper.SetDefault("pool.rebuild_interval", "24h")
	viper.SetDefault("pool.enrich_delay", "1s")
	viper.SetDefault("pool.page_delay", "2s")
	viper.SetDefault("pool.save_every", 50)

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("TMDBAPIKey", "TMDB_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("listen", cli.Listen)

	config.ListenAddr = cli.Listen
}

// poolConfigFromViper maps the configured schedule onto the builder
// config, keeping production defaults for anything unset or invalid.
func poolConfigFromViper() pool.Config {
	cfg := pool.DefaultConfig()

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"pool.startup_delay", &cfg.StartupDelay},
		{"pool.rebuild_interval", &cfg.RebuildInterval},
		{"pool.enrich_delay", &cfg.EnrichDelay},
		{"pool.page_delay", &cfg.PageDelay},
	}
	for _, d := range durations {
		raw := viper.GetString(d.key)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			slog.Warn("Invalid duration in config, using default", "key", d.key, "value", raw)
			continue
		}
		*d.target = parsed
	}

	if n := viper.GetInt("pool.save_every"); n > 0 {
		cfg.SaveEvery = n
	}
	return cfg
}

// buildComponents wires the database, clients, service and builder.
func buildComponents() (*cachestore.DB, *pool.Builder, *pool.Service, error) {
	db, err := cachestore.Open(viper.GetString("cache.dbfile"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open cache database: %w", err)
	}

	tmdbClient := tmdb.NewClient(config.TMDBAPIKey)
	service := pool.NewService()
	builder := pool.NewBuilder(
		service,
		cachestore.NewSnapshotStore(db),
		settings.NewStore(db),
		pool.Sources{
			TMDB:     tmdbClient,
			MAL:      jikan.NewClient(),
			Bangumi:  bangumi.NewClient(config.UserAgent),
			Enricher: tmdbClient,
		},
		poolConfigFromViper(),
	)
	return db, builder, service, nil
}

// Run starts the daemon: the pool builder in the background and the
// HTTP API in the foreground, both stopping on SIGINT/SIGTERM.
func (s *ServeCmd) Run() error {
	db, builder, service, err := buildComponents()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go builder.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: api.NewRouter(service),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Run performs a one-shot pool build, useful for operational rebuilds.
func (b *BuildCmd) Run() error {
	db, builder, service, err := buildComponents()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := builder.BuildPool(ctx); err != nil {
		return fmt.Errorf("pool build: %w", err)
	}
	slog.Info("Pool built", "records", service.Size())
	return nil
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
