package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"popstack"
	"popstack/internal/auth"
	"popstack/internal/cache"
	"popstack/internal/config"
	"popstack/internal/database"
	"popstack/internal/debounce"
	"popstack/internal/demo"
	"popstack/internal/handlers"
	"popstack/internal/logging"
	"popstack/internal/metrics"
	"popstack/internal/remote"
	"popstack/internal/services"
	"popstack/internal/types"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer gw.Close()

	c := cache.New(cache.WithObserver(metrics.CacheObserver{}), cache.WithLogger(logger))
	if cfg.Cache.PruneInterval > 0 {
		go c.Run(ctx, cfg.Cache.PruneInterval)
	}

	svc := services.New(services.Options{
		Gateway:   gw,
		Cache:     c,
		Debouncer: debounce.New(cfg.Search.Debounce),
		Providers: catalogProviders(cfg, logger),
		Logger:    logger,
	})

	warmer := services.NewCatalogWarmer(svc.Catalog, cfg.Cache.WarmInterval, logger)
	go warmer.Run(ctx)

	authMiddleware, credentials, err := authentication(cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: handlers.NewRouter(handlers.RouterOptions{
			Services:    svc,
			Auth:        authMiddleware,
			Demo:        credentials,
			Logger:      logger,
			CORSOrigins: cfg.Server.Origins(),
			RateLimit:   cfg.Server.RateLimit,
			StaticDir:   cfg.Server.StaticDir,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Bool("demo", cfg.Demo.Mode).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore picks the backing store: the seeded demo database, a direct
// SQL connection, or a hosted PostgREST endpoint.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (remote.Gateway, error) {
	if cfg.Demo.Mode {
		return demo.NewStore(ctx, logger)
	}

	switch cfg.Store.Backend {
	case "postgrest":
		logger.Info().Str("url", cfg.Store.URL).Msg("using postgrest store")
		client := &http.Client{Timeout: cfg.Store.Timeout}
		return remote.NewPostgRESTGateway(cfg.Store.URL, cfg.Store.Key, remote.WithHTTPClient(client)), nil
	default:
		db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		migrations, err := popstack.GetMigrationsFS(cfg.Database.Driver)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load migrations: %w", err)
		}
		if err := database.RunMigrations(db, cfg.Database.Driver, migrations, logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		dialect := remote.DialectSQLite
		if cfg.Database.Driver == database.DriverPostgres {
			dialect = remote.DialectPostgres
		}
		logger.Info().Str("driver", cfg.Database.Driver).Msg("using sql store")
		return remote.NewSQLGateway(db, dialect), nil
	}
}

func catalogProviders(cfg *config.Config, logger zerolog.Logger) map[types.MediaKind]services.CatalogProvider {
	providers := map[types.MediaKind]services.CatalogProvider{}
	if cfg.Demo.Mode {
		for _, k := range types.MediaKinds {
			providers[k] = demo.Catalog{}
		}
		return providers
	}

	if cfg.TMDB.APIKey != "" {
		tmdb := services.NewTMDBClient(services.TMDBOptions{
			APIKey:   cfg.TMDB.APIKey,
			BaseURL:  cfg.TMDB.BaseURL,
			ImageURL: cfg.TMDB.ImageURL,
			Language: cfg.TMDB.Language,
		}, logger)
		providers[types.MediaMovie] = tmdb
		providers[types.MediaSeries] = tmdb
	} else {
		logger.Warn().Msg("TMDB_API_KEY not set, movie and series catalog disabled")
	}

	if cfg.RAWG.APIKey != "" {
		providers[types.MediaGame] = services.NewRAWGClient(services.RAWGOptions{
			APIKey:  cfg.RAWG.APIKey,
			BaseURL: cfg.RAWG.BaseURL,
		}, logger)
	} else {
		logger.Warn().Msg("RAWG_API_KEY not set, game catalog disabled")
	}
	return providers
}

func authentication(cfg *config.Config, logger zerolog.Logger) (auth.Middleware, *auth.DemoCredentials, error) {
	if cfg.Demo.Mode {
		user := demo.User(cfg.Demo.Email)
		creds := &auth.DemoCredentials{Email: cfg.Demo.Email, Password: cfg.Demo.Password, User: user}
		return auth.Demo(user), creds, nil
	}

	switch cfg.Auth.Mode {
	case "supabase":
		return auth.NewSupabaseMiddleware(cfg.Supabase.JWTSecret, cfg.Supabase.Audience, logger), nil, nil
	default:
		mw, err := auth.NewAuth0Middleware(cfg.Auth0.Domain, cfg.Auth0.Audience, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create auth middleware: %w", err)
		}
		return mw, nil, nil
	}
}
