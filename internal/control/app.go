package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/cinemap/internal/aggregate"
	"github.com/vietddude/cinemap/internal/core/config"
	"github.com/vietddude/cinemap/internal/health"
	redisclient "github.com/vietddude/cinemap/internal/infra/redis"
	"github.com/vietddude/cinemap/internal/infra/storage"
	"github.com/vietddude/cinemap/internal/infra/storage/memory"
	"github.com/vietddude/cinemap/internal/infra/storage/postgres"
	"github.com/vietddude/cinemap/internal/infra/transport"
	"github.com/vietddude/cinemap/internal/infra/upstream/nominatim"
	"github.com/vietddude/cinemap/internal/infra/upstream/omdb"
	"github.com/vietddude/cinemap/internal/infra/upstream/wikipedia"
	"github.com/vietddude/cinemap/internal/resolver/location"
	"github.com/vietddude/cinemap/internal/resolver/movie"
	"github.com/vietddude/cinemap/internal/server"
)

// App owns the resolvers, their upstream clients, the optional caches and
// the HTTP server.
type App struct {
	cfg         *config.AppConfig
	facade      *aggregate.Facade
	healthMon   *health.Monitor
	server      *server.Server
	clients     []*transport.Client
	db          *postgres.DB
	redisClient *redisclient.Client
	cancel      context.CancelFunc
	log         *slog.Logger
}

// NewApp creates an App with all dependencies initialized. Anything opened
// before a failure is closed again.
func NewApp(cfg *config.AppConfig) (*App, error) {
	a := &App{
		cfg: cfg,
		log: slog.Default().With("component", "app"),
	}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg := a.cfg

	// 1. Upstream clients
	up := cfg.Upstreams
	omdbHTTP, err := a.newClient("omdb", up.OMDb)
	if err != nil {
		return err
	}
	nominatimHTTP, err := a.newClient("nominatim", up.Nominatim)
	if err != nil {
		return err
	}
	wikipediaHTTP, err := a.newClient("wikipedia", up.Wikipedia)
	if err != nil {
		return err
	}

	// 2. Caches
	movieStore, locationStore, err := a.initStorage()
	if err != nil {
		return err
	}

	// 3. Resolvers
	backoff := cfg.Backoff.Policy()
	movies := movie.NewResolver(
		omdb.NewClient(omdbHTTP, up.OMDb.APIKey, up.OMDb.RetryPolicy()),
		movie.Config{
			Backoff:  backoff,
			Fallback: cfg.Resolver.Fallback,
			Store:    movieStore,
		},
	)
	locations := location.NewResolver(
		nominatim.NewClient(nominatimHTTP, up.Nominatim.RetryPolicy(), 1),
		wikipedia.NewClient(wikipediaHTTP, up.Wikipedia.RetryPolicy()),
		location.Config{
			Backoff:         backoff,
			StageDelay:      cfg.Resolver.StageDelay,
			EnrichmentDelay: cfg.Resolver.EnrichmentDelay,
			Store:           locationStore,
		},
	)
	a.facade = aggregate.NewFacade(movies, locations, cfg.Resolver.Concurrency)

	// 4. Health and HTTP
	upstreams := make([]health.Upstream, 0, len(a.clients))
	for _, c := range a.clients {
		upstreams = append(upstreams, c)
	}
	checkers := make(map[string]health.Checker)
	if a.db != nil {
		checkers["postgres"] = a.db.Health
	}
	if a.redisClient != nil {
		checkers["redis"] = a.redisClient.Ping
	}
	a.healthMon = health.NewMonitor(upstreams, checkers)
	a.server = server.NewServer(a.facade, a.healthMon, cfg.Server.Port)

	return nil
}

func (a *App) newClient(name string, u config.UpstreamConfig) (*transport.Client, error) {
	c, err := transport.NewClient(transport.Config{
		Name:      name,
		BaseURL:   u.URL,
		Timeout:   u.Timeout,
		UserAgent: u.UserAgent,
		Quota:     u.Quota(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init %s client: %w", name, err)
	}
	a.clients = append(a.clients, c)
	return c, nil
}

// initStorage selects the record caches. Nil repositories disable caching.
func (a *App) initStorage() (storage.MovieRepository, storage.LocationRepository, error) {
	if !a.cfg.Cache.Enabled {
		slog.Info("Record cache disabled")
		return nil, nil, nil
	}
	ttl := a.cfg.Cache.TTL

	var hotMovies storage.MovieRepository
	var hotLocations storage.LocationRepository
	if a.cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(a.cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init redis: %w", err)
		}
		a.redisClient = client
		hotMovies = redisclient.NewMovieCache(client, ttl)
		hotLocations = redisclient.NewLocationCache(client, ttl)
	} else {
		store := memory.NewMemoryStorage(ttl)
		hotMovies = memory.NewMovieRepo(store)
		hotLocations = memory.NewLocationRepo(store)
	}

	if a.cfg.Database.URL == "" {
		slog.Info("Using single-tier record cache", "redis", a.redisClient != nil, "ttl", ttl)
		return hotMovies, hotLocations, nil
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	a.db = db
	if err := db.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	slog.Info("Using PostgreSQL-backed record cache", "redis", a.redisClient != nil, "ttl", ttl)
	return &storage.TieredMovies{Hot: hotMovies, Cold: postgres.NewMovieRepo(db, ttl)},
		&storage.TieredLocations{Hot: hotLocations, Cold: postgres.NewLocationRepo(db, ttl)},
		nil
}

// Facade returns the aggregation facade.
func (a *App) Facade() *aggregate.Facade {
	return a.facade
}

// Start starts background collectors and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down and releases connections.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	err := a.server.Stop(ctx)
	a.Close()
	return err
}

// Close releases upstream and storage connections without touching the
// HTTP server. One-shot commands use it instead of Stop.
func (a *App) Close() {
	for _, c := range a.clients {
		_ = c.Close()
	}
	a.closeStores()
}

func (a *App) closeStores() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close redis", "error", err)
		}
		a.redisClient = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
		a.db = nil
	}
}
