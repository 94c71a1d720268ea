package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/odonto/internal/config"
	"github.com/ehr/odonto/internal/domain/agenda"
	"github.com/ehr/odonto/internal/domain/catalog"
	"github.com/ehr/odonto/internal/domain/dashboard"
	"github.com/ehr/odonto/internal/domain/ledger"
	"github.com/ehr/odonto/internal/domain/patient"
	"github.com/ehr/odonto/internal/domain/treatment"
	"github.com/ehr/odonto/internal/platform/auth"
	"github.com/ehr/odonto/internal/platform/db"
	"github.com/ehr/odonto/internal/platform/middleware"
	"github.com/ehr/odonto/internal/platform/outbox"
	"github.com/ehr/odonto/internal/platform/websocket"
)

// openRedis connects to url. An empty url returns a nil client.
func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// services bundles everything the HTTP layer needs.
type services struct {
	hub       *websocket.Hub
	catalog   *catalog.Catalog
	patients  *patient.Service
	agenda    *agenda.Service
	ledger    *ledger.Service
	treatment *treatment.Service
	dashboard *dashboard.Service
}

func buildServices(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, logger zerolog.Logger) (*services, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load procedure catalog: %w", err)
	}

	hub := websocket.NewHub(logger)
	patientRepo := patient.NewRepoPG(pool)
	s := &services{
		hub:      hub,
		catalog:  cat,
		patients: patient.NewService(patientRepo, hub),
		agenda:   agenda.NewService(agenda.NewRepoPG(pool), hub),
		ledger:   ledger.NewService(ledger.NewRepoPG(pool), hub),
	}

	s.dashboard = dashboard.NewService(s.agenda, s.patients, s.ledger)

	var pending treatment.PendingStore = treatment.NewMemoryPendingStore(cfg.PendingTTL)
	if rdb != nil {
		pending = treatment.NewRedisPendingStore(rdb, cfg.PendingTTL)
	}
	s.treatment = treatment.NewService(treatment.Deps{
		Patients:   patientRepo,
		Scheduler:  s.agenda,
		Recorder:   s.ledger,
		Procedures: cat,
		Tx:         db.NewTransactor(pool),
		Events:     outbox.NewWriter(pool),
		Pending:    pending,
		Notify:     hub,
		Logger:     logger,
	})
	return s, nil
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		return auth.DevAuthMiddleware(cfg.DefaultTenant)
	}
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
		Skipper:  auth.AuthSkipper,
	}
	if cfg.AuthSigningKey != "" {
		jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
	}
	return auth.JWTMiddleware(jwtCfg)
}

// newEcho builds the router. Public health routes sit outside the tenant
// and auth middleware; everything else is tenant scoped.
func newEcho(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, s *services, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, "X-Tenant-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	checks := map[string]db.Check{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	e.GET("/health/db", db.HealthHandler(pool, checks))

	authn := authMiddleware(cfg)

	live := e.Group("", authn, db.TenantOnly(cfg.DefaultTenant))
	websocket.NewHandler(s.hub, cfg.CORSOrigins).RegisterRoutes(live)

	rate := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}
	if rate.RequestsPerSecond <= 0 {
		rate = middleware.DefaultRateLimitConfig()
	}
	api := e.Group("/api/v1",
		authn,
		middleware.RateLimit(rate),
		middleware.RequestTimeout(cfg.RequestTimeout, "/api/v1/ledger/export"),
		db.TenantMiddleware(pool, cfg.DefaultTenant),
		middleware.Audit(logger),
	)
	catalog.NewHandler(s.catalog).RegisterRoutes(api)
	patient.NewHandler(s.patients).RegisterRoutes(api)
	agenda.NewHandler(s.agenda).RegisterRoutes(api)
	ledger.NewHandler(s.ledger).RegisterRoutes(api)
	treatment.NewHandler(s.treatment).RegisterRoutes(api)
	dashboard.NewHandler(s.dashboard).RegisterRoutes(api)

	return e
}

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger, withRelay bool) error {
	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		logger.Warn().Msg("development auth is active: requests without a token get admin access")
	}

	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	rdb, err := openRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info().Msg("connected to redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set: pending payments are kept in memory and events stay in the outbox")
	}

	s, err := buildServices(cfg, pool, rdb, logger)
	if err != nil {
		return err
	}
	e := newEcho(cfg, pool, rdb, s, logger)

	if withRelay && rdb != nil {
		relay := outbox.NewRelay(outbox.NewPGStore(pool), outbox.NewRedisPublisher(rdb, outbox.DefaultStream), cfg.RelayInterval, logger)
		relay.SetRetention(cfg.OutboxRetain)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("outbox relay stopped")
			}
		}()
	}

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
