package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pricewise/plus/modules/billing"
	"github.com/pricewise/plus/pkg/config"
	"github.com/pricewise/plus/pkg/entitlement"
	"github.com/pricewise/plus/pkg/entitlement/pgstore"
	"github.com/pricewise/plus/pkg/httpserver"
	"github.com/pricewise/plus/pkg/logger"
	"github.com/pricewise/plus/pkg/pg"
	"github.com/pricewise/plus/pkg/redis"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	PlansPath   string `env:"PLANS_PATH" envDefault:"configs/plans.yaml"`
	// UserServiceURL points at the account system that resolves user
	// profiles for billing.
	UserServiceURL string `env:"USER_SERVICE_URL,required"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		appCfg    appConfig
		pgCfg     pg.Config
		redisCfg  redis.Config
		paddleCfg entitlement.PaddleConfig
		httpCfg   httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&paddleCfg)
	config.MustLoad(&httpCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, "billing"))

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		log.Error("failed to apply migrations", logger.Error(err))
		os.Exit(1)
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	provider, err := entitlement.NewPaddleProvider(paddleCfg)
	if err != nil {
		log.Error("failed to initialize paddle provider", logger.Error(err))
		os.Exit(1)
	}

	svc, err := entitlement.NewService(ctx,
		entitlement.NewYAMLFileSource(appCfg.PlansPath),
		provider,
		pgstore.New(pool),
		newUserDirectory(appCfg.UserServiceURL),
		entitlement.WithLogger(log.With(logger.Component("entitlement"))),
	)
	if err != nil {
		log.Error("failed to initialize entitlement service", logger.Error(err))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))

	r.Mount("/billing", billing.Router(billing.RouterOptions{
		Service:  svc,
		Provider: provider,
		Identity: identityFromHeader,
		Deduper:  billing.NewRedisDeduper(redisClient),
		Log:      log.With(logger.Component("billing")),
	}))

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("billing server listening", "addr", httpCfg.Addr)
		}),
	)
	if err := srv.Run(ctx, r); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// identityFromHeader trusts the X-User-ID header set by the edge gateway
// after session verification. Anything else fronting this service must
// strip the header from client requests.
func identityFromHeader(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.Header.Get("X-User-ID"))
}
