package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitmate/internal/coach"
	"github.com/2beens/fitmate/internal/config"
	"github.com/2beens/fitmate/internal/db"
	"github.com/2beens/fitmate/internal/middleware"
	"github.com/2beens/fitmate/internal/plan"
	"github.com/2beens/fitmate/internal/profile"
	"github.com/2beens/fitmate/internal/storage"
	"github.com/2beens/fitmate/internal/telemetry/metrics"
	"github.com/2beens/fitmate/internal/telemetry/tracing"
	"github.com/2beens/fitmate/internal/textgen"
	"github.com/2beens/fitmate/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"
)

var _ coach.Generator = (*textgen.Client)(nil)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	store       storage.Store
	badgerStore *storage.BadgerStore
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	textGen     *textgen.Client

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	TextGenAPIKey           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (_ *Server, err error) {
	cfg := params.Config
	s := &Server{
		config: cfg,
	}
	// release whatever got opened if the setup fails half way
	defer func() {
		if err != nil {
			if closeErr := s.closeResources(); closeErr != nil {
				log.Errorf("new server, cleanup: %s", closeErr)
			}
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	s.otelShutdown, err = tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitmate-backend")
	if err != nil {
		return nil, err
	}

	var extraCollectors []prometheus.Collector

	needsRedis := cfg.StorageBackend == config.StorageRedis || (cfg.ChatRateLimitPerMin > 0 && cfg.RedisAddr() != "")
	if needsRedis {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		s.redisClient.AddHook(redisotel.NewTracingHook())

		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	}

	switch cfg.StorageBackend {
	case config.StorageBadger:
		s.badgerStore, err = storage.OpenBadgerStore(cfg.BadgerDir)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		s.store = s.badgerStore
	case config.StorageRedis:
		s.store = storage.NewRedisStore(s.redisClient)
	case config.StoragePostgres:
		s.dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDB,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := s.dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		psqlStore := storage.NewPsqlStore(s.dbPool)
		if err := psqlStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate kv store: %w", err)
		}
		s.store = psqlStore

		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			s.dbPool,
			map[string]string{"db_name": cfg.PostgresDB},
		))
	case config.StorageMemory:
		s.store = storage.NewMemoryStore(cfg.MemoryCacheMB * 1024 * 1024)
	default:
		return nil, fmt.Errorf("unknown storage backend: [%s]", cfg.StorageBackend)
	}
	log.Infof("using [%s] storage backend", cfg.StorageBackend)

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("fitmate", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	if cfg.TextGenBaseURL != "" {
		s.textGen = textgen.NewClient(textgen.ClientParams{
			BaseURL:          cfg.TextGenBaseURL,
			APIKey:           params.TextGenAPIKey,
			Timeout:          cfg.TextGenTimeout.Duration,
			FailureThreshold: cfg.TextGenFailureThreshold,
			OpenTimeout:      cfg.TextGenOpenTimeout.Duration,
			MetricsManager:   s.metricsManager,
		})
	} else {
		log.Warnln("text generation base url not set, coach chat will use fallback responses only")
	}

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fitmate-router"))

	r.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "pong")
	}).Methods("GET").Name("ping")

	profileRepo := profile.NewRepo(s.store)
	profile.NewHandler(profileRepo).SetupRoutes(r)

	sessions := coach.NewSessions(s.store, s.metricsManager)

	var generator coach.Generator
	if s.textGen != nil {
		generator = s.textGen
	}

	var chatRateLimiter middleware.RequestRateLimiter
	if s.redisClient != nil {
		chatRateLimiter = redis_rate.NewLimiter(s.redisClient)
	}

	coachHandler := coach.NewHandler(
		sessions,
		coach.NewResponder(generator, s.metricsManager),
		profileRepo,
		s.metricsManager,
		chatRateLimiter,
		s.config.ChatRateLimitPerMin,
	)
	coachHandler.SetupRoutes(r)

	plan.NewHandler(profileRepo, sessions).SetupRoutes(r)

	// all the rest - unhandled paths
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.DrainAndCloseRequest(middleware.MaxRequestBodyBytes))

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{Registry: s.promRegistry},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests first, the stores are still needed by in-flight ones
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	if err := s.closeResources(); err != nil {
		log.Errorf("close resources: %s", err)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) closeResources() error {
	var err error

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.badgerStore != nil {
		log.Debugln("closing badger store ...")
		err = multierr.Append(err, s.badgerStore.Close())
	}

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client conn: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	return err
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
