package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/punch"
	"timeclock/internal/domain/reports"
	"timeclock/internal/domain/schedule"
	"timeclock/internal/domain/tenant"
	"timeclock/internal/domain/timebank"
	"timeclock/internal/offline"
	"timeclock/internal/platform/config"
	"timeclock/internal/platform/datastore"
	"timeclock/internal/platform/db"
	"timeclock/internal/platform/jobs"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/transport/http/api"
	auditloghandler "timeclock/internal/transport/http/handlers/auditlog"
	authhandler "timeclock/internal/transport/http/handlers/auth"
	punchhandler "timeclock/internal/transport/http/handlers/punch"
	reportshandler "timeclock/internal/transport/http/handlers/reports"
	schedulehandler "timeclock/internal/transport/http/handlers/schedule"
	synchandler "timeclock/internal/transport/http/handlers/sync"
	tenantadminhandler "timeclock/internal/transport/http/handlers/tenantadmin"
	timebankhandler "timeclock/internal/transport/http/handlers/timebank"
	"timeclock/internal/transport/http/middleware"
	"timeclock/migrations"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.Files); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	queueStore, err := offline.OpenSQLiteStore(cfg.QueuePath)
	if err != nil {
		log.Fatalf("offline queue open failed: %v", err)
	}
	defer queueStore.Close()

	notifier := offline.NewNotifier()
	queue := offline.NewQueue(queueStore, notifier)

	probe := db.PingProbe{Pool: pool}
	data := datastore.NewPostgres(pool)
	collector := metrics.New()

	tenantStore := tenant.NewStore(pool)
	scheduleStore := schedule.NewStore(pool)
	ledgerStore := timebank.NewStore(pool)
	auditSvc := audit.New(pool)

	punchSvc := punch.NewService(tenantStore, tenantStore, data, queue, probe, collector)
	reportsSvc := reports.NewService(data, scheduleStore, ledgerStore, loc, cfg.FallbackBreakMinutes, cfg.StandardShiftMinutes)
	coordinator := offline.NewCoordinator(queue, data, tenantStore, probe, collector)

	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	jobs.New(coordinator, queue, cfg.SyncInterval).Start(jobsCtx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(tenantStore, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)

		punchhandler.NewHandler(punchSvc, reportsSvc, auditSvc).RegisterRoutes(r)
		timebankhandler.NewHandler(ledgerStore, reportsSvc, auditSvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc).RegisterRoutes(r)
		schedulehandler.NewHandler(scheduleStore, auditSvc).RegisterRoutes(r)
		tenantadminhandler.NewHandler(tenantStore, auditSvc).RegisterRoutes(r)
		synchandler.NewHandler(queue, coordinator, probe).RegisterRoutes(r)
		auditloghandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	slog.Info("timeclock server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
