package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shiva/tripplanner/config"
	"github.com/shiva/tripplanner/internal/availability"
	"github.com/shiva/tripplanner/internal/catalog"
	"github.com/shiva/tripplanner/internal/handler"
	"github.com/shiva/tripplanner/internal/middleware"
	"github.com/shiva/tripplanner/internal/model"
	"github.com/shiva/tripplanner/internal/planner"
	"github.com/shiva/tripplanner/internal/queue"
	"github.com/shiva/tripplanner/internal/repository"
	"github.com/shiva/tripplanner/internal/retrieval"
	"github.com/shiva/tripplanner/internal/service"
	"github.com/shiva/tripplanner/migrations"
	"github.com/shiva/tripplanner/pkg/cache"
	"github.com/shiva/tripplanner/pkg/db"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	checks := map[string]handler.HealthCheck{}

	// ── Calendar & catalog ──────────────────────────────
	calendar := availability.NewCalendar()
	if cfg.Calendar.Seed {
		today := model.DateOf(time.Now())
		calendar.Seed(cfg.Planner.DefaultUserID, []model.DateRange{
			{Start: today.AddDays(5), End: today.AddDays(7)},
			{Start: today.AddDays(20), End: today.AddDays(22)},
		})
		log.Printf("✓ Calendar seeded for %s", cfg.Planner.DefaultUserID)
	}
	cat := catalog.Default()

	// ── Retrieval ───────────────────────────────────────
	var retriever planner.Retriever
	if cfg.RAG.Dir != "" {
		rs := retrieval.NewStore(retrieval.Options{
			Dim:         cfg.RAG.Dim,
			Accelerated: cfg.RAG.Accelerated,
			Workers:     cfg.RAG.Workers,
		})
		n, err := rs.LoadDir(cfg.RAG.Dir, cfg.RAG.Glob)
		if err != nil {
			log.Fatalf("failed to load retrieval corpus: %v", err)
		}
		log.Printf("✓ Retrieval loaded %d documents (%s index)", n, rs.Backend())
		retriever = rs
	}

	// ── Persistence ─────────────────────────────────────
	var store repository.Store = repository.NewMemoryStore()
	if cfg.Store.Driver == "postgres" {
		pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatalf("failed to connect to PostgreSQL: %v", err)
		}
		defer pgPool.Close()
		log.Println("✓ PostgreSQL connected")
		if cfg.Postgres.Migrate {
			n, err := db.ApplyMigrations(ctx, pgPool, migrations.FS)
			if err != nil {
				log.Fatalf("failed to apply migrations: %v", err)
			}
			log.Printf("✓ Schema ready (%d migrations)", n)
		}
		store = repository.NewPostgresStore(pgPool)
		checks["postgres"] = pgCheck(pgPool)
	}

	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("✓ Redis connected")
		store = repository.NewCachedStore(store, redisClient, cfg.Redis.PlanTTL)
		checks["redis"] = redisCheck(redisClient)
	}

	// ── Messaging ───────────────────────────────────────
	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		rp, err := queue.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		log.Printf("✓ RabbitMQ connected (queue %s)", cfg.RabbitMQ.Queue)
		publisher = rp
	}
	defer publisher.Close()

	// ── Initialize layers ───────────────────────────────
	orchestrator := newOrchestrator(cfg)
	post := planner.NewPostProcessor(cat, retriever)

	planningSvc := service.NewPlanningService(orchestrator, post, store, calendar, cat, retriever, cfg.Planner.DefaultUserID)
	bookingSvc := service.NewBookingService(store, service.NewBookingSimulator(), publisher)

	router := handler.NewRouter(
		handler.NewPlanHandler(planningSvc),
		handler.NewBookingHandler(bookingSvc),
		handler.NewCalendarHandler(calendar),
		handler.NewHealthHandler(checks),
	)

	h := middleware.Recoverer(middleware.RequestLogger(middleware.CORS(router)))

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("🚀 Server listening on %s (planner=%s, store=%s)",
			cfg.Server.ServerAddr(), cfg.Planner.Backend, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
		return
	}

	log.Println("✅ Server gracefully stopped")
}

// newOrchestrator picks the primary backend and, if enabled, the
// deterministic fallback used when the primary fails.
func newOrchestrator(cfg *config.Config) *planner.Orchestrator {
	det := planner.NewDeterministic(cfg.Planner.DefaultUserID, cfg.Planner.SearchWindowDays)
	if cfg.Planner.Backend != "ollama" {
		return planner.NewOrchestrator(det, nil)
	}

	ollama := planner.NewOllama(planner.OllamaConfig{
		Host:       cfg.Ollama.Host,
		Model:      cfg.Ollama.Model,
		Timeout:    cfg.Ollama.Timeout,
		WindowDays: cfg.Planner.SearchWindowDays,
	})
	if !cfg.Planner.Fallback {
		return planner.NewOrchestrator(ollama, nil)
	}
	return planner.NewOrchestrator(ollama, det)
}

func pgCheck(pool *pgxpool.Pool) handler.HealthCheck {
	return func(ctx context.Context) error { return db.HealthCheck(ctx, pool) }
}

func redisCheck(client *redis.Client) handler.HealthCheck {
	return func(ctx context.Context) error { return cache.HealthCheck(ctx, client) }
}
