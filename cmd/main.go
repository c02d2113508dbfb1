package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"delivery-service/internal/auth"
	"delivery-service/internal/config"
	"delivery-service/internal/events"
	"delivery-service/internal/httpx"
	"delivery-service/internal/jobs"
	"delivery-service/internal/logging"
	"delivery-service/internal/relay"
	"delivery-service/internal/tracking"
	"delivery-service/internal/users"
	"delivery-service/migrations"
	"delivery-service/pkg/db"
	"delivery-service/pkg/jwt"
	"delivery-service/pkg/kafka"
	rredis "delivery-service/pkg/redis"
	"delivery-service/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Config and logger ──
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.IsDev())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	signer, err := jwt.NewSigner(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return err
	}

	// ── 2. Stores ──
	var (
		jobStore jobs.Store
		userRepo users.Repository
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.RunMigrations(ctx, migrations.FS); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		jobStore = jobs.NewPGStore(database.Pool)
		userRepo = users.NewPGRepository(database.Pool)
	default:
		log.Warn("using in-memory stores, data is lost on restart")
		jobStore = jobs.NewMemStore()
		userRepo = users.NewMemRepository()
	}

	// ── 3. Redis job cache ──
	if cfg.RedisAddr != "" {
		redisClient, err := rredis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.JobCacheTTL, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		jobStore = jobs.NewCachedStore(jobStore, redisClient, log)
	}

	// ── 4. Live feed: Kafka when configured, local hub otherwise ──
	hub := tracking.NewHub(log)
	var (
		publisher jobs.Publisher = hub
		feed      *relay.Relay
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient := kafka.NewClient(cfg.KafkaBrokers, log)
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopics(ctx, kafka.TopicJobEvents); err != nil {
			return err
		}
		publisher = events.NewKafkaPublisher(kafkaClient)
		feed = relay.New(kafkaClient, hub, log)
	}

	// ── 5. Services ──
	userSvc := users.NewService(userRepo, signer, log)
	jobSvc := jobs.NewService(jobs.ServiceOptions{
		Store:     jobStore,
		Directory: userSvc,
		Blobs:     storage.NewDiskStore(cfg.UploadDir),
		Publisher: publisher,
		Logger:    log,
	})

	if cfg.StoreDriver == config.StoreMemory {
		if _, err := userSvc.SeedAll(ctx, users.DemoUsers); err != nil {
			return err
		}
		log.Info("seeded demo users", zap.Int("count", len(users.DemoUsers)))
	}

	// ── 6. HTTP router ──
	authn := signer.Middleware(userSvc)
	jobHandler := jobs.NewHandler(jobSvc, log)
	userHandler := users.NewHandler(userSvc, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(httpx.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "delivery-service"})
	})
	r.Mount("/auth", userHandler.AuthRoutes())
	r.Mount("/admin", userHandler.AdminRoutes(authn))
	r.Mount("/jobs", jobHandler.Routes(authn))
	r.Mount("/client", jobHandler.ClientRoutes(authn))
	r.Mount("/ws", hub.Routes(authn, func(ctx context.Context, id auth.Identity, jobID string) error {
		_, err := jobSvc.GetJob(ctx, id, jobID)
		return err
	}))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// ── 7. Run until a signal or a fatal error ──
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("delivery-service listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if feed != nil {
		g.Go(func() error { return feed.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}
