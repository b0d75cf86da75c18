package main

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

	"github.com/Abhinav5603/generator-1/internal/accounts"
	"github.com/Abhinav5603/generator-1/internal/auth"
	"github.com/Abhinav5603/generator-1/internal/config"
	"github.com/Abhinav5603/generator-1/internal/db"
	"github.com/Abhinav5603/generator-1/internal/feedback"
	httpx "github.com/Abhinav5603/generator-1/internal/http"
	"github.com/Abhinav5603/generator-1/internal/http/handlers"
	"github.com/Abhinav5603/generator-1/internal/llm"
	"github.com/Abhinav5603/generator-1/internal/observability"
	"github.com/Abhinav5603/generator-1/internal/questions"
	"github.com/Abhinav5603/generator-1/internal/redisclient"
	"github.com/Abhinav5603/generator-1/internal/repo/memory"
	"github.com/Abhinav5603/generator-1/internal/repo/postgres"
	"github.com/Abhinav5603/generator-1/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// stores bundles the three repositories behind whichever driver is selected.
type stores struct {
	users interface {
		accounts.UserStore
		auth.UserGetter
	}
	sets interface {
		questions.Store
		feedback.SetReader
	}
	submissions feedback.SubmissionStore
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set outside dev")
	}

	ctx := context.Background()

	// tracing
	if cfg.OtelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.OtelEndpoint,
			Environment: cfg.Env,
			SampleRatio: cfg.OtelSampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			if err := shutdownTracer(sctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	checks := map[string]handlers.PingFunc{}

	// store
	var st stores
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()

		if cfg.DBMigrate {
			mctx, cancel := config.WithTimeout(30 * time.Second)
			err := db.Migrate(mctx, pool)
			cancel()
			if err != nil {
				return err
			}
		}

		st = postgresStores(pool, prom)
		checks["db"] = pool.Ping
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		st = stores{
			users:       memory.NewUsersRepo(),
			sets:        memory.NewQuestionSetsRepo(),
			submissions: memory.NewSubmissionsRepo(),
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	// session revocations
	var revocations auth.RevocationStore = auth.NewMemoryRevocations()
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Tracing:  cfg.OtelEnabled,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		revocations = redisclient.NewRevocations(rdb)
		checks["redis"] = rdb.Ping
	}

	// uploads
	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	// model
	model, err := llm.NewModel(ctx, llm.ProviderConfig{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
	})
	if err != nil {
		return err
	}
	breaker := llm.NewBreaker(model, llm.BreakerConfig{
		FailureThreshold: cfg.LLMBreakerThreshold,
		Cooldown:         cfg.LLMBreakerCooldown,
	})
	prom.WatchBreaker(breaker.State)
	client := llm.NewClient(breaker, cfg.LLMTimeout, prom, log)

	sessions := auth.NewSessions(auth.NewManager(cfg.JWTSecret, cfg.JWTTTL()), st.users, revocations, log)

	router, err := httpx.NewRouter(log, cfg, httpx.Deps{
		Accounts:  accounts.NewService(st.users, log),
		Sessions:  sessions,
		Questions: questions.NewService(client, st.sets, cfg.QuestionCount, log).WithDeadline(cfg.GenerationTimeout()),
		Feedback:  feedback.NewService(client, st.sets, st.submissions, prom, log),
		Files:     files,
		Prom:      prom,
		Checks:    checks,
	})
	if err != nil {
		return err
	}

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// generation is cut off at GenerationTimeout, leaving time to answer
		WriteTimeout: cfg.GenerationTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "llm", cfg.LLMProvider)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}
	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return nil
	}

	log.Info("shutdown complete")
	return nil
}

func postgresStores(pool *pgxpool.Pool, prom *observability.Prom) stores {
	return stores{
		users:       postgres.NewUsersRepo(pool, prom),
		sets:        postgres.NewQuestionSetsRepo(pool, prom),
		submissions: postgres.NewSubmissionsRepo(pool, prom),
	}
}

func newFileStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "local":
		local, err := storage.NewLocal(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("upload dir: %w", err)
		}
		return local, nil
	case "minio":
		mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		bucket, err := storage.NewMinIO(mctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		return bucket, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
