// Package main - точка входа HTTP-сервиса учёта студентов колледжа.
//
// Сервис хранит студентов (с вложенными оценками) и предметы в MongoDB,
// отдаёт отчёты через агрегации и принимает изменения через HTTP API.
// Для локальной разработки доступно хранилище в памяти (APP_STORAGE=memory).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Java42-DashaShamis/college-mongo/config"
	"github.com/Java42-DashaShamis/college-mongo/internal/application/command"
	"github.com/Java42-DashaShamis/college-mongo/internal/application/query"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/infrastructure/persistence/memory"
	mongostore "github.com/Java42-DashaShamis/college-mongo/internal/infrastructure/persistence/mongo"
	rediscache "github.com/Java42-DashaShamis/college-mongo/internal/infrastructure/persistence/redis"
	"github.com/Java42-DashaShamis/college-mongo/internal/infrastructure/service"
	httpapi "github.com/Java42-DashaShamis/college-mongo/internal/interface/http"
	"github.com/Java42-DashaShamis/college-mongo/internal/interface/http/handlers"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// repositories - набор хранилищ, с которыми работают обработчики.
type repositories struct {
	students college.StudentRepository
	subjects college.SubjectRepository
	reports  college.ReportRepository
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	defer func() { _ = log.Sync() }()

	log.Info("starting college records service",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("storage", cfg.App.Storage),
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.SetTimeout(cfg.HTTP.HealthTimeout)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. КЕШ ПРЕДМЕТОВ (Redis, опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var subjectCache college.SubjectCache
	if cfg.Redis.Enabled {
		cache, err := rediscache.NewCache(rediscache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   3,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			// Кеш не обязателен: без него имена предметов читаются из базы.
			log.Warn("redis unavailable, subject cache disabled", logger.Err(err))
		} else {
			defer func() {
				log.Info("closing redis connection...")
				_ = cache.Close()
			}()
			subjectCache = rediscache.NewSubjectCache(cache)
			health.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	var repos repositories
	switch cfg.App.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		repos = repositories{students: store.Students(), subjects: store.Subjects(), reports: store.Reports()}

	default:
		log.Info("connecting to mongodb...", logger.String("database", cfg.Mongo.Database))
		conn, err := mongostore.NewConnection(ctx, mongostore.Config{
			URI:                cfg.Mongo.URI,
			Database:           cfg.Mongo.Database,
			StudentsCollection: cfg.Mongo.StudentsCollection,
			SubjectsCollection: cfg.Mongo.SubjectsCollection,
			ConnectTimeout:     cfg.Mongo.ConnectTimeout,
			MaxPoolSize:        cfg.Mongo.MaxPoolSize,
			MinPoolSize:        cfg.Mongo.MinPoolSize,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		defer func() {
			log.Info("closing mongodb connection...")
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = conn.Close(closeCtx)
		}()

		if err := conn.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		subjects := mongostore.NewSubjectRepository(conn)
		resolver := service.NewSubjectResolver(subjects, subjectCache, cfg.Redis.SubjectTTL, log)
		repos = repositories{
			students: mongostore.NewStudentRepository(conn),
			subjects: subjects,
			reports:  mongostore.NewReportRepository(conn, resolver, log),
		}
		health.AddCheck("mongodb", handlers.NewPingCheck(conn))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ОБРАБОТЧИКИ И HTTP API
	// ─────────────────────────────────────────────────────────────────────────
	server := httpapi.NewServer(httpConfig(cfg), httpapi.Dependencies{
		AddStudent:     command.NewAddStudentHandler(repos.students, log),
		AddSubject:     command.NewAddSubjectHandler(repos.subjects, log),
		AddMark:        command.NewAddMarkHandler(repos.students, repos.subjects, log),
		DeleteStudents: command.NewDeleteStudentsHandler(repos.students, repos.reports, log),
		Students:       query.NewStudentsHandler(repos.students, repos.subjects, log),
		Reports:        query.NewReportsHandler(repos.reports),
		Logger:         log,
		HealthChecker:  health,
		Version:        cfg.App.Version,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("college records service stopped")
	return nil
}

func httpConfig(cfg *config.Config) httpapi.Config {
	out := httpapi.DefaultConfig()
	out.Host = cfg.HTTP.Host
	out.Port = cfg.HTTP.Port
	out.ReadTimeout = cfg.HTTP.ReadTimeout
	out.WriteTimeout = cfg.HTTP.WriteTimeout
	out.IdleTimeout = cfg.HTTP.IdleTimeout
	out.RequestTimeout = cfg.HTTP.RequestTimeout
	out.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	out.EnableCORS = cfg.HTTP.EnableCORS
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		out.AllowedOrigins = cfg.HTTP.AllowedOrigins
	}
	out.APIKeyHeader = cfg.HTTP.APIKeyHeader
	out.APIKeyHashes = cfg.HTTP.APIKeyHashes
	return out
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = cfg.Observability.LogFormat
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts).With(
		logger.String("service", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)
}
