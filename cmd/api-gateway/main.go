package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-ga/api/swagger"
	"github.com/noah-isme/sma-timetable-ga/internal/genetic"
	"github.com/noah-isme/sma-timetable-ga/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-ga/internal/middleware"
	"github.com/noah-isme/sma-timetable-ga/internal/repository"
	"github.com/noah-isme/sma-timetable-ga/internal/service"
	"github.com/noah-isme/sma-timetable-ga/pkg/cache"
	"github.com/noah-isme/sma-timetable-ga/pkg/config"
	"github.com/noah-isme/sma-timetable-ga/pkg/database"
	"github.com/noah-isme/sma-timetable-ga/pkg/events"
	"github.com/noah-isme/sma-timetable-ga/pkg/jobs"
	"github.com/noah-isme/sma-timetable-ga/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-ga/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-ga/pkg/middleware/requestid"
)

// @title SMA Timetable Generator API
// @version 1.0.0
// @description Genetic algorithm weekly timetable generation for school classes
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	publisher, err := events.New(cfg.Events, logr)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer publisher.Close() //nolint:errcheck

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	validate := validator.New()
	generatorSvc := service.NewGeneratorService(service.GeneratorRepositories{
		Teachers: repository.NewTeacherRepository(db),
		Classes:  repository.NewClassRepository(db),
		Subjects: repository.NewSubjectRepository(db),
		Rooms:    repository.NewRoomRepository(db),
		Runs:     repository.NewGARunRepository(db),
		Slots:    repository.NewScheduleSlotRepository(db),
	}, cacheRepo, db, publisher, metricsSvc, validate, logr, service.GeneratorConfig{
		Calendar: genetic.Calendar{
			Days:          cfg.Scheduler.Days,
			PeriodsPerDay: cfg.Scheduler.PeriodsPerDay,
		},
		DefaultMaxGenerations: cfg.Scheduler.DefaultMaxGenerations,
		DefaultPopulationSize: cfg.Scheduler.DefaultPopulationSize,
		MaxGenerationsLimit:   cfg.Scheduler.MaxGenerationsLimit,
		MaxPopulationLimit:    cfg.Scheduler.MaxPopulationLimit,
		Seed:                  cfg.Scheduler.Seed,
		ProgressTTL:           cfg.Scheduler.ProgressTTL,
		ProgressLogEvery:      cfg.Scheduler.ProgressLogEvery,
	})

	if _, err := generatorSvc.RecoverInterrupted(ctx); err != nil {
		return fmt.Errorf("recover interrupted runs: %w", err)
	}

	// One worker: runs execute strictly one after another.
	queue := jobs.NewQueue("ga-runs", generatorSvc.Handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.Scheduler.QueueBuffer,
		MaxRetries: 0,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	generatorSvc.UseQueue(queue)

	exportSvc := service.NewExportService(generatorSvc, logr, nil, nil)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	router := newRouter(cfg, logr, routerDeps{
		auth:      authSvc,
		metrics:   metricsSvc,
		generator: handler.NewGeneratorHandler(generatorSvc, exportSvc),
		health: handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"cache":    cacheRepo.Ping,
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
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

	logr.Info("shutting down", zap.Int("pending_runs", queue.Pending()), zap.Int("active_runs", queue.Active()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type routerDeps struct {
	auth      internalmiddleware.TokenValidator
	metrics   *service.MetricsService
	generator *handler.GeneratorHandler
	health    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", cfg.Metrics.Path))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, deps.health.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(deps.auth))
	deps.generator.Register(api)
	return r
}
