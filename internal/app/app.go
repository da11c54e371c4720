package app

import (
	"context"
	"goalpath_backend/internal/config"
	"goalpath_backend/internal/controller"
	"goalpath_backend/internal/repository"
	"goalpath_backend/internal/service"
	"goalpath_backend/pkg/configwatcher"
	"goalpath_backend/pkg/database"
	"goalpath_backend/pkg/logger"
	"goalpath_backend/pkg/monitoring"
	"goalpath_backend/pkg/security"
	"goalpath_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reconcileBatchSize = 100

type App struct {
	Config          *config.Config
	ConfigFile      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	limiter         *security.IPRateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	goal       *repository.GoalRepository
	phase      *repository.PhaseRepository
	action     *repository.ActionRepository
	execution  *repository.ExecutionRecordRepository
	pointer    *repository.StatePointerRepository
	daily      *repository.DailyCompletionRepository
	completion *repository.CompletionCacheRepository
}

type services struct {
	resolver   *service.OrderingResolver
	guard      *service.DailyGuard
	completion *service.CompletionService
	today      *service.TodayService
	selection  *service.GoalSelectionService
}

type controllers struct {
	progression *controller.ProgressionController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		goal:       repository.NewGoalRepository(db),
		phase:      repository.NewPhaseRepository(db),
		action:     repository.NewActionRepository(db),
		execution:  repository.NewExecutionRecordRepository(db),
		pointer:    repository.NewStatePointerRepository(db),
		daily:      repository.NewDailyCompletionRepository(db),
		completion: repository.NewCompletionCacheRepository(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	loc, err := cfg.Progression.Location()
	if err != nil {
		// LoadConfig 已校验过时区
		loc = time.Local
	}
	calendar := service.NewCalendar(service.SystemClock(), loc)

	s := &services{}
	s.resolver = service.NewOrderingResolver(repos.action, repos.phase)
	s.guard = service.NewDailyGuard(repos.execution, repos.completion)
	s.completion = service.NewCompletionService(
		db,
		repos.goal,
		repos.phase,
		repos.action,
		repos.execution,
		repos.pointer,
		repos.daily,
		repos.completion,
		s.resolver,
		s.guard,
		calendar,
	)
	s.today = service.NewTodayService(db, repos.action, repos.pointer, repos.daily, s.resolver, calendar)
	s.selection = service.NewGoalSelectionService(db, repos.goal, repos.pointer, s.resolver)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		progression: controller.NewProgressionController(s.completion, s.today, s.selection),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewIPRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// onConfigReload 可热更新的配置：日志级别与限流
func (a *App) onConfigReload(cfg *config.Config) {
	logger.SetMode(cfg.Server.Mode)
	if a.limiter != nil {
		a.limiter.SetLimit(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	}
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	go a.services.completion.StartReconciler(ctx, a.Config.Progression.ReconcileInterval, reconcileBatchSize)

	if a.ConfigFile == "" {
		return
	}
	go func() {
		if err := configwatcher.WatchConfig(ctx, a.ConfigFile, a.onConfigReload); err != nil {
			logger.Log.Error("config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config:     cfg,
		ConfigFile: filepath.Join(configDir, "config.yaml"),
		DB:         db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("goalpath", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	repos := app.initRepositories(db, rdb)
	app.services = app.initServices(repos, cfg, db)
	controllers := app.initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stopBackground := context.WithCancel(context.Background())
	a.startBackgroundTasks(ctx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stopBackground()
	a.limiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := tracing.Shutdown(shutdownCtx, a.tracer); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}

	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
