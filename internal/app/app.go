package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/controller"
	"nihongo_edu_backend/internal/repository"
	"nihongo_edu_backend/internal/service"
	"nihongo_edu_backend/pkg/database"
	"nihongo_edu_backend/pkg/logger"
	"nihongo_edu_backend/pkg/monitoring"
	"nihongo_edu_backend/pkg/security"
	"nihongo_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	lesson   *repository.LessonRepository
	question *repository.QuestionRepository
	answer   *repository.AnswerRepository
	progress *repository.ProgressRepository
	catalog  *repository.CatalogRepository
}

type services struct {
	auth         *service.AuthService
	content      *service.ContentService
	answer       *service.AnswerService
	progress     *service.ProgressService
	performance  *service.PerformanceService
	remediation  *service.RemediationService
	personalized *service.PersonalizedContentService
	storage      *service.StorageService
}

type controllers struct {
	auth      *controller.AuthController
	learning  *controller.LearningController
	analytics *controller.AnalyticsController
	lesson    *controller.LessonController
	catalog   *controller.CatalogController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig re-runs every registered callback against a freshly loaded
// config. Called by the config watcher.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		lesson:   repository.NewLessonRepository(db),
		question: repository.NewQuestionRepository(db),
		answer:   repository.NewAnswerRepository(db),
		progress: repository.NewProgressRepository(db),
		catalog:  repository.NewCatalogRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	cache := service.NewReportCache(rdb, time.Duration(cfg.Learning.ReportCacheTTLMinutes)*time.Minute)
	generator := service.NewGenerationClient(cfg.Generation)

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.auth = service.NewAuthService(repos.user, cfg)
	s.content = service.NewContentService(repos.lesson, repos.question, repos.catalog, db)
	s.answer = service.NewAnswerService(repos.question, repos.answer, repos.lesson, cache)
	s.progress = service.NewProgressService(repos.progress, repos.lesson, repos.answer, db, cache)
	s.performance = service.NewPerformanceService(repos.answer, repos.progress, repos.lesson, cfg.Learning, cache)
	s.remediation = service.NewRemediationService(cfg.Learning)
	s.personalized = service.NewPersonalizedContentService(
		s.performance,
		s.remediation,
		repos.catalog,
		repos.user,
		generator,
		db,
		cfg.Learning,
	)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		learning:  controller.NewLearningController(s.answer, s.progress, s.personalized),
		analytics: controller.NewAnalyticsController(s.performance, s.remediation),
		lesson:    controller.NewLessonController(s.content),
		catalog:   controller.NewCatalogController(s.content),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.MigrateOnly {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Migration failed", zap.Error(err))
		}
		if cfg.MigrateOnly {
			logger.Log.Info("Migration complete, exiting")
			os.Exit(0)
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// redis is a cache here, the loop works without it
		logger.Log.Warn("Redis unavailable, report caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer(&cfg.Tracing); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Info("Server exiting")
}
