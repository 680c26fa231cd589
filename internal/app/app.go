package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grading_center_backend/internal/config"
	"grading_center_backend/internal/controller"
	"grading_center_backend/internal/repository"
	"grading_center_backend/internal/service"
	"grading_center_backend/pkg/database"
	"grading_center_backend/pkg/keylock"
	"grading_center_backend/pkg/logger"
	"grading_center_backend/pkg/monitoring"
	"grading_center_backend/pkg/security"
	"grading_center_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	policy   *service.GradingPolicy
}

type repositories struct {
	user        *repository.UserRepository
	exam        *repository.ExamRepository
	answer      *repository.AnswerRepository
	arbitration *repository.ArbitrationRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	answer      *service.AnswerService
	grading     *service.GradingService
	arbitration *service.ArbitrationService
	hub         *service.NotifyHub
}

type controllers struct {
	auth        *controller.AuthController
	answer      *controller.AnswerController
	grading     *controller.GradingController
	arbitration *controller.ArbitrationController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		exam:        repository.NewExamRepository(db),
		answer:      repository.NewAnswerRepository(db),
		arbitration: repository.NewArbitrationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	locks := keylock.New()
	cache := service.NewAnswerCache(rdb)
	a.policy = service.NewGradingPolicy(&cfg.Grading)

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.answer = service.NewAnswerService(repos.answer, repos.exam, repos.user, repos.arbitration, cache, s.storage)

	s.hub = service.NewNotifyHub(rdb)
	go s.hub.Run()

	s.arbitration = service.NewArbitrationService(repos.arbitration, repos.answer, repos.exam, locks)
	s.arbitration.Hub = s.hub
	s.arbitration.SyncOpenGauge()

	s.grading = service.NewGradingService(repos.answer, repos.exam, a.policy, locks)
	s.grading.Arbitration = s.arbitration
	s.grading.Cache = cache
	s.grading.Hub = s.hub

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth, repos.user),
		answer:      controller.NewAnswerController(s.answer),
		grading:     controller.NewGradingController(s.grading),
		arbitration: controller.NewArbitrationController(s.arbitration, s.hub),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 6000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ApplyConfig 配置热更新回调：只刷新阅卷策略参数，
// 其余配置项需要重启才生效
func (a *App) ApplyConfig(cfg *config.Config) {
	a.policy.Update(&cfg.Grading)
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	// debug 模式下总是迁移，release 模式需要显式 -migrate
	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Server.Mode != "release")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.Server.Mode == "debug" {
		database.SeedDemoData(db)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("grading-center", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

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

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 断开事件推送连接
	if a.services != nil && a.services.hub != nil {
		a.services.hub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
