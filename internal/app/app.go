package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/controller"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"lms_backend/pkg/configwatcher"
	"lms_backend/pkg/database"
	"lms_backend/pkg/events"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/scheduler"
	"lms_backend/pkg/security"
	"lms_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configFile = "configs/config.yaml"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Mongo           *mongo.Client
	MongoDB         *mongo.Database
	Events          events.Publisher
	services        *services
	limiter         *security.DynamicRateLimiter
	scheduler       *scheduler.Scheduler
	tracer          *sdktrace.TracerProvider
	stopWatch       context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user          *repository.UserRepository
	quiz          *repository.QuizRepository
	attempt       *repository.QuizAttemptRepository
	weakArea      *repository.WeakAreaRepository
	ranking       *repository.RankingRepository
	syllabus      *repository.SyllabusRepository
	changeRequest *repository.ChangeRequestRepository
	forum         *repository.ForumRepository
	dashboard     *repository.DashboardRepository
	chatSession   *repository.ChatSessionRepository
	chatRoom      *repository.ChatRoomRepository
}

type services struct {
	auth          *service.AuthService
	storage       *service.StorageService
	user          *service.UserService
	changeRequest *service.ChangeRequestService
	quiz          *service.QuizService
	attempt       *service.QuizAttemptService
	weakArea      *service.WeakAreaService
	ranking       *service.RankingService
	syllabus      *service.SyllabusService
	ai            *service.AIService
	tutor         *service.TutorService
	roomHub       *service.RoomHub
	chatRoom      *service.ChatRoomService
	forum         *service.ForumService
	dashboard     *service.DashboardService
}

type controllers struct {
	auth          *controller.AuthController
	user          *controller.UserController
	changeRequest *controller.ChangeRequestController
	quiz          *controller.QuizController
	weakArea      *controller.WeakAreaController
	ranking       *controller.RankingController
	syllabus      *controller.SyllabusController
	tutor         *controller.TutorController
	chat          *controller.ChatController
	forum         *controller.ForumController
	dashboard     *controller.DashboardController
	health        *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func initRepositories(db *gorm.DB, mdb *mongo.Database) *repositories {
	return &repositories{
		user:          repository.NewUserRepository(db),
		quiz:          repository.NewQuizRepository(db),
		attempt:       repository.NewQuizAttemptRepository(db),
		weakArea:      repository.NewWeakAreaRepository(db),
		ranking:       repository.NewRankingRepository(db),
		syllabus:      repository.NewSyllabusRepository(db),
		changeRequest: repository.NewChangeRequestRepository(db),
		forum:         repository.NewForumRepository(db),
		dashboard:     repository.NewDashboardRepository(db),
		chatSession:   repository.NewChatSessionRepository(mdb),
		chatRoom:      repository.NewChatRoomRepository(mdb),
	}
}

func initServices(repos *repositories, cfg *config.Config, rdb *redis.Client, publisher events.Publisher) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, s.storage, publisher)
	s.changeRequest = service.NewChangeRequestService(repos.changeRequest, repos.user)

	s.quiz = service.NewQuizService(repos.quiz, repos.attempt, repos.user)
	s.weakArea = service.NewWeakAreaService(repos.weakArea, repos.user, repos.attempt)
	s.ranking = service.NewRankingService(repos.ranking, repos.user, repos.attempt, publisher)
	s.attempt = service.NewQuizAttemptService(repos.attempt, repos.quiz, repos.user, s.weakArea, s.ranking, publisher)
	s.syllabus = service.NewSyllabusService(repos.syllabus, repos.user, publisher)

	s.ai = service.NewAIService(cfg.AI)
	s.tutor = service.NewTutorService(repos.chatSession, s.ai, repos.weakArea, repos.attempt)
	applyChatConfig(s, cfg.Chat)

	s.roomHub = service.NewRoomHub(rdb)
	s.chatRoom = service.NewChatRoomService(repos.chatRoom, s.roomHub, repos.user)
	if cfg.Chat.PollIntervalSeconds > 0 {
		s.chatRoom.PollInterval = time.Duration(cfg.Chat.PollIntervalSeconds) * time.Second
	}

	s.forum = service.NewForumService(repos.forum, repos.user, rdb)
	s.dashboard = service.NewDashboardService(repos.user, repos.attempt, repos.weakArea, repos.ranking, repos.syllabus, repos.changeRequest, repos.dashboard)

	return s
}

func applyChatConfig(s *services, cfg config.ChatConfig) {
	if cfg.MaxMessageLength > 0 {
		s.tutor.MaxMessageLength = cfg.MaxMessageLength
	}
	if cfg.HistoryLimit > 0 {
		s.tutor.HistoryLimit = cfg.HistoryLimit
	}
}

func initControllers(s *services, db *gorm.DB, mongoClient *mongo.Client, rdb *redis.Client) *controllers {
	return &controllers{
		auth:          controller.NewAuthController(s.auth),
		user:          controller.NewUserController(s.user),
		changeRequest: controller.NewChangeRequestController(s.changeRequest),
		quiz:          controller.NewQuizController(s.quiz, s.attempt, s.tutor),
		weakArea:      controller.NewWeakAreaController(s.weakArea),
		ranking:       controller.NewRankingController(s.ranking),
		syllabus:      controller.NewSyllabusController(s.syllabus),
		tutor:         controller.NewTutorController(s.tutor),
		chat:          controller.NewChatController(s.chatRoom, s.roomHub),
		forum:         controller.NewForumController(s.forum),
		dashboard:     controller.NewDashboardController(s.dashboard),
		health:        controller.NewHealthController(db, mongoClient, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewDynamicRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	router.Use(a.limiter.Handler())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	go s.roomHub.Run()

	a.scheduler = scheduler.New(context.Background())
	a.scheduler.Every("ranking.rebuild", a.Config.Ranking.RebuildInterval(), func(ctx context.Context) error {
		n, err := s.ranking.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		logger.Log.Info("Rankings rebuilt", zap.Int("students", n))
		return nil
	})

	// 配置热更新：AI 参数、限流、聊天限制
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.ai.UpdateConfig(cfg.AI)
		a.limiter.Update(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
		applyChatConfig(s, cfg.Chat)
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatch = cancel
	go func() {
		err := configwatcher.WatchConfig(ctx, configFile, func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher stopped", zap.String("file", filepath.Clean(configFile)), zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Database migration failed", zap.Error(err))
		}
	}

	app := &App{Config: cfg, DB: db}
	if cfg.MigrateOnly {
		return app
	}

	// redis 不可用时聊天室只做本机推送，论坛浏览数不去重
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, running without pub/sub", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	mongoClient, mdb, err := database.InitMongo(context.Background(), &cfg.Mongo)
	if err != nil {
		logger.Log.Fatal("Failed to initialize mongo", zap.Error(err))
	}
	app.Mongo, app.MongoDB = mongoClient, mdb

	publisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Log.Warn("RabbitMQ unavailable, domain events are dropped", zap.Error(err))
		publisher, _ = events.NewAMQPPublisher("", cfg.RabbitMQ.Exchange)
	}
	app.Events = publisher

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lms-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	repos := initRepositories(db, mdb)
	services := initServices(repos, cfg, rdb, publisher)
	app.services = services
	controllers := initControllers(services, db, mongoClient, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

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

	// 清理 WebSocket连接和Redis在线状态
	if a.services != nil && a.services.roomHub != nil {
		a.services.roomHub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
}

// Close 释放后台任务和外部连接
func (a *App) Close() {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			logger.Log.Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Mongo != nil {
		_ = a.Mongo.Disconnect(context.Background())
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
