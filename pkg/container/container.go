package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/config"
	infraCache "roastery-backend/internal/infrastructure/cache"
	"roastery-backend/internal/infrastructure/database"
	"roastery-backend/internal/infrastructure/events"
	"roastery-backend/internal/infrastructure/metrics"
	"roastery-backend/internal/infrastructure/queue"
	"roastery-backend/internal/shared/middleware"
	"roastery-backend/pkg/cache"
	"roastery-backend/pkg/jwt"

	// User domain
	"roastery-backend/internal/domains/user"
	userHandler "roastery-backend/internal/domains/user/handler"
	userRepo "roastery-backend/internal/domains/user/repository"
	userService "roastery-backend/internal/domains/user/service"

	// Settings domain
	"roastery-backend/internal/domains/settings"
	settingsHandler "roastery-backend/internal/domains/settings/handler"
	settingsRepo "roastery-backend/internal/domains/settings/repository"
	settingsService "roastery-backend/internal/domains/settings/service"

	// Order domain
	orderHandler "roastery-backend/internal/domains/order/handler"
	orderRepo "roastery-backend/internal/domains/order/repository"
	orderService "roastery-backend/internal/domains/order/service"

	// Payment domain
	"roastery-backend/internal/domains/payment/gateway"
	mockProcessor "roastery-backend/internal/domains/payment/gateway/mock"
	"roastery-backend/internal/domains/payment/gateway/processor"
	paymentHandler "roastery-backend/internal/domains/payment/handler"
	paymentRepo "roastery-backend/internal/domains/payment/repository"
	paymentService "roastery-backend/internal/domains/payment/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application (api + worker dùng chung)
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	Metrics     *metrics.Metrics
	AsynqClient *asynq.Client
	Publisher   events.Publisher
	Processor   gateway.Processor

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	UserRepo      user.Repository
	SettingsRepo  settings.Repository
	OrderRepo     orderRepo.OrderRepository
	IntentRepo    paymentRepo.IntentRepository
	ReconcileRepo paymentRepo.ReconcileRepository
	WebhookRepo   paymentRepo.WebhookRepository

	// ========================================
	// SERVICE LAYER
	// ========================================
	UserService     user.Service
	SettingsService settings.Service
	OrderService    orderService.OrderService
	PaymentService  paymentService.PaymentService

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================
	UserHandler     *userHandler.UserHandler
	SettingsHandler *settingsHandler.SettingsHandler
	OrderHandler    *orderHandler.OrderHandler
	PaymentHandler  *paymentHandler.PaymentHandler

	// SessionGate là cổng Authorize duy nhất cho mọi protected route
	SessionGate *middleware.SessionGate
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph
//
// Thứ tự initialization:
// 1. Config
// 2. Infrastructure (DB, Cache, Queue, Processor)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer() (*Container, error) {
	log.Info().Msg("🔧 Initializing DI Container...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return Build(cfg)
}

// Build dựng container từ config đã load
func Build(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	log.Info().Str("environment", cfg.App.Environment).Msg("✅ Config loaded")

	// ========================================
	// STEP 1: INFRASTRUCTURE
	// ========================================
	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 2: REPOSITORIES
	// ========================================
	c.initRepositories()
	log.Info().Msg("✅ Repositories initialized")

	// ========================================
	// STEP 3: SERVICES
	// ========================================
	c.initServices()
	log.Info().Msg("✅ Services initialized")

	// ========================================
	// STEP 4: HANDLERS
	// ========================================
	c.initHandlers()
	log.Info().Msg("✅ Handlers initialized")

	log.Info().Msg("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	c.Metrics = metrics.New()

	// Database
	log.Info().Msg("🗄️  Connecting to PostgreSQL...")
	db := database.NewPostgresDB(cfg.Database.ToDBConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	log.Info().Msg("✅ Database connected")

	// Cache: Redis failure không critical, session Verify luôn đọc DB
	log.Info().Msg("🔴 Connecting to Redis...")
	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️  Redis connection failed (non-critical)")
	} else {
		log.Info().Msg("✅ Redis connected")
	}
	c.Cache = redisCache

	// Queue client (recovery retries)
	c.AsynqClient = asynq.NewClient(c.RedisClientOpt())

	c.JWTManager = jwt.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	c.Publisher = events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)

	// Card processor
	if cfg.Processor.UseMock {
		log.Warn().Msg("⚠️  Using in-memory mock card processor")
		c.Processor = mockProcessor.NewProcessor(cfg.Processor.WebhookSecret)
	} else {
		p, err := processor.NewClient(&processor.Config{
			APIURL:             cfg.Processor.APIURL,
			SecretKey:          cfg.Processor.SecretKey,
			WebhookSecret:      cfg.Processor.WebhookSecret,
			Timeout:            cfg.Processor.Timeout,
			SignatureTolerance: cfg.Processor.SignatureTolerance,
		})
		if err != nil {
			return fmt.Errorf("failed to init card processor: %w", err)
		}
		c.Processor = p
	}

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.SettingsRepo = settingsRepo.NewPostgresRepository(pool)
	c.OrderRepo = orderRepo.NewPostgresOrderRepository(pool)

	c.IntentRepo = paymentRepo.NewIntentRepository(pool)
	c.ReconcileRepo = paymentRepo.NewReconcileRepository(pool, c.OrderRepo)
	c.WebhookRepo = paymentRepo.NewWebhookRepository(pool)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.UserService = userService.NewUserService(
		c.UserRepo,
		c.JWTManager,
		c.Cache,
		c.Metrics,
		userService.Options{
			MaxFailedLogins:  cfg.Session.MaxFailedLogins,
			FailedLoginAfter: cfg.Session.FailedLoginAfter,
		},
	)

	c.SettingsService = settingsService.NewSettingsService(c.SettingsRepo, c.Cache)
	c.OrderService = orderService.NewOrderService(c.OrderRepo)

	c.PaymentService = paymentService.NewPaymentService(
		c.Processor,
		c.IntentRepo,
		c.ReconcileRepo,
		c.WebhookRepo,
		c.Publisher,
		queue.NewRecoveryQueue(c.AsynqClient, cfg.Recovery.RetryDelay),
		c.Metrics,
		paymentService.Options{
			DefaultCurrency:  cfg.Payment.DefaultCurrency,
			ProcessorTimeout: cfg.Processor.Timeout,
			SweepRPS:         cfg.Recovery.RPS,
		},
	)
}

func (c *Container) initHandlers() {
	cfg := c.Config

	c.SessionGate = middleware.NewSessionGate(c.UserService, cfg.Session.CookieName)

	c.UserHandler = userHandler.NewUserHandler(c.UserService, userHandler.CookieConfig{
		Name:   cfg.Session.CookieName,
		Domain: cfg.Session.CookieDomain,
		Secure: cfg.Session.CookieSecure,
	})
	c.SettingsHandler = settingsHandler.NewSettingsHandler(c.SettingsService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
}

// ========================================
// HELPER METHODS
// ========================================

// RedisClientOpt là redis options cho asynq client / server / scheduler
func (c *Container) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to close asynq client")
		}
	}

	if c.DB != nil {
		_ = c.DB.Close()
		log.Info().Msg("✅ Database connections closed")
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok && rc != nil {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to close Redis")
		} else {
			log.Info().Msg("✅ Redis connections closed")
		}
	}

	log.Info().Msg("✅ Container cleanup completed")
}
