package provider

import (
	"github.com/prato-next/internal/authz"
	"github.com/prato-next/internal/cache"
	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/gateway"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/queue"
	"github.com/prato-next/internal/repository"
	"github.com/prato-next/internal/resilience"
	"github.com/prato-next/internal/service"
	"github.com/prato-next/internal/textgen"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	RestaurantRepo repository.RestaurantRepository
	OrderRepo      repository.OrderRepository
	IngredientRepo repository.IngredientRepository
	MenuItemRepo   repository.MenuItemRepository
	AuditLogRepo   repository.AuditLogRepository
	ReferralRepo   repository.ReferralRepository
	WalletRepo     repository.WalletRepository
	StaffRepo      repository.StaffRepository

	// Services
	AuthzService       *authz.Service
	AuditService       *service.AuditService
	InventoryService   *service.InventoryService
	WalletService      *service.WalletService
	ReferralService    *service.ReferralService
	PerformanceService *service.PerformanceService
	OrderService       *service.OrderService

	// External collaborators
	GatewayClient *gateway.Client
	TextgenClient *textgen.Client
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.RestaurantRepo = repository.NewRestaurantRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.IngredientRepo = repository.NewIngredientRepository(db)
	c.MenuItemRepo = repository.NewMenuItemRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.StaffRepo = repository.NewStaffRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	policy := resilience.FromConfig(c.Config.Resilience)
	c.GatewayClient = gateway.NewClient(c.Config.Gateway, policy)
	c.TextgenClient = textgen.NewClient(c.Config.Textgen, policy)

	c.AuditService = service.NewAuditService(c.AuditLogRepo, c.Config.Audit.DiscountWarnPercent, c.Config.Audit.ListLimitCap)
	c.InventoryService = service.NewInventoryService(c.IngredientRepo, c.MenuItemRepo, c.AuditService)
	c.WalletService = service.NewWalletService(c.WalletRepo)
	c.ReferralService = service.NewReferralService(c.ReferralRepo, c.WalletService, c.AuditService, c.Config.Referral)
	c.PerformanceService = service.NewPerformanceService(c.StaffRepo, c.AuditService, c.Config.Performance)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.MenuItemRepo,
		c.InventoryService,
		c.ReferralService,
		c.PerformanceService,
		c.AuditService,
		c.QueueClient,
		c.Config.Order,
	)
}
