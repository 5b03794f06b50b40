package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prato-next/internal/cache"
	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/http/handlers/api"
	"github.com/prato-next/internal/http/response"
	"github.com/prato-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, container *provider.Container) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggerMiddleware(nil))
	engine.Use(CORSMiddleware(cfg.CORS))

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pn"
	}
	writeLimit := cfg.Security.WriteRateLimit
	orderCreateRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order_create", redisPrefix),
		WindowSeconds: writeLimit.WindowSeconds,
		MaxRequests:   writeLimit.MaxRequests,
		BlockSeconds:  writeLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}
	confirmDeliveryRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:confirm_delivery", redisPrefix),
		WindowSeconds: writeLimit.WindowSeconds,
		MaxRequests:   writeLimit.MaxRequests,
		BlockSeconds:  writeLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	redisClient := cache.Client()
	handler := api.New(container)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	v1.Use(ActorMiddleware())
	v1.Use(RoleRBACMiddleware(container.AuthzService))
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", RateLimitMiddleware(redisClient, orderCreateRule, KeyByIP), handler.CreateOrder)
			orders.GET("", handler.ListOrders)
			orders.POST("/preview-discount", handler.PreviewDiscount)
			orders.GET("/:id", handler.GetOrder)
			orders.POST("/:id/transition", handler.TransitionOrder)
			orders.POST("/:id/cancel", handler.CancelOrder)
			orders.POST("/:id/confirm-delivery", RateLimitMiddleware(redisClient, confirmDeliveryRule, KeyByIP), handler.ConfirmDelivery)
		}

		ingredients := v1.Group("/ingredients")
		{
			ingredients.GET("", handler.ListIngredients)
			ingredients.POST("", handler.CreateIngredient)
			ingredients.POST("/:id/adjust", handler.AdjustIngredient)
		}

		referral := v1.Group("/referral")
		{
			referral.POST("/code", handler.IssueReferralCode)
			referral.POST("/validate", handler.ValidateReferralCode)
		}

		wallet := v1.Group("/wallet")
		{
			wallet.GET("/:customer_id", handler.GetWallet)
			wallet.GET("/:customer_id/entries", handler.ListWalletEntries)
		}

		staff := v1.Group("/staff")
		{
			staff.GET("", handler.ListStaffPerformance)
			staff.GET("/:id/performance", handler.GetStaffPerformance)
			staff.GET("/:id/roles", handler.GetStaffRoles)
			staff.PUT("/:id/roles", handler.SetStaffRoles)
		}

		v1.GET("/audit-logs", handler.ListAuditLogs)

		authzGroup := v1.Group("/authz")
		{
			authzGroup.GET("/permissions", func(c *gin.Context) {
				response.Success(c, buildPermissionCatalog(engine))
			})
			authzGroup.GET("/roles", handler.ListRoles)
			authzGroup.DELETE("/roles/:role", handler.DeleteRole)
			authzGroup.GET("/roles/:role/policies", handler.GetRolePolicies)
			authzGroup.POST("/roles/:role/policies", handler.GrantRolePolicy)
			authzGroup.DELETE("/roles/:role/policies", handler.RevokeRolePolicy)
		}
	}

	return engine
}

// PermissionCatalogEntry 路由权限清单条目
type PermissionCatalogEntry struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// buildPermissionCatalog 汇总已注册路由，供角色策略配置参考
func buildPermissionCatalog(engine *gin.Engine) []PermissionCatalogEntry {
	routes := engine.Routes()
	entries := make([]PermissionCatalogEntry, 0, len(routes))
	for _, route := range routes {
		if !strings.HasPrefix(route.Path, "/api/v1/") {
			continue
		}
		entries = append(entries, PermissionCatalogEntry{
			Method: route.Method,
			Path:   route.Path,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path == entries[j].Path {
			return entries[i].Method < entries[j].Method
		}
		return entries[i].Path < entries[j].Path
	})
	return entries
}
