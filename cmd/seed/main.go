package main

import (
	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认餐厅
	if err := models.InitDefaultRestaurant("Prato Demo", constants.SiteCurrencyDefault); err != nil {
		stdLog.Fatalf("Failed to init default restaurant: %v", err)
	}
	var restaurant models.Restaurant
	if err := models.DB.Where("slug = ?", "default").First(&restaurant).Error; err != nil {
		stdLog.Fatalf("Failed to load default restaurant: %v", err)
	}

	// 食材
	ingredients := []models.Ingredient{
		{RestaurantID: restaurant.ID, Name: "Pão de hambúrguer", Unit: "un", CurrentStock: decimal.NewFromInt(120), MinThreshold: decimal.NewFromInt(20), CostPerUnit: models.NewMoneyFromString("1.20")},
		{RestaurantID: restaurant.ID, Name: "Carne bovina", Unit: "kg", CurrentStock: decimal.NewFromInt(30), MinThreshold: decimal.NewFromInt(5), CostPerUnit: models.NewMoneyFromString("32.00")},
		{RestaurantID: restaurant.ID, Name: "Queijo prato", Unit: "kg", CurrentStock: decimal.NewFromInt(10), MinThreshold: decimal.NewFromInt(2), CostPerUnit: models.NewMoneyFromString("45.00")},
		{RestaurantID: restaurant.ID, Name: "Batata", Unit: "kg", CurrentStock: decimal.NewFromInt(50), MinThreshold: decimal.NewFromInt(8), CostPerUnit: models.NewMoneyFromString("6.50")},
		{RestaurantID: restaurant.ID, Name: "Refrigerante lata", Unit: "un", CurrentStock: decimal.NewFromInt(200), MinThreshold: decimal.NewFromInt(24), CostPerUnit: models.NewMoneyFromString("3.00")},
	}
	ingredientIDs := make(map[string]uint, len(ingredients))
	for _, ing := range ingredients {
		var existing models.Ingredient
		err := models.DB.Where("restaurant_id = ? AND name = ?", ing.RestaurantID, ing.Name).First(&existing).Error
		if err == nil {
			stdLog.Printf("Ingredient already exists: %s", ing.Name)
			ingredientIDs[ing.Name] = existing.ID
			continue
		}
		if err := models.DB.Create(&ing).Error; err != nil {
			stdLog.Printf("Failed to create ingredient %s: %v", ing.Name, err)
			continue
		}
		stdLog.Printf("Created ingredient: %s", ing.Name)
		ingredientIDs[ing.Name] = ing.ID
	}

	// 菜品与配方
	type menuSeed struct {
		Name   string
		Price  string
		Recipe map[string]string // 食材名 -> 单份用量
	}
	menus := []menuSeed{
		{
			Name:  "X-Burger Clássico",
			Price: "28.90",
			Recipe: map[string]string{
				"Pão de hambúrguer": "1",
				"Carne bovina":      "0.180",
				"Queijo prato":      "0.030",
			},
		},
		{
			Name:  "Batata Frita Grande",
			Price: "14.50",
			Recipe: map[string]string{
				"Batata": "0.400",
			},
		},
		{
			Name:  "Refrigerante Lata",
			Price: "6.00",
			Recipe: map[string]string{
				"Refrigerante lata": "1",
			},
		},
	}
	for _, m := range menus {
		var existing models.MenuItem
		err := models.DB.Where("restaurant_id = ? AND name = ?", restaurant.ID, m.Name).First(&existing).Error
		if err == nil {
			stdLog.Printf("Menu item already exists: %s", m.Name)
			continue
		}
		item := models.MenuItem{
			RestaurantID: restaurant.ID,
			Name:         m.Name,
			Price:        models.NewMoneyFromString(m.Price),
			Active:       true,
		}
		if err := models.DB.Create(&item).Error; err != nil {
			stdLog.Printf("Failed to create menu item %s: %v", m.Name, err)
			continue
		}
		for ingName, qty := range m.Recipe {
			ingID, ok := ingredientIDs[ingName]
			if !ok {
				stdLog.Printf("Skip recipe line, ingredient missing: %s", ingName)
				continue
			}
			recipe := models.RecipeItem{
				MenuItemID:   item.ID,
				IngredientID: ingID,
				Quantity:     decimal.RequireFromString(qty),
			}
			if err := models.DB.Create(&recipe).Error; err != nil {
				stdLog.Printf("Failed to create recipe line %s/%s: %v", m.Name, ingName, err)
			}
		}
		stdLog.Printf("Created menu item: %s", m.Name)
	}

	// 员工
	staffMembers := []models.Staff{
		{UID: "staff-ana", RestaurantID: restaurant.ID, Name: "Ana Souza", Email: "ana@prato.local", Role: constants.RoleWaiter, Active: true},
		{UID: "staff-bruno", RestaurantID: restaurant.ID, Name: "Bruno Lima", Email: "bruno@prato.local", Role: constants.RoleDriver, Active: true},
		{UID: "staff-clara", RestaurantID: restaurant.ID, Name: "Clara Nunes", Email: "clara@prato.local", Role: constants.RoleKitchen, Active: true},
		{UID: "staff-diego", RestaurantID: restaurant.ID, Name: "Diego Alves", Email: "diego@prato.local", Role: constants.RoleManager, Active: true},
	}
	for _, s := range staffMembers {
		var existing models.Staff
		err := models.DB.Where("uid = ?", s.UID).First(&existing).Error
		if err == nil {
			stdLog.Printf("Staff already exists: %s", s.UID)
			continue
		}
		if err := models.DB.Create(&s).Error; err != nil {
			stdLog.Printf("Failed to create staff %s: %v", s.UID, err)
			continue
		}
		stdLog.Printf("Created staff: %s (%s)", s.Name, s.Role)
	}

	stdLog.Printf("Seed completed")
}
