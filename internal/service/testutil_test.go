package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Restaurant{},
		&models.Staff{},
		&models.MenuItem{},
		&models.RecipeItem{},
		&models.Ingredient{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
		&models.ReferralCode{},
		&models.ReferralReward{},
		&models.CashbackWallet{},
		&models.CashbackBalance{},
		&models.CashbackEntry{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createTestRestaurant(t *testing.T, db *gorm.DB) *models.Restaurant {
	t.Helper()
	restaurant := &models.Restaurant{
		Slug:     fmt.Sprintf("rest-%d", time.Now().UnixNano()),
		Name:     "Test Kitchen",
		Currency: "BRL",
		Active:   true,
	}
	if err := db.Create(restaurant).Error; err != nil {
		t.Fatalf("create restaurant failed: %v", err)
	}
	return restaurant
}

func createTestIngredient(t *testing.T, db *gorm.DB, restaurantID uint, name, stock string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{
		RestaurantID: restaurantID,
		Name:         name,
		Unit:         "un",
		CurrentStock: decimal.RequireFromString(stock),
	}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("create ingredient failed: %v", err)
	}
	return ingredient
}

func createTestMenuItem(t *testing.T, db *gorm.DB, restaurantID uint, name, price string, recipe map[uint]string) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		RestaurantID: restaurantID,
		Name:         name,
		Price:        models.NewMoneyFromString(price),
		Active:       true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create menu item failed: %v", err)
	}
	for ingredientID, qty := range recipe {
		line := &models.RecipeItem{
			MenuItemID:   item.ID,
			IngredientID: ingredientID,
			Quantity:     decimal.RequireFromString(qty),
		}
		if err := db.Create(line).Error; err != nil {
			t.Fatalf("create recipe line failed: %v", err)
		}
	}
	return item
}

func createTestStaff(t *testing.T, db *gorm.DB, restaurantID uint, uid, role string) *models.Staff {
	t.Helper()
	staff := &models.Staff{
		UID:          uid,
		RestaurantID: restaurantID,
		Name:         uid,
		Role:         role,
		Active:       true,
	}
	if err := db.Create(staff).Error; err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	return staff
}

func createTestOrder(t *testing.T, db *gorm.DB, restaurantID uint, customerUID, status, total string) *models.Order {
	t.Helper()
	order := &models.Order{
		RestaurantID:  restaurantID,
		Customer:      models.OrderCustomer{UID: customerUID, Name: "Cliente Teste"},
		Total:         models.NewMoneyFromString(total),
		Status:        status,
		PaymentStatus: constants.PaymentStatusPending,
		PaymentMethod: constants.PaymentMethodCash,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func defaultReferralConfig() config.ReferralConfig {
	return config.ReferralConfig{
		BonusAmount:        "10.00",
		ReferredBonus:      "5.00",
		MaxDiscountPercent: 0.5,
		MinOrderTotal:      "20.00",
		CodeExpiryDays:     30,
		CodeLength:         8,
	}
}

func buildTestServices(t *testing.T, db *gorm.DB) (*OrderService, *InventoryService, *ReferralService, *WalletService, *PerformanceService, *AuditService) {
	t.Helper()
	auditService := NewAuditService(repository.NewAuditLogRepository(db), 0.3, 200)
	inventoryService := NewInventoryService(repository.NewIngredientRepository(db), repository.NewMenuItemRepository(db), auditService)
	walletService := NewWalletService(repository.NewWalletRepository(db))
	referralService := NewReferralService(repository.NewReferralRepository(db), walletService, auditService, defaultReferralConfig())
	performanceService := NewPerformanceService(repository.NewStaffRepository(db), auditService, config.PerformanceConfig{ResetHour: 0, ResetTimezone: "UTC"})
	orderService := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewMenuItemRepository(db),
		inventoryService,
		referralService,
		performanceService,
		auditService,
		nil,
		config.OrderConfig{PinLength: 4, PinMaxAttempts: 3, PinBlockSeconds: 60, PendingExpireMinutes: 15},
	)
	return orderService, inventoryService, referralService, walletService, performanceService, auditService
}
