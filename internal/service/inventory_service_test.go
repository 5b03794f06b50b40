package service

import (
	"errors"
	"testing"

	"github.com/prato-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestDeductForOrderClampsToZero(t *testing.T) {
	db := setupServiceTestDB(t)
	_, inventoryService, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	bun := createTestIngredient(t, db, restaurant.ID, "Pão", "5")
	patty := createTestIngredient(t, db, restaurant.ID, "Carne", "1")
	burger := createTestMenuItem(t, db, restaurant.ID, "X-Burger", "28.90", map[uint]string{
		bun.ID:   "1",
		patty.ID: "1",
	})

	order := createTestOrder(t, db, restaurant.ID, "cliente-1", "PREPARING", "57.80")
	order.Items = []models.OrderItem{{MenuItemID: burger.ID, Name: burger.Name, Quantity: 2, UnitPrice: burger.Price}}

	result, err := inventoryService.DeductForOrder(order)
	if err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	if result.Success {
		t.Fatalf("expected success=false with deficit")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors want 1 got %d: %v", len(result.Errors), result.Errors)
	}

	var gotBun, gotPatty models.Ingredient
	if err := db.First(&gotBun, bun.ID).Error; err != nil {
		t.Fatalf("reload bun failed: %v", err)
	}
	if err := db.First(&gotPatty, patty.ID).Error; err != nil {
		t.Fatalf("reload patty failed: %v", err)
	}
	if !gotBun.CurrentStock.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("bun stock want 3 got %s", gotBun.CurrentStock)
	}
	if !gotPatty.CurrentStock.Equal(decimal.Zero) {
		t.Fatalf("patty stock want 0 got %s", gotPatty.CurrentStock)
	}
}

func TestDeductForOrderAggregatesRepeatedItems(t *testing.T) {
	db := setupServiceTestDB(t)
	_, inventoryService, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	potato := createTestIngredient(t, db, restaurant.ID, "Batata", "10")
	fries := createTestMenuItem(t, db, restaurant.ID, "Batata Frita", "14.50", map[uint]string{
		potato.ID: "0.4",
	})

	order := createTestOrder(t, db, restaurant.ID, "cliente-2", "PREPARING", "72.50")
	order.Items = []models.OrderItem{
		{MenuItemID: fries.ID, Name: fries.Name, Quantity: 2, UnitPrice: fries.Price},
		{MenuItemID: fries.ID, Name: fries.Name, Quantity: 3, UnitPrice: fries.Price},
	}

	result, err := inventoryService.DeductForOrder(order)
	if err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, errors=%v", result.Errors)
	}
	if len(result.Deductions) != 1 {
		t.Fatalf("deductions want 1 got %d", len(result.Deductions))
	}
	if !result.Deductions[0].AmountDeducted.Equal(decimal.NewFromFloat(2)) {
		t.Fatalf("deducted want 2 got %s", result.Deductions[0].AmountDeducted)
	}

	var got models.Ingredient
	if err := db.First(&got, potato.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !got.CurrentStock.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("stock want 8 got %s", got.CurrentStock)
	}
}

func TestDeductForOrderWithoutRecipe(t *testing.T) {
	db := setupServiceTestDB(t)
	_, inventoryService, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	soda := createTestMenuItem(t, db, restaurant.ID, "Refrigerante", "6.00", nil)

	order := createTestOrder(t, db, restaurant.ID, "cliente-3", "PREPARING", "6.00")
	order.Items = []models.OrderItem{{MenuItemID: soda.ID, Name: soda.Name, Quantity: 1, UnitPrice: soda.Price}}

	result, err := inventoryService.DeductForOrder(order)
	if err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	if !result.Success || len(result.Deductions) != 0 {
		t.Fatalf("expected empty successful result, got %+v", result)
	}
}

func TestManualAdjust(t *testing.T) {
	db := setupServiceTestDB(t)
	_, inventoryService, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	ingredient := createTestIngredient(t, db, restaurant.ID, "Queijo", "4")

	adjusted, err := inventoryService.ManualAdjust(ingredient.ID, decimal.NewFromInt(3), "manager-1", "")
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if !adjusted.CurrentStock.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("stock want 7 got %s", adjusted.CurrentStock)
	}

	// 负向调整钳制到零
	adjusted, err = inventoryService.ManualAdjust(ingredient.ID, decimal.NewFromInt(-100), "manager-1", "")
	if err != nil {
		t.Fatalf("negative adjust failed: %v", err)
	}
	if !adjusted.CurrentStock.Equal(decimal.Zero) {
		t.Fatalf("stock want 0 got %s", adjusted.CurrentStock)
	}

	if _, err := inventoryService.ManualAdjust(ingredient.ID, decimal.Zero, "manager-1", ""); !errors.Is(err, ErrStockInvalidAmount) {
		t.Fatalf("zero delta want ErrStockInvalidAmount got %v", err)
	}
	if _, err := inventoryService.ManualAdjust(99999, decimal.NewFromInt(1), "manager-1", ""); !errors.Is(err, ErrIngredientNotFound) {
		t.Fatalf("missing ingredient want ErrIngredientNotFound got %v", err)
	}
}

func TestListLowStock(t *testing.T) {
	db := setupServiceTestDB(t)
	_, inventoryService, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	low := createTestIngredient(t, db, restaurant.ID, "Carne", "1")
	low.MinThreshold = decimal.NewFromInt(5)
	if err := db.Save(low).Error; err != nil {
		t.Fatalf("save ingredient failed: %v", err)
	}
	ok := createTestIngredient(t, db, restaurant.ID, "Pão", "20")
	ok.MinThreshold = decimal.NewFromInt(5)
	if err := db.Save(ok).Error; err != nil {
		t.Fatalf("save ingredient failed: %v", err)
	}

	ingredients, err := inventoryService.ListLowStock(restaurant.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ingredients) != 1 || ingredients[0].ID != low.ID {
		t.Fatalf("low stock list want only %d, got %+v", low.ID, ingredients)
	}
}

func TestCreateIngredientClampsNegativeStock(t *testing.T) {
	db := setupServiceTestDB(t)
	_, inventoryService, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	ingredient := &models.Ingredient{
		RestaurantID: restaurant.ID,
		Name:         "Alface",
		Unit:         "un",
		CurrentStock: decimal.NewFromInt(-3),
	}
	if err := inventoryService.CreateIngredient(ingredient); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !ingredient.CurrentStock.Equal(decimal.Zero) {
		t.Fatalf("negative initial stock must clamp to zero, got %s", ingredient.CurrentStock)
	}

	if err := inventoryService.CreateIngredient(&models.Ingredient{Name: "sem restaurante"}); !errors.Is(err, ErrIngredientNotFound) {
		t.Fatalf("missing restaurant want ErrIngredientNotFound got %v", err)
	}
}
