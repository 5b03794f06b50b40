package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestCreateOrderSnapshotsItems(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	burger := createTestMenuItem(t, db, restaurant.ID, "X-Burger", "28.90", nil)
	soda := createTestMenuItem(t, db, restaurant.ID, "Refrigerante", "6.00", nil)

	result, err := orderService.CreateOrder(OrderCreateInput{
		RestaurantID: restaurant.ID,
		Customer:     models.OrderCustomer{UID: "cliente-1", Name: "Cliente Teste"},
		Items: []OrderCreateItemInput{
			{MenuItemID: burger.ID, Quantity: 2},
			{MenuItemID: soda.ID, Quantity: 1},
		},
		PaymentMethod: "pix",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	order := result.Order
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("status want PENDING got %s", order.Status)
	}
	if !order.Total.Decimal.Equal(decimal.RequireFromString("63.80")) {
		t.Fatalf("total want 63.80 got %s", order.Total.Decimal)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items want 2 got %d", len(order.Items))
	}
	if !order.Items[0].UnitPrice.Decimal.Equal(decimal.RequireFromString("28.90")) {
		t.Fatalf("unit price snapshot want 28.90 got %s", order.Items[0].UnitPrice.Decimal)
	}
	if order.PaymentMethod != constants.PaymentMethodPix {
		t.Fatalf("payment method want pix got %s", order.PaymentMethod)
	}

	if len(result.DeliveryPin) != 4 {
		t.Fatalf("pin length want 4 got %d", len(result.DeliveryPin))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(order.DeliveryPinHash), []byte(result.DeliveryPin)); err != nil {
		t.Fatalf("pin does not match stored hash: %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	other := createTestRestaurant(t, db)
	item := createTestMenuItem(t, db, restaurant.ID, "Prato do Dia", "22.00", nil)
	inactive := createTestMenuItem(t, db, restaurant.ID, "Fora do Cardápio", "18.00", nil)
	inactive.Active = false
	if err := db.Save(inactive).Error; err != nil {
		t.Fatalf("deactivate item failed: %v", err)
	}

	customer := models.OrderCustomer{UID: "cliente-2"}

	_, err := orderService.CreateOrder(OrderCreateInput{RestaurantID: restaurant.ID, Customer: customer})
	if !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("empty items want ErrInvalidOrderItem got %v", err)
	}

	_, err = orderService.CreateOrder(OrderCreateInput{
		RestaurantID: restaurant.ID,
		Customer:     customer,
		Items:        []OrderCreateItemInput{{MenuItemID: item.ID, Quantity: 0}},
	})
	if !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("zero quantity want ErrInvalidOrderItem got %v", err)
	}

	_, err = orderService.CreateOrder(OrderCreateInput{
		RestaurantID: restaurant.ID,
		Customer:     customer,
		Items:        []OrderCreateItemInput{{MenuItemID: inactive.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("inactive item want ErrMenuItemNotFound got %v", err)
	}

	_, err = orderService.CreateOrder(OrderCreateInput{
		RestaurantID: other.ID,
		Customer:     customer,
		Items:        []OrderCreateItemInput{{MenuItemID: item.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("foreign item want ErrMenuItemNotFound got %v", err)
	}
}

func TestCreateOrderRedeemsReferralCode(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, referralService, walletService, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	item := createTestMenuItem(t, db, restaurant.ID, "Combo", "35.00", nil)

	code, err := referralService.IssueCode("referrer-1", restaurant.ID)
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	result, err := orderService.CreateOrder(OrderCreateInput{
		RestaurantID: restaurant.ID,
		Customer:     models.OrderCustomer{UID: "cliente-3"},
		Items:        []OrderCreateItemInput{{MenuItemID: item.ID, Quantity: 1}},
		ReferralCode: code.Code,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if result.Order.ReferralCode != code.Code {
		t.Fatalf("order referral code want %s got %s", code.Code, result.Order.ReferralCode)
	}

	balance, err := walletService.RestaurantBalance("cliente-3", restaurant.ID)
	if err != nil {
		t.Fatalf("balance fetch failed: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("referred bonus want 5.00 got %s", balance)
	}

	_, err = orderService.CreateOrder(OrderCreateInput{
		RestaurantID: restaurant.ID,
		Customer:     models.OrderCustomer{UID: "cliente-3"},
		Items:        []OrderCreateItemInput{{MenuItemID: item.ID, Quantity: 1}},
		ReferralCode: code.Code,
	})
	if !errors.Is(err, ErrReferralAlreadyRedeemed) {
		t.Fatalf("second redeem want ErrReferralAlreadyRedeemed got %v", err)
	}
}

func TestTransitionDeductsStock(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	patty := createTestIngredient(t, db, restaurant.ID, "Carne", "10.000")
	item := createTestMenuItem(t, db, restaurant.ID, "X-Burger", "28.90", map[uint]string{patty.ID: "0.200"})

	result, err := orderService.CreateOrder(OrderCreateInput{
		RestaurantID: restaurant.ID,
		Customer:     models.OrderCustomer{UID: "cliente-4"},
		Items:        []OrderCreateItemInput{{MenuItemID: item.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := orderService.Transition(result.Order.ID, "PREPARING", "staff-cozinha")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if updated.Status != constants.OrderStatusPreparing {
		t.Fatalf("status want PREPARING got %s", updated.Status)
	}

	var reloaded models.Ingredient
	if err := db.First(&reloaded, patty.ID).Error; err != nil {
		t.Fatalf("reload ingredient failed: %v", err)
	}
	if !reloaded.CurrentStock.Equal(decimal.RequireFromString("9.4")) {
		t.Fatalf("stock want 9.4 got %s", reloaded.CurrentStock)
	}
}

func TestTransitionDeliveredSideEffects(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, referralService, walletService, performanceService, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	item := createTestMenuItem(t, db, restaurant.ID, "Combo Família", "60.00", nil)
	driver := createTestStaff(t, db, restaurant.ID, "staff-entrega", "driver")

	code, err := referralService.IssueCode("referrer-2", restaurant.ID)
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	result, err := orderService.CreateOrder(OrderCreateInput{
		RestaurantID:     restaurant.ID,
		Customer:         models.OrderCustomer{UID: "cliente-5"},
		Items:            []OrderCreateItemInput{{MenuItemID: item.ID, Quantity: 1}},
		DriverID:         &driver.ID,
		ReferralCode:     code.Code,
		PredictedMinutes: 30,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	orderID := result.Order.ID
	for _, status := range []string{"PREPARING", "READY", "DISPATCHED", "DELIVERED"} {
		if _, err := orderService.Transition(orderID, status, "staff-entrega"); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	delivered, err := orderService.GetOrder(orderID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if delivered.DeliveredAt == nil || delivered.DispatchedAt == nil {
		t.Fatalf("delivery timestamps not set: %+v", delivered)
	}

	balance, err := walletService.RestaurantBalance("referrer-2", restaurant.ID)
	if err != nil {
		t.Fatalf("balance fetch failed: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("referrer bonus want 10.00 got %s", balance)
	}

	staff, err := performanceService.GetStaff(driver.ID)
	if err != nil {
		t.Fatalf("get staff failed: %v", err)
	}
	if staff.TotalOrders != 1 {
		t.Fatalf("driver total orders want 1 got %d", staff.TotalOrders)
	}
	if !staff.TotalSales.Decimal.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("driver total sales want 60.00 got %s", staff.TotalSales.Decimal)
	}
}

func TestTransitionErrors(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	dispatched := createTestOrder(t, db, restaurant.ID, "cliente-6", "DISPATCHED", "30.00")
	delivered := createTestOrder(t, db, restaurant.ID, "cliente-7", "DELIVERED", "30.00")

	if _, err := orderService.Transition(dispatched.ID, "EM_ROTA", "staff"); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("invalid status want ErrOrderStatusInvalid got %v", err)
	}
	if _, err := orderService.Transition(dispatched.ID, "PREPARING", "staff"); !errors.Is(err, ErrOrderTransitionNotAllowed) {
		t.Fatalf("backward want ErrOrderTransitionNotAllowed got %v", err)
	}
	if _, err := orderService.Transition(delivered.ID, "CANCELLED", "staff"); !errors.Is(err, ErrOrderAlreadyTerminal) {
		t.Fatalf("terminal want ErrOrderAlreadyTerminal got %v", err)
	}
	if _, err := orderService.Transition(9999, "PREPARING", "staff"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound got %v", err)
	}
}

func TestUpdateStatusFromConflict(t *testing.T) {
	db := setupServiceTestDB(t)
	restaurant := createTestRestaurant(t, db)
	order := createTestOrder(t, db, restaurant.ID, "cliente-8", "PENDING", "30.00")

	repo := repository.NewOrderRepository(db)
	rows, err := repo.UpdateStatusFrom(order.ID, "PREPARING", "READY", map[string]interface{}{"updated_at": time.Now()})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("stale from status must not match, rows got %d", rows)
	}

	rows, err = repo.UpdateStatusFrom(order.ID, "PENDING", "PREPARING", map[string]interface{}{"updated_at": time.Now()})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("matching from status want 1 row got %d", rows)
	}
}

func TestCancelWritesAudit(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	order := createTestOrder(t, db, restaurant.ID, "cliente-9", "PENDING", "30.00")

	cancelled, err := orderService.Cancel(order.ID, "cliente-9", "cliente desistiu")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want CANCELLED got %s", cancelled.Status)
	}
	if cancelled.CanceledAt == nil {
		t.Fatalf("canceled_at not set")
	}

	var count int64
	if err := db.Model(&models.AuditLog{}).
		Where("action = ? AND restaurant_id = ?", constants.AuditActionOrderCancelled, restaurant.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count audit failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("cancel audit entries want 1 got %d", count)
	}
}

func TestExpirePending(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	pending := createTestOrder(t, db, restaurant.ID, "cliente-10", "PENDING", "30.00")
	preparing := createTestOrder(t, db, restaurant.ID, "cliente-11", "PREPARING", "30.00")

	if err := orderService.ExpirePending(pending.ID); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	got, err := orderService.GetOrder(pending.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != constants.OrderStatusCancelled {
		t.Fatalf("pending order want CANCELLED got %s", got.Status)
	}

	if err := orderService.ExpirePending(preparing.ID); err != nil {
		t.Fatalf("expire on active order must be a no-op, got %v", err)
	}
	got, err = orderService.GetOrder(preparing.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != constants.OrderStatusPreparing {
		t.Fatalf("active order must keep status, got %s", got.Status)
	}
}

func newDispatchedOrderWithPin(t *testing.T, db *gorm.DB, restaurantID uint, customerUID, pin string) *models.Order {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash pin failed: %v", err)
	}
	order := createTestOrder(t, db, restaurantID, customerUID, "DISPATCHED", "40.00")
	order.DeliveryPinHash = string(hash)
	if err := db.Save(order).Error; err != nil {
		t.Fatalf("save order failed: %v", err)
	}
	return order
}

func TestConfirmDeliveryWithPin(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	ctx := context.Background()

	order := newDispatchedOrderWithPin(t, db, restaurant.ID, "cliente-12", "4321")

	updated, err := orderService.ConfirmDelivery(ctx, order.ID, "4321", "staff-entrega")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if updated.Status != constants.OrderStatusDelivered {
		t.Fatalf("status want DELIVERED got %s", updated.Status)
	}
	if updated.DeliveryProof != constants.DeliveryProofPin {
		t.Fatalf("proof want pin got %s", updated.DeliveryProof)
	}
}

func TestConfirmDeliveryBlocksAfterFailures(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	ctx := context.Background()

	order := newDispatchedOrderWithPin(t, db, restaurant.ID, "cliente-13", "4321")

	for i := 0; i < 2; i++ {
		if _, err := orderService.ConfirmDelivery(ctx, order.ID, "0000", "staff-entrega"); !errors.Is(err, ErrDeliveryPinInvalid) {
			t.Fatalf("attempt %d want ErrDeliveryPinInvalid got %v", i+1, err)
		}
	}
	if _, err := orderService.ConfirmDelivery(ctx, order.ID, "0000", "staff-entrega"); !errors.Is(err, ErrDeliveryPinBlocked) {
		t.Fatalf("third failure want ErrDeliveryPinBlocked got %v", err)
	}
	// 锁定期内正确 PIN 也被拒绝
	if _, err := orderService.ConfirmDelivery(ctx, order.ID, "4321", "staff-entrega"); !errors.Is(err, ErrDeliveryPinBlocked) {
		t.Fatalf("blocked window want ErrDeliveryPinBlocked got %v", err)
	}
}

func TestConfirmDeliveryStateGuards(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)
	ctx := context.Background()

	preparing := createTestOrder(t, db, restaurant.ID, "cliente-14", "PREPARING", "30.00")
	if _, err := orderService.ConfirmDelivery(ctx, preparing.ID, "4321", "staff"); !errors.Is(err, ErrOrderTransitionNotAllowed) {
		t.Fatalf("non dispatched want ErrOrderTransitionNotAllowed got %v", err)
	}

	cancelled := createTestOrder(t, db, restaurant.ID, "cliente-15", "CANCELLED", "30.00")
	if _, err := orderService.ConfirmDelivery(ctx, cancelled.ID, "4321", "staff"); !errors.Is(err, ErrOrderAlreadyTerminal) {
		t.Fatalf("terminal want ErrOrderAlreadyTerminal got %v", err)
	}

	noPin := createTestOrder(t, db, restaurant.ID, "cliente-16", "DISPATCHED", "30.00")
	if _, err := orderService.ConfirmDelivery(ctx, noPin.ID, "4321", "staff"); !errors.Is(err, ErrDeliveryProofRequired) {
		t.Fatalf("missing hash want ErrDeliveryProofRequired got %v", err)
	}
}

func TestConfirmDeliveryWithPhoto(t *testing.T) {
	db := setupServiceTestDB(t)
	orderService, _, _, _, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	order := createTestOrder(t, db, restaurant.ID, "cliente-17", "DISPATCHED", "30.00")
	updated, err := orderService.ConfirmDeliveryWithPhoto(order.ID, "staff-entrega")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if updated.Status != constants.OrderStatusDelivered {
		t.Fatalf("status want DELIVERED got %s", updated.Status)
	}
	if updated.DeliveryProof != constants.DeliveryProofPhoto {
		t.Fatalf("proof want photo got %s", updated.DeliveryProof)
	}
}
