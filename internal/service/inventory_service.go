package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryService 库存扣减服务
type InventoryService struct {
	ingredientRepo repository.IngredientRepository
	menuItemRepo   repository.MenuItemRepository
	auditService   *AuditService
}

// NewInventoryService 创建库存服务
func NewInventoryService(ingredientRepo repository.IngredientRepository, menuItemRepo repository.MenuItemRepository, auditService *AuditService) *InventoryService {
	return &InventoryService{
		ingredientRepo: ingredientRepo,
		menuItemRepo:   menuItemRepo,
		auditService:   auditService,
	}
}

// StockDeduction 单个食材的扣减结果
type StockDeduction struct {
	IngredientID   uint            `json:"ingredientId"`
	Name           string          `json:"name"`
	AmountDeducted decimal.Decimal `json:"amountDeducted"`
}

// StockDeductionResult 一次订单扣减的汇总结果
// success 仅在错误列表为空时为 true；缺口不阻断扣减，只进入错误列表。
type StockDeductionResult struct {
	Success    bool             `json:"success"`
	Deductions []StockDeduction `json:"deductions"`
	Errors     []string         `json:"errors"`
}

// DeductForOrder 按订单项扣减食材库存
// 把全部订单项展开成每食材的总需求量，在一个事务内按 ID 升序加锁逐个扣减，
// 库存不足时钳制到零并记录缺口，不中断整体操作。
func (s *InventoryService) DeductForOrder(order *models.Order) (*StockDeductionResult, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	result := &StockDeductionResult{
		Deductions: []StockDeduction{},
		Errors:     []string{},
	}
	required, err := s.aggregateRequirements(order.Items)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 {
		result.Success = true
		return result, nil
	}

	ids := make([]uint, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	err = s.ingredientRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.ingredientRepo.WithTx(tx)
		ingredients, err := repo.GetByIDsForUpdate(ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]models.Ingredient, len(ingredients))
		for _, ingredient := range ingredients {
			byID[ingredient.ID] = ingredient
		}

		now := time.Now()
		for _, id := range ids {
			needed := required[id]
			ingredient, ok := byID[id]
			if !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("ingredient %d not found", id))
				continue
			}
			current := ingredient.CurrentStock
			deducted := needed
			newStock := current.Sub(needed)
			if newStock.IsNegative() {
				deficit := needed.Sub(current)
				result.Errors = append(result.Errors, fmt.Sprintf(
					"insufficient stock for %s: need %s, have %s, deficit %s",
					ingredient.Name, needed.String(), current.String(), deficit.String(),
				))
				deducted = current
				newStock = decimal.Zero
			}
			if err := repo.UpdateStock(id, newStock); err != nil {
				return err
			}
			if err := tx.Model(&models.Ingredient{}).Where("id = ?", id).
				Update("updated_at", now).Error; err != nil {
				return err
			}
			result.Deductions = append(result.Deductions, StockDeduction{
				IngredientID:   id,
				Name:           ingredient.Name,
				AmountDeducted: deducted,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Success = len(result.Errors) == 0
	s.recordDeduction(order, result)
	return result, nil
}

// ManualAdjust 手工调整库存，负向调整同样钳制到零
func (s *InventoryService) ManualAdjust(ingredientID uint, delta decimal.Decimal, actorID, actorEmail string) (*models.Ingredient, error) {
	if delta.IsZero() {
		return nil, ErrStockInvalidAmount
	}
	var adjusted *models.Ingredient
	err := s.ingredientRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.ingredientRepo.WithTx(tx)
		ingredients, err := repo.GetByIDsForUpdate([]uint{ingredientID})
		if err != nil {
			return err
		}
		if len(ingredients) == 0 {
			return ErrIngredientNotFound
		}
		ingredient := ingredients[0]
		newStock := ingredient.CurrentStock.Add(delta)
		if newStock.IsNegative() {
			newStock = decimal.Zero
		}
		if err := repo.UpdateStock(ingredient.ID, newStock); err != nil {
			return err
		}
		ingredient.CurrentStock = newStock
		adjusted = &ingredient
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       actorID,
			UserEmail:    actorEmail,
			Action:       constants.AuditActionStockAdjusted,
			RestaurantID: adjusted.RestaurantID,
			Details: models.JSON{
				"ingredient_id": adjusted.ID,
				"name":          adjusted.Name,
				"delta":         delta.String(),
				"new_stock":     adjusted.CurrentStock.String(),
			},
		})
	}
	return adjusted, nil
}

// ListIngredients 查询食材列表
func (s *InventoryService) ListIngredients(filter repository.IngredientListFilter) ([]models.Ingredient, int64, error) {
	return s.ingredientRepo.List(filter)
}

// ListLowStock 查询低于阈值的食材
func (s *InventoryService) ListLowStock(restaurantID uint) ([]models.Ingredient, error) {
	ingredients, _, err := s.ingredientRepo.List(repository.IngredientListFilter{
		RestaurantID: restaurantID,
		OnlyLow:      true,
	})
	return ingredients, err
}

// CreateIngredient 创建食材
func (s *InventoryService) CreateIngredient(ingredient *models.Ingredient) error {
	if ingredient == nil || ingredient.RestaurantID == 0 {
		return ErrIngredientNotFound
	}
	if ingredient.CurrentStock.IsNegative() {
		ingredient.CurrentStock = decimal.Zero
	}
	return s.ingredientRepo.Create(ingredient)
}

// aggregateRequirements 把订单项展开为每食材的总需求量
func (s *InventoryService) aggregateRequirements(items []models.OrderItem) (map[uint]decimal.Decimal, error) {
	required := make(map[uint]decimal.Decimal)
	if len(items) == 0 {
		return required, nil
	}
	menuItemIDs := make([]uint, 0, len(items))
	quantities := make(map[uint]int, len(items))
	for _, item := range items {
		if item.MenuItemID == 0 || item.Quantity <= 0 {
			continue
		}
		if _, seen := quantities[item.MenuItemID]; !seen {
			menuItemIDs = append(menuItemIDs, item.MenuItemID)
		}
		quantities[item.MenuItemID] += item.Quantity
	}
	recipes, err := s.menuItemRepo.GetRecipesByMenuItemIDs(menuItemIDs)
	if err != nil {
		return nil, err
	}
	for _, recipe := range recipes {
		orderQty := quantities[recipe.MenuItemID]
		if orderQty <= 0 {
			continue
		}
		amount := recipe.Quantity.Mul(decimal.NewFromInt(int64(orderQty)))
		required[recipe.IngredientID] = required[recipe.IngredientID].Add(amount)
	}
	return required, nil
}

func (s *InventoryService) recordDeduction(order *models.Order, result *StockDeductionResult) {
	if s.auditService == nil {
		return
	}
	deducted := make([]models.JSON, 0, len(result.Deductions))
	for _, d := range result.Deductions {
		deducted = append(deducted, models.JSON{
			"ingredient_id": d.IngredientID,
			"name":          d.Name,
			"amount":        d.AmountDeducted.String(),
		})
	}
	s.auditService.Record(AuditRecordInput{
		UserID:       order.Customer.UID,
		Action:       constants.AuditActionStockDeducted,
		RestaurantID: order.RestaurantID,
		Details: models.JSON{
			"order_id": order.ID,
			"deducted": deducted,
			"errors":   result.Errors,
			"deficit":  !result.Success,
		},
	})
	if !result.Success {
		logger.Warnw("stock_deduction_deficit",
			"order_id", order.ID,
			"errors", result.Errors,
		)
	}
}
