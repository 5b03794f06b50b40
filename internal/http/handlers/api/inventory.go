package api

import (
	"strconv"
	"strings"

	"github.com/prato-next/internal/http/response"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListIngredients 分页查询食材库存
func (h *Handler) ListIngredients(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	restaurantID, _ := strconv.ParseUint(c.Query("restaurant_id"), 10, 64)
	onlyLow := c.Query("low") == "true" || c.Query("low") == "1"

	ingredients, total, err := h.InventoryService.ListIngredients(repository.IngredientListFilter{
		Page:         page,
		PageSize:     pageSize,
		RestaurantID: uint(restaurantID),
		Search:       strings.TrimSpace(c.Query("search")),
		OnlyLow:      onlyLow,
	})
	if err != nil {
		respondInventoryError(c, err)
		return
	}
	response.SuccessWithPage(c, ingredients, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// CreateIngredientRequest 创建食材请求
type CreateIngredientRequest struct {
	RestaurantID uint   `json:"restaurantId" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Unit         string `json:"unit"`
	CurrentStock string `json:"currentStock"`
	MinThreshold string `json:"minThreshold"`
	CostPerUnit  string `json:"costPerUnit"`
}

// CreateIngredient 创建食材
func (h *Handler) CreateIngredient(c *gin.Context) {
	var req CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	ingredient := &models.Ingredient{
		RestaurantID: req.RestaurantID,
		Name:         strings.TrimSpace(req.Name),
		Unit:         strings.TrimSpace(req.Unit),
		CurrentStock: parseDecimalOrZero(req.CurrentStock),
		MinThreshold: parseDecimalOrZero(req.MinThreshold),
		CostPerUnit:  models.NewMoneyFromDecimal(parseDecimalOrZero(req.CostPerUnit)),
	}
	if err := h.InventoryService.CreateIngredient(ingredient); err != nil {
		respondInventoryError(c, err)
		return
	}
	response.Success(c, ingredient)
}

func parseDecimalOrZero(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// AdjustIngredientRequest 手工调整库存请求
type AdjustIngredientRequest struct {
	Delta string `json:"delta" binding:"required"`
}

// AdjustIngredient 手工调整食材库存
func (h *Handler) AdjustIngredient(c *gin.Context) {
	actorID, _, ok := getActor(c)
	if !ok {
		return
	}
	ingredientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AdjustIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	delta, err := decimal.NewFromString(strings.TrimSpace(req.Delta))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.stock_amount_invalid", nil)
		return
	}

	ingredient, err := h.InventoryService.ManualAdjust(ingredientID, delta, actorID, "")
	if err != nil {
		respondInventoryError(c, err)
		return
	}
	response.Success(c, ingredient)
}
