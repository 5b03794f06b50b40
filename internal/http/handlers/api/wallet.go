package api

import (
	"strconv"
	"strings"

	"github.com/prato-next/internal/http/response"
	"github.com/prato-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetWallet 查询客户返现钱包
func (h *Handler) GetWallet(c *gin.Context) {
	customerUID := strings.TrimSpace(c.Param("customer_id"))
	if customerUID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	wallet, err := h.WalletService.GetWallet(customerUID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.wallet_fetch_failed", err)
		return
	}
	response.Success(c, wallet)
}

// ListWalletEntries 分页查询钱包流水
func (h *Handler) ListWalletEntries(c *gin.Context) {
	customerUID := strings.TrimSpace(c.Param("customer_id"))
	if customerUID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	restaurantID, _ := strconv.ParseUint(c.Query("restaurant_id"), 10, 64)

	entries, total, err := h.WalletService.ListEntries(customerUID, repository.CashbackEntryListFilter{
		Page:         page,
		PageSize:     pageSize,
		RestaurantID: uint(restaurantID),
		Type:         strings.TrimSpace(c.Query("type")),
		Direction:    strings.TrimSpace(c.Query("direction")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.wallet_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, entries, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
