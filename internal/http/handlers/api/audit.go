package api

import (
	"strconv"
	"strings"

	"github.com/prato-next/internal/http/response"
	"github.com/prato-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 分页查询审计日志
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	restaurantID, _ := strconv.ParseUint(c.Query("restaurant_id"), 10, 64)

	logs, total, err := h.AuditService.List(repository.AuditLogListFilter{
		Page:         page,
		PageSize:     pageSize,
		RestaurantID: uint(restaurantID),
		UserID:       strings.TrimSpace(c.Query("user_id")),
		Action:       strings.TrimSpace(c.Query("action")),
		Severity:     strings.TrimSpace(c.Query("severity")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
