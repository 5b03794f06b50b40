package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/prato-next/internal/http/response"
	"github.com/prato-next/internal/repository"
	"github.com/prato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetStaffPerformance 查询单个员工绩效
func (h *Handler) GetStaffPerformance(c *gin.Context) {
	staffID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	staff, err := h.PerformanceService.GetStaff(staffID)
	if err != nil {
		if errors.Is(err, service.ErrStaffNotFound) {
			respondError(c, response.CodeNotFound, "error.staff_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.staff_fetch_failed", err)
		return
	}
	response.Success(c, staff)
}

// ListStaffPerformance 按餐厅列出员工绩效
func (h *Handler) ListStaffPerformance(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	restaurantID, _ := strconv.ParseUint(c.Query("restaurant_id"), 10, 64)

	staff, total, err := h.PerformanceService.ListStaff(repository.StaffListFilter{
		Page:         page,
		PageSize:     pageSize,
		RestaurantID: uint(restaurantID),
		Role:         strings.TrimSpace(c.Query("role")),
		OnlyActive:   c.Query("active") == "true" || c.Query("active") == "1",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.staff_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, staff, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
