package api

import (
	"strings"

	"github.com/prato-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// IssueReferralCodeRequest 签发推荐码请求
type IssueReferralCodeRequest struct {
	RestaurantID uint `json:"restaurantId" binding:"required"`
}

// IssueReferralCode 为当前调用方签发推荐码
func (h *Handler) IssueReferralCode(c *gin.Context) {
	actorID, _, ok := getActor(c)
	if !ok {
		return
	}

	var req IssueReferralCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	code, err := h.ReferralService.IssueCode(actorID, req.RestaurantID)
	if err != nil {
		respondReferralError(c, err)
		return
	}
	response.Success(c, code)
}

// ValidateReferralCodeRequest 校验推荐码请求
type ValidateReferralCodeRequest struct {
	Code         string `json:"code" binding:"required"`
	RestaurantID uint   `json:"restaurantId"`
}

// ValidateReferralCode 校验推荐码可用性
func (h *Handler) ValidateReferralCode(c *gin.Context) {
	actorID, _, ok := getActor(c)
	if !ok {
		return
	}

	var req ValidateReferralCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	code, err := h.ReferralService.ValidateCode(strings.TrimSpace(req.Code), actorID, req.RestaurantID)
	if err != nil {
		respondReferralError(c, err)
		return
	}
	response.Success(c, gin.H{
		"valid":        true,
		"code":         code.Code,
		"referrerId":   code.ReferrerUID,
		"restaurantId": code.RestaurantID,
		"expiresAt":    code.ExpiresAt,
	})
}
