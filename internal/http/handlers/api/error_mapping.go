package api

import (
	"errors"

	"github.com/prato-next/internal/http/response"
	"github.com/prato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.order_item_invalid"},
	{target: service.ErrMenuItemNotFound, code: response.CodeBadRequest, key: "error.menu_item_not_found"},
	{target: service.ErrOrderTotalBelowMinimum, code: response.CodeBadRequest, key: "error.order_total_below_min"},
	{target: service.ErrWalletInsufficientBalance, code: response.CodeBadRequest, key: "error.wallet_insufficient"},
	{target: service.ErrReferralCodeNotFound, code: response.CodeBadRequest, key: "error.referral_code_not_found"},
	{target: service.ErrReferralCodeInactive, code: response.CodeBadRequest, key: "error.referral_code_inactive"},
	{target: service.ErrReferralCodeExpired, code: response.CodeBadRequest, key: "error.referral_code_expired"},
	{target: service.ErrReferralSelfReferral, code: response.CodeBadRequest, key: "error.referral_self_referral"},
	{target: service.ErrReferralAlreadyRedeemed, code: response.CodeBadRequest, key: "error.referral_already_redeemed"},
}

var orderTransitionErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, key: "error.order_status_invalid"},
	{target: service.ErrOrderTransitionNotAllowed, code: response.CodeBadRequest, key: "error.order_transition_denied"},
	{target: service.ErrOrderAlreadyTerminal, code: response.CodeBadRequest, key: "error.order_already_terminal"},
	{target: service.ErrOrderStatusConflict, code: response.CodeConflict, key: "error.order_status_conflict"},
}

var deliveryConfirmErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderTransitionNotAllowed, code: response.CodeBadRequest, key: "error.order_transition_denied"},
	{target: service.ErrOrderAlreadyTerminal, code: response.CodeBadRequest, key: "error.order_already_terminal"},
	{target: service.ErrOrderStatusConflict, code: response.CodeConflict, key: "error.order_status_conflict"},
	{target: service.ErrDeliveryPinInvalid, code: response.CodeBadRequest, key: "error.delivery_pin_invalid"},
	{target: service.ErrDeliveryPinBlocked, code: response.CodeTooManyRequests, key: "error.delivery_pin_blocked"},
	{target: service.ErrDeliveryProofRequired, code: response.CodeBadRequest, key: "error.delivery_proof_required"},
}

var referralErrorRules = []mappedHandlerError{
	{target: service.ErrReferralCodeNotFound, code: response.CodeNotFound, key: "error.referral_code_not_found"},
	{target: service.ErrReferralCodeInactive, code: response.CodeBadRequest, key: "error.referral_code_inactive"},
	{target: service.ErrReferralCodeExpired, code: response.CodeBadRequest, key: "error.referral_code_expired"},
	{target: service.ErrReferralSelfReferral, code: response.CodeBadRequest, key: "error.referral_self_referral"},
	{target: service.ErrReferralAlreadyRedeemed, code: response.CodeBadRequest, key: "error.referral_already_redeemed"},
	{target: service.ErrReferralCodeGenerateFailed, code: response.CodeInternal, key: "error.referral_issue_failed"},
}

var discountPreviewErrorRules = []mappedHandlerError{
	{target: service.ErrOrderTotalBelowMinimum, code: response.CodeBadRequest, key: "error.order_total_below_min"},
	{target: service.ErrWalletNotFound, code: response.CodeNotFound, key: "error.wallet_not_found"},
}

var inventoryErrorRules = []mappedHandlerError{
	{target: service.ErrIngredientNotFound, code: response.CodeNotFound, key: "error.ingredient_not_found"},
	{target: service.ErrStockInvalidAmount, code: response.CodeBadRequest, key: "error.stock_amount_invalid"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
}

func respondOrderTransitionError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderTransitionErrorRules, response.CodeInternal, "error.order_fetch_failed")
}

func respondDeliveryConfirmError(c *gin.Context, err error) {
	respondWithMappedError(c, err, deliveryConfirmErrorRules, response.CodeInternal, "error.order_fetch_failed")
}

func respondReferralError(c *gin.Context, err error) {
	respondWithMappedError(c, err, referralErrorRules, response.CodeInternal, "error.referral_issue_failed")
}

func respondDiscountPreviewError(c *gin.Context, err error) {
	respondWithMappedError(c, err, discountPreviewErrorRules, response.CodeInternal, "error.wallet_fetch_failed")
}

func respondInventoryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, inventoryErrorRules, response.CodeInternal, "error.stock_fetch_failed")
}
