package service

import "errors"

// 订单相关错误
var (
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderFetchFailed          = errors.New("order fetch failed")
	ErrOrderUpdateFailed         = errors.New("order update failed")
	ErrInvalidOrderItem          = errors.New("invalid order item")
	ErrOrderStatusInvalid        = errors.New("order status invalid")
	ErrOrderTransitionNotAllowed = errors.New("order transition not allowed")
	ErrOrderStatusConflict       = errors.New("order status changed concurrently")
	ErrOrderAlreadyTerminal      = errors.New("order already in terminal status")
	ErrDeliveryPinInvalid        = errors.New("delivery pin invalid")
	ErrDeliveryProofRequired     = errors.New("delivery proof required")
	ErrDeliveryPinBlocked        = errors.New("delivery pin attempts exceeded")
)

// 餐厅与员工相关错误
var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrStaffNotFound      = errors.New("staff not found")
)

// 库存相关错误
var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrMenuItemNotFound   = errors.New("menu item not found")
	ErrStockInvalidAmount = errors.New("stock amount invalid")
)

// 推荐返现相关错误
var (
	ErrReferralCodeNotFound       = errors.New("referral code not found")
	ErrReferralCodeInactive       = errors.New("referral code inactive")
	ErrReferralCodeExpired        = errors.New("referral code expired")
	ErrReferralSelfReferral       = errors.New("referral code belongs to requester")
	ErrReferralAlreadyRedeemed    = errors.New("referral discount already redeemed")
	ErrReferralCodeGenerateFailed = errors.New("referral code generate failed")
)

// 钱包相关错误
var (
	ErrWalletNotFound            = errors.New("cashback wallet not found")
	ErrWalletInvalidAmount       = errors.New("cashback amount invalid")
	ErrWalletInsufficientBalance = errors.New("cashback balance insufficient")
	ErrWalletUpdateFailed        = errors.New("cashback wallet update failed")
	ErrWalletEntryCreateFailed   = errors.New("cashback entry create failed")
	ErrOrderTotalBelowMinimum    = errors.New("order total below cashback minimum")
)
