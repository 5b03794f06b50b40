package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultReferralCodeLength = 8
	defaultCodeExpiryDays     = 90
)

// ReferralService 推荐返现服务
type ReferralService struct {
	referralRepo       repository.ReferralRepository
	walletService      *WalletService
	auditService       *AuditService
	bonusAmount        decimal.Decimal
	referredBonus      decimal.Decimal
	maxDiscountPercent decimal.Decimal
	minOrderTotal      decimal.Decimal
	codeExpiryDays     int
	codeLength         int
}

// NewReferralService 创建推荐返现服务
func NewReferralService(referralRepo repository.ReferralRepository, walletService *WalletService, auditService *AuditService, cfg config.ReferralConfig) *ReferralService {
	codeExpiryDays := cfg.CodeExpiryDays
	if codeExpiryDays <= 0 {
		codeExpiryDays = defaultCodeExpiryDays
	}
	codeLength := cfg.CodeLength
	if codeLength <= 0 {
		codeLength = defaultReferralCodeLength
	}
	return &ReferralService{
		referralRepo:       referralRepo,
		walletService:      walletService,
		auditService:       auditService,
		bonusAmount:        models.NewMoneyFromString(cfg.BonusAmount).Decimal,
		referredBonus:      models.NewMoneyFromString(cfg.ReferredBonus).Decimal,
		maxDiscountPercent: decimal.NewFromFloat(cfg.MaxDiscountPercent),
		minOrderTotal:      models.NewMoneyFromString(cfg.MinOrderTotal).Decimal,
		codeExpiryDays:     codeExpiryDays,
		codeLength:         codeLength,
	}
}

// IssueCode 为推荐人签发推荐码（幂等）
// 已有未过期的有效码直接返回；过期的旧码先停用再生成新码。
func (s *ReferralService) IssueCode(referrerUID string, restaurantID uint) (*models.ReferralCode, error) {
	referrerUID = strings.TrimSpace(referrerUID)
	if referrerUID == "" || restaurantID == 0 {
		return nil, ErrReferralCodeNotFound
	}

	now := time.Now()
	existing, err := s.referralRepo.GetActiveCode(referrerUID, restaurantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.IsExpired(now) {
			return existing, nil
		}
		existing.Active = false
		existing.UpdatedAt = now
		if err := s.referralRepo.UpdateCode(existing); err != nil {
			return nil, err
		}
	}

	const maxRetry = 8
	for i := 0; i < maxRetry; i++ {
		code, genErr := generateReferralCode(s.codeLength)
		if genErr != nil {
			return nil, genErr
		}
		record := &models.ReferralCode{
			Code:         code,
			ReferrerUID:  referrerUID,
			RestaurantID: restaurantID,
			Active:       true,
			ExpiresAt:    now.AddDate(0, 0, s.codeExpiryDays),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.referralRepo.CreateCode(record); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return record, nil
	}
	return nil, ErrReferralCodeGenerateFailed
}

// ValidateCode 校验推荐码可用性
// 依次检查存在、有效、未过期、非自荐、该客户在该餐厅尚无首单折扣。
func (s *ReferralService) ValidateCode(code, customerUID string, restaurantID uint) (*models.ReferralCode, error) {
	record, err := s.referralRepo.GetCodeByCode(code)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrReferralCodeNotFound
	}
	if !record.Active {
		return nil, ErrReferralCodeInactive
	}
	if record.IsExpired(time.Now()) {
		return nil, ErrReferralCodeExpired
	}
	if strings.TrimSpace(customerUID) != "" && record.ReferrerUID == strings.TrimSpace(customerUID) {
		return nil, ErrReferralSelfReferral
	}
	prior, err := s.referralRepo.GetDiscountReward(customerUID, record.RestaurantID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return nil, ErrReferralAlreadyRedeemed
	}
	if restaurantID != 0 && record.RestaurantID != restaurantID {
		return nil, ErrReferralCodeNotFound
	}
	return record, nil
}

// RedeemCodeInTx 在事务内为被推荐客户落首单折扣奖励并入账
// 调用前必须已通过 ValidateCode；事务内再次加锁复查防止并发双发。
func (s *ReferralService) RedeemCodeInTx(tx *gorm.DB, code *models.ReferralCode, customerUID string, orderID uint) (*models.ReferralReward, error) {
	if tx == nil || code == nil {
		return nil, ErrReferralCodeNotFound
	}
	repo := s.referralRepo.WithTx(tx)

	prior, err := repo.GetDiscountRewardForUpdate(customerUID, code.RestaurantID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return nil, ErrReferralAlreadyRedeemed
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, s.codeExpiryDays)
	reward := &models.ReferralReward{
		BeneficiaryUID: strings.TrimSpace(customerUID),
		RestaurantID:   code.RestaurantID,
		OrderID:        orderID,
		Type:           constants.RewardTypeReferredDiscount,
		Amount:         models.NewMoneyFromDecimal(s.referredBonus),
		SourceCode:     code.Code,
		ExpiresAt:      &expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.CreateReward(reward); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrReferralAlreadyRedeemed
		}
		return nil, err
	}

	if s.referredBonus.GreaterThan(decimal.Zero) {
		if _, err := s.walletService.CreditInTx(tx, WalletCreditInput{
			CustomerUID:  customerUID,
			RestaurantID: code.RestaurantID,
			Amount:       models.NewMoneyFromDecimal(s.referredBonus),
			EntryType:    constants.CashbackEntryTypeReferralBonus,
			Reference:    buildCashbackReference(orderID, "referred_discount"),
			Remark:       "被推荐客户首单奖励",
		}); err != nil {
			return nil, err
		}
	}
	return reward, nil
}

// GrantReferrerBonus 被推荐客户首个送达订单为推荐人发放奖励
// 幂等：先查已有奖励记录，事务内由 (order_id, type) 唯一索引兜底。
func (s *ReferralService) GrantReferrerBonus(order *models.Order) (*models.ReferralReward, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	codeValue := strings.TrimSpace(order.ReferralCode)
	if codeValue == "" {
		return nil, nil
	}

	existing, err := s.referralRepo.GetRewardByOrderAndType(order.ID, constants.RewardTypeReferrerBonus)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var reward *models.ReferralReward
	err = s.referralRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.referralRepo.WithTx(tx)
		code, err := repo.GetCodeByCodeForUpdate(codeValue)
		if err != nil {
			return err
		}
		if code == nil {
			return ErrReferralCodeNotFound
		}

		now := time.Now()
		reward = &models.ReferralReward{
			BeneficiaryUID: code.ReferrerUID,
			RestaurantID:   code.RestaurantID,
			OrderID:        order.ID,
			Type:           constants.RewardTypeReferrerBonus,
			Amount:         models.NewMoneyFromDecimal(s.bonusAmount),
			SourceCode:     code.Code,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repo.CreateReward(reward); err != nil {
			if isUniqueViolation(err) {
				reward = nil
				return nil
			}
			return err
		}

		if _, err := s.walletService.CreditInTx(tx, WalletCreditInput{
			CustomerUID:  code.ReferrerUID,
			RestaurantID: code.RestaurantID,
			Amount:       models.NewMoneyFromDecimal(s.bonusAmount),
			EntryType:    constants.CashbackEntryTypeReferralBonus,
			Reference:    buildCashbackReference(order.ID, "referrer_bonus"),
			Remark:       "推荐奖励",
		}); err != nil {
			return err
		}

		code.UsageCount++
		code.UpdatedAt = now
		return repo.UpdateCode(code)
	})
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return s.referralRepo.GetRewardByOrderAndType(order.ID, constants.RewardTypeReferrerBonus)
	}

	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       reward.BeneficiaryUID,
			Action:       constants.AuditActionRewardGranted,
			RestaurantID: reward.RestaurantID,
			Details: models.JSON{
				"order_id": order.ID,
				"type":     reward.Type,
				"amount":   reward.Amount.String(),
				"code":     reward.SourceCode,
			},
		})
	}
	return reward, nil
}

// ComputeDiscount 计算订单可抵扣金额
// 规则：min(余额, 订单总额 × 最大抵扣比例)；订单总额低于门槛时整体拒绝。
func (s *ReferralService) ComputeDiscount(orderTotal, balance decimal.Decimal) (decimal.Decimal, error) {
	if orderTotal.LessThan(s.minOrderTotal) {
		return decimal.Zero, ErrOrderTotalBelowMinimum
	}
	cap := orderTotal.Mul(s.maxDiscountPercent).Round(2)
	if balance.LessThan(cap) {
		return balance.Round(2), nil
	}
	return cap, nil
}

// PreviewDiscount 预览客户在某餐厅对给定订单金额的可抵扣额
func (s *ReferralService) PreviewDiscount(customerUID string, restaurantID uint, orderTotal decimal.Decimal) (decimal.Decimal, error) {
	balance, err := s.walletService.RestaurantBalance(customerUID, restaurantID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.ComputeDiscount(orderTotal, balance)
}

// DebitDiscountInTx 在事务内按抵扣金额扣减客户钱包并记审计
func (s *ReferralService) DebitDiscountInTx(tx *gorm.DB, order *models.Order, discount decimal.Decimal) error {
	if discount.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	if _, err := s.walletService.DebitInTx(tx, WalletDebitInput{
		CustomerUID:  order.Customer.UID,
		RestaurantID: order.RestaurantID,
		Amount:       models.NewMoneyFromDecimal(discount),
		EntryType:    constants.CashbackEntryTypeOrderDiscount,
		Reference:    buildCashbackReference(order.ID, "order_discount"),
		Remark:       "订单返现抵扣",
	}); err != nil {
		return err
	}
	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       order.Customer.UID,
			Action:       constants.AuditActionDiscountApplied,
			RestaurantID: order.RestaurantID,
			Details: models.JSON{
				"order_id":    order.ID,
				"discount":    discount.String(),
				"order_total": order.Total.String(),
			},
		})
	}
	return nil
}

// ListRewards 查询受益人的奖励记录
func (s *ReferralService) ListRewards(beneficiaryUID string, restaurantID uint) ([]models.ReferralReward, error) {
	return s.referralRepo.ListRewardsByBeneficiary(beneficiaryUID, restaurantID)
}

// ExpireCodes 批量停用过期推荐码，由后台任务周期调用
func (s *ReferralService) ExpireCodes() (int64, error) {
	affected, err := s.referralRepo.DeactivateExpiredCodes(time.Now())
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		logger.Infow("referral_codes_expired", "count", affected)
	}
	return affected, nil
}

func generateReferralCode(length int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	if length <= 0 {
		length = defaultReferralCodeLength
	}
	var builder strings.Builder
	builder.Grow(length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
