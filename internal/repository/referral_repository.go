package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/prato-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推荐码与奖励数据访问接口
type ReferralRepository interface {
	GetActiveCode(referrerUID string, restaurantID uint) (*models.ReferralCode, error)
	GetCodeByCode(code string) (*models.ReferralCode, error)
	GetCodeByCodeForUpdate(code string) (*models.ReferralCode, error)
	CreateCode(code *models.ReferralCode) error
	UpdateCode(code *models.ReferralCode) error
	DeactivateExpiredCodes(now time.Time) (int64, error)
	GetRewardByOrderAndType(orderID uint, rewardType string) (*models.ReferralReward, error)
	GetDiscountReward(beneficiaryUID string, restaurantID uint) (*models.ReferralReward, error)
	GetDiscountRewardForUpdate(beneficiaryUID string, restaurantID uint) (*models.ReferralReward, error)
	CreateReward(reward *models.ReferralReward) error
	UpdateReward(reward *models.ReferralReward) error
	ListRewardsByBeneficiary(beneficiaryUID string, restaurantID uint) ([]models.ReferralReward, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormReferralRepository
}

// GormReferralRepository GORM 推荐仓储实现
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) *GormReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetActiveCode 获取推荐人在某餐厅的有效推荐码
func (r *GormReferralRepository) GetActiveCode(referrerUID string, restaurantID uint) (*models.ReferralCode, error) {
	referrerUID = strings.TrimSpace(referrerUID)
	if referrerUID == "" || restaurantID == 0 {
		return nil, nil
	}
	var code models.ReferralCode
	if err := r.db.
		Where("referrer_uid = ? AND restaurant_id = ? AND active = ?", referrerUID, restaurantID, true).
		Order("id desc").
		First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetCodeByCode 按推荐码字符串查询
func (r *GormReferralRepository) GetCodeByCode(code string) (*models.ReferralCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var record models.ReferralCode
	if err := r.db.Where("code = ?", code).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetCodeByCodeForUpdate 按推荐码字符串加锁查询
func (r *GormReferralRepository) GetCodeByCodeForUpdate(code string) (*models.ReferralCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var record models.ReferralCode
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// CreateCode 创建推荐码
func (r *GormReferralRepository) CreateCode(code *models.ReferralCode) error {
	return r.db.Create(code).Error
}

// UpdateCode 更新推荐码
func (r *GormReferralRepository) UpdateCode(code *models.ReferralCode) error {
	return r.db.Save(code).Error
}

// DeactivateExpiredCodes 批量停用已过期的推荐码
func (r *GormReferralRepository) DeactivateExpiredCodes(now time.Time) (int64, error) {
	result := r.db.Model(&models.ReferralCode{}).
		Where("active = ? AND expires_at <= ?", true, now).
		Update("active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetRewardByOrderAndType 按订单与奖励类型查询奖励
func (r *GormReferralRepository) GetRewardByOrderAndType(orderID uint, rewardType string) (*models.ReferralReward, error) {
	if orderID == 0 || rewardType == "" {
		return nil, nil
	}
	var reward models.ReferralReward
	if err := r.db.Where("order_id = ? AND type = ?", orderID, rewardType).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// GetDiscountReward 查询客户在某餐厅的首单折扣奖励
func (r *GormReferralRepository) GetDiscountReward(beneficiaryUID string, restaurantID uint) (*models.ReferralReward, error) {
	beneficiaryUID = strings.TrimSpace(beneficiaryUID)
	if beneficiaryUID == "" || restaurantID == 0 {
		return nil, nil
	}
	var reward models.ReferralReward
	if err := r.db.
		Where("beneficiary_uid = ? AND restaurant_id = ? AND type = ?",
			beneficiaryUID, restaurantID, "referred_discount").
		First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// GetDiscountRewardForUpdate 加锁查询客户在某餐厅的首单折扣奖励
func (r *GormReferralRepository) GetDiscountRewardForUpdate(beneficiaryUID string, restaurantID uint) (*models.ReferralReward, error) {
	beneficiaryUID = strings.TrimSpace(beneficiaryUID)
	if beneficiaryUID == "" || restaurantID == 0 {
		return nil, nil
	}
	var reward models.ReferralReward
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("beneficiary_uid = ? AND restaurant_id = ? AND type = ?",
			beneficiaryUID, restaurantID, "referred_discount").
		First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// CreateReward 创建奖励记录
func (r *GormReferralRepository) CreateReward(reward *models.ReferralReward) error {
	return r.db.Create(reward).Error
}

// UpdateReward 更新奖励记录
func (r *GormReferralRepository) UpdateReward(reward *models.ReferralReward) error {
	return r.db.Save(reward).Error
}

// ListRewardsByBeneficiary 查询受益人的奖励记录
func (r *GormReferralRepository) ListRewardsByBeneficiary(beneficiaryUID string, restaurantID uint) ([]models.ReferralReward, error) {
	beneficiaryUID = strings.TrimSpace(beneficiaryUID)
	if beneficiaryUID == "" {
		return []models.ReferralReward{}, nil
	}
	query := r.db.Where("beneficiary_uid = ?", beneficiaryUID)
	if restaurantID != 0 {
		query = query.Where("restaurant_id = ?", restaurantID)
	}
	var rewards []models.ReferralReward
	if err := query.Order("id desc").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}
