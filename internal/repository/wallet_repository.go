package repository

import (
	"errors"
	"strings"

	"github.com/prato-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository 返现钱包数据访问接口
type WalletRepository interface {
	GetByCustomerUID(customerUID string) (*models.CashbackWallet, error)
	GetByCustomerUIDForUpdate(customerUID string) (*models.CashbackWallet, error)
	CreateWallet(wallet *models.CashbackWallet) error
	UpdateWallet(wallet *models.CashbackWallet) error
	GetBalance(walletID, restaurantID uint) (*models.CashbackBalance, error)
	GetBalanceForUpdate(walletID, restaurantID uint) (*models.CashbackBalance, error)
	CreateBalance(balance *models.CashbackBalance) error
	UpdateBalance(balance *models.CashbackBalance) error
	ListBalances(walletID uint) ([]models.CashbackBalance, error)
	CreateEntry(entry *models.CashbackEntry) error
	GetEntryByReference(reference string) (*models.CashbackEntry, error)
	ListEntries(filter CashbackEntryListFilter) ([]models.CashbackEntry, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// GormWalletRepository GORM 钱包仓储实现
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormWalletRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByCustomerUID 按客户标识获取钱包
func (r *GormWalletRepository) GetByCustomerUID(customerUID string) (*models.CashbackWallet, error) {
	customerUID = strings.TrimSpace(customerUID)
	if customerUID == "" {
		return nil, nil
	}
	var wallet models.CashbackWallet
	if err := r.db.Preload("Balances").Where("customer_uid = ?", customerUID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// GetByCustomerUIDForUpdate 按客户标识加锁获取钱包
func (r *GormWalletRepository) GetByCustomerUIDForUpdate(customerUID string) (*models.CashbackWallet, error) {
	customerUID = strings.TrimSpace(customerUID)
	if customerUID == "" {
		return nil, nil
	}
	var wallet models.CashbackWallet
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_uid = ?", customerUID).
		First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// CreateWallet 创建钱包
func (r *GormWalletRepository) CreateWallet(wallet *models.CashbackWallet) error {
	return r.db.Create(wallet).Error
}

// UpdateWallet 更新钱包
func (r *GormWalletRepository) UpdateWallet(wallet *models.CashbackWallet) error {
	return r.db.Save(wallet).Error
}

// GetBalance 获取餐厅子余额
func (r *GormWalletRepository) GetBalance(walletID, restaurantID uint) (*models.CashbackBalance, error) {
	if walletID == 0 || restaurantID == 0 {
		return nil, nil
	}
	var balance models.CashbackBalance
	if err := r.db.Where("wallet_id = ? AND restaurant_id = ?", walletID, restaurantID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// GetBalanceForUpdate 加锁获取餐厅子余额
func (r *GormWalletRepository) GetBalanceForUpdate(walletID, restaurantID uint) (*models.CashbackBalance, error) {
	if walletID == 0 || restaurantID == 0 {
		return nil, nil
	}
	var balance models.CashbackBalance
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("wallet_id = ? AND restaurant_id = ?", walletID, restaurantID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// CreateBalance 创建餐厅子余额
func (r *GormWalletRepository) CreateBalance(balance *models.CashbackBalance) error {
	return r.db.Create(balance).Error
}

// UpdateBalance 更新餐厅子余额
func (r *GormWalletRepository) UpdateBalance(balance *models.CashbackBalance) error {
	return r.db.Save(balance).Error
}

// ListBalances 查询钱包的全部餐厅子余额
func (r *GormWalletRepository) ListBalances(walletID uint) ([]models.CashbackBalance, error) {
	if walletID == 0 {
		return []models.CashbackBalance{}, nil
	}
	var balances []models.CashbackBalance
	if err := r.db.Where("wallet_id = ?", walletID).Order("restaurant_id asc").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// CreateEntry 创建钱包流水
func (r *GormWalletRepository) CreateEntry(entry *models.CashbackEntry) error {
	return r.db.Create(entry).Error
}

// GetEntryByReference 按幂等引用号获取流水
func (r *GormWalletRepository) GetEntryByReference(reference string) (*models.CashbackEntry, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var entry models.CashbackEntry
	if err := r.db.Where("reference = ?", reference).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListEntries 分页查询钱包流水
func (r *GormWalletRepository) ListEntries(filter CashbackEntryListFilter) ([]models.CashbackEntry, int64, error) {
	query := r.db.Model(&models.CashbackEntry{})
	if filter.WalletID != 0 {
		query = query.Where("wallet_id = ?", filter.WalletID)
	}
	if filter.RestaurantID != 0 {
		query = query.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.CashbackEntry
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
