package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService 返现钱包服务
// 所有余额变动都在事务内进行：锁钱包行，写变动前后快照流水，
// 并同步维护 total_earned / total_used 与餐厅子余额，保证
// balance == total_earned - total_used 恒成立。
type WalletService struct {
	walletRepo repository.WalletRepository
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{walletRepo: walletRepo}
}

// WalletCreditInput 入账输入
type WalletCreditInput struct {
	CustomerUID  string
	RestaurantID uint
	Amount       models.Money
	EntryType    string
	Reference    string
	Remark       string
}

// WalletDebitInput 出账输入
type WalletDebitInput struct {
	CustomerUID  string
	RestaurantID uint
	Amount       models.Money
	EntryType    string
	Reference    string
	Remark       string
}

// GetWallet 获取钱包（不存在时自动创建）
func (s *WalletService) GetWallet(customerUID string) (*models.CashbackWallet, error) {
	customerUID = strings.TrimSpace(customerUID)
	if customerUID == "" {
		return nil, ErrWalletNotFound
	}
	return s.getOrCreateWallet(customerUID)
}

// RestaurantBalance 查询客户在某餐厅的可用子余额
func (s *WalletService) RestaurantBalance(customerUID string, restaurantID uint) (decimal.Decimal, error) {
	wallet, err := s.walletRepo.GetByCustomerUID(customerUID)
	if err != nil {
		return decimal.Zero, err
	}
	if wallet == nil {
		return decimal.Zero, nil
	}
	balance, err := s.walletRepo.GetBalance(wallet.ID, restaurantID)
	if err != nil {
		return decimal.Zero, err
	}
	if balance == nil {
		return decimal.Zero, nil
	}
	return balance.Balance.Decimal.Round(2), nil
}

// ListEntries 查询钱包流水
func (s *WalletService) ListEntries(customerUID string, filter repository.CashbackEntryListFilter) ([]models.CashbackEntry, int64, error) {
	wallet, err := s.walletRepo.GetByCustomerUID(customerUID)
	if err != nil {
		return nil, 0, err
	}
	if wallet == nil {
		return []models.CashbackEntry{}, 0, nil
	}
	filter.WalletID = wallet.ID
	return s.walletRepo.ListEntries(filter)
}

// Credit 独立事务入账
func (s *WalletService) Credit(input WalletCreditInput) (*models.CashbackEntry, error) {
	var entry *models.CashbackEntry
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.CreditInTx(tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit 独立事务出账
func (s *WalletService) Debit(input WalletDebitInput) (*models.CashbackEntry, error) {
	var entry *models.CashbackEntry
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.DebitInTx(tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditInTx 在事务内入账
// 幂等：相同 reference 的流水已存在时直接返回旧流水，不重复加钱。
func (s *WalletService) CreditInTx(tx *gorm.DB, input WalletCreditInput) (*models.CashbackEntry, error) {
	if tx == nil {
		return nil, ErrWalletUpdateFailed
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, ErrWalletEntryCreateFailed
	}
	if input.RestaurantID == 0 {
		return nil, ErrRestaurantNotFound
	}

	repo := s.walletRepo.WithTx(tx)
	exists, err := repo.GetEntryByReference(reference)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return exists, nil
	}

	now := time.Now()
	wallet, err := s.ensureWalletForUpdate(repo, input.CustomerUID, now)
	if err != nil {
		return nil, err
	}

	before := wallet.Balance.Decimal.Round(2)
	after := before.Add(amount).Round(2)
	wallet.TotalEarned = models.NewMoneyFromDecimal(wallet.TotalEarned.Decimal.Add(amount))
	wallet.Balance = models.NewMoneyFromDecimal(after)
	wallet.UpdatedAt = now
	if err := repo.UpdateWallet(wallet); err != nil {
		return nil, ErrWalletUpdateFailed
	}
	if err := s.adjustRestaurantBalance(repo, wallet.ID, input.RestaurantID, amount, now); err != nil {
		return nil, err
	}

	entry := &models.CashbackEntry{
		WalletID:      wallet.ID,
		RestaurantID:  input.RestaurantID,
		Type:          normalizeEntryType(input.EntryType),
		Direction:     constants.CashbackDirectionIn,
		Amount:        models.NewMoneyFromDecimal(amount),
		BalanceBefore: models.NewMoneyFromDecimal(before),
		BalanceAfter:  models.NewMoneyFromDecimal(after),
		Reference:     reference,
		Remark:        cleanCashbackRemark(input.Remark, "返现入账"),
		CreatedAt:     now,
	}
	if err := repo.CreateEntry(entry); err != nil {
		return nil, ErrWalletEntryCreateFailed
	}
	return entry, nil
}

// DebitInTx 在事务内出账
// 出账前重读并校验对应餐厅子余额充足，不足直接拒绝。
func (s *WalletService) DebitInTx(tx *gorm.DB, input WalletDebitInput) (*models.CashbackEntry, error) {
	if tx == nil {
		return nil, ErrWalletUpdateFailed
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, ErrWalletEntryCreateFailed
	}
	if input.RestaurantID == 0 {
		return nil, ErrRestaurantNotFound
	}

	repo := s.walletRepo.WithTx(tx)
	exists, err := repo.GetEntryByReference(reference)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return exists, nil
	}

	now := time.Now()
	wallet, err := repo.GetByCustomerUIDForUpdate(input.CustomerUID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletInsufficientBalance
	}

	restaurantBalance, err := repo.GetBalanceForUpdate(wallet.ID, input.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurantBalance == nil || restaurantBalance.Balance.Decimal.LessThan(amount) {
		return nil, ErrWalletInsufficientBalance
	}

	before := wallet.Balance.Decimal.Round(2)
	after := before.Sub(amount).Round(2)
	if after.LessThan(decimal.Zero) {
		return nil, ErrWalletInsufficientBalance
	}
	wallet.TotalUsed = models.NewMoneyFromDecimal(wallet.TotalUsed.Decimal.Add(amount))
	wallet.Balance = models.NewMoneyFromDecimal(after)
	wallet.UpdatedAt = now
	if err := repo.UpdateWallet(wallet); err != nil {
		return nil, ErrWalletUpdateFailed
	}

	restaurantBalance.Balance = models.NewMoneyFromDecimal(restaurantBalance.Balance.Decimal.Sub(amount))
	restaurantBalance.UpdatedAt = now
	if err := repo.UpdateBalance(restaurantBalance); err != nil {
		return nil, ErrWalletUpdateFailed
	}

	entry := &models.CashbackEntry{
		WalletID:      wallet.ID,
		RestaurantID:  input.RestaurantID,
		Type:          normalizeEntryType(input.EntryType),
		Direction:     constants.CashbackDirectionOut,
		Amount:        models.NewMoneyFromDecimal(amount),
		BalanceBefore: models.NewMoneyFromDecimal(before),
		BalanceAfter:  models.NewMoneyFromDecimal(after),
		Reference:     reference,
		Remark:        cleanCashbackRemark(input.Remark, "返现抵扣"),
		CreatedAt:     now,
	}
	if err := repo.CreateEntry(entry); err != nil {
		return nil, ErrWalletEntryCreateFailed
	}
	return entry, nil
}

func (s *WalletService) getOrCreateWallet(customerUID string) (*models.CashbackWallet, error) {
	wallet, err := s.walletRepo.GetByCustomerUID(customerUID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}
	now := time.Now()
	wallet = &models.CashbackWallet{
		CustomerUID: customerUID,
		TotalEarned: models.NewMoneyFromDecimal(decimal.Zero),
		TotalUsed:   models.NewMoneyFromDecimal(decimal.Zero),
		Balance:     models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.walletRepo.CreateWallet(wallet); err != nil {
		created, queryErr := s.walletRepo.GetByCustomerUID(customerUID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletUpdateFailed
	}
	return wallet, nil
}

func (s *WalletService) ensureWalletForUpdate(repo *repository.GormWalletRepository, customerUID string, now time.Time) (*models.CashbackWallet, error) {
	customerUID = strings.TrimSpace(customerUID)
	if customerUID == "" {
		return nil, ErrWalletNotFound
	}
	wallet, err := repo.GetByCustomerUIDForUpdate(customerUID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}
	wallet = &models.CashbackWallet{
		CustomerUID: customerUID,
		TotalEarned: models.NewMoneyFromDecimal(decimal.Zero),
		TotalUsed:   models.NewMoneyFromDecimal(decimal.Zero),
		Balance:     models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateWallet(wallet); err != nil {
		created, queryErr := repo.GetByCustomerUIDForUpdate(customerUID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletUpdateFailed
	}
	return wallet, nil
}

func (s *WalletService) adjustRestaurantBalance(repo *repository.GormWalletRepository, walletID, restaurantID uint, delta decimal.Decimal, now time.Time) error {
	balance, err := repo.GetBalanceForUpdate(walletID, restaurantID)
	if err != nil {
		return err
	}
	if balance == nil {
		balance = &models.CashbackBalance{
			WalletID:     walletID,
			RestaurantID: restaurantID,
			Balance:      models.NewMoneyFromDecimal(delta),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repo.CreateBalance(balance); err != nil {
			return ErrWalletUpdateFailed
		}
		return nil
	}
	balance.Balance = models.NewMoneyFromDecimal(balance.Balance.Decimal.Add(delta))
	balance.UpdatedAt = now
	if err := repo.UpdateBalance(balance); err != nil {
		return ErrWalletUpdateFailed
	}
	return nil
}

func normalizeEntryType(entryType string) string {
	normalized := strings.TrimSpace(entryType)
	if normalized == "" {
		return constants.CashbackEntryTypeManualAdjust
	}
	return normalized
}

func cleanCashbackRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	return remark
}

// buildCashbackReference 生成订单维度的幂等引用号
func buildCashbackReference(orderID uint, action string) string {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "cashback"
	}
	return fmt.Sprintf("order:%d:%s", orderID, action)
}
