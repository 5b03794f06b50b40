package models

import (
	"time"

	"gorm.io/gorm"
)

// CashbackWallet 返现钱包表（每个客户一个）
// 约束：balance 恒等于 total_earned - total_used，且各餐厅子余额之和等于 balance。
type CashbackWallet struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	CustomerUID string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"customerId"`   // 客户标识
	TotalEarned Money          `gorm:"type:decimal(20,2);not null;default:0" json:"totalEarned"`  // 累计获得
	TotalUsed   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"totalUsed"`    // 累计使用
	Balance     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`      // 当前余额
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`                                    // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updatedAt"`                                    // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Balances []CashbackBalance `gorm:"foreignKey:WalletID" json:"restaurantBalances,omitempty"` // 各餐厅子余额
}

// TableName 指定表名
func (CashbackWallet) TableName() string {
	return "cashback_wallets"
}

// CashbackBalance 餐厅维度的子余额表
type CashbackBalance struct {
	ID           uint      `gorm:"primarykey" json:"-"`                                                   // 主键
	WalletID     uint      `gorm:"index:idx_balance_wallet_restaurant,unique;not null" json:"-"`          // 钱包ID
	RestaurantID uint      `gorm:"index:idx_balance_wallet_restaurant,unique;index;not null" json:"restaurantId"` // 餐厅ID
	Balance      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`                  // 子余额
	CreatedAt    time.Time `json:"-"`                                                                      // 创建时间
	UpdatedAt    time.Time `json:"-"`                                                                      // 更新时间
}

// TableName 指定表名
func (CashbackBalance) TableName() string {
	return "cashback_balances"
}

// CashbackEntry 钱包流水表
// 说明：reference 唯一索引用于幂等，重复入账直接拒绝。
type CashbackEntry struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                       // 主键
	WalletID      uint      `gorm:"index;not null" json:"-"`                                    // 钱包ID
	RestaurantID  uint      `gorm:"index;not null" json:"restaurantId"`                         // 餐厅ID
	Type          string    `gorm:"type:varchar(30);index;not null" json:"type"`                // 流水类型
	Direction     string    `gorm:"type:varchar(10);not null" json:"direction"`                 // 方向（in/out）
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`                  // 变动金额
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balanceBefore"` // 变动前余额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balanceAfter"`  // 变动后余额
	Reference     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"reference"`    // 幂等引用号
	Remark        string    `gorm:"type:varchar(255)" json:"remark,omitempty"`                  // 备注
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`                                     // 创建时间
}

// TableName 指定表名
func (CashbackEntry) TableName() string {
	return "cashback_entries"
}
