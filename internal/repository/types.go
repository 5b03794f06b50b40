package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page         int
	PageSize     int
	RestaurantID uint
	CustomerUID  string
	Status       string
	StaffID      uint
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// IngredientListFilter 查询食材列表的过滤条件
type IngredientListFilter struct {
	Page         int
	PageSize     int
	RestaurantID uint
	Search       string
	OnlyLow      bool
}

// AuditLogListFilter 查询审计日志列表的过滤条件
type AuditLogListFilter struct {
	Page         int
	PageSize     int
	RestaurantID uint
	UserID       string
	Action       string
	Severity     string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// CashbackEntryListFilter 查询钱包流水列表的过滤条件
type CashbackEntryListFilter struct {
	Page         int
	PageSize     int
	WalletID     uint
	RestaurantID uint
	Type         string
	Direction    string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// StaffListFilter 查询员工列表的过滤条件
type StaffListFilter struct {
	Page         int
	PageSize     int
	RestaurantID uint
	Role         string
	OnlyActive   bool
}
