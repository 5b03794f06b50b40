package models

import "time"

// AuditLog 操作审计日志
// 说明：只追加，应用侧从不更新或删除；写入失败由调用方吞掉，不影响主操作。
type AuditLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       string    `gorm:"type:varchar(64);index;not null;default:''" json:"userId"`
	UserEmail    string    `gorm:"type:varchar(200);index;not null;default:''" json:"userEmail"`
	Action       string    `gorm:"type:varchar(100);index;not null" json:"action"`
	Details      JSON      `gorm:"type:json" json:"details"`
	Severity     string    `gorm:"type:varchar(20);index;not null" json:"severity"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurantId"`
	RequestID    string    `gorm:"type:varchar(64);index;not null;default:''" json:"requestId,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"timestamp"`
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
