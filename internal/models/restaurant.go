package models

import (
	"time"

	"gorm.io/gorm"
)

// Restaurant 餐厅表
type Restaurant struct {
	ID        uint           `gorm:"primarykey" json:"id"`                          // 主键
	Slug      string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"` // 唯一标识
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`        // 餐厅名称
	Currency  string         `gorm:"type:varchar(10);not null" json:"currency"`     // 结算币种
	Active    bool           `gorm:"not null;default:true;index" json:"active"`     // 是否营业
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`                        // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updatedAt"`                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (Restaurant) TableName() string {
	return "restaurants"
}
