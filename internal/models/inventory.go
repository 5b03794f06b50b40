package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ingredient 食材库存表
// 说明：库存写入一律钳制到非负下限，缺口以错误形式上报而不是写入负数。
type Ingredient struct {
	ID           uint            `gorm:"primarykey" json:"id"`                                       // 主键
	RestaurantID uint            `gorm:"index;not null" json:"restaurantId"`                         // 餐厅ID
	Name         string          `gorm:"type:varchar(200);index;not null" json:"name"`               // 食材名称
	CurrentStock decimal.Decimal `gorm:"type:decimal(20,3);not null;default:0" json:"currentStock"`  // 当前库存
	Unit         string          `gorm:"type:varchar(20);not null" json:"unit"`                      // 计量单位
	MinThreshold decimal.Decimal `gorm:"type:decimal(20,3);not null;default:0" json:"minThreshold"`  // 低库存阈值
	CostPerUnit  Money           `gorm:"type:decimal(20,2);not null;default:0" json:"costPerUnit"`   // 单位成本
	CreatedAt    time.Time       `gorm:"index" json:"createdAt"`                                     // 创建时间
	UpdatedAt    time.Time       `gorm:"index" json:"updatedAt"`                                     // 更新时间
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (Ingredient) TableName() string {
	return "ingredients"
}

// IsLow 判断库存是否低于阈值
func (i Ingredient) IsLow() bool {
	return i.CurrentStock.LessThan(i.MinThreshold)
}

// MenuItem 菜品表
type MenuItem struct {
	ID           uint           `gorm:"primarykey" json:"id"`                              // 主键
	RestaurantID uint           `gorm:"index;not null" json:"restaurantId"`                // 餐厅ID
	Name         string         `gorm:"type:varchar(200);not null" json:"name"`            // 菜品名称
	Price        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 售价
	Active       bool           `gorm:"not null;default:true;index" json:"active"`         // 是否上架
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`                            // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updatedAt"`                            // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间

	Recipe []RecipeItem `gorm:"foreignKey:MenuItemID" json:"recipe,omitempty"` // 配方
}

// TableName 指定表名
func (MenuItem) TableName() string {
	return "menu_items"
}

// RecipeItem 配方表，描述单份菜品消耗的食材
type RecipeItem struct {
	ID           uint            `gorm:"primarykey" json:"-"`                                                        // 主键
	MenuItemID   uint            `gorm:"index:idx_recipe_menu_ingredient,unique;not null" json:"-"`                  // 菜品ID
	IngredientID uint            `gorm:"index:idx_recipe_menu_ingredient,unique;index;not null" json:"ingredientId"` // 食材ID
	Quantity     decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"quantity"`                                // 单份用量
	CreatedAt    time.Time       `json:"-"`                                                                          // 创建时间
}

// TableName 指定表名
func (RecipeItem) TableName() string {
	return "recipe_items"
}
