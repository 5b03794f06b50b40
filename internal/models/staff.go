package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff 员工表，内嵌绩效累计字段
// 说明：today_* 字段由每日任务清零，today_date 记录计数所属自然日。
type Staff struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                        // 主键
	UID           string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"uid"`            // 员工标识
	RestaurantID  uint           `gorm:"index;not null" json:"restaurantId"`                          // 餐厅ID
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`                      // 姓名
	Email         string         `gorm:"type:varchar(200);index" json:"email"`                        // 邮箱
	Role          string         `gorm:"type:varchar(30);index;not null" json:"role"`                 // 岗位角色
	Active        bool           `gorm:"not null;default:true;index" json:"active"`                   // 是否在职
	TotalOrders   int64          `gorm:"not null;default:0" json:"totalOrders"`                       // 累计完成订单数
	TotalSales    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"totalSales"`     // 累计销售额
	AverageTicket Money          `gorm:"type:decimal(20,2);not null;default:0" json:"averageTicket"`  // 累计客单价
	TodayOrders   int64          `gorm:"not null;default:0" json:"todayOrders"`                       // 今日订单数
	TodaySales    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"todaySales"`     // 今日销售额
	TodayDate     string         `gorm:"type:varchar(10);not null;default:''" json:"todayDate"`       // 今日计数所属日期（YYYY-MM-DD）
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`                                      // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updatedAt"`                                      // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (Staff) TableName() string {
	return "staff"
}
