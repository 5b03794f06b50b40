package models

import (
	"strings"

	"github.com/prato-next/internal/logger"
)

// InitDefaultRestaurant 初始化默认餐厅
// 说明：空库启动时创建一条默认餐厅记录，保证单租户部署开箱可用。
func InitDefaultRestaurant(name, currency string) error {
	var count int64
	DB.Model(&Restaurant{}).Count(&count)
	if count > 0 {
		return nil
	}

	if strings.TrimSpace(name) == "" {
		name = "Prato Demo"
	}
	if strings.TrimSpace(currency) == "" {
		currency = "BRL"
	}

	restaurant := Restaurant{
		Slug:     "default",
		Name:     name,
		Currency: currency,
		Active:   true,
	}
	if err := DB.Create(&restaurant).Error; err != nil {
		return err
	}

	logger.Infow("default_restaurant_created", "id", restaurant.ID, "name", restaurant.Name)
	return nil
}
