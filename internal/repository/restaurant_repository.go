package repository

import (
	"errors"
	"strings"

	"github.com/prato-next/internal/models"

	"gorm.io/gorm"
)

// RestaurantRepository 餐厅数据访问接口
type RestaurantRepository interface {
	GetByID(id uint) (*models.Restaurant, error)
	GetBySlug(slug string) (*models.Restaurant, error)
	Create(restaurant *models.Restaurant) error
	Update(restaurant *models.Restaurant) error
	ListActive() ([]models.Restaurant, error)
}

// GormRestaurantRepository GORM 餐厅仓储实现
type GormRestaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository 创建餐厅仓储
func NewRestaurantRepository(db *gorm.DB) *GormRestaurantRepository {
	return &GormRestaurantRepository{db: db}
}

// GetByID 按 ID 获取餐厅
func (r *GormRestaurantRepository) GetByID(id uint) (*models.Restaurant, error) {
	if id == 0 {
		return nil, nil
	}
	var restaurant models.Restaurant
	if err := r.db.First(&restaurant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &restaurant, nil
}

// GetBySlug 按标识获取餐厅
func (r *GormRestaurantRepository) GetBySlug(slug string) (*models.Restaurant, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var restaurant models.Restaurant
	if err := r.db.Where("slug = ?", slug).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &restaurant, nil
}

// Create 创建餐厅
func (r *GormRestaurantRepository) Create(restaurant *models.Restaurant) error {
	return r.db.Create(restaurant).Error
}

// Update 更新餐厅
func (r *GormRestaurantRepository) Update(restaurant *models.Restaurant) error {
	return r.db.Save(restaurant).Error
}

// ListActive 查询营业中的餐厅
func (r *GormRestaurantRepository) ListActive() ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	if err := r.db.Where("active = ?", true).Order("id asc").Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}
