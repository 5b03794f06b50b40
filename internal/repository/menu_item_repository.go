package repository

import (
	"errors"

	"github.com/prato-next/internal/models"

	"gorm.io/gorm"
)

// MenuItemRepository 菜品与配方数据访问接口
type MenuItemRepository interface {
	GetByID(id uint) (*models.MenuItem, error)
	GetByIDs(ids []uint) ([]models.MenuItem, error)
	GetRecipesByMenuItemIDs(menuItemIDs []uint) ([]models.RecipeItem, error)
	Create(item *models.MenuItem) error
	Update(item *models.MenuItem) error
	ListByRestaurant(restaurantID uint, onlyActive bool) ([]models.MenuItem, error)
	WithTx(tx *gorm.DB) *GormMenuItemRepository
}

// GormMenuItemRepository GORM 菜品仓储实现
type GormMenuItemRepository struct {
	db *gorm.DB
}

// NewMenuItemRepository 创建菜品仓储
func NewMenuItemRepository(db *gorm.DB) *GormMenuItemRepository {
	return &GormMenuItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMenuItemRepository) WithTx(tx *gorm.DB) *GormMenuItemRepository {
	if tx == nil {
		return r
	}
	return &GormMenuItemRepository{db: tx}
}

// GetByID 按 ID 获取菜品（含配方）
func (r *GormMenuItemRepository) GetByID(id uint) (*models.MenuItem, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.MenuItem
	if err := r.db.Preload("Recipe").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByIDs 批量获取菜品
func (r *GormMenuItemRepository) GetByIDs(ids []uint) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}
	var items []models.MenuItem
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetRecipesByMenuItemIDs 批量获取配方条目
func (r *GormMenuItemRepository) GetRecipesByMenuItemIDs(menuItemIDs []uint) ([]models.RecipeItem, error) {
	if len(menuItemIDs) == 0 {
		return []models.RecipeItem{}, nil
	}
	var recipes []models.RecipeItem
	if err := r.db.Where("menu_item_id IN ?", menuItemIDs).Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Create 创建菜品
func (r *GormMenuItemRepository) Create(item *models.MenuItem) error {
	return r.db.Create(item).Error
}

// Update 更新菜品
func (r *GormMenuItemRepository) Update(item *models.MenuItem) error {
	return r.db.Save(item).Error
}

// ListByRestaurant 按餐厅查询菜品
func (r *GormMenuItemRepository) ListByRestaurant(restaurantID uint, onlyActive bool) ([]models.MenuItem, error) {
	query := r.db.Model(&models.MenuItem{})
	if restaurantID != 0 {
		query = query.Where("restaurant_id = ?", restaurantID)
	}
	if onlyActive {
		query = query.Where("active = ?", true)
	}
	var items []models.MenuItem
	if err := query.Preload("Recipe").Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
