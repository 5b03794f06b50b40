package repository

import (
	"errors"

	"github.com/prato-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientRepository 食材库存数据访问接口
type IngredientRepository interface {
	GetByID(id uint) (*models.Ingredient, error)
	GetByIDsForUpdate(ids []uint) ([]models.Ingredient, error)
	Create(ingredient *models.Ingredient) error
	Update(ingredient *models.Ingredient) error
	UpdateStock(id uint, stock decimal.Decimal) error
	List(filter IngredientListFilter) ([]models.Ingredient, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormIngredientRepository
}

// GormIngredientRepository GORM 食材仓储实现
type GormIngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository 创建食材仓储
func NewIngredientRepository(db *gorm.DB) *GormIngredientRepository {
	return &GormIngredientRepository{db: db}
}

// WithTx 绑定事务
func (r *GormIngredientRepository) WithTx(tx *gorm.DB) *GormIngredientRepository {
	if tx == nil {
		return r
	}
	return &GormIngredientRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormIngredientRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按 ID 获取食材
func (r *GormIngredientRepository) GetByID(id uint) (*models.Ingredient, error) {
	if id == 0 {
		return nil, nil
	}
	var ingredient models.Ingredient
	if err := r.db.First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ingredient, nil
}

// GetByIDsForUpdate 按 ID 批量加锁获取食材
// 说明：按 ID 升序加锁，保证并发扣减时锁获取顺序一致，避免死锁。
func (r *GormIngredientRepository) GetByIDsForUpdate(ids []uint) ([]models.Ingredient, error) {
	if len(ids) == 0 {
		return []models.Ingredient{}, nil
	}
	var ingredients []models.Ingredient
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// Create 创建食材
func (r *GormIngredientRepository) Create(ingredient *models.Ingredient) error {
	return r.db.Create(ingredient).Error
}

// Update 更新食材
func (r *GormIngredientRepository) Update(ingredient *models.Ingredient) error {
	return r.db.Save(ingredient).Error
}

// UpdateStock 只更新库存字段
func (r *GormIngredientRepository) UpdateStock(id uint, stock decimal.Decimal) error {
	return r.db.Model(&models.Ingredient{}).
		Where("id = ?", id).
		Update("current_stock", stock).Error
}

// List 分页查询食材
func (r *GormIngredientRepository) List(filter IngredientListFilter) ([]models.Ingredient, int64, error) {
	query := r.db.Model(&models.Ingredient{})
	if filter.RestaurantID != 0 {
		query = query.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if filter.Search != "" {
		query = query.Where("name "+likeOperatorByDialect(dbDialectName(r.db))+" ?", "%"+filter.Search+"%")
	}
	if filter.OnlyLow {
		query = query.Where("current_stock < min_threshold")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var ingredients []models.Ingredient
	if err := query.Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, 0, err
	}
	return ingredients, total, nil
}
