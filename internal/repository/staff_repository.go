package repository

import (
	"errors"
	"strings"

	"github.com/prato-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StaffRepository 员工数据访问接口
type StaffRepository interface {
	GetByID(id uint) (*models.Staff, error)
	GetByIDForUpdate(id uint) (*models.Staff, error)
	GetByUID(uid string) (*models.Staff, error)
	Create(staff *models.Staff) error
	Update(staff *models.Staff) error
	List(filter StaffListFilter) ([]models.Staff, int64, error)
	ResetTodayCounters(restaurantID uint, todayDate string) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormStaffRepository
}

// GormStaffRepository GORM 员工仓储实现
type GormStaffRepository struct {
	db *gorm.DB
}

// NewStaffRepository 创建员工仓储
func NewStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStaffRepository) WithTx(tx *gorm.DB) *GormStaffRepository {
	if tx == nil {
		return r
	}
	return &GormStaffRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormStaffRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按 ID 获取员工
func (r *GormStaffRepository) GetByID(id uint) (*models.Staff, error) {
	if id == 0 {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.First(&staff, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// GetByIDForUpdate 按 ID 加锁获取员工
func (r *GormStaffRepository) GetByIDForUpdate(id uint) (*models.Staff, error) {
	if id == 0 {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&staff, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// GetByUID 按员工标识获取员工
func (r *GormStaffRepository) GetByUID(uid string) (*models.Staff, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.Where("uid = ?", uid).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// Create 创建员工
func (r *GormStaffRepository) Create(staff *models.Staff) error {
	return r.db.Create(staff).Error
}

// Update 更新员工
func (r *GormStaffRepository) Update(staff *models.Staff) error {
	return r.db.Save(staff).Error
}

// List 分页查询员工
func (r *GormStaffRepository) List(filter StaffListFilter) ([]models.Staff, int64, error) {
	query := r.db.Model(&models.Staff{})
	if filter.RestaurantID != 0 {
		query = query.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.OnlyActive {
		query = query.Where("active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var staff []models.Staff
	if err := query.Order("id asc").Find(&staff).Error; err != nil {
		return nil, 0, err
	}
	return staff, total, nil
}

// ResetTodayCounters 清零餐厅下所有员工的当日计数
func (r *GormStaffRepository) ResetTodayCounters(restaurantID uint, todayDate string) (int64, error) {
	query := r.db.Model(&models.Staff{})
	if restaurantID != 0 {
		query = query.Where("restaurant_id = ?", restaurantID)
	}
	result := query.Updates(map[string]interface{}{
		"today_orders": 0,
		"today_sales":  0,
		"today_date":   todayDate,
	})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
