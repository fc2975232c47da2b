package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/internal/domain"
)

// ListFilter narrows a product listing.
type ListFilter struct {
	Query      string // substring match on name
	Category   string
	ActiveOnly bool // forced for anonymous callers
}

// ProductRepository handles database operations for catalog products
type ProductRepository interface {
	// Create inserts a new product row
	Create(ctx context.Context, p *domain.Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// List retrieves products with pagination, newest first
	List(ctx context.Context, filter ListFilter, page, pageSize int) ([]*domain.Product, int64, error)

	// Updates applies a column patch scoped by ID and reports rows affected
	Updates(ctx context.Context, id int64, patch map[string]interface{}) (int64, error)

	// Delete removes a product row; deleting an absent row is not an error
	Delete(ctx context.Context, id int64) error
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	DB *gorm.DB
}

// NewGormProductRepository creates a new GORM-based repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{DB: db}
}

func (r *GormProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.DB.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]*domain.Product, int64, error) {
	query := r.DB.WithContext(ctx).Model(&domain.Product{})
	if filter.Query != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*domain.Product
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	return rows, total, err
}

func (r *GormProductRepository) Updates(ctx context.Context, id int64, patch map[string]interface{}) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(patch)
	return res.RowsAffected, res.Error
}

func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	return r.DB.WithContext(ctx).Delete(&domain.Product{}, id).Error
}
