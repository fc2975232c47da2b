package dispatch

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/deliverdesk/deliverdesk/internal/domain"
)

// ListFilter narrows an order listing.
type ListFilter struct {
	Status    string
	CourierID int64
	Code      string
}

// OrderRepository handles database operations for delivery orders
type OrderRepository interface {
	// Create inserts a new order row
	Create(ctx context.Context, o *domain.DeliveryOrder) error

	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id int64) (*domain.DeliveryOrder, error)

	// List retrieves orders with pagination, oldest first so the kitchen
	// works the queue in arrival order
	List(ctx context.Context, filter ListFilter, page, pageSize int) ([]*domain.DeliveryOrder, int64, error)

	// Updates applies a column patch scoped by ID and reports rows affected
	Updates(ctx context.Context, id int64, patch map[string]interface{}) (int64, error)

	// Delete removes an order row
	Delete(ctx context.Context, id int64) error

	// ListUndelivered returns orders still in flight, used by the
	// overdue sweep and the driver view
	ListUndelivered(ctx context.Context) ([]*domain.DeliveryOrder, error)

	// DeliveryDurations returns delivered-order durations in minutes
	// within the window, for the stats endpoint
	DeliveryDurations(ctx context.Context, since time.Time) ([]float64, error)
}

// GormOrderRepository is the GORM implementation of OrderRepository
type GormOrderRepository struct {
	DB *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{DB: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, o *domain.DeliveryOrder) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *GormOrderRepository) GetByID(ctx context.Context, id int64) (*domain.DeliveryOrder, error) {
	var o domain.DeliveryOrder
	err := r.DB.WithContext(ctx).First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormOrderRepository) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]*domain.DeliveryOrder, int64, error) {
	query := r.DB.WithContext(ctx).Model(&domain.DeliveryOrder{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CourierID != 0 {
		query = query.Where("courier_id = ?", filter.CourierID)
	}
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*domain.DeliveryOrder
	err := query.
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	return rows, total, err
}

func (r *GormOrderRepository) Updates(ctx context.Context, id int64, patch map[string]interface{}) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&domain.DeliveryOrder{}).
		Where("id = ?", id).
		Updates(patch)
	return res.RowsAffected, res.Error
}

func (r *GormOrderRepository) Delete(ctx context.Context, id int64) error {
	return r.DB.WithContext(ctx).Delete(&domain.DeliveryOrder{}, id).Error
}

func (r *GormOrderRepository) ListUndelivered(ctx context.Context) ([]*domain.DeliveryOrder, error) {
	var rows []*domain.DeliveryOrder
	err := r.DB.WithContext(ctx).
		Where("status IN ?", []string{
			domain.OrderStatusPending,
			domain.OrderStatusPreparing,
			domain.OrderStatusOnRoute,
		}).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormOrderRepository) DeliveryDurations(ctx context.Context, since time.Time) ([]float64, error) {
	var rows []*domain.DeliveryOrder
	err := r.DB.WithContext(ctx).
		Where("status = ? AND delivered_at IS NOT NULL AND created_at >= ?",
			domain.OrderStatusDelivered, since).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	durations := make([]float64, 0, len(rows))
	for _, o := range rows {
		durations = append(durations, o.DeliveredAt.Sub(o.CreatedAt).Minutes())
	}
	return durations, nil
}
