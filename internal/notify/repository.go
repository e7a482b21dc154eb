package notify

import (
	"context"
	"time"

	"github.com/nippysky/marobi/internal/domain"
	"gorm.io/gorm"
)

// ReceiptRepository persists receipt delivery attempts.
type ReceiptRepository interface {
	Create(ctx context.Context, r *domain.ReceiptDelivery) error

	// MarkSent records a successful delivery and clears the last error.
	MarkSent(ctx context.Context, id int64, at time.Time) error

	// MarkFailed sets status failed, stores the error and bumps retry_count.
	MarkFailed(ctx context.Context, id int64, errorMsg string) error

	// GetRetryable returns deliveries that still have retries left and
	// either failed or have been pending since before staleBefore, oldest first.
	GetRetryable(ctx context.Context, maxRetry int, staleBefore time.Time, limit int) ([]*domain.ReceiptDelivery, error)

	List(ctx context.Context, status string, page, pageSize int) ([]*domain.ReceiptDelivery, int64, error)
}

// OrderRepository loads committed orders for re-sending receipts.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// FindUnreceipted returns orders created in [from, to) that have an
	// email recipient but no receipt delivery row.
	FindUnreceipted(ctx context.Context, from, to time.Time, limit int) ([]*domain.Order, error)
}

type GormReceiptRepository struct {
	db *gorm.DB
}

func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

func (r *GormReceiptRepository) Create(ctx context.Context, rec *domain.ReceiptDelivery) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *GormReceiptRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.ReceiptDelivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    domain.ReceiptSent,
			"error_msg": "",
			"sent_at":   at,
		}).Error
}

func (r *GormReceiptRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	return r.db.WithContext(ctx).Model(&domain.ReceiptDelivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      domain.ReceiptFailed,
			"error_msg":   errorMsg,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
}

func (r *GormReceiptRepository) GetRetryable(ctx context.Context, maxRetry int, staleBefore time.Time, limit int) ([]*domain.ReceiptDelivery, error) {
	var rows []*domain.ReceiptDelivery
	err := r.db.WithContext(ctx).
		Where("retry_count < ?", maxRetry).
		Where("status = ? OR (status = ? AND updated_at < ?)", domain.ReceiptFailed, domain.ReceiptPending, staleBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *GormReceiptRepository) List(ctx context.Context, status string, page, pageSize int) ([]*domain.ReceiptDelivery, int64, error) {
	db := r.db.WithContext(ctx).Model(&domain.ReceiptDelivery{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*domain.ReceiptDelivery
	err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	return rows, total, err
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormOrderRepository) FindUnreceipted(ctx context.Context, from, to time.Time, limit int) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("NOT EXISTS (SELECT 1 FROM receipt_delivery rd WHERE rd.order_id = orders.id)").
		// guest snapshots are stored as JSON; an empty email serializes as "email":""
		Where("customer_id IS NOT NULL OR (guest IS NOT NULL AND guest NOT LIKE ?)", `%"email":""%`).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
