package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := pkgdb.LockForUpdate(r.db.WithContext(ctx)).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, input ListOrdersInput) (OrdersPageDTO, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("user_id = ?", input.UserID)
	if input.Status != nil {
		query = query.Where("status = ?", *input.Status)
	}
	return paginate(query, input.Page)
}

func (r *repository) ListAll(ctx context.Context, input AdminListOrdersInput) (OrdersPageDTO, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items")
	if input.Status != nil {
		query = query.Where("status = ?", *input.Status)
	}
	return paginate(query, input.Page)
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, cancelledAt *time.Time) error {
	updates := map[string]any{"status": status}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func paginate(query *gorm.DB, page pagination.Params) (OrdersPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(page.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(page.Limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(page.Cursor))
	if err != nil {
		return OrdersPageDTO{}, err
	}

	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var orders []models.Order
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limitWithBuffer).
		Find(&orders).Error; err != nil {
		return OrdersPageDTO{}, err
	}

	nextCursor := ""
	if len(orders) > normalizedLimit {
		orders = orders[:normalizedLimit]
		last := orders[len(orders)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return OrdersPageDTO{Orders: orders, NextCursor: nextCursor}, nil
}
