package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
)

// Repository defines the persistence surface for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, input ListOrdersInput) (OrdersPageDTO, error)
	ListAll(ctx context.Context, input AdminListOrdersInput) (OrdersPageDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, cancelledAt *time.Time) error
}
