package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrderDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filters OrderFilters, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListClientOrders(ctx context.Context, clientID uuid.UUID, cursor *pagination.DueCursor, limit int) ([]models.Order, error)
	ListOrderIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	FindVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.Vehicle, error)
}
