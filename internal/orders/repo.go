package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Vehicle", "Entries").Create(order).Error
}

func (r *repository) FindOrderDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("Entries", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("entries.created_at ASC").Order("entries.id ASC")
		}).
		Preload("Entries.Service").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, filters OrderFilters, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("JOIN vehicles ON vehicles.id = orders.vehicle_id").
		Preload("Vehicle")

	if filters.ClientID != nil {
		query = query.Where("vehicles.client_id = ?", *filters.ClientID)
	}
	if filters.Query != "" {
		prefix := db.LikePrefix(filters.Query)
		contains := db.LikeContains(filters.Query)
		query = query.Where(
			"(LOWER(vehicles.license_plate) LIKE ? ESCAPE ?"+
				" OR LOWER(vehicles.vin) LIKE ? ESCAPE ?"+
				" OR EXISTS (SELECT 1 FROM car_models cm WHERE cm.id = vehicles.car_model_id AND LOWER(cm.make) LIKE ? ESCAPE ?)"+
				" OR EXISTS (SELECT 1 FROM entries e JOIN services s ON s.id = e.service_id"+
				" WHERE e.order_id = orders.id AND LOWER(s.name) LIKE ? ESCAPE ?))",
			prefix, db.LikeEscape,
			prefix, db.LikeEscape,
			prefix, db.LikeEscape,
			contains, db.LikeEscape,
		)
	}
	if cursor != nil {
		query = query.Where(
			"(orders.created_at < ? OR (orders.created_at = ? AND orders.id < ?))",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err := query.
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListClientOrders lists a client's orders by due date, soonest first, with
// undated orders last.
func (r *repository) ListClientOrders(ctx context.Context, clientID uuid.UUID, cursor *pagination.DueCursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("JOIN vehicles ON vehicles.id = orders.vehicle_id").
		Preload("Vehicle").
		Where("vehicles.client_id = ?", clientID)

	if cursor != nil {
		if cursor.DueBack != nil {
			query = query.Where(
				"(orders.due_back IS NULL OR orders.due_back > ? OR (orders.due_back = ? AND orders.id > ?))",
				*cursor.DueBack, *cursor.DueBack, cursor.ID,
			)
		} else {
			query = query.Where("orders.due_back IS NULL AND orders.id > ?", cursor.ID)
		}
	}

	var rows []models.Order
	err := query.
		Order("CASE WHEN orders.due_back IS NULL THEN 1 ELSE 0 END").
		Order("orders.due_back ASC").
		Order("orders.id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOrderIDs pages through every order id in ascending order, starting
// after the given id. uuid.Nil starts from the beginning.
func (r *repository) ListOrderIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}

	var ids []uuid.UUID
	if err := query.Order("id ASC").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) FindVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).Where("id = ?", vehicleID).First(&vehicle).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}
