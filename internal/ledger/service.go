// Package ledger is the canonical write path for order entries. Every write
// applies price fallback and total computation, persists the entry and
// recomputes the owning order's price in one transaction.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
	"github.com/arnaszs/servizas/pkg/types"
)

const defaultQuantity = 1

// Service defines the entry ledger operations.
type Service interface {
	CreateEntry(ctx context.Context, input CreateEntryInput) (*models.Entry, error)
	UpdateStatus(ctx context.Context, entryID uuid.UUID, status enums.EntryStatus) (*models.Entry, error)
	UpdateEntry(ctx context.Context, entryID uuid.UUID, input UpdateEntryInput) (*models.Entry, error)
	SaveEntry(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	GetEntry(ctx context.Context, entryID uuid.UUID) (*models.Entry, error)
	ListOrderEntries(ctx context.Context, orderID uuid.UUID) ([]models.Entry, error)
}

// CreateEntryInput attaches a service to an order. A nil quantity means 1 and
// a zero price means the catalog price applies.
type CreateEntryInput struct {
	OrderID   uuid.UUID
	ServiceID uuid.UUID
	Quantity  *int
	Price     decimal.Decimal
}

// UpdateEntryInput carries partial edits; nil fields are left unchanged.
type UpdateEntryInput struct {
	Quantity *int
	Price    *decimal.Decimal
}

// Aggregator is the slice of the aggregation engine the ledger drives.
type Aggregator interface {
	Lock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
	Recompute(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (decimal.Decimal, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   Repository
	tx     txRunner
	engine Aggregator
	logg   *logger.Logger
	tracer trace.Tracer
}

// ServiceParams wires the ledger service. A nil TracerProvider uses the
// global one.
type ServiceParams struct {
	Repo           Repository
	TxRunner       txRunner
	Engine         Aggregator
	Logger         *logger.Logger
	TracerProvider trace.TracerProvider
}

// NewService validates params and returns the ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("aggregation engine required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	tp := params.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &service{
		repo:   params.Repo,
		tx:     params.TxRunner,
		engine: params.Engine,
		logg:   logg,
		tracer: tp.Tracer("github.com/arnaszs/servizas/internal/ledger"),
	}, nil
}

func (s *service) CreateEntry(ctx context.Context, input CreateEntryInput) (*models.Entry, error) {
	quantity := defaultQuantity
	if input.Quantity != nil {
		quantity = *input.Quantity
	}
	return s.SaveEntry(ctx, &models.Entry{
		OrderID:   input.OrderID,
		ServiceID: input.ServiceID,
		Quantity:  quantity,
		Price:     input.Price,
		Status:    enums.EntryStatusNew,
	})
}

func (s *service) UpdateStatus(ctx context.Context, entryID uuid.UUID, status enums.EntryStatus) (*models.Entry, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid entry status %q", status)
	}
	return s.mutate(ctx, entryID, func(entry *models.Entry) {
		entry.Status = status
	})
}

func (s *service) UpdateEntry(ctx context.Context, entryID uuid.UUID, input UpdateEntryInput) (*models.Entry, error) {
	if input.Quantity == nil && input.Price == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	return s.mutate(ctx, entryID, func(entry *models.Entry) {
		if input.Quantity != nil {
			entry.Quantity = *input.Quantity
		}
		if input.Price != nil {
			entry.Price = *input.Price
		}
	})
}

// SaveEntry writes entry and recomputes its order's price. An entry without
// an id is created. entry itself is never modified; the stored row is
// returned. On error neither the entry nor the order changes.
func (s *service) SaveEntry(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	if entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry is required")
	}
	next := *entry
	next.Service = nil
	if next.ID == uuid.Nil && next.Status == "" {
		next.Status = enums.EntryStatusNew
	}

	ctx, span := s.startSpan(ctx, "ledger.SaveEntry", next.OrderID)
	defer span.End()

	var saved *models.Entry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.engine.Lock(ctx, tx, next.OrderID); err != nil {
			return err
		}

		var persisted *models.Entry
		if next.ID != uuid.Nil {
			current, err := s.findEntry(ctx, tx, next.ID)
			if err != nil {
				return err
			}
			persisted = current
		}

		var err error
		saved, err = s.saveLocked(ctx, tx, next, persisted)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return saved, nil
}

func (s *service) GetEntry(ctx context.Context, entryID uuid.UUID) (*models.Entry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry")
	}
	return entry, nil
}

func (s *service) ListOrderEntries(ctx context.Context, orderID uuid.UUID) ([]models.Entry, error) {
	ok, err := s.repo.OrderExists(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	entries, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list entries")
	}
	return entries, nil
}

// mutate loads the entry, locks its order, reloads the entry under the lock
// and applies edit to that fresh copy before saving.
func (s *service) mutate(ctx context.Context, entryID uuid.UUID, edit func(entry *models.Entry)) (*models.Entry, error) {
	ctx, span := s.startSpan(ctx, "ledger.MutateEntry", uuid.Nil)
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", entryID.String()))

	var saved *models.Entry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		snapshot, err := s.findEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if _, err := s.engine.Lock(ctx, tx, snapshot.OrderID); err != nil {
			return err
		}
		persisted, err := s.findEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}

		next := *persisted
		next.Service = nil
		edit(&next)

		saved, err = s.saveLocked(ctx, tx, next, persisted)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return saved, nil
}

// saveLocked runs the write steps in order: price fallback, total
// computation, persistence, order recompute. The order row must already be
// locked by tx. persisted is nil for new entries.
func (s *service) saveLocked(ctx context.Context, tx *gorm.DB, next models.Entry, persisted *models.Entry) (*models.Entry, error) {
	repo := s.repo.WithTx(tx)

	if err := validateEntry(next, persisted); err != nil {
		return nil, err
	}

	catalogRow, err := repo.FindService(ctx, next.ServiceID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeReferenceNotFound, "service not found").
				WithDetails(map[string]any{"serviceId": next.ServiceID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}

	if next.Price.IsZero() && catalogRow.Price.Valid {
		next.Price = catalogRow.Price.Decimal
	}
	next.Price = types.Money(next.Price)

	switch {
	case !next.Status.FreezesTotal():
		next.Total = types.Money(next.Price.Mul(decimal.NewFromInt(int64(next.Quantity))))
	case persisted != nil:
		next.Total = persisted.Total
	default:
		// created already cancelled: the total it would have had is kept
		next.Total = types.Money(next.Price.Mul(decimal.NewFromInt(int64(next.Quantity))))
	}
	if !types.MoneyFits(next.Total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry total is out of range")
	}

	if persisted == nil {
		if err := repo.Create(ctx, &next); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create entry")
		}
	} else {
		if err := repo.Update(ctx, &next); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update entry")
		}
	}

	if _, err := s.engine.Recompute(ctx, tx, next.OrderID); err != nil {
		return nil, err
	}

	if persisted != nil && persisted.Status != next.Status {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"entry_id": next.ID.String(),
			"order_id": next.OrderID.String(),
			"from":     persisted.Status.String(),
			"to":       next.Status.String(),
		})
		s.logg.Info(logCtx, "entry status changed")
	}

	next.Service = catalogRow
	return &next, nil
}

// findEntry resolves an entry a write refers to. A missing row is a dangling
// reference, unlike the GetEntry point lookup.
func (s *service) findEntry(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Entry, error) {
	entry, err := s.repo.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeReferenceNotFound, "entry not found").
				WithDetails(map[string]any{"entryId": id.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry")
	}
	return entry, nil
}

func validateEntry(next models.Entry, persisted *models.Entry) error {
	if next.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be zero or greater")
	}
	if !types.MoneyFits(next.Price) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative amount")
	}
	if !next.Status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid entry status %q", next.Status)
	}
	if persisted == nil {
		return nil
	}
	if persisted.OrderID != next.OrderID {
		return pkgerrors.New(pkgerrors.CodeValidation, "entry cannot move to another order")
	}
	if !persisted.Status.CanTransitionTo(next.Status) {
		return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "entry cannot move from %s to %s", persisted.Status, next.Status).
			WithDetails(map[string]any{"from": persisted.Status.String(), "to": next.Status.String()})
	}
	return nil
}

func (s *service) startSpan(ctx context.Context, name string, orderID uuid.UUID) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	if orderID != uuid.Nil {
		span.SetAttributes(attribute.String("order.id", orderID.String()))
	}
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
