// Package aggregation keeps an order's price equal to the sum of its
// non-cancelled entry totals.
//
// Every recompute runs inside the caller's transaction. The order row is
// locked for the read-aggregate-write sequence and the write is guarded by the
// order's version column, so two saves against the same order serialize while
// saves against different orders never wait on each other.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnaszs/servizas/pkg/config"
	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
	"github.com/arnaszs/servizas/pkg/metrics"
	"github.com/arnaszs/servizas/pkg/types"
)

const tracerName = "github.com/arnaszs/servizas/internal/aggregation"

// errVersionConflict marks a version-guarded write that matched no row.
var errVersionConflict = errors.New("order version changed during recompute")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Metrics is the instrumentation surface the engine reports to.
type Metrics interface {
	ObserveRecompute(result string, elapsed time.Duration)
	IncConflict()
}

// Outcome is the before/after view of one recompute.
type Outcome struct {
	OrderID  uuid.UUID
	Previous decimal.Decimal
	Total    decimal.Decimal
	Version  int64
	Attempts int
}

// Changed reports whether the recompute corrected a stale price.
func (o Outcome) Changed() bool {
	return !o.Previous.Equal(o.Total)
}

// Engine recomputes order totals.
type Engine struct {
	tx      txRunner
	cfg     config.AggregationConfig
	metrics Metrics
	logg    *logger.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// EngineParams wires the engine's collaborators. Metrics, Logger and
// TracerProvider are optional; spans go to the global provider by default.
type EngineParams struct {
	TxRunner       txRunner
	Config         config.AggregationConfig
	Metrics        Metrics
	Logger         *logger.Logger
	TracerProvider trace.TracerProvider
}

// NewEngine validates params and returns an engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Config.Backoff <= 0 {
		return nil, fmt.Errorf("aggregation backoff must be positive")
	}
	m := params.Metrics
	if m == nil {
		m = metrics.NewAggregationMetrics(nil)
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	tp := params.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Engine{
		tx:      params.TxRunner,
		cfg:     params.Config,
		metrics: m,
		logg:    logg,
		tracer:  tp.Tracer(tracerName),
		now:     time.Now,
	}, nil
}

// Lock takes the order's row lock inside tx and returns the locked row.
// Callers that write entries lock first so the entry write and the recompute
// happen under the same lock.
func (e *Engine) Lock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := lockingQuery(tx.WithContext(ctx)).
		Where("id = ?", orderID).
		Take(&order).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeReferenceNotFound, "order not found").
				WithDetails(map[string]any{"orderId": orderID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
	}
	return &order, nil
}

// Recompute sums the order's non-cancelled entry totals and writes the sum to
// order.price inside tx. A lost version check is retried with exponential
// backoff; once retries run out the error carries CodeAggregateConflict and
// the caller's transaction must roll back.
func (e *Engine) Recompute(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (decimal.Decimal, error) {
	outcome, err := e.recompute(ctx, tx, orderID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return outcome.Total, nil
}

// RecomputeOrder runs Recompute in its own transaction.
func (e *Engine) RecomputeOrder(ctx context.Context, orderID uuid.UUID) (Outcome, error) {
	var outcome Outcome
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		outcome, err = e.recompute(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

func (e *Engine) recompute(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "aggregation.Recompute",
		trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer span.End()

	start := time.Now()
	outcome := Outcome{OrderID: orderID}

	backoff := retry.WithMaxRetries(e.cfg.MaxRetries, retry.NewExponential(e.cfg.Backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		outcome.Attempts++
		err := e.attempt(ctx, tx, &outcome)
		if errors.Is(err, errVersionConflict) {
			e.metrics.IncConflict()
			e.logg.Warn(e.logg.WithFields(ctx, map[string]any{
				"order_id": orderID.String(),
				"attempt":  outcome.Attempts,
			}), "order total recompute lost version check")
			return retry.RetryableError(err)
		}
		return err
	})

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("aggregation.attempts", outcome.Attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recompute failed")
		if errors.Is(err, errVersionConflict) {
			e.metrics.ObserveRecompute(metrics.ResultExhausted, elapsed)
			e.logg.Error(e.logg.WithOrderID(ctx, orderID.String()), "order total recompute retries exhausted", err)
			return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeAggregateConflict, err, "order total changed concurrently").
				WithDetails(map[string]any{"orderId": orderID.String(), "attempts": outcome.Attempts})
		}
		e.metrics.ObserveRecompute(metrics.ResultError, elapsed)
		if typed := pkgerrors.As(err); typed != nil {
			return Outcome{}, typed
		}
		return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute order total")
	}

	result := metrics.ResultOK
	if outcome.Attempts > 1 {
		result = metrics.ResultConflict
	}
	e.metrics.ObserveRecompute(result, elapsed)
	span.SetAttributes(attribute.String("order.price", outcome.Total.StringFixed(types.MoneyScale)))
	return outcome, nil
}

func (e *Engine) attempt(ctx context.Context, tx *gorm.DB, outcome *Outcome) error {
	order, err := e.Lock(ctx, tx, outcome.OrderID)
	if err != nil {
		return err
	}

	total, err := sumOpenTotals(ctx, tx, outcome.OrderID)
	if err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"price":      total,
			"version":    gorm.Expr("version + 1"),
			"updated_at": e.now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "write order total")
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}

	outcome.Previous = order.Price
	outcome.Total = total
	outcome.Version = order.Version + 1
	return nil
}

// sumOpenTotals adds up entry totals in decimal so the result does not depend
// on how the backing store aggregates numerics.
func sumOpenTotals(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (decimal.Decimal, error) {
	var rows []struct {
		Total decimal.Decimal
	}
	err := tx.WithContext(ctx).
		Model(&models.Entry{}).
		Select("total").
		Where("order_id = ? AND status <> ?", orderID, enums.EntryStatusCancelled).
		Find(&rows).Error
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum entry totals")
	}

	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(row.Total)
	}
	return types.Money(sum), nil
}

// lockingQuery adds FOR NO KEY UPDATE on dialects with row locks. NO KEY
// UPDATE does not conflict with the KEY SHARE locks entry inserts take on the
// order through the foreign key.
func lockingQuery(tx *gorm.DB) *gorm.DB {
	if tx.Dialector != nil && tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "NO KEY UPDATE"})
}
