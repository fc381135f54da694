package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/arnaszs/servizas/internal/aggregation"
	"github.com/arnaszs/servizas/pkg/logger"
)

// TotalsReconcileJobName is the registry name of the reconcile job.
const TotalsReconcileJobName = "totals-reconcile"

const (
	defaultReconcileBatchSize   = 200
	defaultReconcileConcurrency = 4
)

type orderIDLister interface {
	ListOrderIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type orderRecomputer interface {
	RecomputeOrder(ctx context.Context, orderID uuid.UUID) (aggregation.Outcome, error)
}

// TotalsReconcileJobParams configure the totals reconcile job.
type TotalsReconcileJobParams struct {
	Logger      *logger.Logger
	Orders      orderIDLister
	Engine      orderRecomputer
	BatchSize   int
	Concurrency int
}

type totalsReconcileJob struct {
	logg        *logger.Logger
	orders      orderIDLister
	engine      orderRecomputer
	batchSize   int
	concurrency int
}

// NewTotalsReconcileJob builds the job that walks every order and recomputes
// its price through the aggregation engine, correcting any drift.
func NewTotalsReconcileJob(params TotalsReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order lister required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("aggregation engine required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatchSize
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}
	return &totalsReconcileJob{
		logg:        params.Logger,
		orders:      params.Orders,
		engine:      params.Engine,
		batchSize:   batch,
		concurrency: concurrency,
	}, nil
}

func (j *totalsReconcileJob) Name() string { return TotalsReconcileJobName }

// Run recomputes every order. Per-order failures are collected and returned
// together after the walk finishes; a listing failure stops the walk.
func (j *totalsReconcileJob) Run(ctx context.Context) error {
	var (
		after     uuid.UUID
		checked   int
		corrected int
		failures  error
	)

	for {
		ids, err := j.orders.ListOrderIDs(ctx, after, j.batchSize)
		if err != nil {
			return multierr.Append(failures, fmt.Errorf("list order ids: %w", err))
		}
		if len(ids) == 0 {
			break
		}

		fixed, batchErr := j.reconcileBatch(ctx, ids)
		checked += len(ids)
		corrected += fixed
		failures = multierr.Append(failures, batchErr)

		if err := ctx.Err(); err != nil {
			return multierr.Append(failures, err)
		}
		if len(ids) < j.batchSize {
			break
		}
		after = ids[len(ids)-1]
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"orders_checked":   checked,
		"orders_corrected": corrected,
		"orders_failed":    len(multierr.Errors(failures)),
	})
	j.logg.Info(logCtx, "order totals reconciled")
	return failures
}

func (j *totalsReconcileJob) reconcileBatch(ctx context.Context, ids []uuid.UUID) (int, error) {
	var (
		mu        sync.Mutex
		corrected int
		failures  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			outcome, err := j.engine.RecomputeOrder(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = multierr.Append(failures, fmt.Errorf("order %s: %w", id, err))
				return nil
			}
			if outcome.Changed() {
				corrected++
				j.logg.Warn(j.logg.WithFields(gctx, map[string]any{
					"order_id": id.String(),
					"previous": outcome.Previous.StringFixed(2),
					"total":    outcome.Total.StringFixed(2),
				}), "order total drift corrected")
			}
			return nil
		})
	}
	_ = g.Wait()
	return corrected, failures
}
