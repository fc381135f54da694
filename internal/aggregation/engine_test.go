package aggregation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/config"
	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/dbtest"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/metrics"
)

type recordingMetrics struct {
	mu        sync.Mutex
	results   []string
	conflicts int
}

func (m *recordingMetrics) ObserveRecompute(result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func (m *recordingMetrics) IncConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

type fixture struct {
	client  *db.Client
	conn    *gorm.DB
	engine  *Engine
	metrics *recordingMetrics
	spans   *tracetest.SpanRecorder
	order   models.Order
	service models.Service
}

func newFixture(t *testing.T, maxRetries uint64) *fixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	rec := &recordingMetrics{}
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	engine, err := NewEngine(EngineParams{
		TxRunner:       client,
		Config:         config.AggregationConfig{MaxRetries: maxRetries, Backoff: time.Millisecond},
		Metrics:        rec,
		TracerProvider: tp,
	})
	require.NoError(t, err)

	vehicle := dbtest.Vehicle(t, conn, "AGG001", nil)
	return &fixture{
		client:  client,
		conn:    conn,
		engine:  engine,
		metrics: rec,
		spans:   spans,
		order:   dbtest.Order(t, conn, vehicle.ID, nil),
		service: dbtest.Service(t, conn, "Oil change", "49.99"),
	}
}

func (f *fixture) entry(t *testing.T, total string, status enums.EntryStatus) models.Entry {
	t.Helper()
	entry := models.Entry{
		OrderID:   f.order.ID,
		ServiceID: f.service.ID,
		Quantity:  1,
		Price:     dbtest.Money(t, total),
		Total:     dbtest.Money(t, total),
		Status:    status,
	}
	require.NoError(t, f.conn.Create(&entry).Error)
	return entry
}

// bumpVersionOnWrite makes the next n order writes lose their version check
// by bumping the row inside the same transaction right before the write.
func bumpVersionOnWrite(t *testing.T, conn *gorm.DB, n int) {
	t.Helper()
	remaining := n
	err := conn.Callback().Update().Before("gorm:update").Register("test:bump_version", func(tx *gorm.DB) {
		if tx.Statement.Table != "orders" || remaining == 0 {
			return
		}
		remaining--
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, "UPDATE orders SET version = version + 1")
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
}

func TestNewEngineValidatesParams(t *testing.T) {
	_, err := NewEngine(EngineParams{Config: config.AggregationConfig{Backoff: time.Millisecond}})
	require.Error(t, err)

	client, _ := dbtest.OpenClient(t)
	_, err = NewEngine(EngineParams{TxRunner: client})
	require.Error(t, err)
}

func TestRecomputeEmptyOrderIsZero(t *testing.T) {
	f := newFixture(t, 3)

	outcome, err := f.engine.RecomputeOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.True(t, outcome.Total.IsZero())
	require.Equal(t, int64(1), outcome.Version)

	stored := dbtest.ReloadOrder(t, f.conn, f.order.ID)
	require.True(t, stored.Price.IsZero())
	require.Equal(t, int64(1), stored.Version)
	require.Equal(t, []string{metrics.ResultOK}, f.metrics.results)
}

func TestRecomputeSkipsCancelledEntries(t *testing.T) {
	f := newFixture(t, 3)
	f.entry(t, "99.98", enums.EntryStatusNew)
	f.entry(t, "20.00", enums.EntryStatusComplete)
	f.entry(t, "0.01", enums.EntryStatusProcessing)
	f.entry(t, "500.00", enums.EntryStatusCancelled)

	err := f.client.WithTx(context.Background(), func(tx *gorm.DB) error {
		total, err := f.engine.Recompute(context.Background(), tx, f.order.ID)
		require.NoError(t, err)
		require.Equal(t, "119.99", total.StringFixed(2))
		return nil
	})
	require.NoError(t, err)

	stored := dbtest.ReloadOrder(t, f.conn, f.order.ID)
	require.True(t, stored.Price.Equal(dbtest.Money(t, "119.99")))
}

func TestRecomputeMissingOrder(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.engine.RecomputeOrder(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeReferenceNotFound), "got %v", err)
	require.Equal(t, []string{metrics.ResultError}, f.metrics.results)
}

func TestRecomputeReportsCorrection(t *testing.T) {
	f := newFixture(t, 3)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", f.order.ID).Update("price", dbtest.Money(t, "5.00")).Error)
	f.entry(t, "12.50", enums.EntryStatusNew)

	outcome, err := f.engine.RecomputeOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.True(t, outcome.Changed())
	require.Equal(t, "5.00", outcome.Previous.StringFixed(2))
	require.Equal(t, "12.50", outcome.Total.StringFixed(2))

	again, err := f.engine.RecomputeOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.False(t, again.Changed())
}

func TestRecomputeRetriesLostVersionCheck(t *testing.T) {
	f := newFixture(t, 5)
	f.entry(t, "10.00", enums.EntryStatusNew)
	bumpVersionOnWrite(t, f.conn, 2)

	outcome, err := f.engine.RecomputeOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.Equal(t, 3, outcome.Attempts)
	require.Equal(t, "10.00", outcome.Total.StringFixed(2))
	require.Equal(t, 2, f.metrics.conflicts)
	require.Equal(t, []string{metrics.ResultConflict}, f.metrics.results)

	stored := dbtest.ReloadOrder(t, f.conn, f.order.ID)
	require.True(t, stored.Price.Equal(dbtest.Money(t, "10")))
}

func TestRecomputeExhaustedRetriesRollsBack(t *testing.T) {
	f := newFixture(t, 2)
	f.entry(t, "10.00", enums.EntryStatusNew)
	bumpVersionOnWrite(t, f.conn, 100)

	_, err := f.engine.RecomputeOrder(context.Background(), f.order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAggregateConflict), "got %v", err)
	require.True(t, pkgerrors.As(err).Retryable())
	require.Equal(t, 3, f.metrics.conflicts)
	require.Equal(t, []string{metrics.ResultExhausted}, f.metrics.results)

	stored := dbtest.ReloadOrder(t, f.conn, f.order.ID)
	require.True(t, stored.Price.IsZero())
	require.Equal(t, int64(0), stored.Version)
}

func TestRecomputeHonoursCancelledContext(t *testing.T) {
	f := newFixture(t, 50)
	bumpVersionOnWrite(t, f.conn, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.engine.RecomputeOrder(ctx, f.order.ID)
	require.Error(t, err)
	stored := dbtest.ReloadOrder(t, f.conn, f.order.ID)
	require.Equal(t, int64(0), stored.Version)
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]string {
	out := map[string]string{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestRecomputeRecordsSpan(t *testing.T) {
	f := newFixture(t, 3)
	f.entry(t, "10.00", enums.EntryStatusNew)
	bumpVersionOnWrite(t, f.conn, 1)

	_, err := f.engine.RecomputeOrder(context.Background(), f.order.ID)
	require.NoError(t, err)

	ended := f.spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "aggregation.Recompute", ended[0].Name())
	attrs := spanAttrs(ended[0])
	require.Equal(t, f.order.ID.String(), attrs["order.id"])
	require.Equal(t, "2", attrs["aggregation.attempts"])
	require.Equal(t, "10.00", attrs["order.price"])
	require.NotEqual(t, codes.Error, ended[0].Status().Code)
}

func TestRecomputeSpanMarksExhaustion(t *testing.T) {
	f := newFixture(t, 1)
	f.entry(t, "10.00", enums.EntryStatusNew)
	bumpVersionOnWrite(t, f.conn, 100)

	_, err := f.engine.RecomputeOrder(context.Background(), f.order.ID)
	require.Error(t, err)

	ended := f.spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, codes.Error, ended[0].Status().Code)
	require.Equal(t, "2", spanAttrs(ended[0])["aggregation.attempts"])
}
