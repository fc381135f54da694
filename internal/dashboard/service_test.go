package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arnaszs/servizas/pkg/db/dbtest"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
)

func TestSummaryZeroFillsStatuses(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.EntriesByStatus, 4)
	for _, status := range enums.EntryStatuses() {
		require.Zero(t, summary.EntriesByStatus[status])
	}
	require.Empty(t, summary.ServiceNames)
	require.NotNil(t, summary.ServiceNames)
}

func TestSummaryCounts(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	order := dbtest.Order(t, conn, dbtest.Vehicle(t, conn, "DSH001", nil).ID, nil)
	dbtest.Vehicle(t, conn, "DSH002", nil)
	wash := dbtest.Service(t, conn, "Wash", "5")
	dbtest.Service(t, conn, "Alignment", "")

	for _, status := range []enums.EntryStatus{enums.EntryStatusNew, enums.EntryStatusNew, enums.EntryStatusCancelled} {
		entry := models.Entry{OrderID: order.ID, ServiceID: wash.ID, Quantity: 1, Status: status}
		require.NoError(t, conn.Create(&entry).Error)
	}

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.EntriesByStatus[enums.EntryStatusNew])
	require.Equal(t, int64(1), summary.EntriesByStatus[enums.EntryStatusCancelled])
	require.Equal(t, int64(0), summary.EntriesByStatus[enums.EntryStatusComplete])
	require.Equal(t, int64(2), summary.VehicleCount)
	require.Equal(t, 2, summary.ServiceCount)
	require.Equal(t, []string{"Alignment", "Wash"}, summary.ServiceNames)
}

type failingRepo struct{ Repository }

func (failingRepo) CountVehicles(context.Context) (int64, error) {
	return 0, errors.New("boom")
}

func TestSummaryPropagatesStorageErrors(t *testing.T) {
	svc, err := NewService(failingRepo{Repository: NewRepository(dbtest.Open(t))})
	require.NoError(t, err)

	_, err = svc.Summary(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
