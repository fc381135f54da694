package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/db/dbtest"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/pagination"
)

var today = time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return today }
	return impl, conn
}

func day(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

func TestPlaceOrderStartsAtZero(t *testing.T) {
	svc, conn := setup(t)
	owner := dbtest.Client(t, conn, "Ona")
	vehicle := dbtest.Vehicle(t, conn, "ORD001", &owner.ID)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		VehicleID:     vehicle.ID,
		DueBack:       day(2024, 5, 25),
		ActorClientID: &owner.ID,
	})
	require.NoError(t, err)
	require.True(t, order.Price.IsZero())
	require.Equal(t, int64(0), order.Version)
	require.Equal(t, *day(2024, 5, 20), *order.Date)
	require.Equal(t, owner.ID, *order.ClientID())

	stored := dbtest.ReloadOrder(t, conn, order.ID)
	require.True(t, stored.Price.IsZero())
	require.Equal(t, vehicle.ID, stored.VehicleID)
}

func TestPlaceOrderRejections(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	owner := dbtest.Client(t, conn, "Ona")
	stranger := dbtest.Client(t, conn, "Petras")
	vehicle := dbtest.Vehicle(t, conn, "ORD002", &owner.ID)
	unowned := dbtest.Vehicle(t, conn, "ORD003", nil)

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{VehicleID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeReferenceNotFound))

	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{VehicleID: vehicle.ID, ActorClientID: &stranger.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{VehicleID: unowned.ID, ActorClientID: &owner.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{VehicleID: vehicle.ID, Date: day(2024, 5, 10), DueBack: day(2024, 5, 9)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{VehicleID: unowned.ID})
	require.NoError(t, err)
}

func TestGetOrderDetail(t *testing.T) {
	svc, conn := setup(t)
	owner := dbtest.Client(t, conn, "Ona")
	vehicle := dbtest.Vehicle(t, conn, "ORD004", &owner.ID)
	order := dbtest.Order(t, conn, vehicle.ID, day(2024, 5, 19))
	oil := dbtest.Service(t, conn, "Oil change", "49.99")

	entries := []models.Entry{
		{OrderID: order.ID, ServiceID: oil.ID, Quantity: 2, Price: dbtest.Money(t, "49.99"), Total: dbtest.Money(t, "99.98"), Status: enums.EntryStatusProcessing, CreatedAt: today},
		{OrderID: order.ID, ServiceID: oil.ID, Quantity: 1, Price: dbtest.Money(t, "49.99"), Total: dbtest.Money(t, "49.99"), Status: enums.EntryStatusCancelled, CreatedAt: today.Add(time.Minute)},
	}
	for i := range entries {
		require.NoError(t, conn.Create(&entries[i]).Error)
	}

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, got.IsOverdue)
	require.Equal(t, owner.ID, *got.ClientID)
	require.Equal(t, "ORD004", got.Vehicle.LicensePlate)
	require.Len(t, got.Entries, 2)
	require.Equal(t, "Oil change", got.Entries[0].ServiceName)
	require.Equal(t, "orange", got.Entries[0].StatusColor)
	require.Equal(t, "red", got.Entries[1].StatusColor)

	_, err = svc.GetOrder(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetOrderDueTodayIsNotOverdue(t *testing.T) {
	svc, conn := setup(t)
	vehicle := dbtest.Vehicle(t, conn, "ORD005", nil)
	order := dbtest.Order(t, conn, vehicle.ID, day(2024, 5, 20))

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.False(t, got.IsOverdue)
}

func seedOrder(t *testing.T, conn *gorm.DB, vehicleID uuid.UUID, createdAt time.Time) models.Order {
	t.Helper()
	order := models.Order{VehicleID: vehicleID, Price: dbtest.Money(t, "0"), CreatedAt: createdAt}
	require.NoError(t, conn.Create(&order).Error)
	return order
}

func TestListOrdersSearch(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()

	audi := models.CarModel{Make: "Audi", Model: "A4", Year: 2010, Engine: "2.0 TDI"}
	require.NoError(t, conn.Create(&audi).Error)
	owner := dbtest.Client(t, conn, "Ona")

	plateVehicle := dbtest.Vehicle(t, conn, "KAU100", &owner.ID)
	audiVehicle := models.Vehicle{LicensePlate: "VNO200", VIN: "TRU000", CarModelID: &audi.ID}
	require.NoError(t, conn.Create(&audiVehicle).Error)
	otherVehicle := dbtest.Vehicle(t, conn, "VNO300", nil)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	byPlate := seedOrder(t, conn, plateVehicle.ID, base)
	byMake := seedOrder(t, conn, audiVehicle.ID, base.Add(time.Hour))
	byService := seedOrder(t, conn, otherVehicle.ID, base.Add(2*time.Hour))

	brakes := dbtest.Service(t, conn, "Front brake pads", "80.00")
	entry := models.Entry{OrderID: byService.ID, ServiceID: brakes.ID, Quantity: 1, Status: enums.EntryStatusNew}
	require.NoError(t, conn.Create(&entry).Error)

	cases := []struct {
		query string
		want  []uuid.UUID
	}{
		{query: "kau", want: []uuid.UUID{byPlate.ID}},
		{query: "au", want: []uuid.UUID{byMake.ID}},
		{query: "BRAKE", want: []uuid.UUID{byService.ID}},
		{query: "vno", want: []uuid.UUID{byService.ID, byMake.ID}},
		{query: "tru", want: []uuid.UUID{byMake.ID}},
		{query: "%", want: nil},
		{query: "", want: []uuid.UUID{byService.ID, byMake.ID, byPlate.ID}},
	}
	for _, tc := range cases {
		page, err := svc.ListOrders(ctx, OrderFilters{Query: tc.query}, pagination.Params{})
		require.NoError(t, err, tc.query)
		got := make([]uuid.UUID, 0, len(page.Items))
		for _, item := range page.Items {
			got = append(got, item.ID)
		}
		if tc.want == nil {
			require.Empty(t, got, tc.query)
			continue
		}
		require.Equal(t, tc.want, got, tc.query)
	}

	mine, err := svc.ListClientOrders(ctx, owner.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	require.Equal(t, byPlate.ID, mine.Items[0].ID)
	require.Equal(t, "KAU100", mine.Items[0].Vehicle.LicensePlate)
}

func TestListOrdersPaging(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	vehicle := dbtest.Vehicle(t, conn, "PAGE01", nil)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, seedOrder(t, conn, vehicle.ID, base.Add(time.Duration(i)*time.Minute)).ID)
	}

	var seen []uuid.UUID
	cursor := ""
	for pages := 0; pages < 5; pages++ {
		page, err := svc.ListOrders(ctx, OrderFilters{}, pagination.Params{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, item := range page.Items {
			seen = append(seen, item.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	require.Equal(t, []uuid.UUID{ids[4], ids[3], ids[2], ids[1], ids[0]}, seen)

	_, err := svc.ListOrders(ctx, OrderFilters{}, pagination.Params{Cursor: "not-a-cursor"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListOrderIDsPagesAscending(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	vehicle := dbtest.Vehicle(t, conn, "IDS001", nil)
	for i := 0; i < 3; i++ {
		dbtest.Order(t, conn, vehicle.ID, nil)
	}

	first, err := repo.ListOrderIDs(context.Background(), uuid.Nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Less(t, first[0].String(), first[1].String())

	rest, err := repo.ListOrderIDs(context.Background(), first[1], 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Less(t, first[1].String(), rest[0].String())
}

func TestListClientOrdersByDueBack(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()
	owner := dbtest.Client(t, conn, "Ona")
	vehicle := dbtest.Vehicle(t, conn, "DUE001", &owner.ID)
	stranger := dbtest.Vehicle(t, conn, "DUE002", nil)

	undated := dbtest.Order(t, conn, vehicle.ID, nil)
	late := dbtest.Order(t, conn, vehicle.ID, day(2024, 6, 10))
	soonA := dbtest.Order(t, conn, vehicle.ID, day(2024, 5, 22))
	soonB := dbtest.Order(t, conn, vehicle.ID, day(2024, 5, 22))
	dbtest.Order(t, conn, stranger.ID, day(2024, 5, 21))

	soon := []uuid.UUID{soonA.ID, soonB.ID}
	if soon[1].String() < soon[0].String() {
		soon[0], soon[1] = soon[1], soon[0]
	}
	want := []uuid.UUID{soon[0], soon[1], late.ID, undated.ID}

	full, err := svc.ListClientOrders(ctx, owner.ID, pagination.Params{})
	require.NoError(t, err)
	got := make([]uuid.UUID, 0, len(full.Items))
	for _, item := range full.Items {
		got = append(got, item.ID)
	}
	require.Equal(t, want, got)

	var paged []uuid.UUID
	cursor := ""
	for pages := 0; pages < 5; pages++ {
		page, err := svc.ListClientOrders(ctx, owner.ID, pagination.Params{Limit: 1, Cursor: cursor})
		require.NoError(t, err)
		for _, item := range page.Items {
			paged = append(paged, item.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	require.Equal(t, want, paged)

	_, err = svc.ListClientOrders(ctx, owner.ID, pagination.Params{Cursor: "not-a-cursor"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
