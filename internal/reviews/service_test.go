package reviews

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arnaszs/servizas/pkg/db/dbtest"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
)

func TestPostAndListReviews(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	impl := svc.(*service)
	impl.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	reviewer := dbtest.Client(t, conn, "Ona")
	order := dbtest.Order(t, conn, dbtest.Vehicle(t, conn, "REV001", &reviewer.ID).ID, nil)
	ctx := context.Background()

	first, err := svc.PostReview(ctx, PostReviewInput{OrderID: order.ID, ReviewerID: &reviewer.ID, Content: "  Great job  "})
	require.NoError(t, err)
	require.Equal(t, "Great job", first.Content)

	second, err := svc.PostReview(ctx, PostReviewInput{OrderID: order.ID, ReviewerID: &reviewer.ID, Content: "Car is making noise again"})
	require.NoError(t, err)
	anonymous, err := svc.PostReview(ctx, PostReviewInput{OrderID: order.ID, Content: "Staff note"})
	require.NoError(t, err)
	require.Nil(t, anonymous.ReviewerID)

	rows, err := svc.ListReviews(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, anonymous.ID, rows[0].ID)
	require.Equal(t, second.ID, rows[1].ID)
	require.Equal(t, first.ID, rows[2].ID)
	require.True(t, rows[2].ReviewedAt.Equal(first.ReviewedAt))
	require.Equal(t, "Great job", rows[2].Content)
}

func TestPostReviewValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	order := dbtest.Order(t, conn, dbtest.Vehicle(t, conn, "REV002", nil).ID, nil)
	ctx := context.Background()

	_, err = svc.PostReview(ctx, PostReviewInput{OrderID: order.ID, Content: "   "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.PostReview(ctx, PostReviewInput{OrderID: order.ID, Content: strings.Repeat("a", MaxContentLength+1)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.PostReview(ctx, PostReviewInput{OrderID: order.ID, Content: strings.Repeat("ą", MaxContentLength)})
	require.NoError(t, err)

	_, err = svc.PostReview(ctx, PostReviewInput{OrderID: uuid.New(), Content: "hello"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeReferenceNotFound))

	_, err = svc.ListReviews(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
