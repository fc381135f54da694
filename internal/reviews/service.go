package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/arnaszs/servizas/pkg/db/models"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
)

// MaxContentLength bounds review text after trimming.
const MaxContentLength = 4000

// Service is the append-only review log.
type Service interface {
	PostReview(ctx context.Context, input PostReviewInput) (*models.Review, error)
	ListReviews(ctx context.Context, orderID uuid.UUID) ([]models.Review, error)
}

// PostReviewInput is one review. ReviewerID is the authenticated client and
// may be nil for staff-entered reviews.
type PostReviewInput struct {
	OrderID    uuid.UUID
	ReviewerID *uuid.UUID
	Content    string
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a review service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) PostReview(ctx context.Context, input PostReviewInput) (*models.Review, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review content is required")
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "review content must be at most %d characters", MaxContentLength).
			WithDetails(map[string]any{"length": n, "max": MaxContentLength})
	}

	if err := s.requireOrder(ctx, input.OrderID, pkgerrors.CodeReferenceNotFound); err != nil {
		return nil, err
	}

	review := &models.Review{
		OrderID:    input.OrderID,
		ReviewerID: input.ReviewerID,
		ReviewedAt: s.now().UTC(),
		Content:    content,
	}
	if err := s.repo.Append(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append review")
	}
	return review, nil
}

func (s *service) ListReviews(ctx context.Context, orderID uuid.UUID) ([]models.Review, error) {
	if err := s.requireOrder(ctx, orderID, pkgerrors.CodeNotFound); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return rows, nil
}

func (s *service) requireOrder(ctx context.Context, orderID uuid.UUID, missing pkgerrors.Code) error {
	ok, err := s.repo.OrderExists(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order")
	}
	if !ok {
		return pkgerrors.New(missing, "order not found")
	}
	return nil
}
