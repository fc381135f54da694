package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arnaszs/servizas/pkg/enums"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
)

// Summary is the staff dashboard payload.
type Summary struct {
	EntriesByStatus map[enums.EntryStatus]int64 `json:"entries_by_status"`
	VehicleCount    int64                       `json:"vehicle_count"`
	ServiceCount    int                         `json:"service_count"`
	ServiceNames    []string                    `json:"service_names"`
}

// Service builds the dashboard summary.
type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	repo Repository
}

// NewService wires a dashboard service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	var (
		counts   []StatusCount
		vehicles int64
		names    []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.repo.CountEntriesByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		vehicles, err = s.repo.CountVehicles(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		names, err = s.repo.ListServiceNames(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard")
	}

	byStatus := make(map[enums.EntryStatus]int64, len(enums.EntryStatuses()))
	for _, status := range enums.EntryStatuses() {
		byStatus[status] = 0
	}
	for _, row := range counts {
		if row.Status.IsValid() {
			byStatus[row.Status] = row.Count
		}
	}
	if names == nil {
		names = []string{}
	}

	return &Summary{
		EntriesByStatus: byStatus,
		VehicleCount:    vehicles,
		ServiceCount:    len(names),
		ServiceNames:    names,
	}, nil
}
