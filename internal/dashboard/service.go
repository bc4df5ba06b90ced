package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	recentJoinerWindow = 30 * 24 * time.Hour
	recentJoinerLimit  = 20
)

// Store is the read model behind the dashboards.
type Store interface {
	ProfilesByRole(ctx context.Context) ([]Count, error)
	HeadcountByStatus(ctx context.Context) ([]Count, error)
	ActiveSessions(ctx context.Context, now time.Time) (int64, error)
	RecentJoiners(ctx context.Context, since time.Time, limit int) ([]Joiner, error)
	Person(ctx context.Context, profileID uuid.UUID) (Person, error)
}

// Service assembles dashboard summaries.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Admin gathers the admin counts concurrently.
func (s *Service) Admin(ctx context.Context) (AdminSummary, error) {
	var summary AdminSummary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.store.ProfilesByRole(ctx)
		if err != nil {
			return err
		}
		summary.ProfilesByRole = counts
		return nil
	})

	g.Go(func() error {
		n, err := s.store.ActiveSessions(ctx, s.now())
		if err != nil {
			return err
		}
		summary.ActiveSessions = n
		return nil
	})

	g.Go(func() error {
		counts, err := s.store.HeadcountByStatus(ctx)
		if err != nil {
			return err
		}
		summary.HeadcountByState = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return AdminSummary{}, err
	}
	return summary, nil
}

// HR gathers headcount and recent joiners.
func (s *Service) HR(ctx context.Context) (HRSummary, error) {
	headcount, err := s.store.HeadcountByStatus(ctx)
	if err != nil {
		return HRSummary{}, err
	}
	joiners, err := s.store.RecentJoiners(ctx, s.now().Add(-recentJoinerWindow), recentJoinerLimit)
	if err != nil {
		return HRSummary{}, err
	}
	return HRSummary{HeadcountByState: headcount, RecentJoiners: joiners}, nil
}

// Employee returns the caller's own profile and reporting manager.
func (s *Service) Employee(ctx context.Context, profileID uuid.UUID) (EmployeeSummary, error) {
	self, err := s.store.Person(ctx, profileID)
	if err != nil {
		return EmployeeSummary{}, err
	}
	summary := EmployeeSummary{Profile: self}
	if self.ManagerID != nil {
		manager, err := s.store.Person(ctx, *self.ManagerID)
		switch {
		case err == nil:
			summary.Manager = &manager
		case !errors.Is(err, ErrNotFound):
			return EmployeeSummary{}, err
		}
	}
	return summary, nil
}
