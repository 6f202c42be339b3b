package app

import (
	"context"

	"bhss/internal/dashboard"
	"bhss/models"
	"bhss/ports"

	"golang.org/x/sync/errgroup"
)

// DashboardService assembles the admin dashboard summary
type DashboardService struct {
	attendance    ports.AttendanceRepository
	deliveries    ports.DeliveryRepository
	schools       ports.SchoolRepository
	beneficiaries ports.BeneficiaryRepository
}

// NewDashboardService creates a dashboard service
func NewDashboardService(attendance ports.AttendanceRepository, deliveries ports.DeliveryRepository, schools ports.SchoolRepository, beneficiaries ports.BeneficiaryRepository) *DashboardService {
	return &DashboardService{
		attendance:    attendance,
		deliveries:    deliveries,
		schools:       schools,
		beneficiaries: beneficiaries,
	}
}

// Summary loads the filtered collections concurrently and aggregates them
func (s *DashboardService) Summary(ctx context.Context, filter models.RecordFilter, topN int) (*dashboard.Summary, error) {
	if err := dashboard.ValidateRange(filter.From, filter.To); err != nil {
		return nil, err
	}
	in := dashboard.Input{From: filter.From, To: filter.To, TopN: topN}
	directory := models.RecordFilter{Municipality: filter.Municipality, SchoolYear: filter.SchoolYear}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Attendance, err = s.attendance.List(ctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		in.Deliveries, err = s.deliveries.List(ctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		in.Schools, err = s.schools.List(ctx, directory)
		return err
	})
	g.Go(func() error {
		var err error
		in.Beneficiaries, err = s.beneficiaries.List(ctx, directory)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := dashboard.Build(in)
	return &summary, nil
}
