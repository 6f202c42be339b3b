package store

import (
	"context"

	"bhss/models"

	"golang.org/x/sync/errgroup"
)

// Stores is the full set of collections the client caches
type Stores struct {
	Attendance    *Store[models.AttendanceRecord]
	Delivery      *Store[models.DeliveryRecord]
	Schools       *Store[models.School]
	Beneficiaries *Store[models.SchoolBeneficiaryRow]
	Details       *Store[models.SchoolDetailsRow]
	Events        *Store[models.CalendarEvent]
	Announcements *Store[models.Announcement]
}

// NewStores wires every collection to its routes
func NewStores(t Transport) *Stores {
	return &Stores{
		Attendance: New[models.AttendanceRecord]("attendance", t, Endpoints{
			List: "/api/attendance/history", Create: "/api/attendance", Item: "/api/admin/attendance", Patch: true,
		}),
		Delivery: New[models.DeliveryRecord]("delivery", t, Endpoints{
			List: "/api/delivery/history", Create: "/api/delivery", Item: "/api/admin/delivery", Patch: true,
		}),
		Schools: New[models.School]("schools", t, Endpoints{
			List: "/api/admin/schools", Create: "/api/admin/schools", Item: "/api/admin/schools", Patch: true,
		}),
		Beneficiaries: New[models.SchoolBeneficiaryRow]("beneficiaries", t, Endpoints{
			List: "/api/admin/beneficiaries", Create: "/api/admin/beneficiaries", Item: "/api/admin/beneficiaries", Patch: true,
		}),
		Details: New[models.SchoolDetailsRow]("school details", t, Endpoints{
			List: "/api/admin/school-details", Create: "/api/admin/school-details", Item: "/api/admin/school-details", Patch: true,
		}),
		Events: New[models.CalendarEvent]("events", t, Endpoints{
			List: "/api/events", Create: "/api/admin/events", Item: "/api/admin/events", Patch: true,
		}),
		Announcements: New[models.Announcement]("announcements", t, Endpoints{
			List: "/api/announcements", Create: "/api/announcements", Item: "/api/announcements",
		}),
	}
}

// FetchAll refreshes every store concurrently. The first failure cancels
// the rest; stores that already finished keep their new contents.
func (s *Stores) FetchAll(ctx context.Context, scope models.RecordFilter) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { _, err := s.Attendance.Fetch(ctx, scope); return err })
	g.Go(func() error { _, err := s.Delivery.Fetch(ctx, scope); return err })
	g.Go(func() error { _, err := s.Schools.Fetch(ctx, scope); return err })
	g.Go(func() error { _, err := s.Beneficiaries.Fetch(ctx, scope); return err })
	g.Go(func() error { _, err := s.Details.Fetch(ctx, scope); return err })
	g.Go(func() error { _, err := s.Events.Fetch(ctx, scope); return err })
	g.Go(func() error { _, err := s.Announcements.Fetch(ctx, scope); return err })
	return g.Wait()
}

// FetchRecords refreshes only the attendance and delivery stores, the part a
// field user can read
func (s *Stores) FetchRecords(ctx context.Context, scope models.RecordFilter) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { _, err := s.Attendance.Fetch(ctx, scope); return err })
	g.Go(func() error { _, err := s.Delivery.Fetch(ctx, scope); return err })
	return g.Wait()
}
