package ports

import (
	"context"

	"bhss/domain/core"
	"bhss/models"
)

// EventRepository defines the interface for calendar event persistence
type EventRepository interface {
	Create(ctx context.Context, event *models.CalendarEvent) error
	GetByID(ctx context.Context, id core.ID) (*models.CalendarEvent, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.CalendarEvent, error)
	Update(ctx context.Context, event *models.CalendarEvent) error
	Delete(ctx context.Context, id core.ID) error
}

// AnnouncementRepository defines the interface for announcement persistence
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	List(ctx context.Context, limit int) ([]models.Announcement, error)
	Delete(ctx context.Context, id core.ID) error
}

// PushSubscriptionRepository stores browser push endpoints. Saving an
// endpoint that already exists replaces its keys and owner.
type PushSubscriptionRepository interface {
	Save(ctx context.Context, sub *models.PushSubscription) error
	DeleteByEndpoint(ctx context.Context, userID core.ID, endpoint string) error
	ListByUser(ctx context.Context, userID core.ID) ([]models.PushSubscription, error)
}
