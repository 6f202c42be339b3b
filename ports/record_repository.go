package ports

import (
	"context"

	"bhss/domain/core"
	"bhss/models"
)

// AttendanceRepository defines the interface for attendance persistence
type AttendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	GetByID(ctx context.Context, id core.ID) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.AttendanceRecord, error)
	Update(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, id core.ID) error
}

// DeliveryRepository defines the interface for delivery log persistence
type DeliveryRepository interface {
	Create(ctx context.Context, record *models.DeliveryRecord) error
	GetByID(ctx context.Context, id core.ID) (*models.DeliveryRecord, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.DeliveryRecord, error)
	Update(ctx context.Context, record *models.DeliveryRecord) error
	Delete(ctx context.Context, id core.ID) error
}
