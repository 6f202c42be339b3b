package postgres

import (
	"context"

	"bhss/domain/core"
	apperrors "bhss/internal/errors"
	"bhss/models"
	"bhss/ports"

	"github.com/jmoiron/sqlx"
)

const deliveryColumns = `id, date_key, municipality, school, category_key, category_label, status,
	status_reason, uploaded_at, images, concerns, remarks, created_by, created_at, updated_at`

var deliveryFilter = filterColumns{
	date:         "date_key",
	municipality: "municipality",
	school:       "school",
	status:       "status",
}

type deliveryRepository struct {
	db *sqlx.DB
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *sqlx.DB) ports.DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, record *models.DeliveryRecord) error {
	record.ID = core.NewID()
	record.CreatedAt = now()
	record.UpdatedAt = record.CreatedAt
	if record.Status == "" {
		record.Status = models.DeliveryPending
	}
	if record.Images == nil {
		record.Images = models.FileRefList{}
	}
	if record.Concerns == nil {
		record.Concerns = models.StringList{}
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO delivery_records (`+deliveryColumns+`)
		VALUES (:id, :date_key, :municipality, :school, :category_key, :category_label, :status,
			:status_reason, :uploaded_at, :images, :concerns, :remarks, :created_by, :created_at, :updated_at)
	`, record)
	if err != nil {
		return apperrors.DatabaseError("failed to create delivery record", err)
	}
	return nil
}

func (r *deliveryRepository) GetByID(ctx context.Context, id core.ID) (*models.DeliveryRecord, error) {
	var record models.DeliveryRecord
	err := r.db.GetContext(ctx, &record, r.db.Rebind(`
		SELECT `+deliveryColumns+` FROM delivery_records WHERE id = ?
	`), id)
	if err != nil {
		return nil, notFoundOr(err, "delivery record")
	}
	return &record, nil
}

// List returns matching deliveries, newest day first
func (r *deliveryRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.DeliveryRecord, error) {
	where, args := whereClause(filter, deliveryFilter)
	records := []models.DeliveryRecord{}
	err := r.db.SelectContext(ctx, &records, r.db.Rebind(`
		SELECT `+deliveryColumns+` FROM delivery_records`+where+`
		ORDER BY date_key DESC, created_at DESC
	`), args...)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list delivery records", err)
	}
	return records, nil
}

func (r *deliveryRepository) Update(ctx context.Context, record *models.DeliveryRecord) error {
	record.UpdatedAt = now()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE delivery_records SET
			date_key = :date_key, municipality = :municipality, school = :school,
			category_key = :category_key, category_label = :category_label, status = :status,
			status_reason = :status_reason, uploaded_at = :uploaded_at, images = :images,
			concerns = :concerns, remarks = :remarks, updated_at = :updated_at
		WHERE id = :id
	`, record)
	if err != nil {
		return apperrors.DatabaseError("failed to update delivery record", err)
	}
	return requireAffected(res, "delivery record")
}

func (r *deliveryRepository) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM delivery_records WHERE id = ?`), id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete delivery record", err)
	}
	return requireAffected(res, "delivery record")
}
