package postgres

import (
	"context"

	"bhss/domain/core"
	apperrors "bhss/internal/errors"
	"bhss/models"
	"bhss/ports"

	"github.com/jmoiron/sqlx"
)

const attendanceColumns = `id, date_key, municipality, school, grade, present, absent, notes, created_by, created_at, updated_at`

var attendanceFilter = filterColumns{
	date:         "date_key",
	municipality: "municipality",
	school:       "school",
}

type attendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *sqlx.DB) ports.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	record.ID = core.NewID()
	record.CreatedAt = now()
	record.UpdatedAt = record.CreatedAt

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO attendance_records (`+attendanceColumns+`)
		VALUES (:id, :date_key, :municipality, :school, :grade, :present, :absent, :notes, :created_by, :created_at, :updated_at)
	`, record)
	if err != nil {
		return apperrors.DatabaseError("failed to create attendance record", err)
	}
	return nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id core.ID) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.GetContext(ctx, &record, r.db.Rebind(`
		SELECT `+attendanceColumns+` FROM attendance_records WHERE id = ?
	`), id)
	if err != nil {
		return nil, notFoundOr(err, "attendance record")
	}
	return &record, nil
}

// List returns matching records, newest day first
func (r *attendanceRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.AttendanceRecord, error) {
	where, args := whereClause(filter, attendanceFilter)
	records := []models.AttendanceRecord{}
	err := r.db.SelectContext(ctx, &records, r.db.Rebind(`
		SELECT `+attendanceColumns+` FROM attendance_records`+where+`
		ORDER BY date_key DESC, created_at DESC
	`), args...)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list attendance records", err)
	}
	return records, nil
}

func (r *attendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	record.UpdatedAt = now()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE attendance_records SET
			date_key = :date_key, municipality = :municipality, school = :school, grade = :grade,
			present = :present, absent = :absent, notes = :notes, updated_at = :updated_at
		WHERE id = :id
	`, record)
	if err != nil {
		return apperrors.DatabaseError("failed to update attendance record", err)
	}
	return requireAffected(res, "attendance record")
}

func (r *attendanceRepository) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM attendance_records WHERE id = ?`), id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete attendance record", err)
	}
	return requireAffected(res, "attendance record")
}
