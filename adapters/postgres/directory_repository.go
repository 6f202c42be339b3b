package postgres

import (
	"context"
	"fmt"

	"bhss/domain/core"
	apperrors "bhss/internal/errors"
	"bhss/models"
	"bhss/ports"

	"github.com/jmoiron/sqlx"
)

const (
	schoolColumns      = `id, municipality, name, school_year, created_at, updated_at`
	beneficiaryColumns = `id, municipality, school_year, kitchen, school, grade2, grade3, grade4, total, created_at, updated_at`
	detailsColumns     = `id, municipality, school_year, school, contacts, created_at, updated_at`

	insertSchool = `INSERT INTO schools (` + schoolColumns + `)
		VALUES (:id, :municipality, :name, :school_year, :created_at, :updated_at)`
	insertBeneficiary = `INSERT INTO school_beneficiaries (` + beneficiaryColumns + `)
		VALUES (:id, :municipality, :school_year, :kitchen, :school, :grade2, :grade3, :grade4, :total, :created_at, :updated_at)`
	insertDetails = `INSERT INTO school_details (` + detailsColumns + `)
		VALUES (:id, :municipality, :school_year, :school, :contacts, :created_at, :updated_at)`
)

var (
	schoolFilter = filterColumns{municipality: "municipality", school: "name", schoolYear: "school_year"}
	rowFilter    = filterColumns{municipality: "municipality", school: "school", schoolYear: "school_year"}
)

// insertBatch inserts every value in one transaction, stamping each with
// stamp first. The first failing row aborts the batch.
func insertBatch[T any](ctx context.Context, db *sqlx.DB, query, resource string, rows []T, stamp func(*T)) error {
	if len(rows) == 0 {
		return nil
	}
	return inTx(ctx, db, func(tx *sqlx.Tx) error {
		for i := range rows {
			stamp(&rows[i])
			if _, err := tx.NamedExecContext(ctx, query, &rows[i]); err != nil {
				return apperrors.DatabaseError(fmt.Sprintf("failed to import %s row %d", resource, i+1), err)
			}
		}
		return nil
	})
}

type schoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository creates a new school directory repository
func NewSchoolRepository(db *sqlx.DB) ports.SchoolRepository {
	return &schoolRepository{db: db}
}

func stampSchool(s *models.School) {
	s.ID = core.NewID()
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
}

func (r *schoolRepository) Create(ctx context.Context, school *models.School) error {
	stampSchool(school)
	if _, err := r.db.NamedExecContext(ctx, insertSchool, school); err != nil {
		return apperrors.DatabaseError("failed to create school", err)
	}
	return nil
}

func (r *schoolRepository) CreateBatch(ctx context.Context, schools []models.School) error {
	return insertBatch(ctx, r.db, insertSchool, "school", schools, stampSchool)
}

func (r *schoolRepository) GetByID(ctx context.Context, id core.ID) (*models.School, error) {
	var school models.School
	err := r.db.GetContext(ctx, &school, r.db.Rebind(`SELECT `+schoolColumns+` FROM schools WHERE id = ?`), id)
	if err != nil {
		return nil, notFoundOr(err, "school")
	}
	return &school, nil
}

func (r *schoolRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.School, error) {
	where, args := whereClause(filter, schoolFilter)
	schools := []models.School{}
	err := r.db.SelectContext(ctx, &schools, r.db.Rebind(`
		SELECT `+schoolColumns+` FROM schools`+where+` ORDER BY municipality, name
	`), args...)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list schools", err)
	}
	return schools, nil
}

func (r *schoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = now()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE schools SET municipality = :municipality, name = :name, school_year = :school_year,
			updated_at = :updated_at
		WHERE id = :id
	`, school)
	if err != nil {
		return apperrors.DatabaseError("failed to update school", err)
	}
	return requireAffected(res, "school")
}

func (r *schoolRepository) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM schools WHERE id = ?`), id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete school", err)
	}
	return requireAffected(res, "school")
}

type beneficiaryRepository struct {
	db *sqlx.DB
}

// NewBeneficiaryRepository creates a new beneficiary repository
func NewBeneficiaryRepository(db *sqlx.DB) ports.BeneficiaryRepository {
	return &beneficiaryRepository{db: db}
}

func stampBeneficiary(b *models.SchoolBeneficiaryRow) {
	b.ID = core.NewID()
	b.ComputeTotal()
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
}

func (r *beneficiaryRepository) Create(ctx context.Context, row *models.SchoolBeneficiaryRow) error {
	stampBeneficiary(row)
	if _, err := r.db.NamedExecContext(ctx, insertBeneficiary, row); err != nil {
		return apperrors.DatabaseError("failed to create beneficiary row", err)
	}
	return nil
}

func (r *beneficiaryRepository) CreateBatch(ctx context.Context, rows []models.SchoolBeneficiaryRow) error {
	return insertBatch(ctx, r.db, insertBeneficiary, "beneficiary", rows, stampBeneficiary)
}

func (r *beneficiaryRepository) GetByID(ctx context.Context, id core.ID) (*models.SchoolBeneficiaryRow, error) {
	var row models.SchoolBeneficiaryRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+beneficiaryColumns+` FROM school_beneficiaries WHERE id = ?`), id)
	if err != nil {
		return nil, notFoundOr(err, "beneficiary row")
	}
	return &row, nil
}

func (r *beneficiaryRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.SchoolBeneficiaryRow, error) {
	where, args := whereClause(filter, rowFilter)
	rows := []models.SchoolBeneficiaryRow{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT `+beneficiaryColumns+` FROM school_beneficiaries`+where+` ORDER BY municipality, kitchen, school
	`), args...)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list beneficiary rows", err)
	}
	return rows, nil
}

func (r *beneficiaryRepository) Update(ctx context.Context, row *models.SchoolBeneficiaryRow) error {
	row.ComputeTotal()
	row.UpdatedAt = now()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE school_beneficiaries SET municipality = :municipality, school_year = :school_year,
			kitchen = :kitchen, school = :school, grade2 = :grade2, grade3 = :grade3, grade4 = :grade4,
			total = :total, updated_at = :updated_at
		WHERE id = :id
	`, row)
	if err != nil {
		return apperrors.DatabaseError("failed to update beneficiary row", err)
	}
	return requireAffected(res, "beneficiary row")
}

func (r *beneficiaryRepository) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM school_beneficiaries WHERE id = ?`), id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete beneficiary row", err)
	}
	return requireAffected(res, "beneficiary row")
}

type schoolDetailsRepository struct {
	db *sqlx.DB
}

// NewSchoolDetailsRepository creates a new school details repository
func NewSchoolDetailsRepository(db *sqlx.DB) ports.SchoolDetailsRepository {
	return &schoolDetailsRepository{db: db}
}

func stampDetails(d *models.SchoolDetailsRow) {
	d.ID = core.NewID()
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt
}

func (r *schoolDetailsRepository) Create(ctx context.Context, row *models.SchoolDetailsRow) error {
	stampDetails(row)
	if _, err := r.db.NamedExecContext(ctx, insertDetails, row); err != nil {
		return apperrors.DatabaseError("failed to create school details", err)
	}
	return nil
}

func (r *schoolDetailsRepository) CreateBatch(ctx context.Context, rows []models.SchoolDetailsRow) error {
	return insertBatch(ctx, r.db, insertDetails, "school details", rows, stampDetails)
}

func (r *schoolDetailsRepository) GetByID(ctx context.Context, id core.ID) (*models.SchoolDetailsRow, error) {
	var row models.SchoolDetailsRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+detailsColumns+` FROM school_details WHERE id = ?`), id)
	if err != nil {
		return nil, notFoundOr(err, "school details")
	}
	return &row, nil
}

func (r *schoolDetailsRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.SchoolDetailsRow, error) {
	where, args := whereClause(filter, rowFilter)
	rows := []models.SchoolDetailsRow{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT `+detailsColumns+` FROM school_details`+where+` ORDER BY municipality, school
	`), args...)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list school details", err)
	}
	return rows, nil
}

func (r *schoolDetailsRepository) Update(ctx context.Context, row *models.SchoolDetailsRow) error {
	row.UpdatedAt = now()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE school_details SET municipality = :municipality, school_year = :school_year,
			school = :school, contacts = :contacts, updated_at = :updated_at
		WHERE id = :id
	`, row)
	if err != nil {
		return apperrors.DatabaseError("failed to update school details", err)
	}
	return requireAffected(res, "school details")
}

func (r *schoolDetailsRepository) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM school_details WHERE id = ?`), id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete school details", err)
	}
	return requireAffected(res, "school details")
}
