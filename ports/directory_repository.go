package ports

import (
	"context"

	"bhss/domain/core"
	"bhss/models"
)

// SchoolRepository defines the interface for school directory persistence.
// CreateBatch inserts every row in one transaction or none of them.
type SchoolRepository interface {
	Create(ctx context.Context, school *models.School) error
	CreateBatch(ctx context.Context, schools []models.School) error
	GetByID(ctx context.Context, id core.ID) (*models.School, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.School, error)
	Update(ctx context.Context, school *models.School) error
	Delete(ctx context.Context, id core.ID) error
}

// BeneficiaryRepository defines the interface for beneficiary row persistence
type BeneficiaryRepository interface {
	Create(ctx context.Context, row *models.SchoolBeneficiaryRow) error
	CreateBatch(ctx context.Context, rows []models.SchoolBeneficiaryRow) error
	GetByID(ctx context.Context, id core.ID) (*models.SchoolBeneficiaryRow, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.SchoolBeneficiaryRow, error)
	Update(ctx context.Context, row *models.SchoolBeneficiaryRow) error
	Delete(ctx context.Context, id core.ID) error
}

// SchoolDetailsRepository defines the interface for school contact persistence
type SchoolDetailsRepository interface {
	Create(ctx context.Context, row *models.SchoolDetailsRow) error
	CreateBatch(ctx context.Context, rows []models.SchoolDetailsRow) error
	GetByID(ctx context.Context, id core.ID) (*models.SchoolDetailsRow, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.SchoolDetailsRow, error)
	Update(ctx context.Context, row *models.SchoolDetailsRow) error
	Delete(ctx context.Context, id core.ID) error
}
