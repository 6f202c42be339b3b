package app

import (
	"context"
	"io"
	"log"
	"strings"

	"bhss/adapters/excel"
	"bhss/domain/core"
	"bhss/internal/errors"
	"bhss/internal/importer"
	"bhss/internal/validation"
	"bhss/models"
	"bhss/ports"
)

// DirectoryService manages the school directory: schools, beneficiary
// counts and school contacts, including spreadsheet import and export
type DirectoryService struct {
	schools       ports.SchoolRepository
	beneficiaries ports.BeneficiaryRepository
	details       ports.SchoolDetailsRepository
	reader        *excel.SheetReader
	writer        *excel.DirectoryWriter
	validator     *validation.Validator
}

// NewDirectoryService creates a directory service
func NewDirectoryService(schools ports.SchoolRepository, beneficiaries ports.BeneficiaryRepository, details ports.SchoolDetailsRepository, validator *validation.Validator) *DirectoryService {
	return &DirectoryService{
		schools:       schools,
		beneficiaries: beneficiaries,
		details:       details,
		reader:        excel.NewSheetReader(),
		writer:        excel.NewDirectoryWriter(),
		validator:     validator,
	}
}

// Schools

func (s *DirectoryService) ListSchools(ctx context.Context, filter models.RecordFilter) ([]models.School, error) {
	return s.schools.List(ctx, filter)
}

func (s *DirectoryService) CreateSchool(ctx context.Context, in models.SchoolInput) (*models.School, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	school := &models.School{
		Municipality: strings.TrimSpace(in.Municipality),
		Name:         strings.TrimSpace(in.Name),
		SchoolYear:   strings.TrimSpace(in.SchoolYear),
	}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *DirectoryService) UpdateSchool(ctx context.Context, id core.ID, in models.SchoolInput) (*models.School, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	school.Municipality = strings.TrimSpace(in.Municipality)
	school.Name = strings.TrimSpace(in.Name)
	school.SchoolYear = strings.TrimSpace(in.SchoolYear)
	if err := s.schools.Update(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *DirectoryService) DeleteSchool(ctx context.Context, id core.ID) error {
	return s.schools.Delete(ctx, id)
}

// Beneficiaries

func (s *DirectoryService) ListBeneficiaries(ctx context.Context, filter models.RecordFilter) ([]models.SchoolBeneficiaryRow, error) {
	return s.beneficiaries.List(ctx, filter)
}

func (s *DirectoryService) CreateBeneficiary(ctx context.Context, in models.BeneficiaryInput) (*models.SchoolBeneficiaryRow, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	row := &models.SchoolBeneficiaryRow{}
	applyBeneficiary(row, in)
	if err := s.beneficiaries.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *DirectoryService) UpdateBeneficiary(ctx context.Context, id core.ID, in models.BeneficiaryInput) (*models.SchoolBeneficiaryRow, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	row, err := s.beneficiaries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyBeneficiary(row, in)
	if err := s.beneficiaries.Update(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *DirectoryService) DeleteBeneficiary(ctx context.Context, id core.ID) error {
	return s.beneficiaries.Delete(ctx, id)
}

func applyBeneficiary(row *models.SchoolBeneficiaryRow, in models.BeneficiaryInput) {
	row.Municipality = strings.TrimSpace(in.Municipality)
	row.SchoolYear = strings.TrimSpace(in.SchoolYear)
	row.Kitchen = strings.TrimSpace(in.Kitchen)
	row.School = strings.TrimSpace(in.School)
	row.Grade2, row.Grade3, row.Grade4 = in.Grade2, in.Grade3, in.Grade4
	row.ComputeTotal()
}

// School details

func (s *DirectoryService) ListDetails(ctx context.Context, filter models.RecordFilter) ([]models.SchoolDetailsRow, error) {
	return s.details.List(ctx, filter)
}

func (s *DirectoryService) CreateDetails(ctx context.Context, in models.SchoolDetailsInput) (*models.SchoolDetailsRow, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	row := &models.SchoolDetailsRow{
		Municipality: strings.TrimSpace(in.Municipality),
		SchoolYear:   strings.TrimSpace(in.SchoolYear),
		School:       strings.TrimSpace(in.School),
		Contacts:     in.Contacts,
	}
	if err := s.details.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *DirectoryService) UpdateDetails(ctx context.Context, id core.ID, in models.SchoolDetailsInput) (*models.SchoolDetailsRow, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	row, err := s.details.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	row.Municipality = strings.TrimSpace(in.Municipality)
	row.SchoolYear = strings.TrimSpace(in.SchoolYear)
	row.School = strings.TrimSpace(in.School)
	row.Contacts = in.Contacts
	if err := s.details.Update(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *DirectoryService) DeleteDetails(ctx context.Context, id core.ID) error {
	return s.details.Delete(ctx, id)
}

// Import parses an uploaded workbook as kind and stores the new rows in one
// transaction. Rows already in the directory count as duplicates.
func (s *DirectoryService) Import(ctx context.Context, kind importer.Kind, filename string, body io.Reader, schoolYear string) (*importer.Result, error) {
	if !excel.IsSpreadsheet(filename) {
		return nil, errors.InvalidInput("unsupported file type: upload an .xlsx, .xls or .csv file")
	}
	rows, err := s.reader.ReadRows(body, filename)
	if err != nil {
		return nil, errors.WithCode(errors.CodeImportFailed, err)
	}

	existing, err := s.existingKeys(ctx, kind)
	if err != nil {
		return nil, err
	}

	result, err := importer.Import(rows, kind, importer.Options{SchoolYear: schoolYear, ExistingKeys: existing})
	if err != nil {
		return nil, err
	}

	switch kind {
	case importer.KindSchools:
		err = s.schools.CreateBatch(ctx, result.Schools)
	case importer.KindBeneficiaries:
		err = s.beneficiaries.CreateBatch(ctx, result.Beneficiaries)
	case importer.KindDetails:
		err = s.details.CreateBatch(ctx, result.Details)
	}
	if err != nil {
		return nil, errors.Wrap(err, "import rolled back")
	}

	log.Printf("[Directory] %s: %s", filename, result.Summary())
	return result, nil
}

func (s *DirectoryService) existingKeys(ctx context.Context, kind importer.Kind) ([]string, error) {
	var keys []string
	switch kind {
	case importer.KindSchools:
		rows, err := s.schools.List(ctx, models.RecordFilter{})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			keys = append(keys, importer.CompositeKey(r.Municipality, r.Name, r.SchoolYear))
		}
	case importer.KindBeneficiaries:
		rows, err := s.beneficiaries.List(ctx, models.RecordFilter{})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			keys = append(keys, importer.CompositeKey(r.Municipality, r.School, r.SchoolYear))
		}
	case importer.KindDetails:
		rows, err := s.details.List(ctx, models.RecordFilter{})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			keys = append(keys, importer.CompositeKey(r.Municipality, r.School, r.SchoolYear))
		}
	default:
		return nil, errors.InvalidInput("unknown import kind " + string(kind))
	}
	return keys, nil
}

// Export writes the filtered directory as an .xlsx workbook
func (s *DirectoryService) Export(ctx context.Context, w io.Writer, filter models.RecordFilter) error {
	schools, err := s.schools.List(ctx, filter)
	if err != nil {
		return err
	}
	beneficiaries, err := s.beneficiaries.List(ctx, filter)
	if err != nil {
		return err
	}
	details, err := s.details.List(ctx, filter)
	if err != nil {
		return err
	}
	return s.writer.Write(w, excel.Directory{
		Schools:       schools,
		Beneficiaries: beneficiaries,
		Details:       details,
	})
}
