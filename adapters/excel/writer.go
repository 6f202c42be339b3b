package excel

import (
	"fmt"
	"io"

	"bhss/models"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the school directory workbook
const (
	SheetSchools       = "Schools"
	SheetBeneficiaries = "Beneficiaries"
	SheetDetails       = "School Details"
)

// Directory bundles the collections exported as one workbook
type Directory struct {
	Schools       []models.School
	Beneficiaries []models.SchoolBeneficiaryRow
	Details       []models.SchoolDetailsRow
}

// DirectoryWriter renders the school directory as an .xlsx workbook
type DirectoryWriter struct{}

// NewDirectoryWriter creates a new directory writer
func NewDirectoryWriter() *DirectoryWriter {
	return &DirectoryWriter{}
}

// Write renders dir and writes the workbook to w
func (dw *DirectoryWriter) Write(w io.Writer, dir Directory) error {
	f, err := dw.Build(dir)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build renders dir into a new workbook
func (dw *DirectoryWriter) Build(dir Directory) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSchools); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetBeneficiaries, SheetDetails} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9EAD3"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	schoolRows := make([][]interface{}, 0, len(dir.Schools))
	for _, s := range dir.Schools {
		schoolRows = append(schoolRows, []interface{}{s.Municipality, s.Name, s.SchoolYear})
	}
	if err := writeSheet(f, SheetSchools, headerStyle,
		[]interface{}{"Municipality", "School", "School Year"}, schoolRows); err != nil {
		return nil, err
	}

	beneficiaryRows := make([][]interface{}, 0, len(dir.Beneficiaries))
	totals := [4]int{}
	for _, b := range dir.Beneficiaries {
		beneficiaryRows = append(beneficiaryRows, []interface{}{
			b.Municipality, b.SchoolYear, b.Kitchen, b.School, b.Grade2, b.Grade3, b.Grade4, b.Total,
		})
		totals[0] += b.Grade2
		totals[1] += b.Grade3
		totals[2] += b.Grade4
		totals[3] += b.Total
	}
	if len(dir.Beneficiaries) > 0 {
		beneficiaryRows = append(beneficiaryRows, []interface{}{
			"", "", "", "TOTAL", totals[0], totals[1], totals[2], totals[3],
		})
	}
	if err := writeSheet(f, SheetBeneficiaries, headerStyle,
		[]interface{}{"LGU", "School Year", "BHSS Kitchen", "Schools", "Grade 2", "Grade 3", "Grade 4", "Total"},
		beneficiaryRows); err != nil {
		return nil, err
	}

	maxCooks := 0
	for _, d := range dir.Details {
		if len(d.Contacts.Cooks) > maxCooks {
			maxCooks = len(d.Contacts.Cooks)
		}
	}
	if err := writeSheet(f, SheetDetails, headerStyle, detailsHeader(maxCooks), detailsRows(dir.Details, maxCooks)); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// detailsHeader mirrors the upload layout so an export can be re-imported
func detailsHeader(maxCooks int) []interface{} {
	header := []interface{}{"Municipality", "School Year", "Complete Name of School"}
	role := func(name string) {
		header = append(header, name, "Active Contact Number", "Facebook Account")
	}
	role("Name of Principal")
	role("School Feeding Coordinator")
	role("HLA Manager")
	for i := 1; i <= maxCooks; i++ {
		role(fmt.Sprintf("HLA Cook %d", i))
	}
	role("School Nurse")
	return header
}

func detailsRows(details []models.SchoolDetailsRow, maxCooks int) [][]interface{} {
	rows := make([][]interface{}, 0, len(details))
	for _, d := range details {
		row := []interface{}{d.Municipality, d.SchoolYear, d.School}
		add := func(c models.Contact) {
			row = append(row, c.Name, c.Phone, c.Facebook)
		}
		add(d.Contacts.Principal)
		add(d.Contacts.Coordinator)
		add(d.Contacts.Manager)
		for i := 0; i < maxCooks; i++ {
			if i < len(d.Contacts.Cooks) {
				add(d.Contacts.Cooks[i])
			} else {
				add(models.Contact{})
			}
		}
		add(d.Contacts.Nurse)
		rows = append(rows, row)
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 22)
}
