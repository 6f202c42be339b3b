package excel

import (
	"bytes"
	"strings"
	"testing"

	"bhss/internal/importer"
	"bhss/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestIsSpreadsheet(t *testing.T) {
	assert.True(t, IsSpreadsheet("masterlist.xlsx"))
	assert.True(t, IsSpreadsheet("OLD.XLS"))
	assert.True(t, IsSpreadsheet("rows.csv"))
	assert.False(t, IsSpreadsheet("photo.png"))
	assert.False(t, IsSpreadsheet("noext"))
}

func TestReadRowsXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	header := []interface{}{"LGU", "BHSS Kitchen", "Schools", "Grade2", "Grade3", "Grade4"}
	row := []interface{}{"Abucay", "Kitchen A", "School X", 5, 6, 7}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := NewSheetReader().ReadRows(bytes.NewReader(buf.Bytes()), "upload.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Schools", rows[0][2])
	assert.Equal(t, "7", rows[1][5])
}

func TestReadRowsCSV(t *testing.T) {
	data := "Municipality,School\nAbucay,School X\nBalanga\n"

	rows, err := NewSheetReader().ReadRows(strings.NewReader(data), "schools.csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Abucay", "School X"}, rows[1])
	assert.Equal(t, []string{"Balanga"}, rows[2])
}

func TestReadRowsEmptyCSV(t *testing.T) {
	_, err := NewSheetReader().ReadRows(strings.NewReader(""), "empty.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestDirectoryWriterSheets(t *testing.T) {
	dir := Directory{
		Schools: []models.School{
			{Municipality: "Abucay", Name: "School X", SchoolYear: "2025-2026"},
		},
		Beneficiaries: []models.SchoolBeneficiaryRow{
			{Municipality: "Abucay", Kitchen: "Kitchen A", School: "School X", Grade2: 5, Grade3: 6, Grade4: 7, Total: 18},
			{Municipality: "Abucay", Kitchen: "Kitchen A", School: "School Y", Grade2: 1, Grade3: 1, Grade4: 1, Total: 3},
		},
		Details: []models.SchoolDetailsRow{
			{
				Municipality: "Abucay",
				School:       "School X",
				Contacts: models.ContactSet{
					Principal: models.Contact{Name: "Ana", Phone: "0917-1"},
					Manager:   models.Contact{Name: "Cora"},
					Cooks:     []models.Contact{{Name: "Dan"}, {Name: "Eve"}},
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewDirectoryWriter().Write(&buf, dir))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSchools, SheetBeneficiaries, SheetDetails}, f.GetSheetList())

	schools, err := f.GetRows(SheetSchools)
	require.NoError(t, err)
	require.Len(t, schools, 2)
	assert.Equal(t, []string{"Abucay", "School X", "2025-2026"}, schools[1])

	beneficiaries, err := f.GetRows(SheetBeneficiaries)
	require.NoError(t, err)
	require.Len(t, beneficiaries, 4)
	last := beneficiaries[3]
	assert.Equal(t, "TOTAL", last[3])
	assert.Equal(t, "21", last[7])
}

func TestDirectoryExportCanBeReimported(t *testing.T) {
	dir := Directory{
		Beneficiaries: []models.SchoolBeneficiaryRow{
			{Municipality: "Abucay", SchoolYear: "2025-2026", Kitchen: "Kitchen A", School: "School X", Grade2: 5, Grade3: 6, Grade4: 7, Total: 18},
		},
		Details: []models.SchoolDetailsRow{
			{
				Municipality: "Abucay",
				SchoolYear:   "2025-2026",
				School:       "School X",
				Contacts: models.ContactSet{
					Principal: models.Contact{Name: "Ana", Phone: "0917-1"},
					Manager:   models.Contact{Name: "Cora", Facebook: "fb.com/cora"},
					Cooks:     []models.Contact{{Name: "Dan", Phone: "0917-4"}},
					Nurse:     models.Contact{Name: "Fe"},
				},
			},
		},
	}

	f, err := NewDirectoryWriter().Build(dir)
	require.NoError(t, err)
	defer f.Close()

	beneficiaryRows, err := f.GetRows(SheetBeneficiaries)
	require.NoError(t, err)
	result, err := importer.Import(beneficiaryRows, importer.KindBeneficiaries, importer.Options{})
	require.NoError(t, err)
	require.Len(t, result.Beneficiaries, 1)
	assert.Equal(t, 18, result.Beneficiaries[0].Total)
	assert.Equal(t, 1, result.Skipped, "totals row is skipped")

	detailRows, err := f.GetRows(SheetDetails)
	require.NoError(t, err)
	details, err := importer.Import(detailRows, importer.KindDetails, importer.Options{})
	require.NoError(t, err)
	require.Len(t, details.Details, 1)
	c := details.Details[0].Contacts
	assert.Equal(t, "0917-1", c.Principal.Phone)
	assert.Equal(t, "fb.com/cora", c.Manager.Facebook)
	require.Len(t, c.Cooks, 1)
	assert.Equal(t, "0917-4", c.Cooks[0].Phone)
	assert.Equal(t, "Fe", c.Nurse.Name)
}
