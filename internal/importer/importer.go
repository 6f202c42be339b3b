package importer

import (
	"fmt"
	"log"
	"strings"

	"bhss/models"
)

// Options carries values the sheet may not contain
type Options struct {
	// SchoolYear applies to rows without a school year column or cell
	SchoolYear string
	// ExistingKeys are CompositeKey values of records already stored
	ExistingKeys []string
}

// Result is the outcome of one import batch. Only one of the row slices is
// populated, depending on Kind.
type Result struct {
	Kind          Kind                          `json:"kind"`
	HeaderRow     int                           `json:"headerRow"`
	Schools       []models.School               `json:"schools,omitempty"`
	Beneficiaries []models.SchoolBeneficiaryRow `json:"beneficiaries,omitempty"`
	Details       []models.SchoolDetailsRow     `json:"details,omitempty"`
	Imported      int                           `json:"imported"`
	Skipped       int                           `json:"skipped"`
	Duplicates    int                           `json:"duplicates"`
}

// Summary renders the counts as the message shown to the user
func (r *Result) Summary() string {
	return fmt.Sprintf("Imported %d %s row(s): %d skipped, %d duplicate(s)",
		r.Imported, r.Kind, r.Skipped, r.Duplicates)
}

// carry remembers the last non-blank value of a merge-cell column
type carry struct {
	last string
}

// next returns the cell value, or the last non-blank one when the cell is blank
func (c *carry) next(value string) string {
	if value != "" {
		c.last = value
	}
	return c.last
}

// dedup tracks composite keys seen in the store and in this batch
type dedup struct {
	seen map[string]bool
}

func newDedup(existing []string) *dedup {
	d := &dedup{seen: make(map[string]bool, len(existing))}
	for _, key := range existing {
		d.seen[key] = true
	}
	return d
}

// add reports false when key was already seen
func (d *dedup) add(key string) bool {
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

// isTotalsRow reports whether the school cell labels a summary row
func isTotalsRow(school string) bool {
	key := NormalizeKey(school)
	return strings.HasPrefix(key, "total") || strings.HasPrefix(key, "grandtotal")
}

// Import resolves the sheet layout and converts the data rows of kind.
// An error means nothing was produced.
func Import(rows [][]string, kind Kind, opts Options) (*Result, error) {
	cols, err := ResolveColumns(rows, kind)
	if err != nil {
		return nil, err
	}

	result := &Result{Kind: kind, HeaderRow: cols.HeaderRow}
	seen := newDedup(opts.ExistingKeys)
	var municipality, kitchen carry

	for i := cols.HeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}

		muni := municipality.next(cellValue(row, cols.Index(FieldMunicipality)))
		kitch := kitchen.next(cellValue(row, cols.Index(FieldKitchen)))
		school := cellValue(row, cols.Index(FieldSchool))

		if school == "" || muni == "" || isTotalsRow(school) {
			result.Skipped++
			continue
		}

		schoolYear := cellValue(row, cols.Index(FieldSchoolYear))
		if schoolYear == "" {
			schoolYear = opts.SchoolYear
		}

		if !seen.add(CompositeKey(muni, school, schoolYear)) {
			result.Duplicates++
			continue
		}

		switch kind {
		case KindSchools:
			result.Schools = append(result.Schools, models.School{
				Municipality: muni,
				Name:         school,
				SchoolYear:   schoolYear,
			})
		case KindBeneficiaries:
			b := models.SchoolBeneficiaryRow{
				Municipality: muni,
				SchoolYear:   schoolYear,
				Kitchen:      kitch,
				School:       school,
				Grade2:       parseCount(cellValue(row, cols.Index(FieldGrade2))),
				Grade3:       parseCount(cellValue(row, cols.Index(FieldGrade3))),
				Grade4:       parseCount(cellValue(row, cols.Index(FieldGrade4))),
			}
			b.ComputeTotal()
			result.Beneficiaries = append(result.Beneficiaries, b)
		case KindDetails:
			result.Details = append(result.Details, models.SchoolDetailsRow{
				Municipality: muni,
				SchoolYear:   schoolYear,
				School:       school,
				Contacts:     readContacts(row, cols),
			})
		}
		result.Imported++
	}

	log.Printf("[Importer] %s: header at row %d, %d imported, %d skipped, %d duplicates",
		kind, cols.HeaderRow+1, result.Imported, result.Skipped, result.Duplicates)
	return result, nil
}

// readContacts builds the role contacts of a details row. The k-th phone and
// the k-th facebook column belong to the k-th role column in sheet order.
func readContacts(row []string, cols *Columns) models.ContactSet {
	order := cols.contactRoleOrder()
	phones := cols.Indices(FieldPhone)
	facebooks := cols.Indices(FieldFacebook)

	set := models.ContactSet{Cooks: []models.Contact{}}
	for k, rc := range order {
		contact := models.Contact{Name: cellValue(row, rc.idx)}
		if k < len(phones) {
			contact.Phone = cellValue(row, phones[k])
		}
		if k < len(facebooks) {
			contact.Facebook = cellValue(row, facebooks[k])
		}

		switch rc.role {
		case FieldPrincipal:
			set.Principal = contact
		case FieldCoordinator:
			set.Coordinator = contact
		case FieldManager:
			set.Manager = contact
		case FieldCook:
			if !contact.IsZero() {
				set.Cooks = append(set.Cooks, contact)
			}
		case FieldNurse:
			set.Nurse = contact
		}
	}
	return set
}
