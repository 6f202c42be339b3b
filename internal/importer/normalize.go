package importer

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// NormalizeKey reduces header text to lower-case letters and digits only,
// so "Complete Name of School" becomes "completenameofschool".
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName trims, case-folds and collapses internal whitespace. Used for
// duplicate detection of names.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CompositeKey builds the duplicate-detection key of a school-scoped row.
// schoolYear may be empty for kinds that are not year-scoped.
func CompositeKey(municipality, school, schoolYear string) string {
	return NormalizeName(municipality) + "|" + NormalizeName(school) + "|" + NormalizeName(schoolYear)
}

// parseCount reads a headcount cell. Blank, invalid and negative values
// count as zero; "1,234" and "5.0" are accepted.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

// cellValue returns the trimmed cell at idx, or "" when the row is short or
// the column was not resolved
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
