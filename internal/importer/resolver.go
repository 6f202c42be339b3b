package importer

import (
	"sort"
	"strings"
	"unicode"

	"bhss/internal/errors"
)

// Kind names the layout of an uploaded sheet
type Kind string

const (
	KindSchools       Kind = "schools"
	KindBeneficiaries Kind = "beneficiaries"
	KindDetails       Kind = "details"
)

// ParseKind validates a kind coming from a route or flag
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSchools, KindBeneficiaries, KindDetails:
		return k, nil
	}
	return "", errors.InvalidInput("unknown import kind " + s + ": expected schools, beneficiaries or details")
}

// Field is a logical column of an import sheet
type Field string

const (
	FieldMunicipality Field = "municipality"
	FieldSchoolYear   Field = "school year"
	FieldKitchen      Field = "kitchen"
	FieldSchool       Field = "school name"
	FieldGrade2       Field = "grade 2"
	FieldGrade3       Field = "grade 3"
	FieldGrade4       Field = "grade 4"
	FieldPrincipal    Field = "principal"
	FieldCoordinator  Field = "coordinator"
	FieldManager      Field = "HLA manager"
	FieldCook         Field = "cook"
	FieldNurse        Field = "nurse"
	FieldPhone        Field = "contact number"
	FieldFacebook     Field = "facebook"
)

// matcher tests a normalized header key
type matcher func(key string) bool

func containsAny(subs ...string) matcher {
	return func(key string) bool {
		for _, sub := range subs {
			if strings.Contains(key, sub) {
				return true
			}
		}
		return false
	}
}

func isPhoneKey(key string) bool {
	return containsAny("contact", "number", "phone", "mobile", "cellphone")(key)
}

func isFacebookKey(key string) bool {
	return key == "fb" || containsAny("facebook", "fbaccount", "fbname", "messenger")(key)
}

func isMunicipalityKey(key string) bool {
	return strings.Contains(key, "municipal") || strings.HasPrefix(key, "lgu")
}

func isSchoolYearKey(key string) bool {
	return key == "sy" || strings.Contains(key, "schoolyear")
}

// isSchoolNameKey accepts generic school headers ("Schools", "Name of
// School") but not school year, school id or kitchen columns
func isSchoolNameKey(key string) bool {
	if !strings.Contains(key, "school") {
		return false
	}
	return !containsAny("year", "kitchen", "schoolid", "type", "district")(key) && !isPhoneKey(key)
}

// gradeKey matches "grade2", "gr2" or "g2" with no digit following, so
// grade 2 never matches a grade 20 column
func gradeKey(n string) matcher {
	return func(key string) bool {
		for _, prefix := range []string{"grade", "gr", "g"} {
			idx := strings.Index(key, prefix+n)
			if idx < 0 {
				continue
			}
			// "g" and "gr" must start the key to avoid hits inside words
			if prefix != "grade" && idx != 0 {
				continue
			}
			end := idx + len(prefix) + len(n)
			if end == len(key) || !unicode.IsDigit(rune(key[end])) {
				return true
			}
		}
		return false
	}
}

// roleKey matches a contact-role name column but not the phone or facebook
// columns that mention the role
func roleKey(subs ...string) matcher {
	has := containsAny(subs...)
	return func(key string) bool {
		return has(key) && !isPhoneKey(key) && !isFacebookKey(key)
	}
}

type fieldRule struct {
	field    Field
	match    matcher
	required bool
	multi    bool
}

type layout struct {
	kind   Kind
	detect []matcher
	fields []fieldRule
}

// contactRoles lists the role columns whose phone/facebook columns repeat
var contactRoles = []Field{FieldPrincipal, FieldCoordinator, FieldManager, FieldCook, FieldNurse}

var layouts = map[Kind]layout{
	KindSchools: {
		kind:   KindSchools,
		detect: []matcher{isMunicipalityKey, isSchoolNameKey},
		fields: []fieldRule{
			{field: FieldMunicipality, match: isMunicipalityKey, required: true},
			{field: FieldSchool, match: isSchoolNameKey, required: true},
			{field: FieldSchoolYear, match: isSchoolYearKey},
		},
	},
	KindBeneficiaries: {
		kind:   KindBeneficiaries,
		detect: []matcher{isMunicipalityKey, isSchoolNameKey, gradeKey("2"), gradeKey("3"), gradeKey("4")},
		fields: []fieldRule{
			{field: FieldMunicipality, match: isMunicipalityKey, required: true},
			{field: FieldSchool, match: isSchoolNameKey, required: true},
			{field: FieldSchoolYear, match: isSchoolYearKey},
			{field: FieldKitchen, match: containsAny("kitchen")},
			{field: FieldGrade2, match: gradeKey("2"), required: true},
			{field: FieldGrade3, match: gradeKey("3"), required: true},
			{field: FieldGrade4, match: gradeKey("4"), required: true},
		},
	},
	KindDetails: {
		kind: KindDetails,
		detect: []matcher{
			isMunicipalityKey,
			containsAny("completenameofschool"),
			containsAny("principal"),
			containsAny("hlamanager"),
		},
		fields: []fieldRule{
			{field: FieldMunicipality, match: isMunicipalityKey, required: true},
			{field: FieldSchool, match: containsAny("completenameofschool"), required: true},
			{field: FieldSchoolYear, match: isSchoolYearKey},
			{field: FieldPrincipal, match: roleKey("principal"), required: true},
			{field: FieldCoordinator, match: roleKey("coordinator")},
			{field: FieldManager, match: roleKey("manager"), required: true},
			{field: FieldCook, match: roleKey("cook"), multi: true},
			{field: FieldNurse, match: roleKey("nurse")},
			{field: FieldPhone, match: isPhoneKey, multi: true},
			{field: FieldFacebook, match: isFacebookKey, multi: true},
		},
	},
}

// headerScanLimit bounds how far down a sheet the header row is searched
const headerScanLimit = 50

// Columns maps logical fields to column indices of a detected header row
type Columns struct {
	HeaderRow int
	single    map[Field]int
	multi     map[Field][]int
}

// Index returns the column of a single-valued field, or -1
func (c *Columns) Index(field Field) int {
	if idx, ok := c.single[field]; ok {
		return idx
	}
	return -1
}

// Indices returns every column matched by a repeating field, left to right
func (c *Columns) Indices(field Field) []int {
	return c.multi[field]
}

// rowMatches reports whether every detect predicate hits some cell of row
func rowMatches(keys []string, detect []matcher) bool {
	for _, m := range detect {
		found := false
		for _, key := range keys {
			if key != "" && m(key) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func normalizedKeys(row []string) []string {
	keys := make([]string, len(row))
	for i, cell := range row {
		keys[i] = NormalizeKey(cell)
	}
	return keys
}

// FindHeaderRow returns the index of the first row satisfying the kind's
// header predicates
func FindHeaderRow(rows [][]string, kind Kind) (int, error) {
	l, ok := layouts[kind]
	if !ok {
		return -1, errors.InvalidInput("unknown import kind " + string(kind))
	}
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		if rowMatches(normalizedKeys(rows[i]), l.detect) {
			return i, nil
		}
	}
	return -1, errors.ImportFailed("could not detect header row for " + string(kind) + " sheet")
}

// DetectKind guesses the sheet kind from its header row. Details is tried
// first because its header is the most specific.
func DetectKind(rows [][]string) (Kind, error) {
	for _, kind := range []Kind{KindDetails, KindBeneficiaries, KindSchools} {
		if _, err := FindHeaderRow(rows, kind); err == nil {
			return kind, nil
		}
	}
	return "", errors.ImportFailed("could not detect header row: the sheet matches no known layout")
}

// ResolveColumns locates the header row and assigns a column to each field
func ResolveColumns(rows [][]string, kind Kind) (*Columns, error) {
	headerRow, err := FindHeaderRow(rows, kind)
	if err != nil {
		return nil, err
	}
	l := layouts[kind]
	keys := normalizedKeys(rows[headerRow])

	cols := &Columns{
		HeaderRow: headerRow,
		single:    make(map[Field]int),
		multi:     make(map[Field][]int),
	}
	claimed := make(map[int]bool)

	for _, rule := range l.fields {
		for idx, key := range keys {
			if key == "" || claimed[idx] || !rule.match(key) {
				continue
			}
			if rule.multi {
				cols.multi[rule.field] = append(cols.multi[rule.field], idx)
				claimed[idx] = true
				continue
			}
			cols.single[rule.field] = idx
			claimed[idx] = true
			break
		}
		if rule.required && cols.Index(rule.field) < 0 && len(cols.multi[rule.field]) == 0 {
			return nil, errors.ImportFailed("missing required column: " + string(rule.field))
		}
	}
	return cols, nil
}

// roleColumn pairs a contact role with the column holding the person's name
type roleColumn struct {
	role Field
	idx  int
}

// contactRoleOrder lists role name columns in sheet order. Repeated
// phone/facebook columns are assigned to roles by this order.
func (c *Columns) contactRoleOrder() []roleColumn {
	var order []roleColumn
	for _, role := range contactRoles {
		if idx := c.Index(role); idx >= 0 {
			order = append(order, roleColumn{role: role, idx: idx})
		}
		for _, idx := range c.Indices(role) {
			order = append(order, roleColumn{role: role, idx: idx})
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].idx < order[j].idx })
	return order
}
