package models

import (
	"net/url"

	"bhss/domain/core"
)

// RecordFilter scopes history queries. Zero fields do not filter.
type RecordFilter struct {
	From         core.DateKey
	To           core.DateKey
	Municipality string
	School       string
	SchoolYear   string
	Status       DeliveryStatus
}

// Values encodes the filter as query parameters
func (f RecordFilter) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("from", f.From.String())
	set("to", f.To.String())
	set("municipality", f.Municipality)
	set("school", f.School)
	set("schoolYear", f.SchoolYear)
	set("status", string(f.Status))
	return v
}

// ParseRecordFilter decodes query parameters into a filter, validating dates
// and status
func ParseRecordFilter(v url.Values) (RecordFilter, error) {
	f := RecordFilter{
		Municipality: v.Get("municipality"),
		School:       v.Get("school"),
		SchoolYear:   v.Get("schoolYear"),
	}
	if s := v.Get("from"); s != "" {
		d, err := core.ParseDateKey(s)
		if err != nil {
			return f, err
		}
		f.From = d
	}
	if s := v.Get("to"); s != "" {
		d, err := core.ParseDateKey(s)
		if err != nil {
			return f, err
		}
		f.To = d
	}
	if s := v.Get("status"); s != "" {
		status := DeliveryStatus(s)
		if !status.Valid() {
			return f, errInvalidStatus(s)
		}
		f.Status = status
	}
	return f, nil
}

type errInvalidStatus string

func (e errInvalidStatus) Error() string {
	return "invalid delivery status " + string(e)
}
