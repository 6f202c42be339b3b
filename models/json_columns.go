package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonColumn marshals v for storage in a TEXT column
func jsonColumn(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	return string(data), nil
}

// scanJSONColumn decodes a TEXT/JSONB column into dest. NULL leaves dest untouched.
func scanJSONColumn(src interface{}, dest interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// StringList is a list of strings stored as a JSON array
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return jsonColumn([]string{})
	}
	return jsonColumn([]string(l))
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	return scanJSONColumn(src, (*[]string)(l))
}

// FileRef points at an uploaded file
type FileRef struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Value implements driver.Valuer
func (f FileRef) Value() (driver.Value, error) {
	return jsonColumn(f)
}

// Scan implements sql.Scanner
func (f *FileRef) Scan(src interface{}) error {
	return scanJSONColumn(src, f)
}

// FileRefList is a list of file references stored as a JSON array
type FileRefList []FileRef

// Value implements driver.Valuer
func (l FileRefList) Value() (driver.Value, error) {
	if l == nil {
		return jsonColumn([]FileRef{})
	}
	return jsonColumn([]FileRef(l))
}

// Scan implements sql.Scanner
func (l *FileRefList) Scan(src interface{}) error {
	return scanJSONColumn(src, (*[]FileRef)(l))
}
