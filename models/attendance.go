package models

import (
	"time"

	"bhss/domain/core"
)

// AttendanceRecord is a per-grade headcount for one school on one day
type AttendanceRecord struct {
	ID           core.ID      `json:"id" db:"id"`
	DateKey      core.DateKey `json:"dateKey" db:"date_key"`
	Municipality string       `json:"municipality" db:"municipality"`
	School       string       `json:"school" db:"school"`
	Grade        string       `json:"grade" db:"grade"`
	Present      int          `json:"present" db:"present"`
	Absent       int          `json:"absent" db:"absent"`
	Notes        string       `json:"notes" db:"notes"`
	CreatedBy    core.ID      `json:"createdBy" db:"created_by"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
}

// GetID implements the store entity contract
func (r AttendanceRecord) GetID() core.ID { return r.ID }

// Total returns present plus absent
func (r AttendanceRecord) Total() int {
	return r.Present + r.Absent
}

// AttendanceInput is the payload for saving attendance
type AttendanceInput struct {
	DateKey      core.DateKey `json:"dateKey" validate:"required,datekey"`
	Municipality string       `json:"municipality" validate:"required"`
	School       string       `json:"school" validate:"required"`
	Grade        string       `json:"grade" validate:"required"`
	Present      int          `json:"present" validate:"gte=0"`
	Absent       int          `json:"absent" validate:"gte=0"`
	Notes        string       `json:"notes"`
}

// AttendancePatch holds optional attendance fields to change
type AttendancePatch struct {
	DateKey *core.DateKey `json:"dateKey,omitempty" validate:"omitempty,datekey"`
	Grade   *string       `json:"grade,omitempty" validate:"omitempty,min=1"`
	Present *int          `json:"present,omitempty" validate:"omitempty,gte=0"`
	Absent  *int          `json:"absent,omitempty" validate:"omitempty,gte=0"`
	Notes   *string       `json:"notes,omitempty"`
}

// Apply copies the set fields of p onto r
func (p AttendancePatch) Apply(r *AttendanceRecord) {
	if p.DateKey != nil {
		r.DateKey = *p.DateKey
	}
	if p.Grade != nil {
		r.Grade = *p.Grade
	}
	if p.Present != nil {
		r.Present = *p.Present
	}
	if p.Absent != nil {
		r.Absent = *p.Absent
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
}
