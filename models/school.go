package models

import (
	"database/sql/driver"
	"time"

	"bhss/domain/core"
)

// School is an entry of the school directory
type School struct {
	ID           core.ID   `json:"id" db:"id"`
	Municipality string    `json:"municipality" db:"municipality"`
	Name         string    `json:"name" db:"name"`
	SchoolYear   string    `json:"schoolYear" db:"school_year"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// GetID implements the store entity contract
func (s School) GetID() core.ID { return s.ID }

// SchoolInput is the payload for a directory entry
type SchoolInput struct {
	Municipality string `json:"municipality" validate:"required"`
	Name         string `json:"name" validate:"required"`
	SchoolYear   string `json:"schoolYear"`
}

// SchoolBeneficiaryRow counts feeding beneficiaries per grade for a school
type SchoolBeneficiaryRow struct {
	ID           core.ID   `json:"id" db:"id"`
	Municipality string    `json:"municipality" db:"municipality"`
	SchoolYear   string    `json:"schoolYear" db:"school_year"`
	Kitchen      string    `json:"kitchen" db:"kitchen"`
	School       string    `json:"school" db:"school"`
	Grade2       int       `json:"grade2" db:"grade2"`
	Grade3       int       `json:"grade3" db:"grade3"`
	Grade4       int       `json:"grade4" db:"grade4"`
	Total        int       `json:"total" db:"total"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// GetID implements the store entity contract
func (r SchoolBeneficiaryRow) GetID() core.ID { return r.ID }

// ComputeTotal sets Total from the grade counts
func (r *SchoolBeneficiaryRow) ComputeTotal() {
	r.Total = r.Grade2 + r.Grade3 + r.Grade4
}

// BeneficiaryInput is the payload for a beneficiary row
type BeneficiaryInput struct {
	Municipality string `json:"municipality" validate:"required"`
	SchoolYear   string `json:"schoolYear"`
	Kitchen      string `json:"kitchen"`
	School       string `json:"school" validate:"required"`
	Grade2       int    `json:"grade2" validate:"gte=0"`
	Grade3       int    `json:"grade3" validate:"gte=0"`
	Grade4       int    `json:"grade4" validate:"gte=0"`
}

// Contact is a named person with their reachable handles
type Contact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Facebook string `json:"facebook"`
}

// IsZero reports whether no field is set
func (c Contact) IsZero() bool {
	return c.Name == "" && c.Phone == "" && c.Facebook == ""
}

// ContactSet holds the named-role contacts of a school
type ContactSet struct {
	Principal   Contact   `json:"principal"`
	Coordinator Contact   `json:"coordinator"`
	Manager     Contact   `json:"manager"`
	Cooks       []Contact `json:"cooks"`
	Nurse       Contact   `json:"nurse"`
}

// Value implements driver.Valuer
func (c ContactSet) Value() (driver.Value, error) {
	if c.Cooks == nil {
		c.Cooks = []Contact{}
	}
	return jsonColumn(c)
}

// Scan implements sql.Scanner
func (c *ContactSet) Scan(src interface{}) error {
	return scanJSONColumn(src, c)
}

// SchoolDetailsRow lists the people responsible for feeding at a school
type SchoolDetailsRow struct {
	ID           core.ID    `json:"id" db:"id"`
	Municipality string     `json:"municipality" db:"municipality"`
	SchoolYear   string     `json:"schoolYear" db:"school_year"`
	School       string     `json:"school" db:"school"`
	Contacts     ContactSet `json:"contacts" db:"contacts"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// GetID implements the store entity contract
func (r SchoolDetailsRow) GetID() core.ID { return r.ID }

// SchoolDetailsInput is the payload for a details row
type SchoolDetailsInput struct {
	Municipality string     `json:"municipality" validate:"required"`
	SchoolYear   string     `json:"schoolYear"`
	School       string     `json:"school" validate:"required"`
	Contacts     ContactSet `json:"contacts"`
}
