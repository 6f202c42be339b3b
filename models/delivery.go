package models

import (
	"time"

	"bhss/domain/core"
)

// DeliveryStatus is the lifecycle state of a delivery
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "Pending"
	DeliveryDelivered DeliveryStatus = "Delivered"
	DeliveryDelayed   DeliveryStatus = "Delayed"
	DeliveryCancelled DeliveryStatus = "Cancelled"
)

// DeliveryStatuses lists every status in display order
var DeliveryStatuses = []DeliveryStatus{
	DeliveryPending,
	DeliveryDelivered,
	DeliveryDelayed,
	DeliveryCancelled,
}

// Valid reports whether s is a known status
func (s DeliveryStatus) Valid() bool {
	for _, known := range DeliveryStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// DeliveryRecord logs a food delivery to a school kitchen
type DeliveryRecord struct {
	ID            core.ID        `json:"id" db:"id"`
	DateKey       core.DateKey   `json:"dateKey" db:"date_key"`
	Municipality  string         `json:"municipality" db:"municipality"`
	School        string         `json:"school" db:"school"`
	CategoryKey   string         `json:"categoryKey" db:"category_key"`
	CategoryLabel string         `json:"categoryLabel" db:"category_label"`
	Status        DeliveryStatus `json:"status" db:"status"`
	StatusReason  string         `json:"statusReason" db:"status_reason"`
	UploadedAt    *time.Time     `json:"uploadedAt,omitempty" db:"uploaded_at"`
	Images        FileRefList    `json:"images" db:"images"`
	Concerns      StringList     `json:"concerns" db:"concerns"`
	Remarks       string         `json:"remarks" db:"remarks"`
	CreatedBy     core.ID        `json:"createdBy" db:"created_by"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at"`
}

// GetID implements the store entity contract
func (r DeliveryRecord) GetID() core.ID { return r.ID }

// DeliveryInput is the payload for logging a delivery
type DeliveryInput struct {
	DateKey       core.DateKey   `json:"dateKey" validate:"required,datekey"`
	Municipality  string         `json:"municipality" validate:"required"`
	School        string         `json:"school" validate:"required"`
	CategoryKey   string         `json:"categoryKey" validate:"required"`
	CategoryLabel string         `json:"categoryLabel"`
	Status        DeliveryStatus `json:"status" validate:"omitempty,deliverystatus"`
	StatusReason  string         `json:"statusReason"`
	Concerns      []string       `json:"concerns"`
	Remarks       string         `json:"remarks"`
}

// DeliveryPatch holds optional delivery fields to change
type DeliveryPatch struct {
	Status        *DeliveryStatus `json:"status,omitempty" validate:"omitempty,deliverystatus"`
	StatusReason  *string         `json:"statusReason,omitempty"`
	CategoryKey   *string         `json:"categoryKey,omitempty"`
	CategoryLabel *string         `json:"categoryLabel,omitempty"`
	Concerns      *[]string       `json:"concerns,omitempty"`
	Remarks       *string         `json:"remarks,omitempty"`
}

// Apply copies the set fields of p onto r
func (p DeliveryPatch) Apply(r *DeliveryRecord) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.StatusReason != nil {
		r.StatusReason = *p.StatusReason
	}
	if p.CategoryKey != nil {
		r.CategoryKey = *p.CategoryKey
	}
	if p.CategoryLabel != nil {
		r.CategoryLabel = *p.CategoryLabel
	}
	if p.Concerns != nil {
		r.Concerns = StringList(*p.Concerns)
	}
	if p.Remarks != nil {
		r.Remarks = *p.Remarks
	}
}
