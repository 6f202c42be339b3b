package models

import (
	"time"

	"bhss/domain/core"
)

// EventStatus marks whether a calendar event still happens
type EventStatus string

const (
	EventScheduled EventStatus = "Scheduled"
	EventCancelled EventStatus = "Cancelled"
)

// CalendarEvent is an entry of the program calendar
type CalendarEvent struct {
	ID          core.ID      `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	DateKey     core.DateKey `json:"dateKey" db:"date_key"`
	StartTime   string       `json:"startTime" db:"start_time"`
	EndTime     string       `json:"endTime" db:"end_time"`
	Status      EventStatus  `json:"status" db:"status"`
	Attachment  *FileRef     `json:"attachment,omitempty" db:"attachment"`
	CreatedBy   core.ID      `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
}

// GetID implements the store entity contract
func (e CalendarEvent) GetID() core.ID { return e.ID }

// EventInput is the payload for creating an event
type EventInput struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	DateKey     core.DateKey `json:"dateKey" validate:"required,datekey"`
	StartTime   string       `json:"startTime" validate:"omitempty,clock"`
	EndTime     string       `json:"endTime" validate:"omitempty,clock"`
	Status      EventStatus  `json:"status" validate:"omitempty,oneof=Scheduled Cancelled"`
	Attachment  *FileRef     `json:"attachment,omitempty"`
}

// EventPatch holds optional event fields to change
type EventPatch struct {
	Title       *string       `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string       `json:"description,omitempty"`
	DateKey     *core.DateKey `json:"dateKey,omitempty" validate:"omitempty,datekey"`
	StartTime   *string       `json:"startTime,omitempty" validate:"omitempty,clock"`
	EndTime     *string       `json:"endTime,omitempty" validate:"omitempty,clock"`
	Status      *EventStatus  `json:"status,omitempty" validate:"omitempty,oneof=Scheduled Cancelled"`
	Attachment  *FileRef      `json:"attachment,omitempty"`
}

// Apply copies the set fields of p onto e
func (p EventPatch) Apply(e *CalendarEvent) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.DateKey != nil {
		e.DateKey = *p.DateKey
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Attachment != nil {
		e.Attachment = p.Attachment
	}
}
