package models

import (
	"time"

	"bhss/domain/core"
)

// Announcement is a broadcast message from the admins; Body is markdown
type Announcement struct {
	ID        core.ID   `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	BodyHTML  string    `json:"bodyHtml" db:"-"`
	CreatedBy core.ID   `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// GetID implements the store entity contract
func (a Announcement) GetID() core.ID { return a.ID }

// AnnouncementInput is the payload for posting an announcement
type AnnouncementInput struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// PushSubscription is a browser push endpoint registered by a user
type PushSubscription struct {
	ID        core.ID   `json:"id" db:"id"`
	UserID    core.ID   `json:"userId" db:"user_id"`
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	P256dh    string    `json:"p256dh" db:"p256dh"`
	Auth      string    `json:"auth" db:"auth"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PushSubscriptionInput mirrors the browser PushSubscription JSON
type PushSubscriptionInput struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}
