package app

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"bhss/domain/core"
	"bhss/internal/markdown"
	"bhss/internal/notify"
	"bhss/internal/report"
	"bhss/internal/validation"
	"bhss/models"
	"bhss/ports"
)

// EventService manages the program calendar
type EventService struct {
	repo      ports.EventRepository
	validator *validation.Validator
	now       func() time.Time
}

// NewEventService creates a calendar event service
func NewEventService(repo ports.EventRepository, validator *validation.Validator) *EventService {
	return &EventService{repo: repo, validator: validator, now: time.Now}
}

// List returns events in date order
func (s *EventService) List(ctx context.Context, filter models.RecordFilter) ([]models.CalendarEvent, error) {
	return s.repo.List(ctx, filter)
}

// Create adds an event to the calendar
func (s *EventService) Create(ctx context.Context, actor *models.User, in models.EventInput) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	event := &models.CalendarEvent{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DateKey:     in.DateKey,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Status:      in.Status,
		Attachment:  in.Attachment,
	}
	if actor != nil {
		event.CreatedBy = actor.ID
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	log.Printf("[Events] created %q on %s", event.Title, event.DateKey)
	return event, nil
}

// Update applies patch to the event with id
func (s *EventService) Update(ctx context.Context, id core.ID, patch models.EventPatch) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(event)
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes the event with id
func (s *EventService) Delete(ctx context.Context, id core.ID) error {
	return s.repo.Delete(ctx, id)
}

// WriteICS exports the filtered calendar as an iCalendar feed
func (s *EventService) WriteICS(ctx context.Context, w io.Writer, filter models.RecordFilter) error {
	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return err
	}
	return report.WriteICS(w, events, s.now())
}

// AnnouncementService posts and lists announcements, rendering their
// markdown bodies
type AnnouncementService struct {
	repo      ports.AnnouncementRepository
	validator *validation.Validator
	publisher notify.Publisher
}

// NewAnnouncementService creates an announcement service
func NewAnnouncementService(repo ports.AnnouncementRepository, validator *validation.Validator, publisher notify.Publisher) *AnnouncementService {
	return &AnnouncementService{repo: repo, validator: validator, publisher: publisher}
}

// List returns up to limit announcements, newest first. limit <= 0 returns all.
func (s *AnnouncementService) List(ctx context.Context, limit int) ([]models.Announcement, error) {
	announcements, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range announcements {
		announcements[i].BodyHTML = markdown.ToHTML(announcements[i].Body)
	}
	return announcements, nil
}

// Create posts an announcement and notifies connected clients
func (s *AnnouncementService) Create(ctx context.Context, actor *models.User, in models.AnnouncementInput) (*models.Announcement, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	announcement := &models.Announcement{
		Title: strings.TrimSpace(in.Title),
		Body:  in.Body,
	}
	if actor != nil {
		announcement.CreatedBy = actor.ID
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, err
	}
	announcement.BodyHTML = markdown.ToHTML(announcement.Body)

	log.Printf("[Announcements] posted %q", announcement.Title)
	publish(s.publisher, notify.EventAnnouncementCreated, announcement.ID.String(), announcement.CreatedAt, notify.Audience{}, announcement)
	return announcement, nil
}

// Delete removes the announcement with id
func (s *AnnouncementService) Delete(ctx context.Context, id core.ID) error {
	return s.repo.Delete(ctx, id)
}

// PushService keeps the browser push subscriptions of users
type PushService struct {
	repo      ports.PushSubscriptionRepository
	validator *validation.Validator
}

// NewPushService creates a push subscription service
func NewPushService(repo ports.PushSubscriptionRepository, validator *validation.Validator) *PushService {
	return &PushService{repo: repo, validator: validator}
}

// Subscribe registers the endpoint for userID, replacing any earlier owner
func (s *PushService) Subscribe(ctx context.Context, userID core.ID, in models.PushSubscriptionInput) (*models.PushSubscription, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	sub := &models.PushSubscription{
		UserID:   userID,
		Endpoint: in.Endpoint,
		P256dh:   in.Keys.P256dh,
		Auth:     in.Keys.Auth,
	}
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe removes the endpoint registered by userID
func (s *PushService) Unsubscribe(ctx context.Context, userID core.ID, endpoint string) error {
	return s.repo.DeleteByEndpoint(ctx, userID, endpoint)
}

// List returns the subscriptions of userID
func (s *PushService) List(ctx context.Context, userID core.ID) ([]models.PushSubscription, error) {
	return s.repo.ListByUser(ctx, userID)
}
