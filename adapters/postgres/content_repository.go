package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bhss/domain/core"
	apperrors "bhss/internal/errors"
	"bhss/models"
	"bhss/ports"

	"github.com/jmoiron/sqlx"
)

const (
	eventColumns        = `id, title, description, date_key, start_time, end_time, status, attachment, created_by, created_at, updated_at`
	announcementColumns = `id, title, body, created_by, created_at`
	pushColumns         = `id, user_id, endpoint, p256dh, auth, created_at`
)

var eventFilter = filterColumns{date: "date_key"}

type eventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new calendar event repository
func NewEventRepository(db *sqlx.DB) ports.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	event.ID = core.NewID()
	event.CreatedAt = now()
	event.UpdatedAt = event.CreatedAt
	if event.Status == "" {
		event.Status = models.EventScheduled
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO calendar_events (`+eventColumns+`)
		VALUES (:id, :title, :description, :date_key, :start_time, :end_time, :status, :attachment,
			:created_by, :created_at, :updated_at)
	`, event)
	if err != nil {
		return apperrors.DatabaseError("failed to create event", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id core.ID) (*models.CalendarEvent, error) {
	var event models.CalendarEvent
	err := r.db.GetContext(ctx, &event, r.db.Rebind(`SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`), id)
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	return &event, nil
}

// List returns events in calendar order
func (r *eventRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.CalendarEvent, error) {
	where, args := whereClause(filter, eventFilter)
	events := []models.CalendarEvent{}
	err := r.db.SelectContext(ctx, &events, r.db.Rebind(`
		SELECT `+eventColumns+` FROM calendar_events`+where+` ORDER BY date_key, start_time
	`), args...)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list events", err)
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	event.UpdatedAt = now()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE calendar_events SET title = :title, description = :description, date_key = :date_key,
			start_time = :start_time, end_time = :end_time, status = :status, attachment = :attachment,
			updated_at = :updated_at
		WHERE id = :id
	`, event)
	if err != nil {
		return apperrors.DatabaseError("failed to update event", err)
	}
	return requireAffected(res, "event")
}

func (r *eventRepository) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM calendar_events WHERE id = ?`), id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete event", err)
	}
	return requireAffected(res, "event")
}

type announcementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates a new announcement repository
func NewAnnouncementRepository(db *sqlx.DB) ports.AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) Create(ctx context.Context, a *models.Announcement) error {
	a.ID = core.NewID()
	a.CreatedAt = now()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO announcements (`+announcementColumns+`)
		VALUES (:id, :title, :body, :created_by, :created_at)
	`, a)
	if err != nil {
		return apperrors.DatabaseError("failed to create announcement", err)
	}
	return nil
}

// List returns the latest announcements first; limit <= 0 returns all
func (r *announcementRepository) List(ctx context.Context, limit int) ([]models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	announcements := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &announcements, r.db.Rebind(query), args...); err != nil {
		return nil, apperrors.DatabaseError("failed to list announcements", err)
	}
	return announcements, nil
}

func (r *announcementRepository) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM announcements WHERE id = ?`), id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete announcement", err)
	}
	return requireAffected(res, "announcement")
}

type pushSubscriptionRepository struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepository creates a new push subscription repository
func NewPushSubscriptionRepository(db *sqlx.DB) ports.PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

// Save inserts sub, or takes over the existing row with the same endpoint
func (r *pushSubscriptionRepository) Save(ctx context.Context, sub *models.PushSubscription) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var existing models.PushSubscription
		err := tx.GetContext(ctx, &existing, tx.Rebind(`SELECT `+pushColumns+` FROM push_subscriptions WHERE endpoint = ?`), sub.Endpoint)
		if err == nil {
			sub.ID = existing.ID
			sub.CreatedAt = existing.CreatedAt
			_, err = tx.NamedExecContext(ctx, `
				UPDATE push_subscriptions SET user_id = :user_id, p256dh = :p256dh, auth = :auth
				WHERE id = :id
			`, sub)
			if err != nil {
				return apperrors.DatabaseError("failed to update push subscription", err)
			}
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return apperrors.DatabaseError("failed to look up push subscription", err)
		}

		sub.ID = core.NewID()
		sub.CreatedAt = now()
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO push_subscriptions (`+pushColumns+`)
			VALUES (:id, :user_id, :endpoint, :p256dh, :auth, :created_at)
		`, sub)
		if err != nil {
			return apperrors.DatabaseError("failed to save push subscription", err)
		}
		return nil
	})
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, userID core.ID, endpoint string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?
	`), userID, endpoint)
	if err != nil {
		return apperrors.DatabaseError("failed to delete push subscription", err)
	}
	return requireAffected(res, "push subscription")
}

func (r *pushSubscriptionRepository) ListByUser(ctx context.Context, userID core.ID) ([]models.PushSubscription, error) {
	subs := []models.PushSubscription{}
	err := r.db.SelectContext(ctx, &subs, r.db.Rebind(`
		SELECT `+pushColumns+` FROM push_subscriptions WHERE user_id = ? ORDER BY created_at
	`), userID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list push subscriptions", err)
	}
	return subs, nil
}
