package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"bhss/internal/importer"
)

// Event names a kind of change pushed to connected clients
type Event string

const (
	EventAttendanceSaved     Event = "attendance:saved"
	EventDeliverySaved       Event = "delivery:saved"
	EventAnnouncementCreated Event = "announcement:created"
)

// Notification is the envelope sent over the socket
type Notification struct {
	ID        string          `json:"id"`
	Event     Event           `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`

	Audience Audience `json:"-"`
}

// Audience limits a notification to the clients assigned to one
// municipality and school. The zero value reaches every client.
type Audience struct {
	Municipality string
	School       string
}

// Subscriber describes the user on the other end of a socket
type Subscriber struct {
	UserID       string
	Admin        bool
	Municipality string
	School       string
}

// Receives reports whether s may see n. Admins see everything; field users
// only see records of their assigned municipality and school, matching the
// scope applied to their history reads.
func (s Subscriber) Receives(n Notification) bool {
	if s.Admin {
		return true
	}
	if !sameScope(s.Municipality, n.Audience.Municipality) {
		return false
	}
	return sameScope(s.School, n.Audience.School)
}

func sameScope(assigned, target string) bool {
	if assigned == "" || target == "" {
		return true
	}
	return importer.NormalizeName(assigned) == importer.NormalizeName(target)
}

// NewNotification wraps data for event. The id combines the event, the
// record id and the save time, so one save always maps to one id.
func NewNotification(event Event, recordID string, savedAt time.Time, data interface{}) (Notification, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return Notification{
		ID:        fmt.Sprintf("%s:%s:%d", event, recordID, savedAt.UnixNano()),
		Event:     event,
		Data:      payload,
		Timestamp: savedAt.UTC(),
	}, nil
}

// Decode unmarshals the payload into v
func (n Notification) Decode(v interface{}) error {
	return json.Unmarshal(n.Data, v)
}

// Publisher accepts notifications for delivery to connected clients
type Publisher interface {
	Publish(n Notification)
}
