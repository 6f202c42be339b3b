package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"
)

// DefaultDedupTTL is how long a seen notification id is remembered
const DefaultDedupTTL = 10 * time.Minute

// Dedup remembers notification ids for a TTL window
type Dedup struct {
	seen *cache.Cache
}

// NewDedup creates a dedup set whose entries expire after ttl
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{seen: cache.New(ttl, 2*ttl)}
}

// First reports whether id has not been seen within the window, and marks
// it seen
func (d *Dedup) First(id string) bool {
	return d.seen.Add(id, struct{}{}, cache.DefaultExpiration) == nil
}

// ErrRejected is returned by Run when the server refuses the token
var ErrRejected = errors.New("websocket rejected the token")

// Listener keeps a websocket subscription open, reconnecting with the last
// seen timestamp so the server replays what was missed. Replayed
// notifications that were already handled are dropped.
type Listener struct {
	URL     string
	Token   string
	Backoff time.Duration
	Dialer  *websocket.Dialer

	dedup    *Dedup
	lastSeen time.Time
}

// NewListener creates a listener for the socket at wsURL
func NewListener(wsURL, token string) *Listener {
	return &Listener{
		URL:     wsURL,
		Token:   token,
		Backoff: 2 * time.Second,
		Dialer:  websocket.DefaultDialer,
		dedup:   NewDedup(DefaultDedupTTL),
	}
}

// Run delivers each distinct notification to handle until ctx is done
func (l *Listener) Run(ctx context.Context, handle func(Notification)) error {
	for {
		err := l.session(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrRejected) {
			return err
		}
		log.Printf("[Listener] connection lost: %v; reconnecting in %s", err, l.Backoff)

		select {
		case <-time.After(l.Backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// session runs one connection until it fails
func (l *Listener) session(ctx context.Context, handle func(Notification)) error {
	target, err := l.dialURL()
	if err != nil {
		return err
	}
	conn, resp, err := l.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var n Notification
		if err := conn.ReadJSON(&n); err != nil {
			return err
		}
		if n.Timestamp.After(l.lastSeen) {
			l.lastSeen = n.Timestamp
		}
		if !l.dedup.First(n.ID) {
			continue
		}
		handle(n)
	}
}

func (l *Listener) dialURL() (string, error) {
	u, err := url.Parse(l.URL)
	if err != nil {
		return "", fmt.Errorf("invalid websocket url %q: %w", l.URL, err)
	}
	q := u.Query()
	q.Set("token", l.Token)
	if !l.lastSeen.IsZero() {
		q.Set("since", strconv.FormatInt(l.lastSeen.UnixMilli(), 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
