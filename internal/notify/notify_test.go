package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "bad" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var since time.Time
		if ms := r.URL.Query().Get("since"); ms != "" {
			since = parseMillis(t, ms)
		}
		q := r.URL.Query()
		sub := Subscriber{
			UserID:       "user-1",
			Admin:        q.Get("role") != "user",
			Municipality: q.Get("municipality"),
			School:       q.Get("school"),
		}
		hub.ServeWS(w, r, sub, since)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func parseMillis(t *testing.T, s string) time.Time {
	t.Helper()
	ms, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	return time.UnixMilli(ms)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func mustNotification(t *testing.T, event Event, id string, at time.Time) Notification {
	t.Helper()
	n, err := NewNotification(event, id, at, map[string]string{"id": id})
	require.NoError(t, err)
	return n
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationID(t *testing.T) {
	at := time.Unix(0, 1718000000123456789)
	n := mustNotification(t, EventAttendanceSaved, "rec-1", at)
	assert.Equal(t, "attendance:saved:rec-1:1718000000123456789", n.ID)

	var payload map[string]string
	require.NoError(t, n.Decode(&payload))
	assert.Equal(t, "rec-1", payload["id"])
}

func TestHubBroadcastsToConnectedClients(t *testing.T) {
	hub := NewHub(10)
	defer hub.Close()
	srv := newTestServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=ok", nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	sent := mustNotification(t, EventDeliverySaved, "d-1", time.Now())
	hub.Publish(sent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, EventDeliverySaved, got.Event)
}

func TestHubReplaysRecentOnConnect(t *testing.T) {
	hub := NewHub(2)
	defer hub.Close()
	srv := newTestServer(t, hub)

	base := time.Now().Add(-time.Minute)
	for i, id := range []string{"a", "b", "c"} {
		hub.Publish(mustNotification(t, EventAnnouncementCreated, id, base.Add(time.Duration(i)*time.Second)))
	}
	require.Eventually(t, func() bool { return len(hub.Recent()) == 2 }, time.Second, 10*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=ok", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var first, second Notification
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.True(t, strings.Contains(first.ID, ":b:"), first.ID)
	assert.True(t, strings.Contains(second.ID, ":c:"), second.ID)
}

func TestDedupFirst(t *testing.T) {
	d := NewDedup(time.Minute)
	assert.True(t, d.First("x"))
	assert.False(t, d.First("x"))
	assert.True(t, d.First("y"))

	short := NewDedup(20 * time.Millisecond)
	assert.True(t, short.First("x"))
	time.Sleep(40 * time.Millisecond)
	assert.True(t, short.First("x"), "expired ids count as new")
}

func TestListenerSkipsReplayedDuplicates(t *testing.T) {
	hub := NewHub(10)
	defer hub.Close()
	srv := newTestServer(t, hub)

	old := mustNotification(t, EventAttendanceSaved, "r-1", time.Now().Add(-time.Second))
	hub.Publish(old)
	require.Eventually(t, func() bool { return len(hub.Recent()) == 1 }, time.Second, 10*time.Millisecond)

	listener := NewListener(wsURL(srv), "ok")
	listener.Backoff = 20 * time.Millisecond
	// the id was handled before this listener started
	listener.dedup.First(old.ID)

	var mu sync.Mutex
	var got []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = listener.Run(ctx, func(n Notification) {
			mu.Lock()
			got = append(got, n.ID)
			mu.Unlock()
		})
	}()
	waitForClients(t, hub, 1)

	fresh := mustNotification(t, EventAttendanceSaved, "r-2", time.Now())
	hub.Publish(fresh)
	hub.Publish(fresh)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{fresh.ID}, got)
	mu.Unlock()
}

func TestListenerStopsWhenRejected(t *testing.T) {
	hub := NewHub(1)
	defer hub.Close()
	srv := newTestServer(t, hub)

	err := NewListener(wsURL(srv), "bad").Run(context.Background(), func(Notification) {})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestSubscriberReceives(t *testing.T) {
	record := Notification{Audience: Audience{Municipality: "Abucay", School: "School X"}}
	announcement := Notification{}

	tests := []struct {
		name     string
		sub      Subscriber
		n        Notification
		expected bool
	}{
		{"admin sees any school", Subscriber{Admin: true, Municipality: "Balanga"}, record, true},
		{"field user sees own school", Subscriber{Municipality: "abucay", School: " school  x "}, record, true},
		{"field user misses other school", Subscriber{Municipality: "Abucay", School: "School Y"}, record, false},
		{"field user misses other municipality", Subscriber{Municipality: "Balanga"}, record, false},
		{"municipality user sees its schools", Subscriber{Municipality: "Abucay"}, record, true},
		{"unassigned user sees everything", Subscriber{}, record, true},
		{"announcements reach everyone", Subscriber{Municipality: "Balanga", School: "School Z"}, announcement, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.sub.Receives(tt.n))
		})
	}
}

func TestHubScopesRecordEventsToFieldUsers(t *testing.T) {
	hub := NewHub(10)
	defer hub.Close()
	srv := newTestServer(t, hub)

	field, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=ok&role=user&municipality=Abucay&school=School+X", nil)
	require.NoError(t, err)
	defer field.Close()
	admin, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=ok", nil)
	require.NoError(t, err)
	defer admin.Close()
	waitForClients(t, hub, 2)

	now := time.Now()
	other := mustNotification(t, EventAttendanceSaved, "other", now)
	other.Audience = Audience{Municipality: "Abucay", School: "School Y"}
	own := mustNotification(t, EventDeliverySaved, "own", now.Add(time.Millisecond))
	own.Audience = Audience{Municipality: "abucay", School: "school x"}
	news := mustNotification(t, EventAnnouncementCreated, "news", now.Add(2*time.Millisecond))
	hub.Publish(other)
	hub.Publish(own)
	hub.Publish(news)

	read := func(conn *websocket.Conn, count int) []string {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		ids := make([]string, 0, count)
		for i := 0; i < count; i++ {
			var n Notification
			require.NoError(t, conn.ReadJSON(&n))
			ids = append(ids, n.ID)
		}
		return ids
	}

	assert.Equal(t, []string{other.ID, own.ID, news.ID}, read(admin, 3))
	assert.Equal(t, []string{own.ID, news.ID}, read(field, 2))

	// replay honours the same scope
	late, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=ok&role=user&municipality=Abucay&school=School+Y", nil)
	require.NoError(t, err)
	defer late.Close()
	assert.Equal(t, []string{other.ID, news.ID}, read(late, 2))
}

func TestHubCheckOrigin(t *testing.T) {
	hub := NewHub(1, "https://app.bhss.ph/")
	defer hub.Close()

	tests := []struct {
		origin   string
		expected bool
	}{
		{"", true},
		{"http://bhss.local:8080", true},
		{"https://APP.bhss.ph", true},
		{"https://evil.example", false},
		{"http://bhss.local:9090", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://bhss.local:8080/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.expected, hub.checkOrigin(r), tt.origin)
	}

	open := NewHub(1, "*")
	defer open.Close()
	r := httptest.NewRequest(http.MethodGet, "http://bhss.local:8080/ws", nil)
	r.Header.Set("Origin", "https://anywhere.example")
	assert.True(t, open.checkOrigin(r))
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub := NewHub(1)
	defer hub.Close()
	srv := newTestServer(t, hub)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=ok", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}
