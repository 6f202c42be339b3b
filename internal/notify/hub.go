package notify

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// client is one connected socket
type client struct {
	sub   Subscriber
	send  chan Notification
	since time.Time
}

// Hub fans notifications out to the connected clients allowed to see them
// and keeps the most recent ones for clients that reconnect
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Notification
	done       chan struct{}
	closeOnce  sync.Once
	count      atomic.Int64

	upgrader websocket.Upgrader
	origins  []string

	replayMu   sync.RWMutex
	replay     []Notification
	replaySize int
}

// NewHub creates a hub that replays up to replaySize notifications. Browser
// connections are accepted from the server's own host and from
// allowedOrigins; "*" accepts any origin.
func NewHub(replaySize int, allowedOrigins ...string) *Hub {
	hub := &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client, 10),
		unregister: make(chan *client, 10),
		broadcast:  make(chan Notification, 100),
		done:       make(chan struct{}),
		origins:    allowedOrigins,
		replaySize: replaySize,
	}
	hub.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     hub.checkOrigin,
	}

	go hub.run()
	return hub
}

// run processes hub operations
func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			// replay first so the client sees history before live events
			replayed := 0
			for _, n := range h.Recent() {
				if !c.sub.Receives(n) || (!c.since.IsZero() && !n.Timestamp.After(c.since)) {
					continue
				}
				select {
				case c.send <- n:
					replayed++
				default:
				}
			}
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
			log.Printf("[WS] Client registered for user %s (replayed %d, total clients: %d)",
				c.sub.UserID, replayed, len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.count.Store(int64(len(h.clients)))
				log.Printf("[WS] Client unregistered for user %s (remaining clients: %d)",
					c.sub.UserID, len(h.clients))
			}

		case n := <-h.broadcast:
			h.remember(n)
			for c := range h.clients {
				if !c.sub.Receives(n) {
					continue
				}
				select {
				case c.send <- n:
				default:
					log.Printf("[WS] Client channel full for user %s, skipping %s", c.sub.UserID, n.ID)
				}
			}

		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.count.Store(0)
			return
		}
	}
}

func (h *Hub) remember(n Notification) {
	if h.replaySize <= 0 {
		return
	}
	h.replayMu.Lock()
	defer h.replayMu.Unlock()
	h.replay = append(h.replay, n)
	if over := len(h.replay) - h.replaySize; over > 0 {
		h.replay = append([]Notification(nil), h.replay[over:]...)
	}
}

// Recent returns the replay buffer, oldest first
func (h *Hub) Recent() []Notification {
	h.replayMu.RLock()
	defer h.replayMu.RUnlock()
	return append([]Notification(nil), h.replay...)
}

// Publish queues n for every connected client
func (h *Hub) Publish(n Notification) {
	select {
	case h.broadcast <- n:
	default:
		log.Printf("[WS] Broadcast channel full, dropping notification: %s", n.ID)
	}
}

// Close disconnects every client and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), same-host origins and the configured allow-list
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeWS upgrades the request and streams the notifications sub may see,
// newer than since, until the peer goes away. Authentication happens before
// this call.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sub Subscriber, since time.Time) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	c := &client{
		sub:   sub,
		send:  make(chan Notification, h.replaySize+16),
		since: since,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.readPump(conn, c)
	h.writePump(conn, c)
}

// readPump discards client frames and unregisters the client on close
func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued notifications and keepalive pings
func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case n, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				log.Printf("[WS] Write to user %s failed: %v", c.sub.UserID, err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}
