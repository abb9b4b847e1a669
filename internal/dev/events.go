package dev

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yme-dev/pagegen/internal/errors"
	"github.com/yme-dev/pagegen/pkg/middleware"
	"github.com/yme-dev/pagegen/pkg/pages"
)

// EventType represents the type of event message.
type EventType string

const (
	EventRegenerated EventType = "regenerated"
	EventError       EventType = "error"
)

// Event is sent to subscribers via WebSocket after every run.
type Event struct {
	Type        EventType `json:"type"`
	Time        time.Time `json:"time"`
	Pages       int       `json:"pages,omitempty"`
	SubPackages int       `json:"subPackages,omitempty"`
	Files       []string  `json:"files,omitempty"`
	Changed     []string  `json:"changed,omitempty"`
	Code        string    `json:"code,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NewEvent builds the event for one run. changed lists the paths that
// triggered it and may be empty.
func NewEvent(res *pages.Result, err error, changed []string) Event {
	if err != nil {
		return Event{
			Type:    EventError,
			Time:    time.Now(),
			Changed: changed,
			Code:    errors.CodeOf(err),
			Stage:   errors.StageOf(err),
			Error:   err.Error(),
		}
	}

	ev := Event{
		Type:    EventRegenerated,
		Time:    time.Now(),
		Changed: changed,
	}
	if res != nil {
		ev.Pages = len(res.Pages)
		ev.SubPackages = len(res.SubBundles)
		if res.Written {
			ev.Files = []string{res.AppConfigPath, res.PagesModulePath}
		}
	}
	return ev
}

// EventHub manages WebSocket subscribers to run events.
type EventHub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	last     *Event
}

// NewEventHub creates a new event hub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tooling only
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection. A new subscriber
// first receives the last event, if any.
func (h *EventHub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	last := h.last
	h.mu.Unlock()
	middleware.RecordClientConnect()

	if last != nil {
		h.send(conn, *last)
	}

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
}

// Publish sends ev to all subscribers and remembers it for new ones.
func (h *EventHub) Publish(ev Event) {
	h.mu.Lock()
	h.last = &ev
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.send(client, ev)
	}
}

// Last returns the last published event.
func (h *EventHub) Last() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return Event{}, false
	}
	return *h.last, true
}

// send writes ev to one client and drops the client on failure.
func (h *EventHub) send(client *websocket.Conn, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	// gorilla/websocket allows one concurrent writer per connection.
	h.writeMu.Lock()
	err = client.WriteMessage(websocket.TextMessage, data)
	h.writeMu.Unlock()
	if err != nil {
		h.remove(client)
	}
}

func (h *EventHub) remove(client *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if ok {
		middleware.RecordClientDisconnect()
	}
	client.Close()
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *EventHub) Close() {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.remove(client)
	}
}
