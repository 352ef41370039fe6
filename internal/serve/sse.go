package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ============================================================================
// SSE Event Types
// ============================================================================

// SSEEvent represents a single Server-Sent Event.
type SSEEvent struct {
	ID    string // change token used as event ID
	Event string // "refresh" or "ping"
	Data  string // JSON payload
}

// refreshData is the JSON payload of a refresh event.
type refreshData struct {
	ChangeToken string `json:"change_token"`
	Timestamp   string `json:"timestamp"`
}

// pingData is the JSON payload of a ping event.
type pingData struct {
	ChangeToken string `json:"change_token"`
}

// ============================================================================
// Event Hub
// ============================================================================

// EventHub fans plan changes out to connected event stream clients and
// keeps idle connections alive with pings.
type EventHub struct {
	pingInterval time.Duration
	token        func() string

	mu      sync.Mutex
	clients map[chan SSEEvent]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// NewEventHub creates a hub. token reports the current change token.
func NewEventHub(pingInterval time.Duration, token func() string) *EventHub {
	return &EventHub{
		pingInterval: pingInterval,
		token:        token,
		clients:      make(map[chan SSEEvent]struct{}),
	}
}

// Start begins the ping loop.
func (h *EventHub) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})
	go h.run(ctx)
}

// Stop ends the ping loop and closes every client channel. Calling Stop on
// a hub that was never started is a no-op.
func (h *EventHub) Stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

func (h *EventHub) register() chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Debug("sse: client registered", "clients", n)
	return ch
}

func (h *EventHub) unregister(ch chan SSEEvent) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a refresh event carrying changeToken to every client.
// Slow clients miss the event and catch up on the next one.
func (h *EventHub) Broadcast(changeToken string) {
	h.send(SSEEvent{
		ID:    changeToken,
		Event: "refresh",
		Data: marshalJSON(refreshData{
			ChangeToken: changeToken,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}),
	})
}

func (h *EventHub) ping() {
	token := h.token()
	h.send(SSEEvent{ID: token, Event: "ping", Data: marshalJSON(pingData{ChangeToken: token})})
}

func (h *EventHub) send(event SSEEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			slog.Debug("sse: dropped event for slow client", "event", event.Event)
		}
	}
}

func (h *EventHub) run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return
		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *EventHub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// ============================================================================
// GET /api/svp/events
// ============================================================================

// handleEvents streams refresh events after every write. A client that
// reconnects with a stale Last-Event-ID gets an immediate refresh.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, ErrInternal, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.hub.register()
	defer s.hub.unregister(ch)

	current := s.ChangeToken()
	if last := r.Header.Get("Last-Event-ID"); last != "" && last != current {
		writeSSEEvent(w, flusher, SSEEvent{
			ID:    current,
			Event: "refresh",
			Data: marshalJSON(refreshData{
				ChangeToken: current,
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
			}),
		})
	} else {
		writeSSEEvent(w, flusher, SSEEvent{ID: current, Event: "ping", Data: marshalJSON(pingData{ChangeToken: current})})
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, flusher, event)
		}
	}
}

// writeSSEEvent writes a single SSE event to the response writer and flushes.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event SSEEvent) {
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Event, event.Data)
	flusher.Flush()
}

// marshalJSON marshals v, returning "{}" on error.
func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
