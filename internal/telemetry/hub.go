package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radio-control/cellinfo/internal/config"
	"github.com/radio-control/cellinfo/internal/metrics"
)

// Event types.
const (
	EventReady     = "ready"
	EventCellInfo  = "cellinfo"
	EventHeartbeat = "heartbeat"
)

// ErrHubStopped is returned by Subscribe once the hub has been stopped.
var ErrHubStopped = errors.New("telemetry hub stopped")

// Event is one SSE message. Events with a zero ID are neither numbered nor
// buffered.
type Event struct {
	ID   int64                  `json:"id,omitempty"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`

	at time.Time
}

// CallEvent builds the event published for one entry point call.
func CallEvent(platform, method, code, path string, records int) Event {
	data := map[string]interface{}{
		"platform": platform,
		"method":   method,
		"code":     code,
		"records":  records,
	}
	if path != "" {
		data["path"] = path
	}
	return Event{Type: EventCellInfo, Data: data}
}

type client struct {
	id     string
	w      http.ResponseWriter
	events chan Event
	mu     sync.Mutex
}

// Hub manages SSE telemetry distribution.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	lastID atomic.Int64
	buffer *EventBuffer

	cfg     config.TelemetryConfig
	logger  *zap.Logger
	metrics *metrics.Metrics

	stopHeartbeat chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewHub creates a hub. m and logger may be nil.
func NewHub(cfg config.TelemetryConfig, m *metrics.Metrics, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*client),
		buffer:  NewEventBuffer(cfg.BufferSize, cfg.BufferRetention),
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		done:    make(chan struct{}),
	}
}

// Subscribe streams events to w until ctx ends or the hub stops. A
// Last-Event-ID header replays buffered events newer than that ID.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var lastEventID int64
	if raw := r.Header.Get("Last-Event-ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			lastEventID = id
		}
	}

	c := &client{
		id:     uuid.NewString(),
		w:      w,
		events: make(chan Event, max(h.cfg.BufferSize, 1)),
	}

	ready := Event{Type: EventReady, Data: map[string]interface{}{
		"clientId": c.id,
		"lastId":   h.lastID.Load(),
	}}
	if err := c.send(ready); err != nil {
		return fmt.Errorf("failed to send ready event: %w", err)
	}

	// Register before replaying so nothing published in between is lost;
	// the ID check in the loop drops duplicates.
	h.register(c)
	defer h.unregister(c.id)

	sent := lastEventID
	if lastEventID > 0 {
		for _, e := range h.buffer.GetEventsAfter(lastEventID) {
			if err := c.send(e); err != nil {
				return fmt.Errorf("failed to replay events: %w", err)
			}
			sent = e.ID
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case e := <-c.events:
			if e.ID != 0 && e.ID <= sent {
				continue
			}
			if err := c.send(e); err != nil {
				h.logger.Debug("telemetry client write failed", zap.String("client", c.id), zap.Error(err))
				return nil
			}
			if e.ID != 0 {
				sent = e.ID
			}
		}
	}
}

// Publish numbers, buffers and fans out an event. Slow clients whose queue
// is full miss the event; they can catch up from the buffer on reconnect.
func (h *Hub) Publish(e Event) {
	if e.Type != EventHeartbeat {
		e.ID = h.lastID.Add(1)
		e.at = time.Now()
		h.buffer.AddEvent(e)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.events <- e:
		default:
			h.logger.Debug("telemetry event dropped for slow client",
				zap.String("client", c.id), zap.Int64("id", e.ID))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop disconnects every client and stops the heartbeat.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
	})
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	if len(h.clients) == 1 && h.stopHeartbeat == nil {
		h.startHeartbeat()
	}
	h.setClientGauge()
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
	if len(h.clients) == 0 && h.stopHeartbeat != nil {
		close(h.stopHeartbeat)
		h.stopHeartbeat = nil
	}
	h.setClientGauge()
}

// setClientGauge must be called with mu held.
func (h *Hub) setClientGauge() {
	if h.metrics != nil {
		h.metrics.TelemetryClients.Set(float64(len(h.clients)))
	}
}

// startHeartbeat must be called with mu held.
func (h *Hub) startHeartbeat() {
	if h.cfg.HeartbeatInterval <= 0 {
		return
	}
	select {
	case <-h.done:
		return
	default:
	}
	stop := make(chan struct{})
	h.stopHeartbeat = stop

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		timer := time.NewTimer(heartbeatDelay(h.cfg.HeartbeatInterval, h.cfg.HeartbeatJitter))
		defer timer.Stop()
		for {
			select {
			case <-timer.C:
				h.Publish(Event{Type: EventHeartbeat, Data: map[string]interface{}{
					"ts": time.Now().UTC().Format(time.RFC3339),
				}})
				timer.Reset(heartbeatDelay(h.cfg.HeartbeatInterval, h.cfg.HeartbeatJitter))
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

// heartbeatDelay draws the next heartbeat delay uniformly from
// [interval-jitter, interval+jitter].
func heartbeatDelay(interval, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return interval
	}
	return interval - jitter + time.Duration(rand.Int64N(int64(2*jitter)+1))
}

func (c *client) send(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.ID > 0 {
		if _, err := fmt.Fprintf(c.w, "id: %d\n", e.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if _, err := fmt.Fprintf(c.w, "event: %s\n", e.Type); err != nil {
		return fmt.Errorf("failed to write event type: %w", err)
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
