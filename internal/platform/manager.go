package platform

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/radio-control/cellinfo/internal/adapter"
)

// ErrNoPlatform is returned when no adapter is active.
var ErrNoPlatform = errors.New("no platform adapter configured")

// Info describes one registered adapter.
type Info struct {
	ID            string    `json:"id"`
	Platform      string    `json:"platform"`
	Revision      int       `json:"revision"`
	Status        string    `json:"status"`
	LiveUpdates   bool      `json:"liveUpdates"`
	Subscriptions bool      `json:"subscriptions"`
	Introspection bool      `json:"introspection"`
	Registered    time.Time `json:"registered"`
}

// List is the inventory view returned to callers.
type List struct {
	ActiveID string `json:"activeId"`
	Items    []Info `json:"items"`
}

// Described is implemented by adapters embedding adapter.AdapterBase.
type Described interface {
	GetPlatformID() string
	GetRevision() int
	GetStatus() string
}

type entry struct {
	adapter    adapter.ITelephonyAdapter
	registered time.Time
}

// Manager manages adapter inventory and active selection.
type Manager struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	activeID string
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]*entry)}
}

// Register adds or replaces an adapter under id. The first adapter
// registered becomes active.
func (m *Manager) Register(id string, a adapter.ITelephonyAdapter) error {
	if id == "" {
		return errors.New("platform id must be set")
	}
	if a == nil {
		return fmt.Errorf("platform %s: adapter is nil", id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = &entry{adapter: a, registered: time.Now()}
	if m.activeID == "" {
		m.activeID = id
	}
	return nil
}

// SetActive selects the adapter answering calls.
func (m *Manager) SetActive(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return fmt.Errorf("platform %s not found", id)
	}
	m.activeID = id
	return nil
}

// Active returns the active adapter and its id.
func (m *Manager) Active() (adapter.ITelephonyAdapter, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.activeID == "" {
		return nil, "", ErrNoPlatform
	}
	e, ok := m.entries[m.activeID]
	if !ok {
		return nil, "", ErrNoPlatform
	}
	return e.adapter, m.activeID, nil
}

// Get returns the adapter registered under id.
func (m *Manager) Get(id string) (adapter.ITelephonyAdapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("platform %s not found", id)
	}
	return e.adapter, nil
}

// List returns every registered adapter sorted by id.
func (m *Manager) List() List {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := List{ActiveID: m.activeID, Items: make([]Info, 0, len(m.entries))}
	for id, e := range m.entries {
		out.Items = append(out.Items, describe(id, e))
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ID < out.Items[j].ID })
	return out
}

// Describe returns the platform family of a, or "generic".
func Describe(a adapter.ITelephonyAdapter) string {
	if d, ok := a.(Described); ok && d.GetPlatformID() != "" {
		return d.GetPlatformID()
	}
	return "generic"
}

func describe(id string, e *entry) Info {
	info := Info{ID: id, Platform: Describe(e.adapter), Status: "online", Registered: e.registered}
	if d, ok := e.adapter.(Described); ok {
		info.Revision = d.GetRevision()
		if s := d.GetStatus(); s != "" {
			info.Status = s
		}
	}
	if live, ok := e.adapter.(adapter.LiveRequester); ok {
		info.LiveUpdates = live.SupportsLiveUpdates()
	}
	_, info.Subscriptions = e.adapter.(adapter.SubscriptionLister)
	_, info.Introspection = e.adapter.(adapter.Introspectable)
	return info
}
