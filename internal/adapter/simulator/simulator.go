// Package simulator provides a scenario-driven telephony adapter for
// development and end-to-end testing.
//
// A scenario (YAML, see Scenario) describes the platform family and
// revision, the cells or subscriptions it reports and a fault mode:
//
//   - normal: the live request answers after LiveDelay, the cached read
//     returns the snapshot
//   - degraded: the live callback reports a modem error, forcing the
//     cached fallback
//   - offline: the live callback and the cached read both fail
//
// Live updates are offered on android revisions 29 and later, mirroring
// when the platform introduced the asynchronous request.
package simulator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/radio-control/cellinfo/internal/adapter"
)

// MinLiveRevision is the first android revision with live updates.
const MinLiveRevision = 29

var (
	errOffline = errors.New("no service: radio offline (RADIO_NOT_AVAILABLE)")
	errDenied  = errors.New("SecurityException: location permission not granted")
	errModem   = errors.New("modem did not answer")
)

// Simulator implements ITelephonyAdapter and the optional platform
// interfaces from a Scenario.
type Simulator struct {
	adapter.AdapterBase

	mu         sync.RWMutex
	scenario   Scenario
	cached     []adapter.RawCell
	live       []adapter.RawCell
	handle     map[string]interface{}
	serviceIDs []string
}

var (
	_ adapter.ITelephonyAdapter  = (*Simulator)(nil)
	_ adapter.LiveRequester      = (*Simulator)(nil)
	_ adapter.PermissionChecker  = (*Simulator)(nil)
	_ adapter.SubscriptionLister = (*Simulator)(nil)
	_ adapter.Introspectable     = (*Simulator)(nil)
)

// New creates a simulator playing s.
func New(s Scenario) (*Simulator, error) {
	sim := &Simulator{}
	if err := sim.SetScenario(s); err != nil {
		return nil, err
	}
	return sim, nil
}

// SetScenario replaces the running scenario.
func (s *Simulator) SetScenario(sc Scenario) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	var cached []adapter.RawCell
	if len(sc.Subscriptions) > 0 {
		cached = buildSubscriptions(sc.Subscriptions)
	} else {
		cached = buildCells(sc.Cells)
	}
	live := cached
	if len(sc.LiveCells) > 0 {
		live = buildCells(sc.LiveCells)
	}

	ids := make([]string, 0, len(sc.Subscriptions))
	for _, sub := range sc.Subscriptions {
		if sub.ServiceID != "" {
			ids = append(ids, sub.ServiceID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.PlatformID = sc.Platform
	s.Revision = sc.Revision
	s.Status = statusFor(sc.FaultMode)
	s.scenario = sc
	s.cached = cached
	s.live = live
	s.handle = buildHandle(sc.Subscriptions)
	s.serviceIDs = ids
	return nil
}

// SetFaultMode switches the fault mode without touching the cells.
func (s *Simulator) SetFaultMode(mode string) error {
	switch mode {
	case FaultNormal, FaultDegraded, FaultOffline:
	default:
		return errors.New("unknown fault mode: " + mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenario.FaultMode = mode
	s.Status = statusFor(mode)
	return nil
}

// ClearFaultMode returns to normal operation.
func (s *Simulator) ClearFaultMode() {
	_ = s.SetFaultMode(FaultNormal)
}

// SetPermission sets the reported location permission.
func (s *Simulator) SetPermission(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenario.Permission = &granted
}

// GetPlatformID returns the simulated platform family.
func (s *Simulator) GetPlatformID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PlatformID
}

// SupportsLiveUpdates implements LiveRequester.
func (s *Simulator) SupportsLiveUpdates() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PlatformID == "android" && s.Revision >= MinLiveRevision
}

// RequestCellUpdate implements LiveRequester. The answer arrives on a
// separate goroutine after the scenario's live delay, or never when ctx
// ends first.
func (s *Simulator) RequestCellUpdate(ctx context.Context, cb adapter.CellCallback) error {
	// Check for context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !s.SupportsLiveUpdates() {
		return adapter.ErrUnsupported
	}

	s.mu.RLock()
	mode := s.scenario.FaultMode
	delay := s.scenario.LiveDelay
	granted := s.permitted()
	cells := s.live
	s.mu.RUnlock()

	if !granted {
		return errDenied
	}

	go func() {
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
		switch mode {
		case FaultDegraded:
			cb.OnError(adapter.LiveErrorModemError, errModem)
		case FaultOffline:
			cb.OnError(adapter.LiveErrorTimeout, errOffline)
		default:
			cb.OnCellInfo(cells)
		}
	}()
	return nil
}

// CachedCells implements ITelephonyAdapter.
func (s *Simulator) CachedCells(ctx context.Context) ([]adapter.RawCell, error) {
	// Check for context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.permitted() {
		return nil, errDenied
	}
	if s.scenario.FaultMode == FaultOffline {
		return nil, errOffline
	}
	return append([]adapter.RawCell(nil), s.cached...), nil
}

// LocationPermissionGranted implements PermissionChecker.
func (s *Simulator) LocationPermissionGranted(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.permitted()
}

// ServiceIDs implements SubscriptionLister.
func (s *Simulator) ServiceIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.scenario.FaultMode == FaultOffline {
		return nil, errOffline
	}
	return append([]string(nil), s.serviceIDs...), nil
}

// PlatformHandle implements Introspectable. It is nil when the scenario has
// no subscription attributes.
func (s *Simulator) PlatformHandle() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.handle) == 0 {
		return nil
	}
	return s.handle
}

// permitted must be called with mu held.
func (s *Simulator) permitted() bool {
	return s.scenario.Permission == nil || *s.scenario.Permission
}

func statusFor(mode string) string {
	switch mode {
	case FaultOffline:
		return "offline"
	case FaultDegraded:
		return "degraded"
	default:
		return "online"
	}
}

// GetStatus returns online, degraded or offline.
func (s *Simulator) GetStatus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}
