// Package fake provides a scriptable telephony adapter for testing.
//
// The fake records how often the live request and the cached read were
// invoked, so tests can assert that a denied capability never reaches the
// platform and that a failed live request triggers exactly one cached read.
package fake

import (
	"context"
	"sync"

	"github.com/radio-control/cellinfo/internal/adapter"
)

// FakeAdapter implements ITelephonyAdapter and every optional platform
// interface for testing purposes.
type FakeAdapter struct {
	adapter.AdapterBase

	mu sync.Mutex

	// Live path
	liveSupported bool
	liveCells     []adapter.RawCell
	liveErr       *adapter.LiveError
	requestErr    error
	requestPanic  any
	doubleDeliver bool
	withhold      bool

	// Cached path
	cachedCells []adapter.RawCell
	cachedErr   error
	cachedPanic any

	// Capability and introspection
	permission bool
	serviceIDs []string
	handle     any

	// Invocation counters
	liveRequests int
	cachedReads  int
	permChecks   int
}

// Compile-time assertions for the optional platform surfaces.
var (
	_ adapter.ITelephonyAdapter  = (*FakeAdapter)(nil)
	_ adapter.LiveRequester      = (*FakeAdapter)(nil)
	_ adapter.PermissionChecker  = (*FakeAdapter)(nil)
	_ adapter.SubscriptionLister = (*FakeAdapter)(nil)
	_ adapter.Introspectable     = (*FakeAdapter)(nil)
)

// NewFakeAdapter creates a fake with permission granted, live updates
// supported and empty cell lists on both paths.
func NewFakeAdapter(platformID string) *FakeAdapter {
	return &FakeAdapter{
		AdapterBase: adapter.AdapterBase{
			PlatformID: platformID,
			Revision:   34,
			Status:     "online",
		},
		liveSupported: true,
		permission:    true,
	}
}

// SupportsLiveUpdates implements LiveRequester.
func (f *FakeAdapter) SupportsLiveUpdates() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveSupported
}

// RequestCellUpdate implements LiveRequester. The callback fires on a
// separate goroutine.
func (f *FakeAdapter) RequestCellUpdate(ctx context.Context, cb adapter.CellCallback) error {
	f.mu.Lock()
	f.liveRequests++
	requestPanic := f.requestPanic
	requestErr := f.requestErr
	cells := f.liveCells
	liveErr := f.liveErr
	double := f.doubleDeliver
	withhold := f.withhold
	f.mu.Unlock()

	// Check for context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if requestPanic != nil {
		panic(requestPanic)
	}
	if requestErr != nil {
		return requestErr
	}
	if withhold {
		return nil
	}

	go func() {
		deliveries := 1
		if double {
			deliveries = 2
		}
		for i := 0; i < deliveries; i++ {
			if liveErr != nil {
				cb.OnError(liveErr.Code, liveErr.Detail)
				continue
			}
			cb.OnCellInfo(cells)
		}
	}()
	return nil
}

// CachedCells implements ITelephonyAdapter.
func (f *FakeAdapter) CachedCells(ctx context.Context) ([]adapter.RawCell, error) {
	f.mu.Lock()
	f.cachedReads++
	cells, err, p := f.cachedCells, f.cachedErr, f.cachedPanic
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if p != nil {
		panic(p)
	}
	if err != nil {
		return nil, err
	}
	return cells, nil
}

// LocationPermissionGranted implements PermissionChecker.
func (f *FakeAdapter) LocationPermissionGranted(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permChecks++
	return f.permission
}

// ServiceIDs implements SubscriptionLister.
func (f *FakeAdapter) ServiceIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.serviceIDs...), nil
}

// PlatformHandle implements Introspectable.
func (f *FakeAdapter) PlatformHandle() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handle
}

// Helper methods for testing

// SetLiveSupported toggles live update support.
func (f *FakeAdapter) SetLiveSupported(supported bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveSupported = supported
}

// SetLiveCells sets the cells delivered by a successful live request.
func (f *FakeAdapter) SetLiveCells(cells ...adapter.RawCell) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveCells = cells
	f.liveErr = nil
}

// SetLiveError makes the live callback report an error.
func (f *FakeAdapter) SetLiveError(code int, detail error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveErr = &adapter.LiveError{Code: code, Detail: detail}
}

// SetRequestError makes the live request call itself fail.
func (f *FakeAdapter) SetRequestError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestErr = err
}

// SetRequestPanic makes the live request call panic with v.
func (f *FakeAdapter) SetRequestPanic(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestPanic = v
}

// SetDoubleCallback makes the platform fire the live callback twice.
func (f *FakeAdapter) SetDoubleCallback(double bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doubleDeliver = double
}

// SetWithholdCallback accepts live requests without ever answering them.
func (f *FakeAdapter) SetWithholdCallback(withhold bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withhold = withhold
}

// SetCachedCells sets the cached snapshot.
func (f *FakeAdapter) SetCachedCells(cells ...adapter.RawCell) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cachedCells = cells
	f.cachedErr = nil
}

// SetCachedError makes the cached read fail.
func (f *FakeAdapter) SetCachedError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cachedErr = err
}

// SetCachedPanic makes the cached read panic with v.
func (f *FakeAdapter) SetCachedPanic(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cachedPanic = v
}

// SetPermission sets the reported location permission.
func (f *FakeAdapter) SetPermission(granted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permission = granted
}

// SetSubscriptions sets the service identifiers and the introspection handle.
func (f *FakeAdapter) SetSubscriptions(handle any, serviceIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handle = handle
	f.serviceIDs = serviceIDs
}

// LiveRequests returns how many live requests were issued.
func (f *FakeAdapter) LiveRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveRequests
}

// CachedReads returns how many cached reads were issued.
func (f *FakeAdapter) CachedReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cachedReads
}

// PermissionChecks returns how many times the permission was queried.
func (f *FakeAdapter) PermissionChecks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permChecks
}

// Acquisitions returns the total number of platform reads of any kind.
func (f *FakeAdapter) Acquisitions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveRequests + f.cachedReads
}
