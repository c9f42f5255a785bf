// Package augment adds best-effort attributes to subscription records.
//
// Some platforms keep richer radio data behind undocumented introspection
// points. The Augmenter probes a fixed list of attribute names on the
// platform handle and on any client object it exposes, once per service
// identifier, and merges what it finds into the records carrying that
// serviceId. It only ever adds keys: values already produced by extraction
// are never replaced, and any probe failure contributes nothing.
package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/adapter/probe"
	"github.com/radio-control/cellinfo/internal/cell"
)

// ProbeKeys are probed on the platform handle itself.
var ProbeKeys = []string{
	"signalStrength",
	"currentSignalStrength",
	"rawSignalStrength",
	"dbm",
	"cellInfo",
	"cellInfoList",
	"currentCellInfo",
	"currentServiceCellularProviders",
	"currentServiceSubscriberCellularProviders",
}

// ClientKeys name the client objects that may hang off the handle.
var ClientKeys = []string{
	"coreTelephonyClient",
	"_coreTelephonyClient",
	"serviceSubscriberCellularProviders",
}

// ClientProbeKeys are probed on every client object found.
var ClientProbeKeys = []string{
	"getSignalStrength",
	"signalStrengthForService:",
	"signalStrengths",
	"getCellInfo",
}

// Extras maps a service identifier to the attributes found for it.
type Extras map[string]map[string]any

// Augmenter probes and merges extra attributes.
type Augmenter struct {
	logger *zap.Logger
}

// New creates an augmenter. A nil logger disables logging.
func New(logger *zap.Logger) *Augmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Augmenter{logger: logger}
}

// Available reports whether source offers what the augmenter needs.
func Available(source adapter.ITelephonyAdapter) bool {
	_, introspectable := source.(adapter.Introspectable)
	_, lister := source.(adapter.SubscriptionLister)
	return introspectable && lister
}

// Augment merges extras into records and returns them. When source does
// not support introspection, or anything goes wrong, records are returned
// untouched.
func (a *Augmenter) Augment(ctx context.Context, source adapter.ITelephonyAdapter, records []cell.Record) []cell.Record {
	if len(records) == 0 || !Available(source) {
		return records
	}

	extras := a.Collect(ctx, source)
	if len(extras) == 0 {
		return records
	}
	return Merge(records, extras)
}

// Collect probes the platform once per service identifier.
func (a *Augmenter) Collect(ctx context.Context, source adapter.ITelephonyAdapter) (out Extras) {
	out = Extras{}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("augmentation probe panicked", zap.String("panic", fmt.Sprint(r)))
			out = Extras{}
		}
	}()

	introspectable, ok := source.(adapter.Introspectable)
	if !ok {
		return out
	}
	lister, ok := source.(adapter.SubscriptionLister)
	if !ok {
		return out
	}

	handle := introspectable.PlatformHandle()
	if handle == nil {
		return out
	}
	ids, err := lister.ServiceIDs(ctx)
	if err != nil {
		a.logger.Debug("service identifiers unavailable", zap.Error(err))
		return out
	}

	for _, id := range ids {
		found := a.probeService(handle, id)
		if len(found) > 0 {
			out[id] = found
		}
	}
	return out
}

func (a *Augmenter) probeService(handle any, serviceID string) map[string]any {
	found := make(map[string]any)

	for _, key := range ProbeKeys {
		if v, ok := probeValue(handle, key, serviceID); ok {
			found[key] = v
		}
	}

	for _, clientKey := range ClientKeys {
		client, err := probe.Lookup(handle, clientKey)
		if err != nil {
			continue
		}
		for _, key := range ClientProbeKeys {
			if v, ok := probeValue(client, key, serviceID); ok {
				found[key] = v
			}
		}
	}

	a.logger.Debug("augmentation probe finished",
		zap.String("serviceId", serviceID),
		zap.Int("attributes", len(found)))
	return found
}

// probeValue resolves key on obj. Methods taking the service identifier are
// called with it, and maps keyed by service identifier are narrowed to that
// service's entry. Values that cannot be rendered to JSON are dropped.
func probeValue(obj any, key, serviceID string) (any, bool) {
	v, err := probe.Lookup(obj, key)
	if err != nil {
		v, err = probe.Call(obj, key, serviceID)
		if err != nil {
			return nil, false
		}
	}

	if narrowed, ok := narrow(v, serviceID); ok {
		v = narrowed
	}
	if _, err := json.Marshal(v); err != nil {
		return nil, false
	}
	return v, true
}

func narrow(v any, serviceID string) (any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	entry := rv.MapIndex(reflect.ValueOf(serviceID).Convert(rv.Type().Key()))
	if !entry.IsValid() {
		return nil, false
	}
	return entry.Interface(), true
}

// Merge adds extras to the records whose serviceId matches. Existing keys,
// whether primary or previously merged, are kept.
func Merge(records []cell.Record, extras Extras) []cell.Record {
	out := make([]cell.Record, len(records))
	for i, rec := range records {
		out[i] = rec
		id, ok := rec.ServiceID()
		if !ok {
			continue
		}
		found := extras[id]
		if len(found) == 0 {
			continue
		}

		primary := make(map[string]struct{})
		primary["type"] = struct{}{}
		for _, k := range rec.Keys() {
			primary[k] = struct{}{}
		}

		merged := make(map[string]any, len(rec.Extra)+len(found))
		for k, v := range rec.Extra {
			merged[k] = v
		}
		for k, v := range found {
			if _, taken := primary[k]; taken {
				continue
			}
			if _, exists := merged[k]; exists {
				continue
			}
			merged[k] = v
		}
		out[i].Extra = merged
	}
	return out
}
