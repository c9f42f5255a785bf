package simulator

import (
	"fmt"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/adapter/probe"
	"github.com/radio-control/cellinfo/internal/cell"
)

// fields is a cell's accessor values. It satisfies every static identity
// interface; a missing name reports ErrUnsupported.
type fields map[string]interface{}

func (f fields) intField(name string) (int64, error) {
	v, ok := f[name]
	if !ok {
		return 0, adapter.ErrUnsupported
	}
	return probe.ToInt64(v)
}

func (f fields) strField(name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", adapter.ErrUnsupported
	}
	return probe.ToString(v)
}

func (f fields) CID() (int64, error)       { return f.intField("cid") }
func (f fields) CI() (int64, error)        { return f.intField("ci") }
func (f fields) LAC() (int64, error)       { return f.intField("lac") }
func (f fields) TAC() (int64, error)       { return f.intField("tac") }
func (f fields) PCI() (int64, error)       { return f.intField("pci") }
func (f fields) SystemID() (int64, error)  { return f.intField("systemId") }
func (f fields) NetworkID() (int64, error) { return f.intField("networkId") }
func (f fields) MCC() (string, error)      { return f.strField("mcc") }
func (f fields) MNC() (string, error)      { return f.strField("mnc") }
func (f fields) Dbm() (int64, error)       { return f.intField("dbm") }

// buildCells converts specs into platform entries. NR and unrecognised tags
// are handed over as plain maps so extraction resolves them by name.
func buildCells(specs []CellSpec) []adapter.RawCell {
	out := make([]adapter.RawCell, 0, len(specs))
	for _, s := range specs {
		f := fields(normalizeMap(s.Fields))
		switch cell.Classify(s.Technology) {
		case cell.GSM:
			out = append(out, adapter.GSMCell{Identity: f, Signal: f})
		case cell.WCDMA:
			out = append(out, adapter.WCDMACell{Identity: f, Signal: f})
		case cell.LTE:
			out = append(out, adapter.LTECell{Identity: f, Signal: f})
		case cell.CDMA:
			out = append(out, adapter.CDMACell{Identity: f, Signal: f})
		case cell.NR:
			m := map[string]interface{}(f)
			out = append(out, adapter.NRCell{Identity: m, Signal: m})
		default:
			out = append(out, adapter.OpaqueCell{Tag: s.Technology, Object: map[string]interface{}(f)})
		}
	}
	return out
}

func buildSubscriptions(specs []SubscriptionSpec) []adapter.RawCell {
	out := make([]adapter.RawCell, 0, len(specs))
	for _, s := range specs {
		out = append(out, adapter.SubscriptionCell{
			ServiceID:       optString(s.ServiceID),
			RadioTechnology: s.RadioTechnology,
			Carrier: adapter.Carrier{
				Name:              optString(s.Carrier.Name),
				ISOCountryCode:    optString(s.Carrier.ISOCountryCode),
				MobileCountryCode: optString(s.Carrier.MobileCountryCode),
				MobileNetworkCode: optString(s.Carrier.MobileNetworkCode),
			},
		})
	}
	return out
}

// buildHandle lays subscription attributes out the way introspection points
// report them: attribute name first, then service identifier.
func buildHandle(specs []SubscriptionSpec) map[string]interface{} {
	handle := make(map[string]interface{})
	for _, s := range specs {
		if s.ServiceID == "" {
			continue
		}
		for key, v := range normalizeMap(s.Attributes) {
			byService, ok := handle[key].(map[string]interface{})
			if !ok {
				byService = make(map[string]interface{})
				handle[key] = byService
			}
			byService[s.ServiceID] = v
		}
	}
	return handle
}

func optString(s string) cell.Opt[string] {
	if s == "" {
		return cell.None[string]()
	}
	return cell.Some(s)
}

// normalizeMap rewrites the map[interface{}]interface{} values produced by
// yaml.v2 into string-keyed maps.
func normalizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case map[string]interface{}:
		return normalizeMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
