package cell

// Type is the canonical radio technology category reported to callers.
type Type string

// Canonical categories.
const (
	GSM     Type = "GSM"
	WCDMA   Type = "WCDMA"
	CDMA    Type = "CDMA"
	LTE     Type = "LTE"
	NR      Type = "NR"
	Unknown Type = "UNKNOWN"
)

// Types lists every canonical category.
func Types() []Type {
	return []Type{GSM, WCDMA, CDMA, LTE, NR, Unknown}
}

// Valid reports whether t is one of the canonical categories.
func (t Type) Valid() bool {
	switch t {
	case GSM, WCDMA, CDMA, LTE, NR, Unknown:
		return true
	default:
		return false
	}
}

// Record is one normalized cell (or subscription) entry.
type Record struct {
	Type Type

	CID       Opt[int64]
	CI        Opt[int64]
	LAC       Opt[int64]
	TAC       Opt[int64]
	PCI       Opt[int64]
	NCI       Opt[int64]
	SystemID  Opt[int64]
	NetworkID Opt[int64]

	MCC Opt[string]
	MNC Opt[string]

	SignalDbm Opt[int64]

	// Subscription is set on platforms that report per-subscription
	// carrier data instead of per-cell identity. Its presence switches the
	// record to the stable subscription key set.
	Subscription *Subscription

	// Extra holds best-effort attributes merged in by the augmenter.
	Extra map[string]any
}

// Subscription carries carrier attributes for one subscription slot.
type Subscription struct {
	ServiceID         Opt[string]
	CarrierName       Opt[string]
	ISOCountryCode    Opt[string]
	MobileCountryCode Opt[string]
	MobileNetworkCode Opt[string]
}

// NewUnknown returns a record carrying only the UNKNOWN type.
func NewUnknown() Record {
	return Record{Type: Unknown}
}

// ServiceID returns the subscription service identifier, if any.
func (r Record) ServiceID() (string, bool) {
	if r.Subscription == nil {
		return "", false
	}
	return r.Subscription.ServiceID.Get()
}

// Field is one ordered key/value pair of an encoded record.
type Field struct {
	Key   string
	Value any
}

var cellLayout = map[Type][]string{
	GSM:     {"cid", "lac", "mcc", "mnc", "signalDbm"},
	LTE:     {"ci", "cid", "tac", "mcc", "mnc", "pci", "signalDbm"},
	WCDMA:   {"cid", "lac", "mcc", "mnc", "signalDbm"},
	NR:      {"nci", "cid", "tac", "mcc", "mnc", "pci", "signalDbm"},
	CDMA:    {"systemId", "networkId", "signalDbm"},
	Unknown: nil,
}

var subscriptionLayout = []string{
	"carrierName", "isoCountryCode", "mobileCountryCode", "mobileNetworkCode",
	"cid", "ci", "tac", "pci", "nci", "signalDbm", "serviceId",
}

// Layout returns the ordered keys (after "type") emitted for t.
func Layout(t Type) []string {
	keys := cellLayout[t]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Keys returns the ordered keys this record emits, excluding extras.
func (r Record) Keys() []string {
	if r.Subscription != nil {
		out := make([]string, len(subscriptionLayout))
		copy(out, subscriptionLayout)
		return out
	}
	return Layout(r.normalizedType())
}

// Fields returns the ordered key/value pairs of the record, starting with
// "type" and ending with extras that do not collide with a primary key.
func (r Record) Fields() []Field {
	keys := r.Keys()
	fields := make([]Field, 0, len(keys)+len(r.Extra)+1)
	fields = append(fields, Field{Key: "type", Value: string(r.normalizedType())})

	primary := make(map[string]struct{}, len(keys)+1)
	primary["type"] = struct{}{}
	for _, k := range keys {
		primary[k] = struct{}{}
		fields = append(fields, Field{Key: k, Value: r.value(k)})
	}

	for _, k := range sortedKeys(r.Extra) {
		if _, taken := primary[k]; taken {
			continue
		}
		fields = append(fields, Field{Key: k, Value: r.Extra[k]})
	}
	return fields
}

func (r Record) normalizedType() Type {
	if !r.Type.Valid() {
		return Unknown
	}
	return r.Type
}

func (r Record) value(key string) any {
	switch key {
	case "cid":
		return r.CID
	case "ci":
		return r.CI
	case "lac":
		return r.LAC
	case "tac":
		return r.TAC
	case "pci":
		return r.PCI
	case "nci":
		return r.NCI
	case "systemId":
		return r.SystemID
	case "networkId":
		return r.NetworkID
	case "mcc":
		return r.MCC
	case "mnc":
		return r.MNC
	case "signalDbm":
		return r.SignalDbm
	}

	sub := r.Subscription
	if sub == nil {
		sub = &Subscription{}
	}
	switch key {
	case "serviceId":
		return sub.ServiceID
	case "carrierName":
		return sub.CarrierName
	case "isoCountryCode":
		return sub.ISOCountryCode
	case "mobileCountryCode":
		return sub.MobileCountryCode
	case "mobileNetworkCode":
		return sub.MobileNetworkCode
	}
	return nil
}
