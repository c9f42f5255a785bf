package probe

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/cell"
)

// Candidates lists, per logical field, the accessor names to try in order.
type Candidates map[string][]string

var (
	mccNames = []string{"getMccString", "mccString", "getMcc", "mcc"}
	mncNames = []string{"getMncString", "mncString", "getMnc", "mnc"}
	tacNames = []string{"getTac", "tac"}
	pciNames = []string{"getPci", "pci"}
	dbmNames = []string{"getDbm", "dbm"}
)

// Tables holds the candidate names for every technology that may arrive
// without a static accessor surface.
var Tables = map[cell.Type]Candidates{
	cell.GSM: {
		"cid":       {"getCid", "cid"},
		"lac":       {"getLac", "lac"},
		"mcc":       mccNames,
		"mnc":       mncNames,
		"signalDbm": dbmNames,
	},
	cell.WCDMA: {
		"cid":       {"getCid", "cid"},
		"lac":       {"getLac", "lac"},
		"mcc":       mccNames,
		"mnc":       mncNames,
		"signalDbm": dbmNames,
	},
	cell.LTE: {
		"ci":        {"getCi", "ci"},
		"tac":       tacNames,
		"mcc":       mccNames,
		"mnc":       mncNames,
		"pci":       pciNames,
		"signalDbm": dbmNames,
	},
	cell.CDMA: {
		"systemId":  {"getSystemId", "systemId"},
		"networkId": {"getNetworkId", "networkId"},
		"signalDbm": {"getDbm", "dbm", "getCdmaDbm", "cdmaDbm"},
	},
	cell.NR: {
		"nci":       {"getNci", "nci", "NCI", "nrCellIdentity"},
		"tac":       tacNames,
		"mcc":       mccNames,
		"mnc":       mncNames,
		"pci":       pciNames,
		"signalDbm": {"getDbm", "dbm", "getSsRsrp", "ssRsrp"},
	},
}

// Nested record parts, for objects that wrap identity and signal.
var (
	IdentityNames = []string{"getCellIdentity", "cellIdentity"}
	SignalNames   = []string{"getCellSignalStrength", "cellSignalStrength"}
)

// StringFields are the logical fields carried as strings.
var StringFields = map[string]bool{"mcc": true, "mnc": true}

// ResolveInt returns an accessor for the first candidate that resolves to an
// integer on obj, or nil when none does.
func ResolveInt(obj any, candidates []string) adapter.Accessor[int64] {
	for _, name := range candidates {
		v, err := Lookup(obj, name)
		if err != nil {
			continue
		}
		n, err := ToInt64(v)
		if err != nil {
			continue
		}
		return func() (int64, error) { return n, nil }
	}
	return nil
}

// ResolveString returns an accessor for the first candidate that resolves to
// a string on obj, or nil when none does.
func ResolveString(obj any, candidates []string) adapter.Accessor[string] {
	for _, name := range candidates {
		v, err := Lookup(obj, name)
		if err != nil {
			continue
		}
		s, err := ToString(v)
		if err != nil {
			continue
		}
		return func() (string, error) { return s, nil }
	}
	return nil
}

// NRAccessors is the resolved NR field surface. Nil accessors are
// unsupported on the probed objects.
type NRAccessors struct {
	NCI adapter.Accessor[int64]
	TAC adapter.Accessor[int64]
	MCC adapter.Accessor[string]
	MNC adapter.Accessor[string]
	PCI adapter.Accessor[int64]
	Dbm adapter.Accessor[int64]
}

// ResolveNR probes NR identity and signal objects.
func ResolveNR(identity, signal any) NRAccessors {
	t := Tables[cell.NR]
	return NRAccessors{
		NCI: ResolveInt(identity, t["nci"]),
		TAC: ResolveInt(identity, t["tac"]),
		MCC: ResolveString(identity, t["mcc"]),
		MNC: ResolveString(identity, t["mnc"]),
		PCI: ResolveInt(identity, t["pci"]),
		Dbm: ResolveInt(signal, t["signalDbm"]),
	}
}

// Split returns the identity and signal parts of a platform record. Records
// that do not nest them are returned as both parts.
func Split(obj any) (identity, signal any) {
	identity, signal = obj, obj
	if v, _, err := First(obj, IdentityNames...); err == nil {
		identity = v
	}
	if v, _, err := First(obj, SignalNames...); err == nil {
		signal = v
	}
	return identity, signal
}

// ToInt64 converts a probed value to int64. Integral floats are accepted;
// strings are not, to keep numeric identity fields from being guessed.
func ToInt64(v any) (int64, error) {
	if n, ok := v.(json.Number); ok {
		return n.Int64()
	}

	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, fmt.Errorf("nil %T", v)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, fmt.Errorf("value %v is not integral", f)
		}
		// float64(MaxInt64) rounds up to 2^63, which is already out of range.
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("value %v overflows int64", f)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", v)
	}
}

// ToString converts a probed value to string. Integers are formatted in
// base 10.
func ToString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case *string:
		if s == nil {
			return "", fmt.Errorf("nil string")
		}
		return *s, nil
	case []byte:
		return string(s), nil
	case json.Number:
		return s.String(), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	if n, err := ToInt64(v); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("value of type %T is not a string", v)
}
