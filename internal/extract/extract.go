// Package extract builds normalized cell records from platform cell entries.
//
// GSM, WCDMA, LTE and CDMA entries are read through the stable accessor
// interfaces of package adapter. NR entries, and any entry whose concrete
// shape is unknown, are read through package probe. Every field read is
// guarded on its own: an error or panic turns that field into null and the
// rest of the record is still built.
package extract

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/adapter/probe"
	"github.com/radio-control/cellinfo/internal/cell"
)

// Extractor converts raw platform cells into records.
type Extractor struct {
	logger *zap.Logger
}

// New creates an extractor. A nil logger disables logging.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractAll converts a platform cell list, preserving order. Nil entries are
// skipped. The result is never nil.
func (e *Extractor) ExtractAll(raws []adapter.RawCell) []cell.Record {
	records := make([]cell.Record, 0, len(raws))
	for i, raw := range raws {
		if isNilCell(raw) {
			e.logger.Debug("skipping nil platform cell", zap.Int("index", i))
			continue
		}
		records = append(records, e.Extract(raw))
	}
	return records
}

// Extract converts one platform cell. It never fails: a cell whose technology
// cannot be determined yields an UNKNOWN record.
func (e *Extractor) Extract(raw adapter.RawCell) (rec cell.Record) {
	t := cell.Unknown
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("cell extraction panicked",
				zap.String("type", string(t)),
				zap.String("panic", fmt.Sprint(r)))
			rec = cell.Record{Type: t}
		}
	}()

	if rv := reflect.ValueOf(raw); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		if c, ok := rv.Elem().Interface().(adapter.RawCell); ok {
			raw = c
		}
	}
	t = cell.Classify(raw.Technology())

	switch c := raw.(type) {
	case adapter.SubscriptionCell:
		return e.subscription(t, c)
	case adapter.GSMCell:
		return e.gsm(c)
	case adapter.WCDMACell:
		return e.wcdma(c)
	case adapter.LTECell:
		return e.lte(c)
	case adapter.CDMACell:
		return e.cdma(c)
	case adapter.NRCell:
		return e.nr(c.Identity, c.Signal)
	case adapter.OpaqueCell:
		return e.dynamic(t, c.Object)
	default:
		return e.dynamic(t, raw)
	}
}

func (e *Extractor) gsm(c adapter.GSMCell) cell.Record {
	rec := cell.Record{Type: cell.GSM}
	if id := c.Identity; id != nil {
		rec.CID = read(e.logger, rec.Type, "cid", id.CID)
		rec.LAC = read(e.logger, rec.Type, "lac", id.LAC)
		rec.MCC = read(e.logger, rec.Type, "mcc", id.MCC)
		rec.MNC = read(e.logger, rec.Type, "mnc", id.MNC)
	}
	rec.SignalDbm = e.signal(rec.Type, c.Signal)
	return rec
}

func (e *Extractor) wcdma(c adapter.WCDMACell) cell.Record {
	rec := cell.Record{Type: cell.WCDMA}
	if id := c.Identity; id != nil {
		rec.CID = read(e.logger, rec.Type, "cid", id.CID)
		rec.LAC = read(e.logger, rec.Type, "lac", id.LAC)
		rec.MCC = read(e.logger, rec.Type, "mcc", id.MCC)
		rec.MNC = read(e.logger, rec.Type, "mnc", id.MNC)
	}
	rec.SignalDbm = e.signal(rec.Type, c.Signal)
	return rec
}

func (e *Extractor) lte(c adapter.LTECell) cell.Record {
	rec := cell.Record{Type: cell.LTE}
	if id := c.Identity; id != nil {
		rec.CI = read(e.logger, rec.Type, "ci", id.CI)
		rec.TAC = read(e.logger, rec.Type, "tac", id.TAC)
		rec.MCC = read(e.logger, rec.Type, "mcc", id.MCC)
		rec.MNC = read(e.logger, rec.Type, "mnc", id.MNC)
		rec.PCI = read(e.logger, rec.Type, "pci", id.PCI)
	}
	rec.SignalDbm = e.signal(rec.Type, c.Signal)
	rec.CID = rec.CI
	return rec
}

func (e *Extractor) cdma(c adapter.CDMACell) cell.Record {
	rec := cell.Record{Type: cell.CDMA}
	if id := c.Identity; id != nil {
		rec.SystemID = read(e.logger, rec.Type, "systemId", id.SystemID)
		rec.NetworkID = read(e.logger, rec.Type, "networkId", id.NetworkID)
	}
	rec.SignalDbm = e.signal(rec.Type, c.Signal)
	return rec
}

// nr reads statically when the identity object offers the typed surface and
// probes by name otherwise.
func (e *Extractor) nr(identity, signal any) cell.Record {
	rec := cell.Record{Type: cell.NR}

	if id, ok := identity.(adapter.NRIdentity); ok {
		rec.NCI = read(e.logger, rec.Type, "nci", id.NCI)
		rec.TAC = read(e.logger, rec.Type, "tac", id.TAC)
		rec.MCC = read(e.logger, rec.Type, "mcc", id.MCC)
		rec.MNC = read(e.logger, rec.Type, "mnc", id.MNC)
		rec.PCI = read(e.logger, rec.Type, "pci", id.PCI)
	} else {
		acc := probe.ResolveNR(identity, signal)
		rec.NCI = read(e.logger, rec.Type, "nci", acc.NCI.Read)
		rec.TAC = read(e.logger, rec.Type, "tac", acc.TAC.Read)
		rec.MCC = read(e.logger, rec.Type, "mcc", acc.MCC.Read)
		rec.MNC = read(e.logger, rec.Type, "mnc", acc.MNC.Read)
		rec.PCI = read(e.logger, rec.Type, "pci", acc.PCI.Read)
	}

	if s, ok := signal.(adapter.SignalStrength); ok {
		rec.SignalDbm = read(e.logger, rec.Type, "signalDbm", s.Dbm)
	} else {
		dbm := probe.ResolveInt(signal, probe.Tables[cell.NR]["signalDbm"])
		rec.SignalDbm = read(e.logger, rec.Type, "signalDbm", dbm.Read)
	}

	rec.CID = rec.NCI
	return rec
}

// dynamic probes an object of unknown shape using the candidate table of
// its classified technology.
func (e *Extractor) dynamic(t cell.Type, obj any) cell.Record {
	if t == cell.Unknown {
		return cell.NewUnknown()
	}

	identity, signal := probe.Split(obj)
	if t == cell.NR {
		return e.nr(identity, signal)
	}

	table := probe.Tables[t]
	num := func(field string) cell.Opt[int64] {
		src := identity
		if field == "signalDbm" {
			src = signal
		}
		return read(e.logger, t, field, probe.ResolveInt(src, table[field]).Read)
	}
	str := func(field string) cell.Opt[string] {
		return read(e.logger, t, field, probe.ResolveString(identity, table[field]).Read)
	}

	rec := cell.Record{Type: t}
	switch t {
	case cell.GSM, cell.WCDMA:
		rec.CID = num("cid")
		rec.LAC = num("lac")
		rec.MCC = str("mcc")
		rec.MNC = str("mnc")
	case cell.LTE:
		rec.CI = num("ci")
		rec.TAC = num("tac")
		rec.MCC = str("mcc")
		rec.MNC = str("mnc")
		rec.PCI = num("pci")
		rec.CID = rec.CI
	case cell.CDMA:
		rec.SystemID = num("systemId")
		rec.NetworkID = num("networkId")
	}
	rec.SignalDbm = num("signalDbm")
	return rec
}

func (e *Extractor) subscription(t cell.Type, c adapter.SubscriptionCell) cell.Record {
	return cell.Record{
		Type: t,
		Subscription: &cell.Subscription{
			ServiceID:         c.ServiceID,
			CarrierName:       c.Carrier.Name,
			ISOCountryCode:    c.Carrier.ISOCountryCode,
			MobileCountryCode: c.Carrier.MobileCountryCode,
			MobileNetworkCode: c.Carrier.MobileNetworkCode,
		},
	}
}

func (e *Extractor) signal(t cell.Type, s adapter.SignalStrength) cell.Opt[int64] {
	if s == nil {
		return cell.None[int64]()
	}
	return read(e.logger, t, "signalDbm", s.Dbm)
}

// read calls one accessor, turning an error or panic into an absent value.
func read[T any](logger *zap.Logger, t cell.Type, field string, fn func() (T, error)) (out cell.Opt[T]) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("field read panicked",
				zap.String("type", string(t)),
				zap.String("field", field),
				zap.String("panic", fmt.Sprint(r)))
			out = cell.None[T]()
		}
	}()

	v, err := fn()
	if err != nil {
		logger.Debug("field unavailable",
			zap.String("type", string(t)),
			zap.String("field", field),
			zap.Error(err))
		return cell.None[T]()
	}
	return cell.Some(v)
}

func isNilCell(raw adapter.RawCell) bool {
	if raw == nil {
		return true
	}
	rv := reflect.ValueOf(raw)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
