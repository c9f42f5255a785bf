package fake

import (
	"github.com/radio-control/cellinfo/internal/adapter"
)

// Identity is a scriptable identity object satisfying every static identity
// interface. Fields missing from Ints and Strings report ErrUnsupported;
// fields listed in Fail return that error; fields listed in Panic panic.
type Identity struct {
	Ints    map[string]int64
	Strings map[string]string
	Fail    map[string]error
	Panic   map[string]bool
}

func (i Identity) intField(name string) (int64, error) {
	if i.Panic[name] {
		panic("fake identity: " + name)
	}
	if err := i.Fail[name]; err != nil {
		return 0, err
	}
	v, ok := i.Ints[name]
	if !ok {
		return 0, adapter.ErrUnsupported
	}
	return v, nil
}

func (i Identity) stringField(name string) (string, error) {
	if i.Panic[name] {
		panic("fake identity: " + name)
	}
	if err := i.Fail[name]; err != nil {
		return "", err
	}
	v, ok := i.Strings[name]
	if !ok {
		return "", adapter.ErrUnsupported
	}
	return v, nil
}

func (i Identity) CID() (int64, error)       { return i.intField("cid") }
func (i Identity) CI() (int64, error)        { return i.intField("ci") }
func (i Identity) LAC() (int64, error)       { return i.intField("lac") }
func (i Identity) TAC() (int64, error)       { return i.intField("tac") }
func (i Identity) PCI() (int64, error)       { return i.intField("pci") }
func (i Identity) NCI() (int64, error)       { return i.intField("nci") }
func (i Identity) SystemID() (int64, error)  { return i.intField("systemId") }
func (i Identity) NetworkID() (int64, error) { return i.intField("networkId") }
func (i Identity) MCC() (string, error)      { return i.stringField("mcc") }
func (i Identity) MNC() (string, error)      { return i.stringField("mnc") }

// Signal is a fixed signal reading.
type Signal struct {
	Value int64
	Err   error
}

// Dbm implements adapter.SignalStrength.
func (s Signal) Dbm() (int64, error) {
	return s.Value, s.Err
}

// GSM returns a fully populated GSM cell.
func GSM(cid, lac int64, mcc, mnc string, dbm int64) adapter.GSMCell {
	return adapter.GSMCell{
		Identity: Identity{
			Ints:    map[string]int64{"cid": cid, "lac": lac},
			Strings: map[string]string{"mcc": mcc, "mnc": mnc},
		},
		Signal: Signal{Value: dbm},
	}
}

// WCDMA returns a fully populated WCDMA cell.
func WCDMA(cid, lac int64, mcc, mnc string, dbm int64) adapter.WCDMACell {
	return adapter.WCDMACell{
		Identity: Identity{
			Ints:    map[string]int64{"cid": cid, "lac": lac},
			Strings: map[string]string{"mcc": mcc, "mnc": mnc},
		},
		Signal: Signal{Value: dbm},
	}
}

// LTE returns a fully populated LTE cell.
func LTE(ci, tac, pci int64, mcc, mnc string, dbm int64) adapter.LTECell {
	return adapter.LTECell{
		Identity: Identity{
			Ints:    map[string]int64{"ci": ci, "tac": tac, "pci": pci},
			Strings: map[string]string{"mcc": mcc, "mnc": mnc},
		},
		Signal: Signal{Value: dbm},
	}
}

// CDMA returns a fully populated CDMA cell.
func CDMA(systemID, networkID, dbm int64) adapter.CDMACell {
	return adapter.CDMACell{
		Identity: Identity{
			Ints: map[string]int64{"systemId": systemID, "networkId": networkID},
		},
		Signal: Signal{Value: dbm},
	}
}

// NR returns an NR cell whose identity and signal are plain maps, so every
// field goes through the probe.
func NR(fields map[string]any) adapter.NRCell {
	return adapter.NRCell{Identity: fields, Signal: fields}
}
