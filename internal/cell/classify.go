package cell

import "strings"

const iosTechnologyPrefix = "CTRADIOACCESSTECHNOLOGY"

// technologyTable maps normalized raw tags to canonical categories. Keys
// cover Android network-type names, Android CellInfo class names and iOS
// radio access technology constants (prefix stripped).
var technologyTable = map[string]Type{
	// GSM family
	"GSM":         GSM,
	"GPRS":        GSM,
	"EDGE":        GSM,
	"CELLINFOGSM": GSM,

	// WCDMA family
	"WCDMA":           WCDMA,
	"UMTS":            WCDMA,
	"HSDPA":           WCDMA,
	"HSUPA":           WCDMA,
	"HSPA":            WCDMA,
	"HSPAP":           WCDMA,
	"TD_SCDMA":        WCDMA,
	"TDSCDMA":         WCDMA,
	"CELLINFOWCDMA":   WCDMA,
	"CELLINFOTDSCDMA": WCDMA,

	// CDMA family
	"CDMA":         CDMA,
	"CDMA1X":       CDMA,
	"1XRTT":        CDMA,
	"EVDO_0":       CDMA,
	"EVDO_A":       CDMA,
	"EVDO_B":       CDMA,
	"CDMAEVDOREV0": CDMA,
	"CDMAEVDOREVA": CDMA,
	"CDMAEVDOREVB": CDMA,
	"CELLINFOCDMA": CDMA,

	// LTE
	"LTE":         LTE,
	"LTE_CA":      LTE,
	"CELLINFOLTE": LTE,

	// NR
	"NR":         NR,
	"NR_NSA":     NR,
	"NRNSA":      NR,
	"CELLINFONR": NR,
}

// Classify maps a raw radio technology tag to its canonical category.
// Unrecognized or empty tags map to Unknown.
func Classify(raw string) Type {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	tag = strings.TrimPrefix(tag, iosTechnologyPrefix)
	tag = strings.NewReplacer("-", "_", " ", "_").Replace(tag)
	if t, ok := technologyTable[tag]; ok {
		return t
	}
	return Unknown
}
