// Package cell defines the normalized cell record schema shared by every
// platform, the technology classifier and the wire serializer.
//
// A Record is built fresh for every call and discarded after encoding. Every
// identity and signal field is optional: an unreadable value is carried as an
// invalid Opt and encoded as JSON null, never as an error.
//
// Wire layout per technology:
//   - GSM:     cid, lac, mcc, mnc, signalDbm
//   - LTE:     ci, cid (=ci), tac, mcc, mnc, pci, signalDbm
//   - WCDMA:   cid, lac, mcc, mnc, signalDbm
//   - NR:      nci, cid (=nci), tac, mcc, mnc, pci, signalDbm
//   - CDMA:    systemId, networkId, signalDbm
//   - UNKNOWN: type only
package cell
