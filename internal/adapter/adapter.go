package adapter

import (
	"context"

	"github.com/radio-control/cellinfo/internal/cell"
)

// RawCell is one entry of a platform cell list.
type RawCell interface {
	// Technology returns the platform's raw technology tag.
	Technology() string
}

// ITelephonyAdapter defines the stable platform contract.
type ITelephonyAdapter interface {
	// CachedCells returns the platform's last-known cell snapshot.
	// Order is the platform-reported order.
	CachedCells(ctx context.Context) ([]RawCell, error)
}

// CellCallback receives the outcome of a live cell update request.
// Exactly one of its methods is expected to fire per request.
type CellCallback interface {
	OnCellInfo(cells []RawCell)
	OnError(code int, detail error)
}

// LiveRequester is implemented by platforms that can request a fresh cell
// update asynchronously.
type LiveRequester interface {
	// SupportsLiveUpdates reports whether the running platform revision
	// offers the live request at all.
	SupportsLiveUpdates() bool

	// RequestCellUpdate issues one live request. The callback may fire on
	// any goroutine. A returned error means the request was never issued.
	RequestCellUpdate(ctx context.Context, cb CellCallback) error
}

// PermissionChecker is implemented by platforms that can report whether the
// location capability needed to read cells has been granted.
type PermissionChecker interface {
	LocationPermissionGranted(ctx context.Context) bool
}

// SubscriptionLister is implemented by multi-subscription platforms.
type SubscriptionLister interface {
	// ServiceIDs returns the subscription service identifiers, in no
	// particular order.
	ServiceIDs(ctx context.Context) ([]string, error)
}

// Introspectable is implemented by platforms that expose their underlying
// telephony handle for best-effort attribute probing.
type Introspectable interface {
	PlatformHandle() any
}

// Accessor reads one field from a platform object. A nil Accessor marks the
// field as unsupported on the running platform revision.
type Accessor[T any] func() (T, error)

// Supported reports whether the accessor resolved.
func (a Accessor[T]) Supported() bool {
	return a != nil
}

// Read calls the accessor, returning ErrUnsupported when it did not resolve.
func (a Accessor[T]) Read() (T, error) {
	if a == nil {
		var zero T
		return zero, ErrUnsupported
	}
	return a()
}

// SignalStrength reads the reported signal level.
type SignalStrength interface {
	Dbm() (int64, error)
}

// GSMIdentity reads GSM cell identity fields.
type GSMIdentity interface {
	CID() (int64, error)
	LAC() (int64, error)
	MCC() (string, error)
	MNC() (string, error)
}

// WCDMAIdentity reads WCDMA cell identity fields.
type WCDMAIdentity interface {
	CID() (int64, error)
	LAC() (int64, error)
	MCC() (string, error)
	MNC() (string, error)
}

// LTEIdentity reads LTE cell identity fields.
type LTEIdentity interface {
	CI() (int64, error)
	TAC() (int64, error)
	MCC() (string, error)
	MNC() (string, error)
	PCI() (int64, error)
}

// CDMAIdentity reads CDMA cell identity fields.
type CDMAIdentity interface {
	SystemID() (int64, error)
	NetworkID() (int64, error)
}

// NRIdentity is the statically typed NR identity surface. Platform objects
// that do not satisfy it are resolved dynamically.
type NRIdentity interface {
	NCI() (int64, error)
	TAC() (int64, error)
	MCC() (string, error)
	MNC() (string, error)
	PCI() (int64, error)
}

// GSMCell is a GSM cell entry.
type GSMCell struct {
	Identity GSMIdentity
	Signal   SignalStrength
}

// Technology implements RawCell.
func (GSMCell) Technology() string { return "CellInfoGsm" }

// WCDMACell is a WCDMA cell entry.
type WCDMACell struct {
	Identity WCDMAIdentity
	Signal   SignalStrength
}

// Technology implements RawCell.
func (WCDMACell) Technology() string { return "CellInfoWcdma" }

// LTECell is an LTE cell entry.
type LTECell struct {
	Identity LTEIdentity
	Signal   SignalStrength
}

// Technology implements RawCell.
func (LTECell) Technology() string { return "CellInfoLte" }

// CDMACell is a CDMA cell entry.
type CDMACell struct {
	Identity CDMAIdentity
	Signal   SignalStrength
}

// Technology implements RawCell.
func (CDMACell) Technology() string { return "CellInfoCdma" }

// NRCell is an NR cell entry. Identity and Signal are platform objects whose
// accessor names vary by revision; they may also satisfy NRIdentity and
// SignalStrength directly.
type NRCell struct {
	Identity any
	Signal   any
}

// Technology implements RawCell.
func (NRCell) Technology() string { return "CellInfoNr" }

// OpaqueCell is an entry whose shape is not statically known. Tag is the raw
// technology tag and Object the platform record, probed by name.
type OpaqueCell struct {
	Tag    string
	Object any
}

// Technology implements RawCell.
func (c OpaqueCell) Technology() string { return c.Tag }

// SubscriptionCell is a per-subscription entry reported by platforms that
// expose carrier data but no per-cell identity.
type SubscriptionCell struct {
	// ServiceID is absent on platforms with a single provider.
	ServiceID       cell.Opt[string]
	RadioTechnology string
	Carrier         Carrier
}

// Technology implements RawCell.
func (c SubscriptionCell) Technology() string { return c.RadioTechnology }

// Carrier holds subscription carrier attributes.
type Carrier struct {
	Name              cell.Opt[string]
	ISOCountryCode    cell.Opt[string]
	MobileCountryCode cell.Opt[string]
	MobileNetworkCode cell.Opt[string]
}

// AdapterBase provides common functionality for adapter implementations.
type AdapterBase struct {
	// PlatformID identifies the platform family ("android", "ios", ...)
	PlatformID string

	// Revision is the platform API revision the adapter runs against
	Revision int

	// Status indicates the current platform status
	Status string
}

// GetPlatformID returns the platform identifier.
func (a *AdapterBase) GetPlatformID() string {
	return a.PlatformID
}

// GetRevision returns the platform API revision.
func (a *AdapterBase) GetRevision() int {
	return a.Revision
}

// GetStatus returns the platform status.
func (a *AdapterBase) GetStatus() string {
	return a.Status
}

// SetStatus updates the platform status.
func (a *AdapterBase) SetStatus(status string) {
	a.Status = status
}
