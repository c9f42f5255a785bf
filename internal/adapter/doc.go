// Package adapter defines the platform telephony adapter interface for the
// Cell Info Container.
//
// Platform adapters wrap an operating system's telephony service. The
// ITelephonyAdapter interface is the stable contract the acquisition core
// depends on; optional interfaces (LiveRequester, PermissionChecker,
// SubscriptionLister, Introspectable) advertise what a given platform can do.
//
// Raw cells are typed per technology. Each field is read through an accessor
// that may fail independently; the extractor turns failures into nulls.
// Technologies whose accessor surface moves between platform revisions are
// delivered as opaque objects and resolved by the probe subpackage.
package adapter
