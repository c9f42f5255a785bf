// Package platform keeps the inventory of attached telephony adapters and
// which one answers cell info calls.
package platform
