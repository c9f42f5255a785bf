// Package audit records one append-only JSON line per cell info call.
//
// Each entry carries the caller subject, the requested method alias, the
// result code, the acquisition path and the record count. Files rotate by
// size through lumberjack.
package audit
