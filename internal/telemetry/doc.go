// Package telemetry streams cell info call events to Server-Sent Events
// clients.
//
// Every call publishes a "cellinfo" event carrying the method, result code,
// acquisition path and record count. Events get monotonic IDs and are kept
// in a bounded buffer, so a client reconnecting with Last-Event-ID resumes
// where it left off. Heartbeats keep idle connections alive.
package telemetry
