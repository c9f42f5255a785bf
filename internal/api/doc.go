// Package api implements the HTTP gateway for the cell info service.
//
// The gateway exposes the single cell info operation over a JSON-RPC 2.0
// endpoint and a plain GET alias, streams acquisition events over SSE and
// serves health and Prometheus metrics. Every handler error is rendered by
// one error handler through ToRPCError.
package api
