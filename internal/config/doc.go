// Package config loads cellinfod configuration.
//
// Values are layered, lowest precedence first: built-in defaults, an optional
// YAML file, then CELLINFO_* environment variables. The merged result is
// validated before use.
//
//	CELLINFO_SERVER_ADDR          -> server.addr
//	CELLINFO_AUTH_SECRET_KEY      -> auth.secret_key
//	CELLINFO_TELEMETRY_HEARTBEAT_INTERVAL -> telemetry.heartbeat_interval
package config
