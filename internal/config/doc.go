// Package config loads scribe's TOML configuration.
//
// # Discovery
//
// Load reads the path it is given, or ~/.config/scribe/config.toml when the
// path is blank. A missing file is not an error: Default() is returned so a
// fresh install talks to a local `scribe serve` without any setup.
//
// # File format
//
//	[remote]
//	backend  = "http"            # http | redis | memory
//	api_bind = "127.0.0.1:7490"  # used by the http backend
//	timeout  = "5s"
//
//	[redis]
//	addr       = "127.0.0.1:6379"
//	password   = ""
//	db         = 0
//	key_prefix = "scribe:"
//
//	[sync]
//	placeholder             = "Hi there!"
//	rollback_on_write_error = false
//	write_timeout           = "10s"
//
//	[log]
//	level = "info"
//	file  = "~/.local/share/scribe/scribe.log"
//
//	[server]
//	listen = "127.0.0.1:7490"    # defaults to remote.api_bind
//
// Every field is optional. Blank strings fall back to their defaults, paths
// starting with ~ are expanded, and durations use time.ParseDuration syntax.
//
// # Errors
//
// Load fails on unreadable files, invalid TOML ("parse config"), unknown
// backends, malformed or non-positive durations, and unknown log levels. Each
// error names the offending key.
package config
