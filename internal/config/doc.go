// Package config loads botdash's TOML configuration.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/botdash/config.toml
//  3. If the file doesn't exist, use Default()
//  4. Fields that are missing or blank keep their defaults
//
// # TOML Format
//
//	api_base = "http://127.0.0.1:3001"
//	token = ""                 # sent as a bearer token when set
//	request_timeout = "5s"
//	stale_time = "10s"         # how long fetched data counts as fresh
//	gc_time = "5m"             # retention of unsubscribed cache entries
//	retry_attempts = 2         # read retries; mutations are never retried
//	retry_base = "1s"
//	status_interval = "30s"
//	guilds_interval = "5m"
//	server_interval = "0s"     # 0 disables polling of server panels
//	log_file = "~/.local/state/botdash/botdash.log"
//	log_level = "info"
//
// Durations use Go syntax (time.ParseDuration). Tilde expansion applies to
// the config path and log_file.
//
// # Error Handling
//
// A missing file is not an error. Unreadable files, TOML syntax errors,
// malformed durations and unknown log levels are, and they name the
// offending key.
package config
