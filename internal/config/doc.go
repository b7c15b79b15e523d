// Package config loads fluxstate runtime configuration.
//
// Configuration is assembled in layers, later layers overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, if one is given and exists
//  3. FLUXSTATE_* environment variables
//
// The loader subpackage reads the raw layers into maps; this package merges
// them and decodes the result into a Config. The watcher subpackage reports
// changes to configuration and scenario files.
//
// Example file:
//
//	log_level = "debug"
//
//	[dispatcher]
//	recover_from_panic = true
//	enable_metrics = true
//	queue = false
//	queue_buffer = 64
//
//	[script]
//	timeout = "2s"
package config
