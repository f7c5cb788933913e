// Package config loads settings for the package index command-line client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional JSON file named with -c/--config.
//  3. PKGINDEX_* environment variables.
//  4. Command-line flags, applied by the cli package.
//
// # JSON schema
//
// Durations accept strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "https://index.example.org",
//	  "request_timeout": "30s"
//	}
package config
