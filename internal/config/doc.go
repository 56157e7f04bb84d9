// Package config provides configuration management for the link router.
//
// Configuration is loaded from environment variables and validated on startup.
// All configuration options have sensible defaults for development.
//
// Rewrite rules are given as JSON:
//
//	REWRITE_RULES='[{"condition": "token == \"starred\"", "target": "mine,starred"}]'
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
package config
