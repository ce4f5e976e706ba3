// Package config provides centralized configuration management for eventkpi.
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML file (config.yaml or configs/config.yaml)
//	3. Default values (lowest priority)
//
// All environment variables use the EVENTKPI_ prefix:
//
//	EVENTKPI_SERVER_PORT=8080
//	EVENTKPI_STORAGE_BACKEND=postgres
//	EVENTKPI_STORAGE_DATABASE_URL=postgres://...
//	EVENTKPI_LOGGING_LEVEL=debug
//
// Tests should use Default(), which needs no environment or files.
package config
