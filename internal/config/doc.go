// Package config provides centralized configuration management for the
// analyzer. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A .env file in the working directory (development convenience)
//	3. Configuration file (YAML)
//	4. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CSVA_* for namespacing:
//
//	CSVA_SERVER_PORT=8080
//	CSVA_LOGGING_LEVEL=debug
//	CSVA_ANALYSIS_BATCH_WORKERS=8
//	CSVA_ANALYSIS_MAX_INPUT_BYTES=52428800
//	CSVA_SHEETS_API_KEY=...
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	inputPath := paths.GetInputPath("dataset.csv")
//	reportPath := paths.GetReportPath("dataset_audit.json")
//
// # Validation
//
// All configuration is validated at load time to ensure required fields are
// present and values are within acceptable ranges.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
