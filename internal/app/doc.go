// Package app provides application initialization and lifecycle management
// for the CSV analyzer web server. It handles the orchestration of all major
// components including configuration loading, service initialization, and
// graceful shutdown procedures.
//
// # Architecture
//
// The app package follows a dependency injection pattern where all
// components are wired together at startup: configuration, logging,
// OpenTelemetry, the websocket hub, the audit services, the chi router
// and the HTTP server.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and observability
//	3. Initialize the websocket hub and audit services
//	4. Set up HTTP handlers and middleware
//	5. Configure and start the HTTP server
//	6. Set up graceful shutdown handlers
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals to ensure:
//
//	- Active requests are completed
//	- WebSocket connections are closed cleanly
//	- Metric collectors are stopped
//	- OpenTelemetry providers are flushed
//
// # Configuration
//
// The app package relies on the config package for all configuration
// needs. It supports both environment variables and configuration files.
//
// # Error Handling
//
// All initialization errors are returned to the caller for proper
// handling. The app does not call os.Exit() directly, allowing
// the main function to control the exit process.
package app