// Package app provides application initialization and lifecycle management
// for the eventkpi web service.
//
// # Initialization Flow
//
// NewApplication loads the configuration and the process logger, then New
// wires the rest:
//
//	1. Resolve and create the data, exports and logs directories
//	2. Initialize OpenTelemetry and the business metrics
//	3. Open the configured blob store (none, file, postgres or sheets)
//	4. Build the loader, KPI engine, comparison and health services
//	5. Set up the middleware chain and the HTTP routes
//	6. Create the HTTP server
//
// New takes an explicit config and logger so tests can build an
// Application without touching the process environment.
//
// # Usage
//
//	app, err := app.NewApplication(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM. Stop drains in-flight requests within
// Server.ShutdownTimeout, closes the blob store and flushes telemetry.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
