// Package services implements the business logic layer of the analyzer.
// It provides a clean separation between HTTP handlers and the audit
// pipeline, ensuring that business rules are centralized and testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Stateless runs: one call is one audit, nothing is retained
//	5. Domain-focused methods that encapsulate business rules
//
// # Service Layer Responsibilities
//
// The service layer is responsible for:
//
//	- Input acquisition and validation
//	- Cross-cutting concerns (logging, metrics, span events)
//	- Error handling and transformation
//	- Concurrency for batch runs
//	- External API integration (Google Sheets)
//
// # Available Services
//
// The package provides these core services:
//
//	- AnalysisService: Runs single audits over text, files, workbooks,
//	  remote sheets and pre-tokenized rows
//	- BatchService: Audits directories with a bounded worker pool and
//	  websocket progress events
//	- DataService: Lists input files and generated report artifacts
//	- HealthService: Provides system health checks
//
// # Error Handling
//
// Services return typed AppErrors that handlers transform into RFC 7807
// responses:
//
//	- NO_INPUT for empty or absent input
//	- PARSING for malformed delimited text
//	- VALIDATION for rejected paths, extensions and sizes
//	- NOT_FOUND, STORAGE, NETWORK, CONFIG for acquisition failures
//
// # Testing
//
// Services are tested by substituting the source interfaces:
//
//	stub := &stubSheets{values: rows}
//	service := NewAnalysisService(cfg, nil, stub, nil, logger)
//
//	result, err := service.AnalyzeSheet(ctx, "sheet-id", "A1:D40")
package services
