// Package shared provides common utilities and test helpers used across
// the codebase. It is a home for functionality that does not belong to any
// specific domain or architectural layer.
//
// # Structure
//
// - testutil: slog capture handlers and log assertions for tests
//
// # Usage Guidelines
//
// This package should only contain:
//
// 1. Test utilities used by multiple packages
// 2. Generic helper functions with no domain-specific logic
//
// It should NOT contain business logic, audit semantics, or circular
// dependencies with other internal packages.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc := services.NewDataService(paths, logger)
//
//	    _, _ = svc.ListReports(context.Background())
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
