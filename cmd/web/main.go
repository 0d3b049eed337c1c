// Command web runs the CSV analyzer HTTP server: the audit API, the
// websocket progress feed and the Prometheus scrape endpoint.
package main

import (
	"log/slog"
	"os"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
