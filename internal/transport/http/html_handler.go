package http

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ServeMainApp serves the main application page
func ServeMainApp(webDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexPath := filepath.Join(webDir, "index.html")

		// Check if index file exists
		if _, err := os.Stat(indexPath); os.IsNotExist(err) {
			http.Error(w, "Main application page not found", http.StatusNotFound)
			return
		}

		serveHTML(w, r, indexPath)
	}
}

// ServeTestPage serves a simple test page for debugging
func ServeTestPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>CSV Analyzer - Test Page</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .status { padding: 10px; margin: 10px 0; border-radius: 4px; }
        .info { background-color: #d1ecf1; color: #0c5460; }
        #events { font-family: monospace; font-size: 12px; white-space: pre-wrap; }
    </style>
</head>
<body>
    <h1>CSV Analyzer - Test Page</h1>
    <div class="status info">
        <strong>Status:</strong> Application is running
        <br><strong>Time:</strong> %s
    </div>
    <h2>Quick Links</h2>
    <ul>
        <li><a href="/api/v1/health">Health Check</a></li>
        <li><a href="/api/v1/version">Version Info</a></li>
        <li><a href="/api/v1/files">Input Files</a></li>
        <li><a href="/api/v1/reports">Reports</a></li>
        <li><a href="/metrics">Prometheus Metrics</a></li>
    </ul>
    <h2>Live Events</h2>
    <div id="events">connecting...</div>
    <script>
        const out = document.getElementById('events');
        const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
        const sock = new WebSocket(proto + '//' + location.host + '/ws');
        sock.onopen = () => { out.textContent = 'connected\n'; };
        sock.onmessage = (e) => { out.textContent += e.data + '\n'; };
        sock.onclose = () => { out.textContent += 'disconnected\n'; };
    </script>
</body>
</html>
		`, time.Now().Format("2006-01-02 15:04:05"))
	}
}

// serveHTML serves an HTML file with proper headers
func serveHTML(w http.ResponseWriter, r *http.Request, filePath string) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tmpl, err := template.ParseFiles(filePath)
	if err != nil {
		http.Error(w, "Error loading page", http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, nil); err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
}
