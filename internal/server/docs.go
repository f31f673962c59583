package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v2"
)

// setupDocsRoutes serves the OpenAPI document and a Swagger UI shell.
func (s *Server) setupDocsRoutes(r *mux.Router) {
	r.HandleFunc("/docs/openapi.yaml", s.handleOpenAPISpec).Methods("GET")
	r.HandleFunc("/docs/openapi.json", s.handleOpenAPISpec).Methods("GET")
	r.HandleFunc("/docs", s.handleDocsUI).Methods("GET")
	r.HandleFunc("/docs/", s.handleDocsUI).Methods("GET")
}

// handleOpenAPISpec serves the OpenAPI document, converting to JSON
// when the .json path is requested.
func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	specPath := filepath.Join("docs", "openapi.yaml")

	if strings.HasSuffix(r.URL.Path, ".json") {
		yamlData, err := os.ReadFile(specPath)
		if err != nil {
			http.Error(w, "OpenAPI spec not found", http.StatusNotFound)
			return
		}

		var spec interface{}
		if err := yaml.Unmarshal(yamlData, &spec); err != nil {
			http.Error(w, "Error parsing OpenAPI spec", http.StatusInternalServerError)
			return
		}

		jsonData, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			http.Error(w, "Error converting to JSON", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(jsonData)
		return
	}

	w.Header().Set("Content-Type", "text/yaml")
	http.ServeFile(w, r, specPath)
}

// handleDocsUI serves a minimal Swagger UI page pointed at the spec.
func (s *Server) handleDocsUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	specURL := fmt.Sprintf("%s/docs/openapi.yaml", baseURL(r))
	html := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>LLM Decision Engine - API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '%s',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset],
                layout: "StandaloneLayout",
                docExpansion: "list",
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`, specURL)

	w.Write([]byte(html))
}

// baseURL reconstructs the externally visible base URL, honoring
// reverse-proxy headers.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}
