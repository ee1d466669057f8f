package server

import (
	"fmt"
	"net/http"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo(httpServer *http.Server) {
	scheme := "http"
	if httpServer.TLSConfig != nil {
		scheme = "https"
	}
	fmt.Printf("careercoach %s listening on %s://%s (TLS mode: %s)\n",
		s.version, scheme, httpServer.Addr, tlsModeLabel(s.cfg.Server.TLS.Mode))

	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displayAutoReloadInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health                  - Health check")
	fmt.Println("  GET  /stats                   - Server statistics")
	if s.om.PrometheusHandler() != nil {
		fmt.Printf("  GET  %-24s - Prometheus metrics\n", s.cfg.Observability.Prometheus.Endpoint)
	}
	fmt.Println("  GET  /api/v1/prompts          - Languages, chat topics and analysis options")
	fmt.Println("  POST /api/v1/generate         - Generate code")
	fmt.Println("  GET  /api/v1/history          - Code generation history")
	fmt.Println("  POST /api/v1/reset            - Reset code generation or all usage data")
	fmt.Println("  POST /api/v1/chat             - Ask the interview chatbot")
	fmt.Println("  POST /api/v1/analyze          - Analyze a resume")
	fmt.Println("  GET  /api/v1/analysis/export  - Download the last analysis")
	fmt.Println("  GET  /api/v1/stats            - Session usage analytics")
	fmt.Printf("Sessions are selected with the '%s' header\n", s.cfg.Server.SessionHeader)
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if n := s.apiKeyCount(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /api/v1")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if size := s.cfg.Server.MaxRequestSize; size > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", size, float64(size)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	rl := s.cfg.Server.RateLimit
	if !rl.Enabled {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n", rl.RequestsPerMin, rl.BurstCapacity)
	if rl.ByAPIKey {
		fmt.Println("  - Per API key rate limiting enabled")
	}
	if rl.ByIP {
		fmt.Println("  - Per IP address rate limiting enabled")
	}
}

// displayAutoReloadInfo shows how certificates and keys are refreshed
func (s *Server) displayAutoReloadInfo() {
	if s.certWatcher != nil {
		fmt.Printf("TLS auto-reload: watching %v\n", s.certWatcher.Files())
	}
	for name := range s.vaultWatchers {
		fmt.Printf("Vault watcher: %s\n", name)
	}
}

func tlsModeLabel(mode string) string {
	switch mode {
	case "server":
		return "server-only"
	case "mutual":
		return "mutual"
	default:
		return "disabled"
	}
}
