package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Inbound channel webhooks
	mux.HandleFunc("/webhook/whatsapp", s.app.WhatsAppHandler.HandleWebhook)
	mux.HandleFunc("/webhook/telegram", s.app.TelegramHandler.HandleWebhook)

	// Live pipeline event feed
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// Status
	mux.HandleFunc("/healthz", s.app.StatusHandler.HandleHealth)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HandleHealth)
	mux.HandleFunc("/api/version", s.app.StatusHandler.HandleVersion)

	return mux
}
