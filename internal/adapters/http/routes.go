package web

import (
	"net/http"

	"mailroom/internal/adapters/http/middleware"
)

func registerRoutes(mux *http.ServeMux, loginLimiter *middleware.RateLimiter) {
	mux.HandleFunc("GET /{$}", handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.Handle("POST /login", middleware.RateLimit(loginLimiter)(http.HandlerFunc(handleLogin)))
	mux.HandleFunc("POST /logout", handleLogout)

	mux.HandleFunc("POST /contacts", handleUploadContacts)
	mux.HandleFunc("POST /generate", handleGenerate)
	mux.HandleFunc("POST /send", handleSend)

	mux.HandleFunc("GET /api/batches", handleListBatches)
	mux.HandleFunc("GET /api/batches/{id}", handleGetBatch)
}
