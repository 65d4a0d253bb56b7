package service

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint of the prediction service. Both the local
// server and the serverless entrypoint serve this handler. CORS wraps the
// whole router so preflight requests and error responses carry the headers
// too.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, accessLogMiddleware(h.logger))

	r.HandleFunc("/predict", h.Predict).Methods(http.MethodPost)
	r.HandleFunc("/predict/annotated", h.PredictAnnotated).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/metrics", h.Metrics).Methods(http.MethodGet)
	r.HandleFunc("/", h.Index).Methods(http.MethodGet, http.MethodHead)
	if h.static != nil {
		r.PathPrefix("/static/").
			Handler(http.StripPrefix("/static/", http.FileServer(h.static))).
			Methods(http.MethodGet, http.MethodHead)
	}

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)

	return corsMiddleware(r)
}
