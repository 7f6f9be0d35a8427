// Package guides serves the embedded guide library over HTTP.
package guides

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/nativeways/pathways/internal/server"
	pkgguides "github.com/nativeways/pathways/pkg/guides"
)

// Handler serves the guide endpoints.
type Handler struct {
	library *pkgguides.Library
	logger  *zap.Logger
}

// NewHandler creates a guides handler backed by the given library.
func NewHandler(library *pkgguides.Library, logger *zap.Logger) *Handler {
	return &Handler{library: library, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/guides", h.handleList)
	mux.HandleFunc("GET /api/v1/guides/{slug}", h.handleGet)
}

// handleList returns every guide without its body, for index pages.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.library.All()
	if err != nil {
		h.logger.Error("guides load failed", zap.Error(err))
		server.InternalError(w, "unable to load guides", r.URL.Path)
		return
	}

	for i := range all {
		all[i].Body = ""
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(all)
}

// handleGet returns one guide with its full body.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	g, ok, err := h.library.Get(slug)
	if err != nil {
		h.logger.Error("guides load failed", zap.Error(err))
		server.InternalError(w, "unable to load guides", r.URL.Path)
		return
	}
	if !ok {
		server.NotFound(w, "no guide with that slug", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(g)
}
