package listing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nativeways/pathways/internal/server"
	"github.com/nativeways/pathways/pkg/models"
)

// SearchResponse groups search results by directory.
type SearchResponse struct {
	Query        string           `json:"query"`
	Grants       []models.Listing `json:"grants"`
	Scholarships []models.Listing `json:"scholarships"`
	Resources    []models.Listing `json:"resources"`
}

// Handler serves the public listing and search endpoints.
type Handler struct {
	engine   *Engine
	resolver *Resolver
	pageSize int
	logger   *zap.Logger
}

// NewHandler creates the listing API handler. pageSize applies to every
// directory page; it is fixed per deployment, not caller-controlled.
func NewHandler(engine *Engine, resolver *Resolver, pageSize int, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, resolver: resolver, pageSize: pageSize, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/grants", h.listHandler(models.KindGrant))
	mux.HandleFunc("GET /api/v1/scholarships", h.listHandler(models.KindScholarship))
	mux.HandleFunc("GET /api/v1/resources", h.listHandler(models.KindResource))
	mux.HandleFunc("GET /api/v1/search", h.handleSearch)
}

// listHandler returns the paginated listing handler for one kind. Filter
// parsing never fails; store failures surface as a retryable 500 problem.
func (h *Handler) listHandler(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria := ParseCriteria(r.URL.Query(), kind, h.pageSize)

		page, err := h.engine.Page(r.Context(), criteria)
		if err != nil {
			var qe *QueryError
			if errors.As(err, &qe) {
				h.logger.Error("listing query failed",
					zap.String("kind", string(kind)),
					zap.String("op", qe.Op),
					zap.Error(qe.Err),
				)
			} else {
				h.logger.Error("listing page failed", zap.String("kind", string(kind)), zap.Error(err))
			}
			server.InternalError(w, "unable to load listings", r.URL.Path)
			return
		}

		writeJSON(w, page)
	}
}

// handleSearch answers free-text search across all three directories.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		server.BadRequest(w, "missing search query parameter 'q'", r.URL.Path)
		return
	}

	results, err := h.resolver.SearchAll(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		server.InternalError(w, "unable to run search", r.URL.Path)
		return
	}

	writeJSON(w, SearchResponse{
		Query:        query,
		Grants:       results[models.KindGrant],
		Scholarships: results[models.KindScholarship],
		Resources:    results[models.KindResource],
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
