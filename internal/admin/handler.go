package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nativeways/pathways/internal/server"
	"github.com/nativeways/pathways/internal/services"
	"github.com/nativeways/pathways/pkg/models"
)

// LoginRequest is the body for POST /api/v1/admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Handler serves the admin console API.
type Handler struct {
	listings services.ListingRepository
	users    services.UserRepository
	issuer   *TokenIssuer
	logger   *zap.Logger
}

// NewHandler creates the admin API handler.
func NewHandler(listings services.ListingRepository, users services.UserRepository, issuer *TokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{listings: listings, users: users, issuer: issuer, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/admin/login", h.handleLogin)

	auth := h.issuer.RequireAuth
	mux.HandleFunc("GET /api/v1/admin/listings", auth(h.handleList))
	mux.HandleFunc("GET /api/v1/admin/listings/{id}", auth(h.handleGet))
	mux.HandleFunc("POST /api/v1/admin/listings", auth(h.handleCreate))
	mux.HandleFunc("PUT /api/v1/admin/listings/{id}", auth(h.handleUpdate))
	mux.HandleFunc("DELETE /api/v1/admin/listings/{id}", auth(h.handleDelete))
	mux.HandleFunc("POST /api/v1/admin/listings/{id}/restore", auth(h.handleRestore))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil || user.Disabled || !services.CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown user and wrong password.
		server.Unauthorized(w, "invalid credentials", r.URL.Path)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		server.InternalError(w, "unable to start session", r.URL.Path)
		return
	}

	if err := h.users.TouchLastLogin(r.Context(), user.ID, time.Now().UTC()); err != nil {
		h.logger.Warn("record last login failed", zap.String("user", user.ID), zap.Error(err))
	}

	writeJSON(w, LoginResponse{Token: token})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ListingFilter{
		Kind:           models.Kind(q.Get("kind")),
		IncludeDeleted: q.Get("deleted") == "true",
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		server.BadRequest(w, "unknown listing kind", r.URL.Path)
		return
	}

	opts := services.ListOptions{SortBy: q.Get("sort_by"), SortOrder: q.Get("sort_order")}

	result, err := h.listings.List(r.Context(), filter, opts)
	if err != nil {
		h.logger.Error("admin list failed", zap.Error(err))
		server.InternalError(w, "unable to list listings", r.URL.Path)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	l, err := h.listings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			server.NotFound(w, "listing not found", r.URL.Path)
			return
		}
		h.logger.Error("admin get failed", zap.String("id", id), zap.Error(err))
		server.InternalError(w, "unable to load listing", r.URL.Path)
		return
	}
	writeJSON(w, l)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var l models.Listing
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if detail := validateListing(&l); detail != "" {
		server.BadRequest(w, detail, r.URL.Path)
		return
	}

	if err := h.listings.Create(r.Context(), &l); err != nil {
		h.logger.Error("admin create failed", zap.Error(err))
		server.InternalError(w, "unable to create listing", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(&l)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var l models.Listing
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	l.ID = r.PathValue("id")
	if detail := validateListing(&l); detail != "" {
		server.BadRequest(w, detail, r.URL.Path)
		return
	}

	if err := h.listings.Update(r.Context(), &l); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			server.NotFound(w, "listing not found", r.URL.Path)
			return
		}
		h.logger.Error("admin update failed", zap.String("id", l.ID), zap.Error(err))
		server.InternalError(w, "unable to update listing", r.URL.Path)
		return
	}
	writeJSON(w, &l)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.listings.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			server.NotFound(w, "listing not found", r.URL.Path)
			return
		}
		h.logger.Error("admin delete failed", zap.String("id", id), zap.Error(err))
		server.InternalError(w, "unable to delete listing", r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.listings.Restore(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			server.NotFound(w, "no deleted listing with that id", r.URL.Path)
			return
		}
		h.logger.Error("admin restore failed", zap.String("id", id), zap.Error(err))
		server.InternalError(w, "unable to restore listing", r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateListing checks required fields and consistency; returns a problem
// detail string, empty when valid.
func validateListing(l *models.Listing) string {
	if !l.Kind.Valid() {
		return "kind must be grant, scholarship, or resource"
	}
	if strings.TrimSpace(l.Title) == "" {
		return "title is required"
	}
	if l.Category != "" && !models.ValidCategory(l.Kind, l.Category) {
		return "unknown category for kind " + string(l.Kind)
	}
	if l.AmountMin != nil && l.AmountMax != nil && *l.AmountMin > *l.AmountMax {
		return "amount_min must not exceed amount_max"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
