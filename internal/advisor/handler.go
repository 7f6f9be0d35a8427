package advisor

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nativeways/pathways/internal/server"
)

// maxQuestionLen bounds a single chat question.
const maxQuestionLen = 2000

// ChatRequest is the body for POST /api/v1/advisor/chat.
type ChatRequest struct {
	Question string `json:"question"`
}

// Handler serves the advisor chat endpoints.
type Handler struct {
	advisor *Advisor
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHandler creates the advisor API handler. perMinute caps LLM calls
// across all callers; the advisor fronts a single local model.
func NewHandler(advisor *Advisor, perMinute int, logger *zap.Logger) *Handler {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Handler{
		advisor: advisor,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		logger:  logger,
	}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/advisor/chat", h.handleChat)
	mux.HandleFunc("GET /api/v1/advisor/ws", h.handleWebsocket)
}

// handleChat answers a single question.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" || len(question) > maxQuestionLen {
		server.BadRequest(w, "question must be between 1 and 2000 characters", r.URL.Path)
		return
	}

	if !h.limiter.Allow() {
		server.RateLimited(w, "advisor is busy, try again shortly", r.URL.Path)
		return
	}

	reply, err := h.advisor.Ask(r.Context(), question)
	if err != nil {
		h.logger.Error("advisor chat failed", zap.Error(err))
		server.InternalError(w, "unable to answer right now", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

// wsError is the error frame sent to websocket clients.
type wsError struct {
	Error string `json:"error"`
}

// handleWebsocket runs a chat session over a websocket: each text frame is a
// question, each reply frame is a Reply JSON object.
func (h *Handler) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session ended")

	ctx := r.Context()
	for {
		var req ChatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			// Normal close or client gone.
			return
		}

		question := strings.TrimSpace(req.Question)
		if question == "" || len(question) > maxQuestionLen {
			_ = wsjson.Write(ctx, conn, wsError{Error: "question must be between 1 and 2000 characters"})
			continue
		}

		if !h.limiter.Allow() {
			_ = wsjson.Write(ctx, conn, wsError{Error: "advisor is busy, try again shortly"})
			continue
		}

		reply, err := h.advisor.Ask(ctx, question)
		if err != nil {
			h.logger.Error("advisor websocket turn failed", zap.Error(err))
			_ = wsjson.Write(ctx, conn, wsError{Error: "unable to answer right now"})
			continue
		}

		if err := wsjson.Write(ctx, conn, reply); err != nil {
			return
		}
	}
}
