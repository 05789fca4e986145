package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/finassist-platform/finassist/internal/api"
	"github.com/finassist-platform/finassist/internal/auth"
)

type Handler struct {
	orch     *Orchestrator
	validate *validator.Validate
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{
		orch:     orch,
		validate: validator.New(),
	}
}

type askRequest struct {
	Question string `json:"question" validate:"required,min=2,max=2000"`
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	result, err := h.orch.Ask(r.Context(), ownerID, req.Question)
	if err != nil {
		slog.Error("answering question", "owner_id", ownerID, "error", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, result)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	turns := 0
	if t := r.URL.Query().Get("turns"); t != "" {
		if parsed, err := strconv.Atoi(t); err == nil && parsed > 0 && parsed <= 100 {
			turns = parsed
		}
	}

	logs, err := h.orch.History(r.Context(), ownerID, turns)
	if err != nil {
		slog.Error("listing chat history", "owner_id", ownerID, "error", err)
		api.HandleError(w, err)
		return
	}
	if logs == nil {
		logs = []Log{}
	}

	api.JSON(w, http.StatusOK, logs)
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	if err := h.orch.ClearHistory(r.Context(), ownerID); err != nil {
		slog.Error("clearing chat history", "owner_id", ownerID, "error", err)
		api.HandleError(w, err)
		return
	}

	api.JSONMessage(w, http.StatusOK, "history cleared")
}

func (h *Handler) Quota(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.OwnerID(r.Context()); !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	api.JSON(w, http.StatusOK, h.orch.QuotaUsage())
}
