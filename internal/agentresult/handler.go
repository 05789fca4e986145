package agentresult

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/finassist-platform/finassist/internal/api"
	"github.com/finassist-platform/finassist/internal/auth"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	page := 1
	pageSize := 20
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	results, total, err := h.repo.ListByOwner(r.Context(), ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		slog.Error("listing agent results", "owner_id", ownerID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if results == nil {
		results = []AgentResult{}
	}

	api.JSONPaginated(w, http.StatusOK, results, total, page, pageSize)
}
