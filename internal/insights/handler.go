package insights

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/finassist-platform/finassist/internal/api"
	"github.com/finassist-platform/finassist/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	withNarrative := true
	if n := r.URL.Query().Get("narrative"); n != "" {
		if parsed, err := strconv.ParseBool(n); err == nil {
			withNarrative = parsed
		}
	}

	result, err := h.svc.Run(r.Context(), ownerID, time.Now().UTC(), withNarrative)
	if err != nil {
		slog.Error("running insights", "owner_id", ownerID, "error", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, result)
}
