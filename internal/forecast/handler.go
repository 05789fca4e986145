package forecast

import (
	"errors"
	"log/slog"
	"net/http"
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

type forecastResponse struct {
	*Result
	InsufficientData bool `json:"insufficient_data"`
}

// Run produces a forecast. An insufficient-data outcome still renders the
// result, marked low-confidence, instead of failing the request.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	result, err := h.svc.Run(r.Context(), ownerID, time.Now().UTC())
	if err != nil && !errors.Is(err, ErrInsufficientData) {
		slog.Error("running forecast", "owner_id", ownerID, "error", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, forecastResponse{
		Result:           result,
		InsufficientData: errors.Is(err, ErrInsufficientData),
	})
}
