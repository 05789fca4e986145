package reminder

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finassist-platform/finassist/internal/api"
	"github.com/finassist-platform/finassist/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	buckets, err := h.svc.RefreshReminders(r.Context(), ownerID, time.Now().UTC())
	if err != nil {
		slog.Error("refreshing reminders", "owner_id", ownerID, "error", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, buckets)
}

type payRequest struct {
	PaidAt           *time.Time `json:"paid_at"`
	LogAsTransaction bool       `json:"log_as_transaction"`
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	billID, err := uuid.Parse(chi.URLParam(r, "billID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid bill id"))
		return
	}

	// Body is optional; an empty body means pay now without a ledger entry
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	bill, err := h.svc.MarkBillPaid(r.Context(), ownerID, billID, paidAt, req.LogAsTransaction)
	if err != nil {
		slog.Error("marking bill paid", "owner_id", ownerID, "bill_id", billID, "error", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, bill)
}
