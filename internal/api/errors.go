package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/finassist-platform/finassist/internal/ledger"
	"github.com/finassist-platform/finassist/internal/llm"
	"github.com/finassist-platform/finassist/internal/quota"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "bad request"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	ErrForbidden      = &AppError{Code: http.StatusForbidden, Message: "forbidden"}
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "not found"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Message: "conflict"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "internal server error"}
	ErrInvalidToken   = &AppError{Code: http.StatusUnauthorized, Message: "invalid or expired token"}
	ErrValidation     = &AppError{Code: http.StatusBadRequest, Message: "validation error"}
)

func NewBadRequestError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg}
}

func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

// HandleError maps engine failures onto the HTTP surface. Rate-limit and
// upstream failures carry an explicit retry hint for the caller.
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONErrorMessage(w, appErr.Code, appErr.Message)
		return
	}

	var rateLimited *quota.RateLimitedError
	if errors.As(err, &rateLimited) {
		w.Header().Set("Retry-After", strconv.Itoa(rateLimited.RetryAfterSeconds()))
		JSONErrorMessage(w, http.StatusTooManyRequests, rateLimited.Error())
		return
	}

	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		JSONErrorMessage(w, http.StatusBadGateway, "assistant service unavailable, please retry shortly")
		return
	}

	switch {
	case errors.Is(err, ledger.ErrDataUnavailable):
		JSONErrorMessage(w, http.StatusServiceUnavailable, "financial data temporarily unavailable")
	case errors.Is(err, ledger.ErrInvalidBillState):
		JSONErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		JSONErrorMessage(w, http.StatusNotFound, "not found")
	default:
		JSONErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
