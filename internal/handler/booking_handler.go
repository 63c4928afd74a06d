package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pulsecert/portal-api/internal/booking"
	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	Book(ctx context.Context, user *model.User, req booking.Request) (*model.Booking, error)
}

// BookingHandler は予約のHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

// BookSession は講習セッションの予約を作成する。
// POST /book-session
func (h *BookingHandler) BookSession(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError())
		return
	}

	var req booking.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("body", "must be valid JSON"))
		return
	}

	if _, err := h.service.Book(r.Context(), user, req); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, apiErr)
			return
		}
		slog.Error("booking failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "session booked",
	})
}
