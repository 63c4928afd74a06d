package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pulsecert/portal-api/internal/contact"
	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/model"
)

// ContactServiceInterface はお問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	Submit(ctx context.Context, req contact.Request) (*contact.Result, error)
}

// ContactHandler はお問い合わせのHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

// contactResponse はお問い合わせ受付のレスポンスボディ。
// メッセージ受付（success）とメール通知の成否（emailSent/emailDebug）は
// 独立して報告する。
type contactResponse struct {
	Success    bool   `json:"success"`
	EmailSent  bool   `json:"emailSent"`
	EmailDebug string `json:"emailDebug,omitempty"`
}

// Contact はお問い合わせを受け付ける。
// POST /contact
func (h *ContactHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contact.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("body", "must be valid JSON"))
		return
	}

	result, err := h.service.Submit(r.Context(), req)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, apiErr)
			return
		}
		slog.Error("contact submission failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contactResponse{
		Success:    true,
		EmailSent:  result.EmailSent,
		EmailDebug: result.EmailDebug,
	})
}
