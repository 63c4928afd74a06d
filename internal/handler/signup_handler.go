// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/signup"
)

// SignupServiceInterface はサインアップハンドラーが必要とするサービスインターフェース。
type SignupServiceInterface interface {
	Signup(ctx context.Context, req signup.Request) (*signup.Result, error)
}

// SignupHandler はサインアップのHTTPハンドラー。
type SignupHandler struct {
	service SignupServiceInterface
}

// NewSignupHandler はSignupHandlerを生成する。
func NewSignupHandler(service SignupServiceInterface) *SignupHandler {
	return &SignupHandler{service: service}
}

// signupErrorResponse はサインアップ失敗時のレスポンスボディ。
// 孤児レコード整理の経過（debugLogs）を運用者向けに含める。
type signupErrorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	DebugLogs []string `json:"debugLogs,omitempty"`
}

// Signup はサインアップリクエストを処理する。
// POST /signup
func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signup.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("body", "must be valid JSON"))
		return
	}

	result, err := h.service.Signup(r.Context(), req)
	if err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			slog.Error("signup failed", slog.String("error", err.Error()))
			middleware.WriteInternalServerError(w)
			return
		}

		// 作成失敗時は整理経過を診断情報として返す
		body := signupErrorResponse{
			Error: apiErr.Message,
			Code:  apiErr.Code,
		}
		if result != nil {
			body.DebugLogs = result.DebugLogs
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.Status)
		json.NewEncoder(w).Encode(body)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"userId":  result.UserID,
	})
}
