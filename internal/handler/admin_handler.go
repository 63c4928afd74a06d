package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/model"
)

// AdminServiceInterface は管理ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	PromoteToAdmin(ctx context.Context, email, secretCode string) (string, error)
	ListUsers(ctx context.Context, caller *model.User) ([]model.User, error)
}

// AdminHandler は管理者向け操作のHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// makeAdminRequest はrole昇格のリクエストボディ。
type makeAdminRequest struct {
	Email      string `json:"email"`
	SecretCode string `json:"secretCode"`
}

// MakeAdmin は共有シークレットによるrole昇格を処理する。
// POST /make-admin
func (h *AdminHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	var req makeAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("body", "must be valid JSON"))
		return
	}
	if req.Email == "" {
		middleware.WriteErrorResponse(w, model.NewValidationError("email", "is required"))
		return
	}

	userID, err := h.service.PromoteToAdmin(r.Context(), req.Email, req.SecretCode)
	if err != nil {
		writeServiceError(w, err, "admin promotion failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"userId":  userID,
	})
}

// ListUsers は全ユーザー一覧を返す。admin roleが必要。
// GET /list-users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError())
		return
	}

	users, err := h.service.ListUsers(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err, "list users failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"users": users,
	})
}

// writeServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIErrorはそのまま、未分類のエラーは500として書き込む。
func writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, apiErr)
		return
	}
	slog.Error(logMsg, slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
