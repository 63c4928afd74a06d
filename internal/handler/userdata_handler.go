package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/userdata"
)

// UserDataServiceInterface はユーザーデータハンドラーが必要とするサービスインターフェース。
type UserDataServiceInterface interface {
	Aggregate(ctx context.Context, user *model.User) *userdata.UserData
}

// UserDataHandler はユーザーデータ集約のHTTPハンドラー。
type UserDataHandler struct {
	service UserDataServiceInterface
}

// NewUserDataHandler はUserDataHandlerを生成する。
func NewUserDataHandler(service UserDataServiceInterface) *UserDataHandler {
	return &UserDataHandler{service: service}
}

// GetUserData は認証済みユーザーの集約ペイロードを返す。
// GET /user-data
func (h *UserDataHandler) GetUserData(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError())
		return
	}

	data := h.service.Aggregate(r.Context(), user)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
