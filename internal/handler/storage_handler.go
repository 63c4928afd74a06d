package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/model"
)

// URLSigner は署名付きURL発行に必要なインターフェース。
// storage.Clientの部分集合として定義する。
type URLSigner interface {
	CreateSignedURL(ctx context.Context, path string) (string, error)
}

// StorageHandler は署名付きURL発行のHTTPハンドラー。
type StorageHandler struct {
	signer URLSigner
}

// NewStorageHandler はStorageHandlerを生成する。
func NewStorageHandler(signer URLSigner) *StorageHandler {
	return &StorageHandler{signer: signer}
}

// signedURLRequest は署名付きURL発行のリクエストボディ。
type signedURLRequest struct {
	Path string `json:"path"`
}

// GetSignedURL はオブジェクトパスに対する署名付きURLを発行する。
// POST /get-signed-url
func (h *StorageHandler) GetSignedURL(w http.ResponseWriter, r *http.Request) {
	var req signedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("body", "must be valid JSON"))
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		middleware.WriteErrorResponse(w, model.NewValidationError("path", "is required"))
		return
	}

	signedURL, err := h.signer.CreateSignedURL(r.Context(), req.Path)
	if err != nil {
		slog.Warn("signed URL creation failed",
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, &model.APIError{
			Code:     "SIGN_FAILED",
			Message:  err.Error(),
			Category: "upstream",
			Status:   http.StatusBadRequest,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"signedUrl": signedURL,
	})
}
