package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/pulsecert/portal-api/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// フロントエンドはerrorフィールドをそのまま表示に使う。
type ErrorResponseBody struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Category string `json:"category"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// ステータスコードはAPIErrorの分類に従う。
func WriteErrorResponse(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Error:    apiErr.Message,
		Code:     apiErr.Code,
		Category: apiErr.Category,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "internal server error",
		Category: "system",
		Status:   http.StatusInternalServerError,
	})
}
