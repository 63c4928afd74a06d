package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// HTTPステータスと、レスポンスボディに含めるコード・メッセージを保持する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, auth, conflict, upstream, system
	Status   int    // HTTPステータスコード
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeDuplicateUser = "DUPLICATE_USER"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
)

// NewValidationError は入力不備エラーを生成する。
// fieldには欠落または不正なフィールド名を指定する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("%s: %s", field, reason),
		Category: "validation",
		Status:   http.StatusBadRequest,
	}
}

// NewDuplicateUserError は登録済みメールアドレスでのサインアップエラーを生成する。
// 設計上400で返す（クライアントはフォームエラーとして表示する）。
func NewDuplicateUserError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  fmt.Sprintf("an account with email %s already exists", email),
		Category: "conflict",
		Status:   http.StatusBadRequest,
	}
}

// NewUnauthorizedError はトークン欠落・無効エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "missing or invalid bearer token",
		Category: "auth",
		Status:   http.StatusUnauthorized,
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  reason,
		Category: "auth",
		Status:   http.StatusForbidden,
	}
}

// NewNotFoundError は対象未検出エラーを生成する。
func NewNotFoundError(what string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found", what),
		Category: "validation",
		Status:   http.StatusNotFound,
	}
}

// NewUpstreamError はIdentity Providerやストアの未分類エラーを生成する。
func NewUpstreamError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstream,
		Message:  reason,
		Category: "upstream",
		Status:   http.StatusInternalServerError,
	}
}
