// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pulsecert/portal-api/internal/identity"
	"github.com/pulsecert/portal-api/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// TokenVerifier はbearerトークンの検証に必要なインターフェース。
// identity.Clientの部分集合として定義する。
type TokenVerifier interface {
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのbearerトークンを
// Identity Providerで検証するミドルウェアを返す。
// 認証済みユーザーをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーからトークンを取得
			token := bearerToken(r)
			if token == "" {
				WriteErrorResponse(w, model.NewUnauthorizedError())
				return
			}

			// 2. Identity Providerでトークンを検証
			user, err := verifier.GetUserByToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, identity.ErrInvalidToken) {
					slog.Error("failed to verify token",
						slog.String("error", err.Error()),
					)
				}
				WriteErrorResponse(w, model.NewUnauthorizedError())
				return
			}

			// 3. 認証済みユーザーをコンテキストに注入
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// bearerToken はAuthorizationヘッダーからbearerトークンを取り出す。
// 形式が不正な場合は空文字列を返す。
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
