// Package admin は管理者向け操作（role昇格・ユーザー一覧）を提供する。
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pulsecert/portal-api/internal/model"
)

// IdentityAdmin は管理操作に必要なIdentity Provider操作のインターフェース。
// identity.Clientの部分集合として定義する。
type IdentityAdmin interface {
	// FindUserByEmail はメールアドレスでアクティブユーザーを検索する。見つからない場合はnilを返す。
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)

	// ListUsers は全ユーザーを取得する。
	ListUsers(ctx context.Context) ([]model.User, error)

	// UpdateUserMetadata は指定ユーザーのメタデータを更新する。
	UpdateUserMetadata(ctx context.Context, userID string, metadata model.UserMetadata) error
}

// Service は管理者向け操作を実装する。
// secretCodeが空の場合、昇格機能は無効（fail-closed）。
type Service struct {
	provider   IdentityAdmin
	secretCode string
	logger     *slog.Logger
}

// NewService はServiceを生成する。
func NewService(provider IdentityAdmin, secretCode string, logger *slog.Logger) *Service {
	return &Service{
		provider:   provider,
		secretCode: secretCode,
		logger:     logger,
	}
}

// PromoteToAdmin は共有シークレットを検証し、指定メールアドレスの
// ユーザーをadmin roleに昇格する。昇格したユーザーのIDを返す。
func (s *Service) PromoteToAdmin(ctx context.Context, email, secretCode string) (string, error) {
	// シークレット未設定なら機能ごと無効
	if s.secretCode == "" {
		return "", &model.APIError{
			Code:     model.ErrCodeForbidden,
			Message:  "admin promotion is disabled",
			Category: "auth",
			Status:   http.StatusForbidden,
		}
	}

	if secretCode != s.secretCode {
		s.logger.Warn("admin promotion rejected: invalid secret code",
			slog.String("email", email),
		)
		return "", &model.APIError{
			Code:     model.ErrCodeUnauthorized,
			Message:  "invalid secret code",
			Category: "auth",
			Status:   http.StatusUnauthorized,
		}
	}

	user, err := s.provider.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", model.NewUpstreamError(err.Error())
	}
	if user == nil {
		return "", model.NewNotFoundError("user")
	}

	// name・資格レベルは維持し、roleのみ昇格する
	metadata := user.Metadata
	metadata.Role = model.RoleAdmin
	if err := s.provider.UpdateUserMetadata(ctx, user.ID, metadata); err != nil {
		return "", model.NewUpstreamError(err.Error())
	}

	s.logger.Info("user promoted to admin",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user.ID, nil
}

// ListUsers は呼び出し元がadmin roleを持つことを確認してから
// 全ユーザーを返す。
func (s *Service) ListUsers(ctx context.Context, caller *model.User) ([]model.User, error) {
	if caller.Metadata.Role != model.RoleAdmin {
		return nil, model.NewForbiddenError("admin role required")
	}

	users, err := s.provider.ListUsers(ctx)
	if err != nil {
		return nil, model.NewUpstreamError(err.Error())
	}
	return users, nil
}
