// Package signup はサインアップと孤児レコード整理のフローを提供する。
//
// Identity Providerはメールの一意性を自身のストアで保証するが、
// 帯域外のアカウント削除で残ったリレーショナル行（孤児レコード）が
// 一意性・外部キー制約で再登録をブロックすることがある。
// このサービスはユーザー作成の前に既知のテーブルをベストエフォートで
// 整理し、整理が不完全でも作成自体は必ず試行する。
package signup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pulsecert/portal-api/internal/metrics"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 6

// candidateTables は孤児レコードが残りうる既知のテーブル。
var candidateTables = []string{"profiles", "users"}

// IdentityProvider はサインアップに必要なIdentity Provider操作のインターフェース。
// identity.Clientの部分集合として定義する。
type IdentityProvider interface {
	// FindUserByEmail はメールアドレスでアクティブユーザーを検索する。見つからない場合はnilを返す。
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateUser はメール確認済みの新規ユーザーを作成する。
	CreateUser(ctx context.Context, email, password string, metadata model.UserMetadata) (*model.User, error)
}

// Request はサインアップリクエストを表す。
type Request struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Result はサインアップ処理の結果を表す。
// DebugLogsには孤児レコード整理の経過が時系列で入る。作成が失敗した
// 場合も整理経過は呼び出し元に返し、運用者の診断材料にする。
type Result struct {
	UserID    string
	DebugLogs []string
}

// Service はサインアップフローを実装する。
type Service struct {
	provider IdentityProvider
	cleaner  repository.LegacyRecordCleaner
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(provider IdentityProvider, cleaner repository.LegacyRecordCleaner, collector metrics.MetricsCollector, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		cleaner:  cleaner,
		metrics:  collector,
		logger:   logger,
		now:      time.Now,
	}
}

// Signup はサインアップリクエストを処理する。
//
// フロー:
//  1. 入力検証（不備はAPIErrorで即時失敗、副作用なし）
//  2. Providerの重複チェック（登録済みなら即時失敗）
//  3. 候補テーブルの孤児レコード整理（失敗しても続行、経過はDebugLogsに記録）
//  4. Providerでユーザー作成（失敗時はProviderのエラーと整理経過を返す）
//
// 作成に失敗した場合もResultは非nilで、DebugLogsを保持する。
func (s *Service) Signup(ctx context.Context, req Request) (*Result, error) {
	// 1. 入力検証
	if err := validate(req); err != nil {
		s.metrics.RecordSignupOutcome("validation_error")
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 2. 重複チェック
	existing, err := s.provider.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, model.NewUpstreamError(fmt.Sprintf("failed to check existing users: %v", err))
	}
	if existing != nil {
		s.metrics.RecordSignupOutcome("duplicate")
		return nil, model.NewDuplicateUserError(email)
	}

	// 3. 孤児レコード整理
	result := &Result{DebugLogs: s.reconcile(ctx, email)}

	// 4. ユーザー作成
	user, err := s.provider.CreateUser(ctx, email, req.Password, model.UserMetadata{
		Name: strings.TrimSpace(req.Name),
		Role: model.RoleClient,
	})
	if err != nil {
		// 整理で把握していないストアがまだemailを保持しているケース。
		// Providerのエラーメッセージと整理経過をそのまま運用者に見せる。
		s.metrics.RecordSignupOutcome("provider_error")
		s.logger.Error("user creation failed after cleanup",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return result, &model.APIError{
			Code:     "USER_CREATION_FAILED",
			Message:  err.Error(),
			Category: "upstream",
			Status:   400,
		}
	}

	s.metrics.RecordSignupOutcome("created")
	result.UserID = user.ID
	return result, nil
}

// reconcile は候補テーブルの孤児レコードをベストエフォートで整理する。
// どの段階の失敗もフロー全体を中断せず、経過ログとして返す。
func (s *Service) reconcile(ctx context.Context, email string) []string {
	logs := []string{}

	for _, table := range candidateTables {
		count, err := s.cleaner.CountByEmail(ctx, table, email)
		if err != nil {
			// テーブルが存在しないデプロイでは正常系。残存レコードなしとして続行する。
			s.metrics.RecordReconciliation("table_missing")
			logs = append(logs, fmt.Sprintf("%s: table not available, skipped (%v)", table, err))
			continue
		}
		if count == 0 {
			logs = append(logs, fmt.Sprintf("%s: no stale records", table))
			continue
		}

		if err := s.cleaner.DeleteByEmail(ctx, table, email); err == nil {
			s.metrics.RecordReconciliation("deleted")
			logs = append(logs, fmt.Sprintf("%s: deleted %d stale record(s)", table, count))
			continue
		}

		// 参照整合性制約などで削除できない場合はemailをリネームして解放する
		archived := fmt.Sprintf("%s_archived_%d", email, s.now().Unix())
		if err := s.cleaner.ArchiveEmail(ctx, table, email, archived); err != nil {
			s.metrics.RecordReconciliation("rename_failed")
			s.logger.Warn("failed to archive stale record",
				slog.String("table", table),
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
			logs = append(logs, fmt.Sprintf("%s: delete and rename both failed (%v)", table, err))
			continue
		}
		s.metrics.RecordReconciliation("renamed")
		logs = append(logs, fmt.Sprintf("%s: delete failed, renamed email to %s", table, archived))
	}

	return logs
}

// validate はサインアップ入力を検証する。
func validate(req Request) *model.APIError {
	if strings.TrimSpace(req.Email) == "" {
		return model.NewValidationError("email", "is required")
	}
	if req.Password == "" {
		return model.NewValidationError("password", "is required")
	}
	if len(req.Password) < minPasswordLength {
		return model.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(req.Name) == "" {
		return model.NewValidationError("name", "is required")
	}
	return nil
}
