// Package contact はお問い合わせフォームの受付フローを提供する。
//
// メッセージの永続化（同期・必須）とメール通知（ベストエフォート）を
// 分離する。通知の失敗は呼び出し元の成功レスポンスを変えず、診断
// フィールドとして結果に含めるだけにする。
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pulsecert/portal-api/internal/kvstore"
	"github.com/pulsecert/portal-api/internal/mailer"
	"github.com/pulsecert/portal-api/internal/metrics"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/security"
)

// Mailer はメール送信に必要なインターフェース。
// mailer.Clientの部分集合として定義する。
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Request はお問い合わせリクエストを表す。
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Result はお問い合わせ処理の結果を表す。
// EmailDebugには通知が送られなかった理由が入る（送信成功時は空）。
type Result struct {
	MessageID  string
	EmailSent  bool
	EmailDebug string
}

// Config はServiceの設定。
type Config struct {
	NotifyTo   string // 通知先メールアドレス。空なら通知はスキップ。
	NotifyFrom string // 通知の送信元
}

// Service はお問い合わせフローを実装する。
type Service struct {
	kv        kvstore.Store
	mail      Mailer
	sanitizer security.MessageSanitizerService
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	config    Config
	now       func() time.Time
	newID     func() string
}

// NewService はServiceを生成する。
func NewService(kv kvstore.Store, mail Mailer, sanitizer security.MessageSanitizerService, collector metrics.MetricsCollector, logger *slog.Logger, config Config) *Service {
	return &Service{
		kv:        kv,
		mail:      mail,
		sanitizer: sanitizer,
		metrics:   collector,
		logger:    logger,
		config:    config,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Submit はお問い合わせを1件受け付ける。
//
// メッセージは通知の試行より前に必ずKey-Valueストアへ永続化する。
// 永続化の失敗のみがこの操作の失敗であり、通知の失敗・スキップは
// Resultの診断フィールドとして返す。
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	// 1. 入力検証
	if err := validate(req); err != nil {
		return nil, err
	}

	// 2. 永続化（サニタイズ済みの平文を保存する）
	msg := &model.ContactMessage{
		ID:        s.newID(),
		Name:      s.sanitizer.Sanitize(strings.TrimSpace(req.Name)),
		Email:     strings.TrimSpace(req.Email),
		Subject:   s.sanitizer.Sanitize(strings.TrimSpace(req.Subject)),
		Message:   s.sanitizer.Sanitize(req.Message),
		Status:    model.ContactUnread,
		CreatedAt: s.now().UTC(),
	}

	if err := s.kv.Set(ctx, "contact:"+msg.ID, msg); err != nil {
		return nil, model.NewUpstreamError(fmt.Sprintf("failed to save contact message: %v", err))
	}

	// 3. ベストエフォートのメール通知
	result := &Result{MessageID: msg.ID}
	s.notify(ctx, msg, result)
	return result, nil
}

// notify は運用者への通知メールを試行し、結果をresultに記録する。
// どの失敗もSubmitの成功を覆さない。
func (s *Service) notify(ctx context.Context, msg *model.ContactMessage, result *Result) {
	if s.config.NotifyTo == "" {
		s.metrics.RecordEmailDispatch("skipped")
		result.EmailDebug = "NOTIFY_EMAIL_TO not configured"
		return
	}

	err := s.mail.Send(ctx, mailer.Message{
		From:    s.config.NotifyFrom,
		To:      []string{s.config.NotifyTo},
		Subject: fmt.Sprintf("[Contact] %s", msg.Subject),
		Text: fmt.Sprintf("From: %s <%s>\n\n%s\n\n(message id: %s)",
			msg.Name, msg.Email, msg.Message, msg.ID),
	})
	if err != nil {
		if errors.Is(err, mailer.ErrNotConfigured) {
			s.metrics.RecordEmailDispatch("skipped")
		} else {
			s.metrics.RecordEmailDispatch("failed")
			s.logger.Error("contact notification failed",
				slog.String("message_id", msg.ID),
				slog.String("error", err.Error()),
			)
		}
		result.EmailDebug = err.Error()
		return
	}

	s.metrics.RecordEmailDispatch("sent")
	result.EmailSent = true
}

// validate はお問い合わせ入力を検証する。
func validate(req Request) *model.APIError {
	if strings.TrimSpace(req.Name) == "" {
		return model.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return model.NewValidationError("email", "is required")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return model.NewValidationError("subject", "is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return model.NewValidationError("message", "is required")
	}
	return nil
}
