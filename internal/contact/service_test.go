package contact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/pulsecert/portal-api/internal/kvstore"
	"github.com/pulsecert/portal-api/internal/mailer"
	"github.com/pulsecert/portal-api/internal/metrics"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/security"
)

type mockMailer struct {
	sendFn func(ctx context.Context, msg mailer.Message) error
	sent   []mailer.Message
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	return nil
}

func newTestService(kv kvstore.Store, mail Mailer, config Config) *Service {
	svc := NewService(kv, mail, security.NewMessageSanitizer(), metrics.NopCollector{}, slog.New(slog.NewTextHandler(io.Discard, nil)), config)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "msg-fixed" }
	return svc
}

func validRequest() Request {
	return Request{
		Name:    "Jordan",
		Email:   "medic@example.com",
		Subject: "Question about ACLS prep",
		Message: "When does the next cohort start?",
	}
}

func notifyConfig() Config {
	return Config{NotifyTo: "ops@pulsecert.example", NotifyFrom: "portal@pulsecert.example"}
}

// TestSubmit_PersistsBeforeNotify はメッセージがstatus=unreadで
// 永続化され、contact:プレフィックスのキーを持つことを検証する。
func TestSubmit_PersistsBeforeNotify(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	mail := &mockMailer{}
	svc := newTestService(kv, mail, notifyConfig())

	result, err := svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	var saved model.ContactMessage
	if err := kv.Get(context.Background(), "contact:"+result.MessageID, &saved); err != nil {
		t.Fatalf("message not persisted under contact:%s: %v", result.MessageID, err)
	}
	if saved.Status != model.ContactUnread {
		t.Errorf("status = %q, want %q", saved.Status, model.ContactUnread)
	}
	if saved.Name != "Jordan" || saved.Email != "medic@example.com" {
		t.Errorf("persisted message = %+v, want request fields preserved", saved)
	}
	if !result.EmailSent {
		t.Error("emailSent should be true when the mailer succeeds")
	}
	if result.EmailDebug != "" {
		t.Errorf("emailDebug = %q, want empty on success", result.EmailDebug)
	}
}

// TestSubmit_MailerNotConfigured はメール認証情報が未設定でも
// 受付が成功し、emailSent=false・emailDebugに理由が入ることを検証する。
func TestSubmit_MailerNotConfigured(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	mail := &mockMailer{
		sendFn: func(ctx context.Context, msg mailer.Message) error {
			return mailer.ErrNotConfigured
		},
	}
	svc := newTestService(kv, mail, notifyConfig())

	result, err := svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.EmailSent {
		t.Error("emailSent should be false when the mailer is not configured")
	}
	if result.EmailDebug != "RESEND_API_KEY not configured" {
		t.Errorf("emailDebug = %q, want %q", result.EmailDebug, "RESEND_API_KEY not configured")
	}

	// メッセージ自体は保存されていること
	var saved model.ContactMessage
	if err := kv.Get(context.Background(), "contact:"+result.MessageID, &saved); err != nil {
		t.Fatalf("message should be persisted despite notification skip: %v", err)
	}
}

// TestSubmit_NotifyToNotConfigured は通知先未設定の場合に
// 送信が試行されないことを検証する。
func TestSubmit_NotifyToNotConfigured(t *testing.T) {
	mail := &mockMailer{}
	svc := newTestService(kvstore.NewMemoryStore(), mail, Config{})

	result, err := svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if len(mail.sent) != 0 {
		t.Error("Send should not be called when NotifyTo is empty")
	}
	if result.EmailSent {
		t.Error("emailSent should be false")
	}
	if result.EmailDebug != "NOTIFY_EMAIL_TO not configured" {
		t.Errorf("emailDebug = %q, want %q", result.EmailDebug, "NOTIFY_EMAIL_TO not configured")
	}
}

// TestSubmit_MailerFails_StillSucceeds は送信エラーが受付の成功を
// 覆さないことを検証する。
func TestSubmit_MailerFails_StillSucceeds(t *testing.T) {
	mail := &mockMailer{
		sendFn: func(ctx context.Context, msg mailer.Message) error {
			return fmt.Errorf("mail provider returned status 503")
		},
	}
	svc := newTestService(kvstore.NewMemoryStore(), mail, notifyConfig())

	result, err := svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.EmailSent {
		t.Error("emailSent should be false on mailer failure")
	}
	if !strings.Contains(result.EmailDebug, "503") {
		t.Errorf("emailDebug = %q, want mailer error detail", result.EmailDebug)
	}
}

// TestSubmit_PersistFailure_IsTheOnlyFatalPath は永続化失敗のみが
// Submitのエラーになり、通知が試行されないことを検証する。
func TestSubmit_PersistFailure_IsTheOnlyFatalPath(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	kv.SetErr = fmt.Errorf("connection refused")
	mail := &mockMailer{}
	svc := newTestService(kv, mail, notifyConfig())

	_, err := svc.Submit(context.Background(), validRequest())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeUpstream {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeUpstream)
	}
	if len(mail.sent) != 0 {
		t.Error("Send should not be called when persistence fails")
	}
}

// TestSubmit_Validation は必須フィールド欠落ごとに400相当の
// APIErrorが返ることを検証する。
func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"missing name", func(r *Request) { r.Name = "" }},
		{"missing email", func(r *Request) { r.Email = " " }},
		{"missing subject", func(r *Request) { r.Subject = "" }},
		{"missing message", func(r *Request) { r.Message = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := kvstore.NewMemoryStore()
			svc := newTestService(kv, &mockMailer{}, notifyConfig())

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != 400 {
				t.Errorf("status = %d, want 400", apiErr.Status)
			}
			if kv.Len() != 0 {
				t.Error("nothing should be persisted on validation failure")
			}
		})
	}
}

// TestSubmit_SanitizesHTML はメッセージ中のHTMLタグが保存前に
// 除去されることを検証する。
func TestSubmit_SanitizesHTML(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	svc := newTestService(kv, &mockMailer{}, Config{})

	req := validRequest()
	req.Message = `Hello <script>alert("x")</script>world`

	result, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	var saved model.ContactMessage
	if err := kv.Get(context.Background(), "contact:"+result.MessageID, &saved); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(saved.Message, "<script>") {
		t.Errorf("message should be sanitized, got %q", saved.Message)
	}
}
