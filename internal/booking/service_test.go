package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pulsecert/portal-api/internal/kvstore"
	"github.com/pulsecert/portal-api/internal/metrics"
	"github.com/pulsecert/portal-api/internal/model"
)

type mockBookingRepo struct {
	createFn func(ctx context.Context, booking *model.Booking) error
	created  []*model.Booking
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	m.created = append(m.created, booking)
	if m.createFn != nil {
		return m.createFn(ctx, booking)
	}
	return nil
}

func (m *mockBookingRepo) ListByUserID(ctx context.Context, userID string) ([]model.Booking, error) {
	return []model.Booking{}, nil
}

func newTestService(repo *mockBookingRepo, kv kvstore.Store) *Service {
	svc := NewService(repo, kv, metrics.NopCollector{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "bk-fixed" }
	return svc
}

func testUser() *model.User {
	return &model.User{ID: "user-1", Email: "medic@example.com"}
}

func validRequest() Request {
	return Request{Date: "2026-09-10", Time: "14:00", Instructor: "Casey", Type: "ACLS"}
}

// TestBook_RelationalSuccess は挿入成功時にKey-Valueストアに
// 書き込まれないことを検証する。
func TestBook_RelationalSuccess(t *testing.T) {
	repo := &mockBookingRepo{}
	kv := kvstore.NewMemoryStore()
	svc := newTestService(repo, kv)

	booking, err := svc.Book(context.Background(), testUser(), validRequest())
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if booking.ID != "bk-fixed" {
		t.Errorf("booking ID = %q, want generated ID", booking.ID)
	}
	if booking.UserID != "user-1" {
		t.Errorf("booking user_id = %q, want user-1", booking.UserID)
	}
	if len(repo.created) != 1 {
		t.Errorf("Create called %d times, want 1", len(repo.created))
	}
	if kv.Len() != 0 {
		t.Errorf("key-value store should be untouched on relational success, has keys %v", kv.Keys())
	}
}

// TestBook_InsertFails_WritesFallbackEntry は挿入失敗時に
// booking:<user-id>:<booking-id> キーで全フィールドが退避され、
// 呼び出しが成功することを検証する。
func TestBook_InsertFails_WritesFallbackEntry(t *testing.T) {
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			return fmt.Errorf(`relation "bookings" does not exist`)
		},
	}
	kv := kvstore.NewMemoryStore()
	svc := newTestService(repo, kv)

	booking, err := svc.Book(context.Background(), testUser(), validRequest())
	if err != nil {
		t.Fatalf("Book should succeed via fallback, got error: %v", err)
	}

	var saved model.Booking
	key := "booking:user-1:" + booking.ID
	if err := kv.Get(context.Background(), key, &saved); err != nil {
		t.Fatalf("fallback entry not found under %q (keys: %v): %v", key, kv.Keys(), err)
	}
	if saved.Date != "2026-09-10" || saved.Time != "14:00" || saved.Instructor != "Casey" || saved.Type != "ACLS" {
		t.Errorf("fallback entry = %+v, want all request fields preserved", saved)
	}
	if saved.ID != booking.ID || saved.UserID != "user-1" {
		t.Errorf("fallback entry should carry generated id and user id, got %+v", saved)
	}
}

// TestBook_BothPathsFail_ReturnsUpstreamError は両経路の失敗のみが
// エラーになることを検証する。
func TestBook_BothPathsFail_ReturnsUpstreamError(t *testing.T) {
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			return fmt.Errorf("insert failed")
		},
	}
	kv := kvstore.NewMemoryStore()
	kv.SetErr = fmt.Errorf("connection refused")
	svc := newTestService(repo, kv)

	_, err := svc.Book(context.Background(), testUser(), validRequest())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeUpstream {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeUpstream)
	}
	if apiErr.Status != 500 {
		t.Errorf("status = %d, want 500", apiErr.Status)
	}
}
