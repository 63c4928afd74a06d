// Package booking は講習セッションの予約フローを提供する。
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pulsecert/portal-api/internal/kvstore"
	"github.com/pulsecert/portal-api/internal/metrics"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/repository"
)

// Request は予約リクエストを表す。
// 日付・時刻のフォーマット検証はフロントエンドの責務とする。
type Request struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Instructor string `json:"instructor"`
	Type       string `json:"type"`
}

// Service は予約の書き込みを実装する。
// リレーショナルストアを第一候補とし、挿入が失敗した場合は
// Key-Valueストアに退避する。テーブルが存在しないデプロイでも
// 予約がユーザー向けの失敗として現れないようにするための設計。
type Service struct {
	bookings repository.BookingRepository
	kv       kvstore.Store
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService はServiceを生成する。
func NewService(bookings repository.BookingRepository, kv kvstore.Store, collector metrics.MetricsCollector, logger *slog.Logger) *Service {
	return &Service{
		bookings: bookings,
		kv:       kv,
		metrics:  collector,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Book は予約を1件作成する。
// どちらかの経路で永続化が完了すれば成功を返す。両経路とも失敗した
// 場合のみエラーを返す。作成された予約を返す。
func (s *Service) Book(ctx context.Context, user *model.User, req Request) (*model.Booking, error) {
	booking := &model.Booking{
		ID:         s.newID(),
		UserID:     user.ID,
		Date:       req.Date,
		Time:       req.Time,
		Instructor: req.Instructor,
		Type:       req.Type,
		CreatedAt:  s.now().UTC(),
	}

	err := s.bookings.Create(ctx, booking)
	if err == nil {
		return booking, nil
	}

	s.metrics.RecordKVFallback("booking")
	s.logger.Warn("booking insert failed, falling back to key-value store",
		slog.String("user_id", user.ID),
		slog.String("error", err.Error()),
	)

	key := fmt.Sprintf("booking:%s:%s", booking.UserID, booking.ID)
	if err := s.kv.Set(ctx, key, booking); err != nil {
		return nil, model.NewUpstreamError(fmt.Sprintf("failed to save booking: %v", err))
	}

	return booking, nil
}
