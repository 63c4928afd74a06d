// Package userdata は認証済みユーザー向けのデータ集約を提供する。
//
// リレーショナルストアを第一候補、Key-Valueストアを代替として読む。
// 判定規則: リレーショナルクエリが「エラーなく実行できた」場合は
// 行数に関わらずその結果が正となる（空リストも正）。フォールバックは
// クエリの構造的失敗（テーブル欠如など）のみで発動し、空結果では
// 発動しない。
package userdata

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pulsecert/portal-api/internal/kvstore"
	"github.com/pulsecert/portal-api/internal/metrics"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/repository"
)

// UserData はユーザー向けの集約ペイロードを表す。
type UserData struct {
	Profile   *model.Profile   `json:"profile"`
	Purchases []model.Purchase `json:"purchases"`
	Bookings  []model.Booking  `json:"bookings"`
}

// Service はユーザーデータの集約を実装する。
type Service struct {
	profiles  repository.ProfileRepository
	purchases repository.PurchaseRepository
	bookings  repository.BookingRepository
	kv        kvstore.Store
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(
	profiles repository.ProfileRepository,
	purchases repository.PurchaseRepository,
	bookings repository.BookingRepository,
	kv kvstore.Store,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		profiles:  profiles,
		purchases: purchases,
		bookings:  bookings,
		kv:        kv,
		metrics:   collector,
		logger:    logger,
	}
}

// Aggregate は認証済みユーザーの集約ペイロードを構築する。
// ストア側の失敗はフォールバックで吸収し、このメソッド自体は
// ユーザーが解決済みであれば失敗しない。
func (s *Service) Aggregate(ctx context.Context, user *model.User) *UserData {
	return &UserData{
		Profile:   s.loadProfile(ctx, user),
		Purchases: s.loadPurchases(ctx, user.ID),
		Bookings:  s.loadBookings(ctx, user.ID),
	}
}

// loadProfile はリレーショナルのprofiles行を優先し、
// なければIdentity Providerのメタデータから合成する。
func (s *Service) loadProfile(ctx context.Context, user *model.User) *model.Profile {
	profile, err := s.profiles.FindByUserID(ctx, user.ID)
	if err != nil {
		s.logger.Warn("profile query failed, using identity metadata",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
	if profile != nil {
		return profile
	}

	return &model.Profile{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Metadata.Name,
		Role:      user.Metadata.Role,
		CertLevel: user.Metadata.CertLevel,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.CreatedAt,
	}
}

// loadPurchases はリレーショナルの購入一覧を返す。
// クエリが失敗した場合のみ purchase:<user-id> のプレフィックススキャンに落ちる。
func (s *Service) loadPurchases(ctx context.Context, userID string) []model.Purchase {
	purchases, err := s.purchases.ListByUserID(ctx, userID)
	if err == nil {
		return purchases
	}

	s.metrics.RecordKVFallback("purchases_read")
	s.logger.Warn("purchases query failed, falling back to key-value store",
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)

	entries, kvErr := s.kv.ListByPrefix(ctx, "purchase:"+userID)
	if kvErr != nil {
		s.logger.Error("key-value purchase scan failed",
			slog.String("user_id", userID),
			slog.String("error", kvErr.Error()),
		)
		return []model.Purchase{}
	}

	result := []model.Purchase{}
	for _, raw := range entries {
		var p model.Purchase
		if err := json.Unmarshal(raw, &p); err != nil {
			s.logger.Warn("skipping malformed purchase entry",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			continue
		}
		result = append(result, p)
	}
	return result
}

// loadBookings はリレーショナルの予約一覧を返す。
// クエリが失敗した場合のみ booking:<user-id> のプレフィックススキャンに落ちる。
func (s *Service) loadBookings(ctx context.Context, userID string) []model.Booking {
	bookings, err := s.bookings.ListByUserID(ctx, userID)
	if err == nil {
		return bookings
	}

	s.metrics.RecordKVFallback("bookings_read")
	s.logger.Warn("bookings query failed, falling back to key-value store",
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)

	entries, kvErr := s.kv.ListByPrefix(ctx, "booking:"+userID)
	if kvErr != nil {
		s.logger.Error("key-value booking scan failed",
			slog.String("user_id", userID),
			slog.String("error", kvErr.Error()),
		)
		return []model.Booking{}
	}

	result := []model.Booking{}
	for _, raw := range entries {
		var b model.Booking
		if err := json.Unmarshal(raw, &b); err != nil {
			s.logger.Warn("skipping malformed booking entry",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			continue
		}
		result = append(result, b)
	}
	return result
}
