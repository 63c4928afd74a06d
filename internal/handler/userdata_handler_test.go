package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/userdata"
)

type mockUserDataService struct {
	aggregateFn func(ctx context.Context, user *model.User) *userdata.UserData
}

func (m *mockUserDataService) Aggregate(ctx context.Context, user *model.User) *userdata.UserData {
	return m.aggregateFn(ctx, user)
}

// TestUserDataHandler_Success は集約ペイロードがそのままJSONで返ることを検証する。
func TestUserDataHandler_Success(t *testing.T) {
	service := &mockUserDataService{
		aggregateFn: func(ctx context.Context, user *model.User) *userdata.UserData {
			return &userdata.UserData{
				Profile:   &model.Profile{UserID: user.ID, Email: user.Email, Name: "Jordan"},
				Purchases: []model.Purchase{},
				Bookings:  []model.Booking{{ID: "bk-1", UserID: user.ID}},
			}
		},
	}
	h := NewUserDataHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/user-data", nil)
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1", Email: "medic@example.com"}))
	rec := httptest.NewRecorder()
	h.GetUserData(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp userdata.UserData
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Profile == nil || resp.Profile.UserID != "user-1" {
		t.Errorf("profile = %+v, want user-1", resp.Profile)
	}
	if resp.Purchases == nil {
		t.Error("purchases should serialize as an empty array, not null")
	}
	if len(resp.Bookings) != 1 {
		t.Errorf("bookings = %v, want 1 entry", resp.Bookings)
	}
}

// TestUserDataHandler_NoUserInContext は認証コンテキストがない場合に
// 401が返ることを検証する。
func TestUserDataHandler_NoUserInContext(t *testing.T) {
	h := NewUserDataHandler(&mockUserDataService{
		aggregateFn: func(ctx context.Context, user *model.User) *userdata.UserData {
			t.Error("service should not be called without a user")
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/user-data", nil)
	rec := httptest.NewRecorder()
	h.GetUserData(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
