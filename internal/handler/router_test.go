package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulsecert/portal-api/internal/booking"
	"github.com/pulsecert/portal-api/internal/contact"
	"github.com/pulsecert/portal-api/internal/identity"
	"github.com/pulsecert/portal-api/internal/model"
	"github.com/pulsecert/portal-api/internal/signup"
	"github.com/pulsecert/portal-api/internal/userdata"
)

type mockTokenVerifier struct {
	getUserFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockTokenVerifier) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, token)
	}
	return nil, identity.ErrInvalidToken
}

func newTestRouter(verifier *mockTokenVerifier) http.Handler {
	return NewRouter(&RouterDeps{
		TokenVerifier:     verifier,
		CORSAllowedOrigin: "http://localhost:3000",
		SignupService: &mockSignupService{
			signupFn: func(ctx context.Context, req signup.Request) (*signup.Result, error) {
				return &signup.Result{UserID: "user-new"}, nil
			},
		},
		UserDataService: &mockUserDataService{
			aggregateFn: func(ctx context.Context, user *model.User) *userdata.UserData {
				return &userdata.UserData{Purchases: []model.Purchase{}, Bookings: []model.Booking{}}
			},
		},
		BookingService: &mockBookingService{
			bookFn: func(ctx context.Context, user *model.User, req booking.Request) (*model.Booking, error) {
				return &model.Booking{ID: "bk-1"}, nil
			},
		},
		ContactService: &mockContactService{
			submitFn: func(ctx context.Context, req contact.Request) (*contact.Result, error) {
				return &contact.Result{MessageID: "msg-1"}, nil
			},
		},
		AdminService: &mockAdminService{
			promoteFn: func(ctx context.Context, email, secretCode string) (string, error) {
				return "user-1", nil
			},
			listUsersFn: func(ctx context.Context, caller *model.User) ([]model.User, error) {
				return []model.User{}, nil
			},
		},
		TableInspector: &mockInspector{},
		BucketLister:   &mockBucketLister{},
		URLSigner: &mockURLSigner{
			signFn: func(ctx context.Context, path string) (string, error) {
				return "https://storage.example/signed", nil
			},
		},
	})
}

// TestRouter_PublicRoutes は認証不要ルートがトークンなしで
// 応答することを検証する。
func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(&mockTokenVerifier{})

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/health", ""},
		{http.MethodGet, "/inspect-tables", ""},
		{http.MethodPost, "/signup", `{"email":"a@b.c","password":"secret123","name":"J"}`},
		{http.MethodPost, "/contact", `{"name":"J","email":"a@b.c","subject":"s","message":"m"}`},
		{http.MethodPost, "/make-admin", `{"email":"a@b.c","secretCode":"x"}`},
		{http.MethodPost, "/get-signed-url", `{"path":"materials/guide.pdf"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}

// TestRouter_AuthenticatedRoutes_RequireToken は認証ルートが
// トークンなしで401になることを検証する。
func TestRouter_AuthenticatedRoutes_RequireToken(t *testing.T) {
	router := newTestRouter(&mockTokenVerifier{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/user-data"},
		{http.MethodPost, "/book-session"},
		{http.MethodGet, "/list-users"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

// TestRouter_AuthenticatedRoute_WithValidToken は有効なトークンで
// 認証ルートが通ることを検証する。
func TestRouter_AuthenticatedRoute_WithValidToken(t *testing.T) {
	verifier := &mockTokenVerifier{
		getUserFn: func(ctx context.Context, token string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: "medic@example.com"}, nil
		},
	}
	router := newTestRouter(verifier)

	req := httptest.NewRequest(http.MethodGet, "/user-data", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestRouter_CORSPreflight はOPTIONSプリフライトが204で返ることを検証する。
func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(&mockTokenVerifier{})

	req := httptest.NewRequest(http.MethodOptions, "/signup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want configured origin", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
