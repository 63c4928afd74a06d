package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusRecorder    middleware.HTTPStatusRecorder
	Logger            *slog.Logger

	// サービス
	SignupService   SignupServiceInterface
	UserDataService UserDataServiceInterface
	BookingService  BookingServiceInterface
	ContactService  ContactServiceInterface
	AdminService    AdminServiceInterface

	// 診断・ストレージ
	TableInspector repository.TableInspector
	BucketLister   BucketLister
	URLSigner      URLSigner

	// /metrics エンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Metrics → Logging →（認証ルートのみ）Auth
//
// 未認証POST（/signup, /contact）にはIPレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	signupHandler := NewSignupHandler(deps.SignupService)
	userDataHandler := NewUserDataHandler(deps.UserDataService)
	bookingHandler := NewBookingHandler(deps.BookingService)
	contactHandler := NewContactHandler(deps.ContactService)
	adminHandler := NewAdminHandler(deps.AdminService)
	diagHandler := NewDiagHandler(deps.TableInspector, deps.BucketLister)
	storageHandler := NewStorageHandler(deps.URLSigner)

	// --- 認証不要のルート ---

	r.Get("/health", diagHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 運用診断。共有シークレット以上の保護は持たない（既知の課題）。
	r.Get("/inspect-tables", diagHandler.InspectTables)
	r.Post("/make-admin", adminHandler.MakeAdmin)
	r.Post("/get-signed-url", storageHandler.GetSignedURL)

	// 未認証POSTにはIPレート制限を適用
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.PublicMiddleware())
		}
		r.Post("/signup", signupHandler.Signup)
		r.Post("/contact", contactHandler.Contact)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))

		r.Get("/user-data", userDataHandler.GetUserData)
		r.Post("/book-session", bookingHandler.BookSession)
		r.Get("/list-users", adminHandler.ListUsers)
	})

	return r
}
