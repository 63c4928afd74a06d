// Package app はアプリケーションの初期化と起動を行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pulsecert/portal-api/internal/admin"
	"github.com/pulsecert/portal-api/internal/booking"
	"github.com/pulsecert/portal-api/internal/config"
	"github.com/pulsecert/portal-api/internal/contact"
	"github.com/pulsecert/portal-api/internal/database"
	"github.com/pulsecert/portal-api/internal/handler"
	"github.com/pulsecert/portal-api/internal/identity"
	"github.com/pulsecert/portal-api/internal/kvstore"
	"github.com/pulsecert/portal-api/internal/logger"
	"github.com/pulsecert/portal-api/internal/mailer"
	"github.com/pulsecert/portal-api/internal/metrics"
	"github.com/pulsecert/portal-api/internal/middleware"
	"github.com/pulsecert/portal-api/internal/repository"
	"github.com/pulsecert/portal-api/internal/security"
	"github.com/pulsecert/portal-api/internal/signup"
	"github.com/pulsecert/portal-api/internal/storage"
	"github.com/pulsecert/portal-api/internal/userdata"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// 外部依存（PostgreSQL、Redis）への接続を確認し、全依存関係を
// ワイヤリングしてHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. Key-Valueストア接続
	redisClient, err := kvstore.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	kv := kvstore.NewRedisStore(redisClient)

	slog.Info("key-value store connection established")

	// 3. 外部HTTPクライアントの初期化
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	identityClient := identity.NewClient(httpClient, slog.Default(), identity.Config{
		BaseURL:    cfg.IdentityURL,
		ServiceKey: cfg.IdentityServiceKey,
	})
	storageClient := storage.NewClient(httpClient, storage.Config{
		BaseURL:    cfg.StorageURL,
		ServiceKey: cfg.IdentityServiceKey,
		SignedTTL:  cfg.SignedURLTTL,
	})
	mailClient := mailer.NewClient(httpClient, slog.Default(), cfg.ResendAPIKey)

	// 4. リポジトリの初期化
	profileRepo := repository.NewPostgresProfileRepo(db)
	purchaseRepo := repository.NewPostgresPurchaseRepo(db)
	bookingRepo := repository.NewPostgresBookingRepo(db)
	legacyRepo := repository.NewPostgresLegacyRepo(db)
	inspector := repository.NewPostgresInspector(db)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. ドメインサービスの初期化
	sanitizer := security.NewMessageSanitizer()

	signupService := signup.NewService(identityClient, legacyRepo, collector, slog.Default())
	userDataService := userdata.NewService(profileRepo, purchaseRepo, bookingRepo, kv, collector, slog.Default())
	bookingService := booking.NewService(bookingRepo, kv, collector, slog.Default())
	contactService := contact.NewService(kv, mailClient, sanitizer, collector, slog.Default(), contact.Config{
		NotifyTo:   cfg.NotifyEmailTo,
		NotifyFrom: cfg.NotifyEmailFrom,
	})
	adminService := admin.NewService(identityClient, cfg.AdminSecretCode, slog.Default())

	if !cfg.AdminEnabled() {
		slog.Info("admin promotion disabled: ADMIN_SECRET_CODE not set")
	}
	if !cfg.EmailEnabled() {
		slog.Info("email dispatch disabled: RESEND_API_KEY not set")
	}

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitPublic))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:     identityClient,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		StatusRecorder:    collector,
		Logger:            slog.Default(),

		SignupService:   signupService,
		UserDataService: userDataService,
		BookingService:  bookingService,
		ContactService:  contactService,
		AdminService:    adminService,

		TableInspector: inspector,
		BucketLister:   storageClient,
		URLSigner:      storageClient,

		MetricsHandler: metrics.NewHandler(registry),
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
// テーブルを用意しない運用（Key-Valueフォールバックのみ）も許容
// されるため、マイグレーションは任意のサブコマンドになっている。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
