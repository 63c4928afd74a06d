// Package identity は外部Identity Providerのクライアントを提供する。
//
// Providerはトークン検証・ユーザー管理をHTTP APIとして公開する
// GoTrue互換のサービスであり、このシステムはその内部（パスワード
// ハッシュ・トークン発行）には関知しない。
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pulsecert/portal-api/internal/model"
)

// ErrInvalidToken はトークンが無効または期限切れであることを表す。
var ErrInvalidToken = errors.New("invalid or expired token")

// Config はIdentity Providerクライアントの設定。
type Config struct {
	BaseURL    string // 例: "https://auth.pulsecert.example"
	ServiceKey string // 管理API用のサービスキー
}

// Client はIdentity ProviderのHTTPクライアント。
// 管理APIの呼び出しにはサービスキーを、トークン検証には
// ユーザーのbearerトークンをそのまま使用する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     Config
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, config Config) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
	}
}

// GetUserByToken はbearerトークンを検証し、対応するユーザーを返す。
// トークンが無効な場合はErrInvalidTokenを返す。
func (c *Client) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.config.ServiceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var user model.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}

	return &user, nil
}

// listUsersResponse は管理API一覧エンドポイントのレスポンス。
type listUsersResponse struct {
	Users []model.User `json:"users"`
}

// ListUsers は全ユーザーを取得する。管理API専用。
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/auth/v1/admin/users", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create list users request: %w", err)
	}
	c.setAdminHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list users request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var result listUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode list users response: %w", err)
	}

	return result.Users, nil
}

// FindUserByEmail はメールアドレスでアクティブユーザーを検索する。
// 見つからない場合はnilを返す。比較は大文字小文字を区別しない。
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// createUserRequest は管理APIのユーザー作成リクエストボディ。
type createUserRequest struct {
	Email        string             `json:"email"`
	Password     string             `json:"password"`
	EmailConfirm bool               `json:"email_confirm"`
	UserMetadata model.UserMetadata `json:"user_metadata"`
}

// CreateUser はメール確認済みの新規ユーザーを作成する。
// Provider側の一意性制約に違反した場合など、作成に失敗したときは
// Providerのエラーメッセージをそのままerrorに含めて返す。
func (c *Client) CreateUser(ctx context.Context, email, password string, metadata model.UserMetadata) (*model.User, error) {
	body, err := json.Marshal(createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create user request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/auth/v1/admin/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create user creation request: %w", err)
	}
	c.setAdminHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user creation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("identity provider rejected user creation",
			slog.Int("http_status", resp.StatusCode),
			slog.String("email", email),
		)
		return nil, fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, readErrorMessage(resp.Body))
	}

	var user model.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode create user response: %w", err)
	}

	return &user, nil
}

// UpdateUserMetadata は指定ユーザーのメタデータを更新する。
// role昇格（make-admin）で使用する。
func (c *Client) UpdateUserMetadata(ctx context.Context, userID string, metadata model.UserMetadata) error {
	body, err := json.Marshal(map[string]model.UserMetadata{"user_metadata": metadata})
	if err != nil {
		return fmt.Errorf("failed to marshal metadata update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.config.BaseURL+"/auth/v1/admin/users/"+userID, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create metadata update request: %w", err)
	}
	c.setAdminHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("metadata update request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, readErrorMessage(resp.Body))
	}

	return nil
}

// setAdminHeaders は管理APIの認証ヘッダーを設定する。
func (c *Client) setAdminHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.config.ServiceKey)
	req.Header.Set("apikey", c.config.ServiceKey)
}

// providerError はProviderのエラーレスポンスボディ。
type providerError struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
	Error   string `json:"error"`
}

// readErrorMessage はエラーレスポンスボディからメッセージを抽出する。
// JSONでない場合は先頭部分をそのまま返す。
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}

	var pe providerError
	if err := json.Unmarshal(data, &pe); err == nil {
		switch {
		case pe.Message != "":
			return pe.Message
		case pe.Msg != "":
			return pe.Msg
		case pe.Error != "":
			return pe.Error
		}
	}
	return string(data)
}
