// Package mailer はResend APIによるトランザクションメール送信を提供する。
//
// メール送信はベストエフォートの副チャネルであり、呼び出し元の
// 主処理（メッセージの永続化）の成否には影響させない。
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// defaultEndpoint はResendのメール送信APIのエンドポイント。
const defaultEndpoint = "https://api.resend.com/emails"

// ErrNotConfigured はAPIキーが未設定で送信がスキップされたことを表す。
// このメッセージはそのまま診断フィールド（emailDebug）に使われる。
var ErrNotConfigured = errors.New("RESEND_API_KEY not configured")

// Message は送信するメールを表す。
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Client はResend APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// apiKeyが空の場合、Sendは常にErrNotConfiguredを返す。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
	}
}

// Send はメールを1通送信する。
// APIキー未設定の場合はErrNotConfiguredを返す（送信は行わない）。
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("email send request failed",
			slog.String("error", err.Error()),
			slog.String("subject", msg.Subject),
		)
		return fmt.Errorf("email send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("email provider returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("subject", msg.Subject),
		)
		return fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
