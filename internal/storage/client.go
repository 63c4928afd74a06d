// Package storage はオブジェクトストレージの署名付きURL発行クライアントを提供する。
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config はストレージクライアントの設定。
type Config struct {
	BaseURL    string        // 例: "https://auth.pulsecert.example"（Identity Providerと同一ホスト）
	ServiceKey string        // 管理API用のサービスキー
	SignedTTL  time.Duration // 署名付きURLの有効期間
}

// Client はストレージAPIのHTTPクライアント。
// 署名自体はストレージサービス側が行い、このクライアントは
// 発行エンドポイントを呼び出すだけである。
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, config Config) *Client {
	return &Client{
		httpClient: httpClient,
		config:     config,
	}
}

// signRequest は署名付きURL発行リクエストのボディ。
type signRequest struct {
	ExpiresIn int `json:"expiresIn"` // 秒
}

// signResponse は署名付きURL発行レスポンスのボディ。
type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// CreateSignedURL はオブジェクトパスに対する署名付きURLを発行する。
// pathは "bucket/dir/file.pdf" 形式。返り値は完全なURL。
func (c *Client) CreateSignedURL(ctx context.Context, path string) (string, error) {
	path = strings.TrimPrefix(path, "/")

	body, err := json.Marshal(signRequest{ExpiresIn: int(c.config.SignedTTL.Seconds())})
	if err != nil {
		return "", fmt.Errorf("failed to marshal sign request: %w", err)
	}

	url := c.config.BaseURL + "/storage/v1/object/sign/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create sign request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage service returned status %d", resp.StatusCode)
	}

	var result signResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode sign response: %w", err)
	}
	if result.SignedURL == "" {
		return "", fmt.Errorf("storage service returned empty signed URL")
	}

	return c.config.BaseURL + "/storage/v1" + result.SignedURL, nil
}

// bucket はバケット一覧レスポンスの要素。
type bucket struct {
	Name string `json:"name"`
}

// ListBuckets は全バケット名を返す。診断エンドポイントで使用する。
func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/storage/v1/bucket", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.ServiceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bucket list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storage service returned status %d", resp.StatusCode)
	}

	var buckets []bucket
	if err := json.NewDecoder(resp.Body).Decode(&buckets); err != nil {
		return nil, fmt.Errorf("failed to decode bucket list response: %w", err)
	}

	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}
