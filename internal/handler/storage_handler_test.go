package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockURLSigner struct {
	signFn func(ctx context.Context, path string) (string, error)
}

func (m *mockURLSigner) CreateSignedURL(ctx context.Context, path string) (string, error) {
	return m.signFn(ctx, path)
}

// TestGetSignedURL_Success は発行されたURLがsignedUrlフィールドで
// 返ることを検証する。
func TestGetSignedURL_Success(t *testing.T) {
	signer := &mockURLSigner{
		signFn: func(ctx context.Context, path string) (string, error) {
			if path != "materials/guide.pdf" {
				t.Errorf("path = %q, want materials/guide.pdf", path)
			}
			return "https://storage.example/storage/v1/object/sign/materials/guide.pdf?token=abc", nil
		},
	}
	h := NewStorageHandler(signer)

	req := httptest.NewRequest(http.MethodPost, "/get-signed-url", strings.NewReader(`{"path":"materials/guide.pdf"}`))
	rec := httptest.NewRecorder()
	h.GetSignedURL(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp["signedUrl"], "token=abc") {
		t.Errorf("signedUrl = %q, want the signed URL", resp["signedUrl"])
	}
}

// TestGetSignedURL_MissingPath はpath欠落が400になることを検証する。
func TestGetSignedURL_MissingPath(t *testing.T) {
	h := NewStorageHandler(&mockURLSigner{
		signFn: func(ctx context.Context, path string) (string, error) {
			t.Error("signer should not be called without a path")
			return "", nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/get-signed-url", strings.NewReader(`{"path":"  "}`))
	rec := httptest.NewRecorder()
	h.GetSignedURL(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestGetSignedURL_SignFailure は発行失敗が400とエラー詳細で
// 返ることを検証する。
func TestGetSignedURL_SignFailure(t *testing.T) {
	signer := &mockURLSigner{
		signFn: func(ctx context.Context, path string) (string, error) {
			return "", fmt.Errorf("storage service returned status 404")
		},
	}
	h := NewStorageHandler(signer)

	req := httptest.NewRequest(http.MethodPost, "/get-signed-url", strings.NewReader(`{"path":"missing.pdf"}`))
	rec := httptest.NewRecorder()
	h.GetSignedURL(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(fmt.Sprint(resp["error"]), "404") {
		t.Errorf("error = %v, want storage detail", resp["error"])
	}
}
