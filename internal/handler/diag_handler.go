package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pulsecert/portal-api/internal/repository"
)

// BucketLister はバケット一覧の取得に必要なインターフェース。
// storage.Clientの部分集合として定義する。
type BucketLister interface {
	ListBuckets(ctx context.Context) ([]string, error)
}

// DiagHandler は運用診断のHTTPハンドラー。
// どのテーブル・バケットが実在するかをそのまま返すだけの
// デバッグツールであり、アクセス制御は持たない（既知の課題）。
type DiagHandler struct {
	inspector repository.TableInspector
	buckets   BucketLister
}

// NewDiagHandler はDiagHandlerを生成する。
func NewDiagHandler(inspector repository.TableInspector, buckets BucketLister) *DiagHandler {
	return &DiagHandler{
		inspector: inspector,
		buckets:   buckets,
	}
}

// Health はヘルスチェックに応答する。
// GET /health
func (h *DiagHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// inspectResponse は診断レスポンスのボディ。
type inspectResponse struct {
	Tables  map[string]string `json:"tables"`
	Buckets []string          `json:"buckets"`
}

// InspectTables は各テーブルの存在状況とバケット一覧を返す。
// GET /inspect-tables
func (h *DiagHandler) InspectTables(w http.ResponseWriter, r *http.Request) {
	resp := inspectResponse{
		Tables:  make(map[string]string),
		Buckets: []string{},
	}

	for _, table := range repository.InspectableTables() {
		if err := h.inspector.InspectTable(r.Context(), table); err != nil {
			resp.Tables[table] = fmt.Sprintf("Error: %v", err)
			continue
		}
		resp.Tables[table] = "Exists"
	}

	buckets, err := h.buckets.ListBuckets(r.Context())
	if err != nil {
		resp.Buckets = []string{fmt.Sprintf("Error: %v", err)}
	} else {
		resp.Buckets = buckets
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
