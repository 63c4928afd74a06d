package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// inspectableTables は診断対象として許可するテーブル名。
var inspectableTables = map[string]bool{
	"profiles":         true,
	"users":            true,
	"purchases":        true,
	"bookings":         true,
	"contact_messages": true,
}

// InspectableTables は診断対象テーブル名の一覧を返す。出力順は固定。
func InspectableTables() []string {
	return []string{"profiles", "users", "purchases", "bookings", "contact_messages"}
}

// PostgresInspector はPostgreSQLを使用したテーブル診断リポジトリ。
// 運用時に「どのテーブルが実在するか」を確認するためのもの。
type PostgresInspector struct {
	db *sql.DB
}

// NewPostgresInspector はPostgresInspectorを生成する。
func NewPostgresInspector(db *sql.DB) *PostgresInspector {
	return &PostgresInspector{db: db}
}

// InspectTable はtableに対する軽量なクエリを実行する。
// テーブルが存在すればnil、しなければドライバのエラーをそのまま返す。
func (r *PostgresInspector) InspectTable(ctx context.Context, table string) error {
	if !inspectableTables[table] {
		return fmt.Errorf("table %s is not inspectable", table)
	}

	query := fmt.Sprintf(`SELECT 1 FROM %s LIMIT 1`, pq.QuoteIdentifier(table))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	return rows.Close()
}

// compile-time interface check
var _ TableInspector = (*PostgresInspector)(nil)
