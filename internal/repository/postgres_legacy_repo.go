package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// legacyTables はクリーンアップ対象として許可するテーブル名。
// テーブル名はSQLに識別子として埋め込むため、許可リストで固定する。
var legacyTables = map[string]bool{
	"profiles": true,
	"users":    true,
}

// PostgresLegacyRepo はPostgreSQLを使用した孤児レコード整理リポジトリ。
// サインアップ再作成をブロックしうる残存行の検出・削除・アーカイブを行う。
type PostgresLegacyRepo struct {
	db *sql.DB
}

// NewPostgresLegacyRepo はPostgresLegacyRepoを生成する。
func NewPostgresLegacyRepo(db *sql.DB) *PostgresLegacyRepo {
	return &PostgresLegacyRepo{db: db}
}

// CountByEmail はtable内のemail一致行数を返す。
func (r *PostgresLegacyRepo) CountByEmail(ctx context.Context, table, email string) (int, error) {
	if !legacyTables[table] {
		return 0, fmt.Errorf("table %s is not a cleanup candidate", table)
	}

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE email = $1`, pq.QuoteIdentifier(table))
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// DeleteByEmail はtable内のemail一致行を削除する。
func (r *PostgresLegacyRepo) DeleteByEmail(ctx context.Context, table, email string) error {
	if !legacyTables[table] {
		return fmt.Errorf("table %s is not a cleanup candidate", table)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE email = $1`, pq.QuoteIdentifier(table))
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("failed to delete rows in %s: %w", table, err)
	}
	return nil
}

// ArchiveEmail はtable内のemail一致行のemail列をarchivedEmailに書き換える。
func (r *PostgresLegacyRepo) ArchiveEmail(ctx context.Context, table, email, archivedEmail string) error {
	if !legacyTables[table] {
		return fmt.Errorf("table %s is not a cleanup candidate", table)
	}

	query := fmt.Sprintf(`UPDATE %s SET email = $1 WHERE email = $2`, pq.QuoteIdentifier(table))
	if _, err := r.db.ExecContext(ctx, query, archivedEmail, email); err != nil {
		return fmt.Errorf("failed to archive rows in %s: %w", table, err)
	}
	return nil
}

// compile-time interface check
var _ LegacyRecordCleaner = (*PostgresLegacyRepo)(nil)
