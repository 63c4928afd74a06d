package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsecert/portal-api/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByUserID は指定ユーザーのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, name, role, certification_level, created_at, updated_at
		 FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&profile.UserID, &profile.Email, &profile.Name, &profile.Role,
		&profile.CertLevel, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by user ID: %w", err)
	}

	return profile, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
