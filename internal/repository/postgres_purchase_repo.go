package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsecert/portal-api/internal/model"
)

// PostgresPurchaseRepo はPostgreSQLを使用した購入記録リポジトリ。
type PostgresPurchaseRepo struct {
	db *sql.DB
}

// NewPostgresPurchaseRepo はPostgresPurchaseRepoを生成する。
func NewPostgresPurchaseRepo(db *sql.DB) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{db: db}
}

// ListByUserID は指定ユーザーの購入一覧を返す。行がない場合は空スライスを返す。
func (r *PostgresPurchaseRepo) ListByUserID(ctx context.Context, userID string) ([]model.Purchase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, product, amount_cents, purchased_at
		 FROM purchases WHERE user_id = $1 ORDER BY purchased_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []model.Purchase{}
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.Product, &p.AmountCents, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase row: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchase rows: %w", err)
	}

	return purchases, nil
}

// compile-time interface check
var _ PurchaseRepository = (*PostgresPurchaseRepo)(nil)
