package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsecert/portal-api/internal/model"
)

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

// Create は予約を作成する。
func (r *PostgresBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, date, time, instructor, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		booking.ID, booking.UserID, booking.Date, booking.Time,
		booking.Instructor, booking.Type, booking.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// ListByUserID は指定ユーザーの予約一覧を返す。行がない場合は空スライスを返す。
func (r *PostgresBookingRepo) ListByUserID(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, time, instructor, type, created_at
		 FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.Date, &b.Time, &b.Instructor, &b.Type, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booking rows: %w", err)
	}

	return bookings, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
