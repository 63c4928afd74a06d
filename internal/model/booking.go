package model

import "time"

// Booking は講習セッションの予約を表す。
// 日付・時刻はフロントエンドが選択した文字列をそのまま保持する。
type Booking struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Instructor string    `json:"instructor"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Purchase は教材・講習の購入記録を表す。
type Purchase struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Product     string    `json:"product"`
	AmountCents int64     `json:"amount_cents"`
	PurchasedAt time.Time `json:"purchased_at"`
}
