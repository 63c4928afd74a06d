package model

import "time"

// ContactStatus はお問い合わせメッセージの処理状態を表す。
type ContactStatus string

const (
	// ContactUnread は未対応のメッセージ。保存時のデフォルト。
	ContactUnread ContactStatus = "unread"
	// ContactRead は対応済みのメッセージ。
	ContactRead ContactStatus = "read"
)

// ContactMessage はお問い合わせフォームから受け付けたメッセージを表す。
// メール通知の成否に関わらず、受付時点でKey-Valueストアに永続化される。
type ContactMessage struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
