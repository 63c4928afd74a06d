// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleClient は一般受講者を表す。サインアップ時のデフォルト。
	RoleClient Role = "client"
	// RoleAdmin は管理者を表す。make-admin操作でのみ昇格される。
	RoleAdmin Role = "admin"
)

// CertLevel はEMS資格レベルを表す。
type CertLevel string

const (
	CertEMT       CertLevel = "EMT"
	CertAEMT      CertLevel = "AEMT"
	CertParamedic CertLevel = "Paramedic"
)

// UserMetadata はIdentity Providerのユーザーレコードに付随するメタデータ。
// 作成時にname/roleを設定し、role昇格や資格レベル変更はメタデータ更新で行う。
type UserMetadata struct {
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CertLevel CertLevel `json:"certification_level,omitempty"`
}

// User はIdentity Providerが所有するユーザーレコードを表す。
// このシステムはUserを直接永続化せず、Providerへの問い合わせ結果として扱う。
type User struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Metadata  UserMetadata `json:"user_metadata"`
	CreatedAt time.Time    `json:"created_at"`
}

// Profile はリレーショナルストアのprofiles行を表す。
// Userの部分集合のミラーであり、デプロイによっては存在しない。
// Providerのアカウント削除後に行だけが残る「孤児」状態がありうる。
type Profile struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CertLevel CertLevel `json:"certification_level,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
