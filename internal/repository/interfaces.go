// Package repository はリレーショナルストアへのデータアクセスを定義する。
//
// テーブルはデプロイによって存在しないことがある。各メソッドは
// 「クエリがエラーなく実行できたか」と「結果が空か」を区別して返す:
// 空の結果は正常（空スライス/nil）、テーブル欠如はerrorとして返り、
// 呼び出し側がKey-Valueストアへのフォールバックを判断する。
package repository

import (
	"context"

	"github.com/pulsecert/portal-api/internal/model"
)

// ProfileRepository はprofiles行の読み取りインターフェース。
type ProfileRepository interface {
	// FindByUserID は指定ユーザーのプロフィールを取得する。
	// 行が見つからない場合はnilを返す（エラーではない）。
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)
}

// PurchaseRepository は購入記録の読み取りインターフェース。
type PurchaseRepository interface {
	// ListByUserID は指定ユーザーの購入一覧を返す。
	// 行がない場合は空スライスを返す。テーブル欠如はエラー。
	ListByUserID(ctx context.Context, userID string) ([]model.Purchase, error)
}

// BookingRepository は予約の永続化インターフェース。
type BookingRepository interface {
	// Create は予約を作成する。
	Create(ctx context.Context, booking *model.Booking) error

	// ListByUserID は指定ユーザーの予約一覧を返す。
	// 行がない場合は空スライスを返す。テーブル欠如はエラー。
	ListByUserID(ctx context.Context, userID string) ([]model.Booking, error)
}

// LegacyRecordCleaner はサインアップ前の孤児レコード整理に使う
// テーブル横断の操作インターフェース。対象テーブルはemail列を持つ
// 既知の候補（profiles, users）に限られる。
type LegacyRecordCleaner interface {
	// CountByEmail はtable内のemail一致行数を返す。
	// テーブルが存在しない場合はエラーを返す（呼び出し側は「残存レコードなし」と扱う）。
	CountByEmail(ctx context.Context, table, email string) (int, error)

	// DeleteByEmail はtable内のemail一致行を削除する。
	DeleteByEmail(ctx context.Context, table, email string) error

	// ArchiveEmail はtable内のemail一致行のemail列をarchivedEmailに書き換える。
	// 参照整合性制約などで削除できない行のemailを解放するために使う。
	ArchiveEmail(ctx context.Context, table, email, archivedEmail string) error
}

// TableInspector はテーブルの存在診断インターフェース。
type TableInspector interface {
	// InspectTable はtableに対する軽量なクエリを実行し、
	// 成功すればnil、失敗すればそのエラーを返す。
	InspectTable(ctx context.Context, table string) error
}
