// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MessageSanitizerService はお問い合わせフォームの入力をサニタイズし、
// 保存したメッセージを管理画面で表示する際のXSSを防ぐ。
// bluemondayのStrictPolicy（全タグ除去）を使用し、平文テキストのみを残す。
package security

import "github.com/microcosm-cc/bluemonday"

// MessageSanitizerService はテキストサニタイズ機能のインターフェースを定義する。
// お問い合わせメッセージの保存前に使用される。
type MessageSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去して平文を返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// messageSanitizer はMessageSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type messageSanitizer struct {
	policy *bluemonday.Policy
}

// NewMessageSanitizer はMessageSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはすべてのタグと属性を除去し、テキストノードのみを残す。
func NewMessageSanitizer() MessageSanitizerService {
	return &messageSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLタグを除去して平文を返す。
func (s *messageSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return s.policy.Sanitize(raw)
}
