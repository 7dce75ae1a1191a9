// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// セッション解決の失敗種別。
// セッション参照の失効とアカウントの消失は別問題として区別する。
var (
	// ErrSessionNotFound はセッション参照が未知または期限切れであることを示す。
	ErrSessionNotFound = errors.New("session not found")
	// ErrAccountNotFound はセッションが参照するアカウントが存在しないことを示す。
	ErrAccountNotFound = errors.New("account not found")
)

// StoreError はストアへの到達失敗または制約違反を表す。
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError はStoreErrorを生成する。
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// Error はerrorインターフェースを実装する。
func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

// Unwrap は原因となったエラーを返す。
func (e *StoreError) Unwrap() error {
	return e.Err
}

// ProviderAuthError はOAuth2プロバイダーのレスポンス検証に失敗したことを表す。
type ProviderAuthError struct {
	Provider Provider
	Err      error
}

// Error はerrorインターフェースを実装する。
func (e *ProviderAuthError) Error() string {
	return fmt.Sprintf("provider auth failure (%s): %v", e.Provider, e.Err)
}

// Unwrap は原因となったエラーを返す。
func (e *ProviderAuthError) Unwrap() error {
	return e.Err
}

// APIError は統一エラーフォーマットを表す。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInternal = "INTERNAL_ERROR"
)

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
