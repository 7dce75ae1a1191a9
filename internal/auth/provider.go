// Package auth はOAuth認証フロー、アカウント解決、セッション管理を提供する。
package auth

import (
	"context"

	"github.com/hitoshi/authgate/internal/model"
)

// Profile はOAuthプロバイダーが検証済みのユーザープロファイルを表す。
type Profile struct {
	Provider    model.Provider
	SubjectID   string
	DisplayName string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 認可コード交換とプロファイル取得はプロバイダー実装が担い、
// 呼び出し側は検証済みのProfileのみを受け取る。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロファイルを取得する。
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}
