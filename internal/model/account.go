// Package model はドメインモデルを定義する。
package model

import "time"

// Provider は外部IdPの種別を表す。
type Provider string

const (
	// ProviderGoogle はGoogle OAuth 2.0プロバイダー。
	ProviderGoogle Provider = "google"
	// ProviderGithub はGitHub OAuthプロバイダー。
	ProviderGithub Provider = "github"
)

// Valid は既知のプロバイダーかどうかを返す。
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderGithub
}

// ParseProvider は文字列をProviderに解析する。
// 未知のプロバイダーの場合はfalseを返す。
func ParseProvider(s string) (Provider, bool) {
	p := Provider(s)
	if !p.Valid() {
		return "", false
	}
	return p, true
}

// Account はローカルユーザーアカウントを表す。
// GoogleSubjectID / GithubSubjectID は作成時にどちらか一方のみ設定され、
// 以降のログインで変更されることはない。空文字列は未設定を意味する。
type Account struct {
	ID              string
	GoogleSubjectID string
	GithubSubjectID string
	DisplayName     string
	CreatedAt       time.Time
}

// SubjectID は指定プロバイダーのsubject identifierを返す。
// 未設定または未知のプロバイダーの場合は空文字列を返す。
func (a *Account) SubjectID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return a.GoogleSubjectID
	case ProviderGithub:
		return a.GithubSubjectID
	}
	return ""
}

// Session はアカウントに紐づくサーバーサイドセッションを表す。
// ペイロードにはアカウントIDのみを保持し、アカウント本体は保持しない。
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}
