// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/authgate/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindBySubject はプロバイダーとsubject identifierでアカウントを検索する。
	// 見つからない場合はnilを返す。
	FindBySubject(ctx context.Context, provider model.Provider, subjectID string) (*model.Account, error)

	// Insert は新規アカウントを作成する。IDはストア層で採番され、
	// 採番済みのアカウントを返す。subject列のユニーク制約違反はStoreErrorとして返る。
	Insert(ctx context.Context, account *model.Account) (*model.Account, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。未知または期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}
