package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
)

// Resolver は外部プロバイダーのidentityをローカルアカウントへ解決する。
// I/Oはアカウントリポジトリ経由に限定した純粋なドメインロジック。
type Resolver struct {
	accounts repository.AccountRepository
}

// NewResolver はResolverを生成する。
func NewResolver(accounts repository.AccountRepository) *Resolver {
	return &Resolver{accounts: accounts}
}

// Resolve はプロバイダーとsubject identifierからアカウントを解決する。
// 既存アカウントが見つかった場合はフィールドを一切更新せずそのまま返す。
// 見つからない場合は該当プロバイダーのsubject列のみを設定した新規アカウントを
// 作成して返す。ストアの検索・作成に失敗した場合はエラーを返し、
// 不完全なアカウントが返ることはない。
func (r *Resolver) Resolve(ctx context.Context, provider model.Provider, subjectID, displayName string) (*model.Account, error) {
	if !provider.Valid() {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}

	account, err := r.accounts.FindBySubject(ctx, provider, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if account != nil {
		slog.Info("existing account resolved",
			slog.String("account_id", account.ID),
			slog.String("provider", string(provider)),
		)
		return account, nil
	}

	newAccount := &model.Account{DisplayName: displayName}
	switch provider {
	case model.ProviderGoogle:
		newAccount.GoogleSubjectID = subjectID
	case model.ProviderGithub:
		newAccount.GithubSubjectID = subjectID
	}

	created, err := r.accounts.Insert(ctx, newAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("new account created",
		slog.String("account_id", created.ID),
		slog.String("provider", string(provider)),
	)
	return created, nil
}
