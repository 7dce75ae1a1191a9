package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/authgate/internal/model"
	"github.com/lib/pq"
)

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = pq.ErrorCode("23505")

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// subjectColumn はプロバイダーに対応するaccountsテーブルの列名を返す。
func subjectColumn(p model.Provider) (string, error) {
	switch p {
	case model.ProviderGoogle:
		return "google_subject_id", nil
	case model.ProviderGithub:
		return "github_subject_id", nil
	}
	return "", fmt.Errorf("unknown provider: %s", p)
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return r.findOne(ctx,
		`SELECT id, google_subject_id, github_subject_id, display_name, created_at
		 FROM accounts
		 WHERE id = $1`,
		id,
	)
}

// FindBySubject はプロバイダーとsubject identifierでアカウントを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindBySubject(ctx context.Context, provider model.Provider, subjectID string) (*model.Account, error) {
	column, err := subjectColumn(provider)
	if err != nil {
		return nil, err
	}

	// columnはsubjectColumnが返す固定の列名のみ。
	query := fmt.Sprintf(
		`SELECT id, google_subject_id, github_subject_id, display_name, created_at
		 FROM accounts
		 WHERE %s = $1`, column)

	return r.findOne(ctx, query, subjectID)
}

// Insert は新規アカウントを作成する。IDとCreatedAtはストア層で採番し、
// 採番済みのアカウントを返す。
// subject列のユニークインデックス違反（同一subjectの同時初回ログイン等）は
// StoreErrorとして返り、部分的なアカウントが返ることはない。
func (r *PostgresAccountRepo) Insert(ctx context.Context, account *model.Account) (*model.Account, error) {
	id := uuid.New().String()
	now := time.Now()

	// 空文字列はNULLとして保存する。ユニークインデックスを
	// 空文字列同士の衝突で破綻させないため。
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, google_subject_id, github_subject_id, display_name, created_at)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)`,
		id, account.GoogleSubjectID, account.GithubSubjectID, account.DisplayName, now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, model.NewStoreError("insert account (unique violation)", err)
		}
		return nil, model.NewStoreError("insert account", err)
	}

	inserted := *account
	inserted.ID = id
	inserted.CreatedAt = now
	return &inserted, nil
}

// findOne は1件取得クエリを実行する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) findOne(ctx context.Context, query string, arg any) (*model.Account, error) {
	account := &model.Account{}
	var googleSubject, githubSubject sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &googleSubject, &githubSubject, &account.DisplayName, &account.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStoreError("find account", err)
	}

	account.GoogleSubjectID = googleSubject.String
	account.GithubSubjectID = githubSubject.String
	return account, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
