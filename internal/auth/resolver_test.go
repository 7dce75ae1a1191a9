package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
)

// --- モック定義 ---

type mockAccountRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.Account, error)
	findBySubjectFn func(ctx context.Context, provider model.Provider, subjectID string) (*model.Account, error)
	insertFn        func(ctx context.Context, account *model.Account) (*model.Account, error)
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAccountRepo) FindBySubject(ctx context.Context, provider model.Provider, subjectID string) (*model.Account, error) {
	if m.findBySubjectFn != nil {
		return m.findBySubjectFn(ctx, provider, subjectID)
	}
	return nil, nil
}

func (m *mockAccountRepo) Insert(ctx context.Context, account *model.Account) (*model.Account, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, account)
	}
	return nil, nil
}

// --- compile-time interface checks ---
var _ repository.AccountRepository = (*mockAccountRepo)(nil)

// inMemoryAccountRepo はsubject単位の一意性を模したインメモリ実装。
// 解決の冪等性テストに使用する。
type inMemoryAccountRepo struct {
	accounts []*model.Account
	nextID   int
	inserts  int
}

func (r *inMemoryAccountRepo) FindByID(_ context.Context, id string) (*model.Account, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) FindBySubject(_ context.Context, provider model.Provider, subjectID string) (*model.Account, error) {
	for _, a := range r.accounts {
		if a.SubjectID(provider) == subjectID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) Insert(_ context.Context, account *model.Account) (*model.Account, error) {
	r.nextID++
	r.inserts++
	copied := *account
	copied.ID = fmt.Sprintf("account-%d", r.nextID)
	r.accounts = append(r.accounts, &copied)
	result := copied
	return &result, nil
}

var _ repository.AccountRepository = (*inMemoryAccountRepo)(nil)

// --- テスト ---

func TestResolve_NewSubject_CreatesAccountWithSingleProviderField(t *testing.T) {
	ctx := context.Background()

	var inserted *model.Account
	repo := &mockAccountRepo{
		insertFn: func(ctx context.Context, account *model.Account) (*model.Account, error) {
			inserted = account
			created := *account
			created.ID = "account-id-1"
			return &created, nil
		},
	}
	resolver := NewResolver(repo)

	account, err := resolver.Resolve(ctx, model.ProviderGithub, "gh-42", "carol")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if account.ID != "account-id-1" {
		t.Errorf("account ID = %q, want %q", account.ID, "account-id-1")
	}
	if account.GithubSubjectID != "gh-42" {
		t.Errorf("githubSubjectID = %q, want %q", account.GithubSubjectID, "gh-42")
	}
	if account.DisplayName != "carol" {
		t.Errorf("displayName = %q, want %q", account.DisplayName, "carol")
	}

	// 作成時は該当プロバイダーのsubject列のみが設定されること
	if inserted == nil {
		t.Fatal("expected account to be inserted")
	}
	if inserted.GoogleSubjectID != "" {
		t.Errorf("googleSubjectID should be empty at creation, got %q", inserted.GoogleSubjectID)
	}
}

func TestResolve_SameSubjectTwice_ReturnsSameAccountWithoutSecondInsert(t *testing.T) {
	ctx := context.Background()
	repo := &inMemoryAccountRepo{}
	resolver := NewResolver(repo)

	first, err := resolver.Resolve(ctx, model.ProviderGoogle, "sub-abc", "Alice")
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}

	second, err := resolver.Resolve(ctx, model.ProviderGoogle, "sub-abc", "Alice")
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("account IDs differ: %q vs %q", first.ID, second.ID)
	}
	if repo.inserts != 1 {
		t.Errorf("inserts = %d, want 1", repo.inserts)
	}
}

func TestResolve_SameSubjectDifferentProviders_CreatesDistinctAccounts(t *testing.T) {
	ctx := context.Background()
	repo := &inMemoryAccountRepo{}
	resolver := NewResolver(repo)

	// プロバイダーごとにsubject identifierは独立したキー空間を持つ
	googleAccount, err := resolver.Resolve(ctx, model.ProviderGoogle, "abc", "Alice")
	if err != nil {
		t.Fatalf("google Resolve() error = %v", err)
	}

	githubAccount, err := resolver.Resolve(ctx, model.ProviderGithub, "abc", "Bob")
	if err != nil {
		t.Fatalf("github Resolve() error = %v", err)
	}

	if googleAccount.ID == githubAccount.ID {
		t.Errorf("expected distinct accounts, both have ID %q", googleAccount.ID)
	}
	if repo.inserts != 2 {
		t.Errorf("inserts = %d, want 2", repo.inserts)
	}
}

func TestResolve_ExistingAccount_ReturnsUnmodified(t *testing.T) {
	ctx := context.Background()

	existing := &model.Account{
		ID:              "account-id-1",
		GoogleSubjectID: "sub-abc",
		DisplayName:     "Original Name",
	}
	repo := &mockAccountRepo{
		findBySubjectFn: func(ctx context.Context, provider model.Provider, subjectID string) (*model.Account, error) {
			return existing, nil
		},
		insertFn: func(ctx context.Context, account *model.Account) (*model.Account, error) {
			t.Fatal("Insert should not be called for an existing account")
			return nil, nil
		},
	}
	resolver := NewResolver(repo)

	// 2回目以降のログインでは表示名を上書きしない
	account, err := resolver.Resolve(ctx, model.ProviderGoogle, "sub-abc", "New Name")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if account.DisplayName != "Original Name" {
		t.Errorf("displayName = %q, want %q", account.DisplayName, "Original Name")
	}
}

func TestResolve_EmptySubjectID_ReturnsError(t *testing.T) {
	resolver := NewResolver(&mockAccountRepo{})

	_, err := resolver.Resolve(context.Background(), model.ProviderGoogle, "", "Alice")
	if err == nil {
		t.Fatal("expected error for empty subject ID")
	}
}

func TestResolve_UnknownProvider_ReturnsError(t *testing.T) {
	resolver := NewResolver(&mockAccountRepo{})

	_, err := resolver.Resolve(context.Background(), model.Provider("twitter"), "sub-abc", "Alice")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestResolve_FindFails_ReturnsStoreFailure(t *testing.T) {
	storeErr := model.NewStoreError("find account", errors.New("connection refused"))
	repo := &mockAccountRepo{
		findBySubjectFn: func(ctx context.Context, provider model.Provider, subjectID string) (*model.Account, error) {
			return nil, storeErr
		},
	}
	resolver := NewResolver(repo)

	_, err := resolver.Resolve(context.Background(), model.ProviderGoogle, "sub-abc", "Alice")
	if err == nil {
		t.Fatal("expected error when store lookup fails")
	}

	var se *model.StoreError
	if !errors.As(err, &se) {
		t.Errorf("expected StoreError in chain, got %v", err)
	}
}

func TestResolve_InsertFails_NoAccountReturned(t *testing.T) {
	storeErr := model.NewStoreError("insert account (unique violation)", errors.New("duplicate key"))
	repo := &mockAccountRepo{
		insertFn: func(ctx context.Context, account *model.Account) (*model.Account, error) {
			return nil, storeErr
		},
	}
	resolver := NewResolver(repo)

	account, err := resolver.Resolve(context.Background(), model.ProviderGithub, "gh-1", "carol")
	if err == nil {
		t.Fatal("expected error when insert fails")
	}
	// 不完全なアカウントが返らないこと
	if account != nil {
		t.Errorf("expected nil account on failure, got %+v", account)
	}

	var se *model.StoreError
	if !errors.As(err, &se) {
		t.Errorf("expected StoreError in chain, got %v", err)
	}
}
