package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
)

// --- モック定義 ---

type mockSessionRepo struct {
	createFn     func(ctx context.Context, session *model.Session) error
	findByIDFn   func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

// --- compile-time interface checks ---
var _ repository.SessionRepository = (*mockSessionRepo)(nil)

// inMemorySessionRepo はライフサイクルテスト用のインメモリ実装。
type inMemorySessionRepo struct {
	sessions map[string]*model.Session
}

func newInMemorySessionRepo() *inMemorySessionRepo {
	return &inMemorySessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *inMemorySessionRepo) Create(_ context.Context, session *model.Session) error {
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *inMemorySessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	session, ok := r.sessions[id]
	if !ok || time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *inMemorySessionRepo) DeleteByID(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

var _ repository.SessionRepository = (*inMemorySessionRepo)(nil)

func testAccount() *model.Account {
	return &model.Account{
		ID:              "account-id-1",
		GoogleSubjectID: "sub-abc",
		DisplayName:     "Alice",
	}
}

// --- テスト ---

func TestLogin_CreatesSessionBoundToAccountID(t *testing.T) {
	ctx := context.Background()

	var created *model.Session
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			created = session
			return nil
		},
	}
	m := NewSessionManager(sessionRepo, &mockAccountRepo{}, SessionManagerConfig{SessionMaxAge: 86400})

	session, err := m.Login(ctx, testAccount())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if session.ID == "" {
		t.Error("expected non-empty session ID")
	}
	if session.AccountID != "account-id-1" {
		t.Errorf("accountID = %q, want %q", session.AccountID, "account-id-1")
	}

	// ペイロードにはアカウントIDのみが保存されること
	if created == nil {
		t.Fatal("expected session to be persisted")
	}
	if created.AccountID != "account-id-1" {
		t.Errorf("persisted accountID = %q, want %q", created.AccountID, "account-id-1")
	}
	if time.Until(created.ExpiresAt) <= 0 {
		t.Error("expected expiry in the future")
	}
}

func TestLogin_NilAccount_ReturnsError(t *testing.T) {
	m := NewSessionManager(&mockSessionRepo{}, &mockAccountRepo{}, SessionManagerConfig{SessionMaxAge: 86400})

	if _, err := m.Login(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil account")
	}
}

func TestLoginThenResolve_ReturnsSameAccountID(t *testing.T) {
	ctx := context.Background()

	account := testAccount()
	accountRepo := &mockAccountRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			if id == account.ID {
				return account, nil
			}
			return nil, nil
		},
	}
	m := NewSessionManager(newInMemorySessionRepo(), accountRepo, SessionManagerConfig{SessionMaxAge: 86400})

	session, err := m.Login(ctx, account)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	resolved, err := m.Resolve(ctx, session.ID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if resolved.ID != account.ID {
		t.Errorf("resolved account ID = %q, want %q", resolved.ID, account.ID)
	}
}

func TestResolveSession_UnknownReference_ReturnsSessionNotFound(t *testing.T) {
	m := NewSessionManager(newInMemorySessionRepo(), &mockAccountRepo{}, SessionManagerConfig{SessionMaxAge: 86400})

	_, err := m.Resolve(context.Background(), "no-such-session")
	if !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestResolveSession_EmptyReference_ReturnsSessionNotFound(t *testing.T) {
	m := NewSessionManager(&mockSessionRepo{}, &mockAccountRepo{}, SessionManagerConfig{SessionMaxAge: 86400})

	_, err := m.Resolve(context.Background(), "")
	if !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestResolveSession_AccountDeleted_ReturnsAccountNotFound(t *testing.T) {
	ctx := context.Background()

	// セッションは有効だがアカウントが存在しないケース（データ不整合）
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        id,
				AccountID: "gone-account",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	m := NewSessionManager(sessionRepo, &mockAccountRepo{}, SessionManagerConfig{SessionMaxAge: 86400})

	_, err := m.Resolve(ctx, "session-id-1")
	if !errors.Is(err, model.ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestLogoutThenResolve_ReturnsSessionNotFound(t *testing.T) {
	ctx := context.Background()

	account := testAccount()
	accountRepo := &mockAccountRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return account, nil
		},
	}
	m := NewSessionManager(newInMemorySessionRepo(), accountRepo, SessionManagerConfig{SessionMaxAge: 86400})

	session, err := m.Login(ctx, account)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := m.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	_, err = m.Resolve(ctx, session.ID)
	if !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestLogout_WithoutPriorLogin_IsNoOp(t *testing.T) {
	m := NewSessionManager(newInMemorySessionRepo(), &mockAccountRepo{}, SessionManagerConfig{SessionMaxAge: 86400})

	if err := m.Logout(context.Background(), "never-existed"); err != nil {
		t.Errorf("Logout() error = %v, want nil", err)
	}
}

func TestLogout_EmptyReference_IsNoOp(t *testing.T) {
	deleteCalled := false
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}
	m := NewSessionManager(sessionRepo, &mockAccountRepo{}, SessionManagerConfig{SessionMaxAge: 86400})

	if err := m.Logout(context.Background(), ""); err != nil {
		t.Errorf("Logout() error = %v, want nil", err)
	}
	if deleteCalled {
		t.Error("DeleteByID should not be called for empty reference")
	}
}

func TestLogout_DeleteFails_ReturnsError(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			return model.NewStoreError("delete session", errors.New("connection refused"))
		},
	}
	m := NewSessionManager(sessionRepo, &mockAccountRepo{}, SessionManagerConfig{SessionMaxAge: 86400})

	err := m.Logout(context.Background(), "session-id-1")
	if err == nil {
		t.Fatal("expected error when delete fails")
	}

	var se *model.StoreError
	if !errors.As(err, &se) {
		t.Errorf("expected StoreError in chain, got %v", err)
	}
}
