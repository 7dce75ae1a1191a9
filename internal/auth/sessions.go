package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
)

// SessionManagerConfig はセッション管理の設定。
type SessionManagerConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// SessionManager はセッションのライフサイクル（作成・解決・破棄）を管理する。
// セッションの作成・破棄はこのコンポーネントのみが行う。
// ペイロードにはアカウントIDのみを保存し、アカウント本体は保存しない。
type SessionManager struct {
	sessions repository.SessionRepository
	accounts repository.AccountRepository
	config   SessionManagerConfig
}

// NewSessionManager はSessionManagerを生成する。
func NewSessionManager(
	sessions repository.SessionRepository,
	accounts repository.AccountRepository,
	config SessionManagerConfig,
) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		accounts: accounts,
		config:   config,
	}
}

// Login は認証済みアカウントに対する新規セッションを発行する。
// 返されるセッションIDがクライアントにCookieとして渡される不透明な参照になる。
func (m *SessionManager) Login(ctx context.Context, account *model.Account) (*model.Session, error) {
	if account == nil || account.ID == "" {
		return nil, fmt.Errorf("account with ID is required")
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(time.Duration(m.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// Resolve はセッション参照からアカウントを解決する。
// アカウントはセッションに保存されたIDでストアから再取得する。
// 参照が未知または期限切れの場合はErrSessionNotFound、
// 参照先のアカウントが存在しない場合はErrAccountNotFoundを返す。
func (m *SessionManager) Resolve(ctx context.Context, sessionID string) (*model.Account, error) {
	if sessionID == "" {
		return nil, model.ErrSessionNotFound
	}

	session, err := m.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}

	account, err := m.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		// セッションは有効だがアカウントが消えている（データ不整合）
		return nil, model.ErrAccountNotFound
	}

	return account, nil
}

// Logout はセッションを破棄する。冪等であり、
// 参照が空または対象セッションが既に存在しない場合も成功として返る。
func (m *SessionManager) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := m.sessions.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("session destroyed", slog.String("session_id", sessionID))
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
