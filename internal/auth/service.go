package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/authgate/internal/model"
)

// MetricsRecorder は認証フローのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordLoginSuccess(provider string)
	RecordLoginFailure(provider string, reason string)
	RecordSessionLookup(result string)
	RecordSessionDestroyed()
}

// Service は認証ゲートウェイのビジネスロジックを提供する。
// プロバイダーのレジストリとResolver、SessionManagerを束ねる。
type Service struct {
	providers map[model.Provider]OAuthProvider
	resolver  *Resolver
	sessions  *SessionManager
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい（記録しない）。
func NewService(
	providers map[model.Provider]OAuthProvider,
	resolver *Resolver,
	sessions *SessionManager,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		providers: providers,
		resolver:  resolver,
		sessions:  sessions,
		metrics:   metrics,
	}
}

// GetLoginURL は指定プロバイダーのOAuth認証URLを生成する。
func (s *Service) GetLoginURL(provider model.Provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
	return p.GetLoginURL(state), nil
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 認可コード交換 → アカウント解決 → セッション作成の順で実行し、
// いずれかが失敗した場合はセッションを作成せずエラーを返す。
func (s *Service) HandleCallback(ctx context.Context, provider model.Provider, code string) (*model.Session, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	profile, err := p.ExchangeCode(ctx, code)
	if err != nil {
		s.recordLoginFailure(provider, "provider_auth")
		return nil, &model.ProviderAuthError{Provider: provider, Err: err}
	}

	account, err := s.resolver.Resolve(ctx, provider, profile.SubjectID, profile.DisplayName)
	if err != nil {
		s.recordLoginFailure(provider, "resolve")
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	session, err := s.sessions.Login(ctx, account)
	if err != nil {
		s.recordLoginFailure(provider, "session")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recordLoginSuccess(provider)
	slog.Info("login completed",
		slog.String("account_id", account.ID),
		slog.String("provider", string(provider)),
	)
	return session, nil
}

// CurrentAccount はセッション参照から現在のアカウントを解決する。
// 未知・期限切れの参照はErrSessionNotFound、アカウント消失はErrAccountNotFoundを返す。
func (s *Service) CurrentAccount(ctx context.Context, sessionID string) (*model.Account, error) {
	account, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) || errors.Is(err, model.ErrAccountNotFound) {
			s.recordSessionLookup("miss")
		} else {
			s.recordSessionLookup("error")
		}
		return nil, err
	}

	s.recordSessionLookup("hit")
	return account, nil
}

// Logout はセッションを破棄する。冪等であり、未ログイン状態での呼び出しも成功する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Logout(ctx, sessionID); err != nil {
		return err
	}
	if sessionID != "" && s.metrics != nil {
		s.metrics.RecordSessionDestroyed()
	}
	return nil
}

func (s *Service) recordLoginSuccess(provider model.Provider) {
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess(string(provider))
	}
}

func (s *Service) recordLoginFailure(provider model.Provider, reason string) {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure(string(provider), reason)
	}
}

func (s *Service) recordSessionLookup(result string) {
	if s.metrics != nil {
		s.metrics.RecordSessionLookup(result)
	}
}
