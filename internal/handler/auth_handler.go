// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/authgate/internal/middleware"
	"github.com/hitoshi/authgate/internal/model"
)

const (
	sessionCookieName = "session_id"
	oauthStateCookie  = "oauth_state"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(provider model.Provider, state string) (string, error)
	HandleCallback(ctx context.Context, provider model.Provider, code string) (*model.Session, error)
	CurrentAccount(ctx context.Context, sessionID string) (*model.Account, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendOrigin  string // ログイン成功後のリダイレクト先
	LoginFailureURL string // ログイン失敗時のリダイレクト先
	CookieDomain    string
	CookieSecure    bool
	SessionMaxAge   int // セッションCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// accountResponse は/getUserのレスポンスボディ。
// Cookieには不透明なセッション参照のみが渡り、アカウント本体はここでのみ返す。
type accountResponse struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	GoogleSubjectID string `json:"googleSubjectId,omitempty"`
	GithubSubjectID string `json:"githubSubjectId,omitempty"`
}

// Login は指定プロバイダーのOAuthフローを開始する。
// GET /auth/{provider}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	provider, ok := model.ParseProvider(chi.URLParam(r, "provider"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	url, err := h.service.GetLoginURL(provider, state)
	if err != nil {
		slog.Error("failed to build login URL",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存し、コールバックで照合する
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// 成功時はセッションCookieを設定してフロントエンドへリダイレクトする。
// 失敗時は失敗リダイレクト先へ送り、セッションは作成しない。
// 生のエラーをブラウザに返すことはない。
// GET /auth/{provider}/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider, ok := model.ParseProvider(chi.URLParam(r, "provider"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	// 1. stateの照合
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch",
			slog.String("provider", string(provider)),
		)
		h.redirectToFailure(w, r)
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. プロバイダーが同意拒否等のエラーを返した場合
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		slog.Warn("provider returned error",
			slog.String("provider", string(provider)),
			slog.String("oauth_error", errParam),
		)
		h.redirectToFailure(w, r)
		return
	}

	// 3. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectToFailure(w, r)
		return
	}

	// 4. 認証処理（コード交換 → アカウント解決 → セッション発行）
	session, err := h.service.HandleCallback(r.Context(), provider, code)
	if err != nil {
		slog.Error("oauth callback failed",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()),
		)
		h.redirectToFailure(w, r)
		return
	}

	// 5. セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 6. フロントエンドにリダイレクト
	http.Redirect(w, r, h.config.FrontendOrigin, http.StatusTemporaryRedirect)
}

// GetUser は現在のセッションに紐づくアカウントを返す。
// 未ログインはエラーではなく空のJSONオブジェクトを返す。
// GET /getUser
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		writeAnonymous(w)
		return
	}

	account, err := h.service.CurrentAccount(r.Context(), cookie.Value)
	if err != nil {
		// セッション失効・アカウント消失は「未ログイン」として扱う
		if errors.Is(err, model.ErrSessionNotFound) || errors.Is(err, model.ErrAccountNotFound) {
			writeAnonymous(w)
			return
		}
		slog.Error("failed to resolve current account", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	json.NewEncoder(w).Encode(accountResponse{
		ID:              account.ID,
		DisplayName:     account.DisplayName,
		GoogleSubjectID: account.GoogleSubjectID,
		GithubSubjectID: account.GithubSubjectID,
	})
}

// Logout は現在のセッションを破棄する。
// セッションが存在しない場合も成功の完了応答を返す（冪等）。
// GET /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			middleware.WriteInternalServerError(w)
			return
		}
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "done"})
}

// redirectToFailure はログイン失敗時のリダイレクト先へ送る。
func (h *AuthHandler) redirectToFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.config.LoginFailureURL, http.StatusTemporaryRedirect)
}

// writeAnonymous は未ログイン状態を表す空のJSONオブジェクトを書き込む。
func writeAnonymous(w http.ResponseWriter) {
	w.Write([]byte("{}\n"))
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
