// Package session holds the per-device admin session and theme preference.
// Both are explicit objects built from a device's storage; nothing here is
// process-global.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/golang-jwt/jwt/v5"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/storage"
	"go.uber.org/atomic"
)

const (
	DefaultVerifyTimeout = 5 * time.Second
	DefaultFailsafe      = 10 * time.Second
)

// Authenticator is the backend side of admin auth.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, token string) (*api.VerifiedUser, error)
}

type User struct {
	UID     string `json:"uid,omitempty"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type Session struct {
	User
	Token string
}

type Option func(*Auth)

// WithTimeouts overrides the verify timeout and the failsafe.
func WithTimeouts(verify, failsafe time.Duration) Option {
	return func(a *Auth) {
		a.verifyTimeout = verify
		a.failsafe = failsafe
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Auth) { a.now = now }
}

type Auth struct {
	authn  Authenticator
	kv     storage.KV
	logger *slog.Logger

	verifyTimeout time.Duration
	failsafe      time.Duration
	now           func() time.Time

	loading atomic.Bool

	mu      sync.Mutex
	session *Session
}

// NewAuth returns an Auth that reports Loading until Init finishes.
func NewAuth(authn Authenticator, kv storage.KV, logger *slog.Logger, opts ...Option) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Auth{
		authn:         authn,
		kv:            kv,
		logger:        logger,
		verifyTimeout: DefaultVerifyTimeout,
		failsafe:      DefaultFailsafe,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.loading.Store(true)
	return a
}

// Init restores the persisted session. A stored token is verified with the
// backend; a verify failure of any kind clears it. If the verify call has not
// returned when the failsafe fires, Init gives up and the device is treated as
// logged out without touching the stored token.
func (a *Auth) Init(ctx context.Context) error {
	defer a.loading.Store(false)

	token, ok, err := a.kv.Get(ctx, storage.KeyAdminToken)
	if err != nil {
		return fmt.Errorf("failed to read admin token: %w", err)
	}
	if !ok || token == "" {
		a.setSession(nil)
		return nil
	}
	if a.expired(token) {
		a.logger.Info("stored admin token expired")
		return a.clear(ctx)
	}

	type result struct {
		user *api.VerifiedUser
		err  error
	}
	verifyCtx, cancel := context.WithTimeout(ctx, a.verifyTimeout)
	defer cancel()
	done := make(chan result, 1)
	go func() {
		u, err := a.authn.Verify(verifyCtx, token)
		done <- result{u, err}
	}()

	failsafe := time.NewTimer(a.failsafe)
	defer failsafe.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			a.logger.Warn("admin token verification failed", "kind", api.KindOf(r.err).String(), "error", r.err)
			return a.clear(ctx)
		}
		a.setSession(&Session{User: User{UID: r.user.UID, Email: r.user.Email, IsAdmin: r.user.IsAdmin}, Token: token})
		return nil
	case <-failsafe.C:
		a.logger.Warn("admin session check timed out", "failsafe", a.failsafe)
		a.setSession(nil)
		return nil
	}
}

// Login exchanges credentials for a token. Nothing is persisted unless the
// backend accepts them. The stored user is built from the entered email.
func (a *Auth) Login(ctx context.Context, email, password string) error {
	creds := struct{ Email, Password string }{email, password}
	if err := validation.ValidateStruct(&creds,
		validation.Field(&creds.Email, validation.Required, is.EmailFormat),
		validation.Field(&creds.Password, validation.Required),
	); err != nil {
		return api.Invalid(err)
	}

	token, err := a.authn.Login(ctx, email, password)
	if err != nil {
		return err
	}

	user := User{UID: a.subject(token), Email: email, IsAdmin: true}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode admin user: %w", err)
	}
	if err := a.kv.Set(ctx, storage.KeyAdminToken, token); err != nil {
		return fmt.Errorf("failed to persist admin token: %w", err)
	}
	if err := a.kv.Set(ctx, storage.KeyAdminUser, string(raw)); err != nil {
		return fmt.Errorf("failed to persist admin user: %w", err)
	}

	a.setSession(&Session{User: user, Token: token})
	a.loading.Store(false)
	a.logger.Info("admin logged in", "email", email)
	return nil
}

// Logout forgets the session locally. The backend is not called.
func (a *Auth) Logout(ctx context.Context) error {
	return a.clear(ctx)
}

func (a *Auth) Loading() bool {
	return a.loading.Load()
}

func (a *Auth) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.session.Token != ""
}

// Session returns a copy of the current session, or nil.
func (a *Auth) Session() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	s := *a.session
	return &s
}

// Token implements resource.TokenSource.
func (a *Auth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.Token
}

func (a *Auth) setSession(s *Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

func (a *Auth) clear(ctx context.Context) error {
	a.setSession(nil)
	var errs []error
	for _, key := range []string{storage.KeyAdminToken, storage.KeyAdminUser} {
		if err := a.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// expired reports whether token is a JWT whose exp has passed. Tokens that are
// not JWTs are left to the backend.
func (a *Auth) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(a.now())
}

func (a *Auth) subject(token string) string {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
