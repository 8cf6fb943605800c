// Package auth implements the session holder: who is using the application
// right now, persisted across restarts, with role-based capability checks.
//
// Login is remote-first. When the authority cannot be reached the service
// falls back to verifying credentials against the local user collection.
// A session established locally carries no bearer token; authority-facing
// calls are refused until a remote login succeeds. The client never
// fabricates a credential.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/obraledger/obraledger/internal/models"
	"github.com/obraledger/obraledger/internal/remote"
	"github.com/obraledger/obraledger/internal/storage"
)

// Default administrator created on first run when no users exist. Documented
// credentials, not a secret: operators are expected to change them.
const (
	DefaultAdminEmail    = "admin@obraledger.com"
	DefaultAdminPassword = "admin123"
	DefaultAdminName     = "System Administrator"
)

// Settings keys under which the session survives restarts.
const (
	sessionUserKey  = "session.user"
	sessionTokenKey = "session.token"
)

// ErrLocalSession is returned by Token when the session was established
// against the local store only and no authority-issued credential exists.
var ErrLocalSession = errors.New("session is local-only: no authority token")

// RemoteAuthenticator is the authority login boundary.
// *remote.Client satisfies it.
type RemoteAuthenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthUser, string, error)
}

// Service is the session holder. Construct one per process with NewService;
// there is no package-level instance.
type Service struct {
	store  storage.Store
	remote RemoteAuthenticator
	logger *slog.Logger

	mu      sync.Mutex
	current *models.AuthUser
	token   string

	subMu   sync.Mutex
	subs    map[int]chan *models.AuthUser
	nextSub int
}

// NewService creates a session holder. If logger is nil, slog.Default is used.
func NewService(store storage.Store, remote RemoteAuthenticator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		remote: remote,
		logger: logger,
		subs:   make(map[int]chan *models.AuthUser),
	}
}

// Bootstrap creates the default admin when the user collection is empty,
// then restores a previously persisted session. A corrupt persisted session
// is discarded silently.
func (s *Service) Bootstrap(ctx context.Context) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check user collection: %w", err)
	}
	if len(users) == 0 {
		hash, err := HashPassword(DefaultAdminPassword)
		if err != nil {
			return err
		}
		admin := &models.User{
			Name:         DefaultAdminName,
			Email:        DefaultAdminEmail,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if _, err := s.store.AddUser(ctx, admin); err != nil {
			return fmt.Errorf("failed to create default admin: %w", err)
		}
		s.logger.Info("created default admin user", "email", DefaultAdminEmail)
	}

	s.restoreSession(ctx)
	return nil
}

// restoreSession loads the persisted identity and token. Anything that does
// not deserialize is treated as "no session", never as an error.
func (s *Service) restoreSession(ctx context.Context) {
	raw, err := s.store.GetSetting(ctx, sessionUserKey)
	if err != nil {
		return
	}

	var user models.AuthUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == 0 {
		s.logger.Warn("discarding unreadable persisted session")
		_ = s.store.DeleteSetting(ctx, sessionUserKey)
		_ = s.store.DeleteSetting(ctx, sessionTokenKey)
		return
	}

	token, err := s.store.GetSetting(ctx, sessionTokenKey)
	if err != nil {
		token = ""
	}

	s.mu.Lock()
	s.current = &user
	s.token = token
	s.mu.Unlock()
	s.publish(&user)
	s.logger.Info("restored session", "email", user.Email, "local_only", token == "")
}

// Login authenticates remote-first. An unreachable authority falls back to
// local verification; an explicit remote rejection does not. Bad credentials
// return (nil, nil), not an error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.AuthUser, error) {
	user, token, err := s.remote.Login(ctx, email, password)
	if err == nil {
		s.establish(ctx, user, token)
		return user, nil
	}
	if errors.Is(err, remote.ErrUnauthorized) {
		// The authority is reachable and said no; do not second-guess it
		// with the local collection.
		s.logger.Info("authority rejected login", "email", email)
		return nil, nil
	}

	s.logger.Info("authority unreachable, trying local login", "email", email, "error", err)
	return s.loginLocal(ctx, email, password)
}

// loginLocal verifies credentials against the local user collection:
// case-insensitive email match, bcrypt compare, account active.
func (s *Service) loginLocal(ctx context.Context, email, password string) (*models.AuthUser, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !u.IsActive || !CheckPassword(u.PasswordHash, password) {
		return nil, nil
	}

	user := authUserFrom(u)
	s.establish(ctx, user, "")
	return user, nil
}

// establish records and persists the session, then notifies subscribers.
// An empty token marks a local-only session.
func (s *Service) establish(ctx context.Context, user *models.AuthUser, token string) {
	s.mu.Lock()
	s.current = user
	s.token = token
	s.mu.Unlock()

	if raw, err := json.Marshal(user); err == nil {
		if err := s.store.SetSetting(ctx, sessionUserKey, string(raw)); err != nil {
			s.logger.Warn("failed to persist session identity", "error", err)
		}
	}
	if token != "" {
		if err := s.store.SetSetting(ctx, sessionTokenKey, token); err != nil {
			s.logger.Warn("failed to persist session token", "error", err)
		}
	} else {
		_ = s.store.DeleteSetting(ctx, sessionTokenKey)
	}

	s.publish(user)
	s.logger.Info("session established", "email", user.Email, "role", user.Role, "local_only", token == "")
}

// Logout clears the in-memory and persisted session and notifies subscribers.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.token = ""
	s.mu.Unlock()

	_ = s.store.DeleteSetting(ctx, sessionUserKey)
	_ = s.store.DeleteSetting(ctx, sessionTokenKey)
	s.publish(nil)
	s.logger.Info("session cleared")
}

// CurrentUser returns the active identity, or nil.
func (s *Service) CurrentUser() *models.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsAuthenticated reports whether a session is active.
func (s *Service) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// Token returns the authority-issued bearer token. Local-only sessions get
// ErrLocalSession; no credential is ever fabricated client-side.
func (s *Service) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", ErrLocalSession
	}
	if s.token == "" {
		return "", ErrLocalSession
	}
	return s.token, nil
}

// HasRole reports whether the active identity holds exactly the given role.
func (s *Service) HasRole(role models.Role) bool {
	u := s.CurrentUser()
	return u != nil && u.Role == role
}

// HasAnyRole reports whether the active identity holds one of the roles.
func (s *Service) HasAnyRole(roles ...models.Role) bool {
	u := s.CurrentUser()
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (s *Service) CanEdit() bool {
	u := s.CurrentUser()
	return u != nil && u.Role.CanEdit()
}

func (s *Service) CanView() bool {
	u := s.CurrentUser()
	return u != nil && u.Role.CanView()
}

func (s *Service) CanManageUsers() bool {
	u := s.CurrentUser()
	return u != nil && u.Role.CanManageUsers()
}

func (s *Service) CanViewFinancials() bool {
	u := s.CurrentUser()
	return u != nil && u.Role.CanViewFinancials()
}

// Subscribe registers for identity-change events. Each login, logout and
// profile update delivers the new identity (nil after logout) on the
// returned channel. The unsubscribe func releases the channel.
func (s *Service) Subscribe() (<-chan *models.AuthUser, func()) {
	ch := make(chan *models.AuthUser, 16)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	unsubscribe := func() {
		s.subMu.Lock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, unsubscribe
}

func (s *Service) publish(user *models.AuthUser) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- user:
		default:
			s.logger.Warn("identity subscriber is not draining, dropping event", "subscriber", id)
		}
	}
}

// Register creates a new local account. Duplicate emails return
// ErrEmailExists; weak passwords return ErrWeakPassword.
func (s *Service) Register(ctx context.Context, name, email, password string, role models.Role) (*models.AuthUser, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         name,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if _, err := s.store.AddUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return authUserFrom(u), nil
}

// UpdateProfile changes an account's name and email. When the account is the
// active identity, the session is refreshed and re-published.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	u.Name = name
	u.Email = strings.TrimSpace(email)
	if err := s.store.UpdateUser(ctx, id, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return ErrEmailExists
		}
		return err
	}

	s.mu.Lock()
	refresh := s.current != nil && s.current.ID == id
	token := s.token
	s.mu.Unlock()
	if refresh {
		s.establish(ctx, authUserFrom(u), token)
	}
	return nil
}

// ChangePassword verifies the current password and stores a bcrypt hash of
// the new one. A wrong current password returns ErrInvalidCredentials.
func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.store.UpdateUser(ctx, id, u)
}

// UserExists reports whether an active account with the email exists.
func (s *Service) UserExists(ctx context.Context, email string) (bool, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsActive, nil
}

func authUserFrom(u *models.User) *models.AuthUser {
	return &models.AuthUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
