// Package identity authenticates the user and publishes the current
// identity as observable state. It owns the startup token validation
// and the login/logout transitions; permission loading and session
// timing react to what it publishes.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sanlucas/hospital/pkg/hospitalapi"
	"github.com/sanlucas/hospital/pkg/slogx"
	"github.com/sanlucas/hospital/pkg/watchx"
)

// ErrInvalidLoginPayload is returned when the backend reports success
// without a usable token or user record.
var ErrInvalidLoginPayload = errors.New("identity: login response carried neither MFA challenge nor token")

// API is the slice of the backend client the identity session needs.
type API interface {
	Login(ctx context.Context, req hospitalapi.LoginRequest) (*hospitalapi.LoginData, error)
	Register(ctx context.Context, req hospitalapi.RegisterRequest) (*hospitalapi.RegisterResult, error)
	GetProfile(ctx context.Context) (*hospitalapi.Profile, error)
	Logout(ctx context.Context) error
}

// Tokens is the slice of the token store the identity session needs.
type Tokens interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}

// Permissions is the permission directory hook triggered on login.
type Permissions interface {
	LoadUserPermissions(ctx context.Context) error
}

// Service is the identity session.
type Service struct {
	api    API
	tokens Tokens
	perms  Permissions
	log    *slog.Logger

	current     *watchx.Value[*User]
	initialized *watchx.Latch
}

// New creates an identity session. Call Init once at startup to resolve
// any stored token.
func New(api API, tokens Tokens, perms Permissions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slogx.Nop()
	}
	return &Service{
		api:         api,
		tokens:      tokens,
		perms:       perms,
		log:         logger,
		current:     watchx.NewValue[*User](nil),
		initialized: watchx.NewLatch(),
	}
}

// Init resolves the startup state: no stored token means immediately
// unauthenticated; a stored token is validated against the backend and
// removed if rejected. Initialization always completes, success or not,
// so consumers gating on Initialized never hang.
func (s *Service) Init(ctx context.Context) {
	defer s.initialized.Settle()

	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.log.Error("failed to read stored token at startup", "error", err)
		return
	}
	if token == "" {
		return
	}

	user, err := s.ValidateToken(ctx)
	if err != nil {
		s.log.Warn("stored token failed validation, removing", "error", err)
		if err := s.tokens.Remove(ctx); err != nil {
			s.log.Error("failed to remove invalid token", "error", err)
		}
		s.current.Set(nil)
		return
	}

	s.current.Set(user)
	s.log.Info("stored token validated", "user_id", user.ID)
}

// Login posts credentials and interprets the backend's discriminated
// payload. A token is stored only for a fully authenticated outcome, in
// which case the identity is published and a permission load is
// triggered.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	data, err := s.api.Login(ctx, hospitalapi.LoginRequest{
		Email:    creds.Email,
		Password: creds.Password,
		MFACode:  creds.MFACode,
	})
	if err != nil {
		return nil, err
	}

	if data.RequiresMFA {
		if data.Secret != "" {
			return &LoginResult{
				Status: StatusMFAEnrollmentRequired,
				Enrollment: &MFAEnrollment{
					Secret:      data.Secret,
					QRCodeURL:   data.QRCodeURL,
					BackupCodes: data.BackupCodes,
				},
			}, nil
		}
		return &LoginResult{Status: StatusMFARequired}, nil
	}

	if data.AccessToken == "" || data.User == nil {
		return nil, ErrInvalidLoginPayload
	}

	if err := s.tokens.Set(ctx, data.AccessToken); err != nil {
		return nil, err
	}

	user := &User{
		ID:        data.User.ID,
		FirstName: data.User.FirstName,
		LastName:  data.User.LastName,
		Email:     data.User.Email,
		// Role name and permission names arrive asynchronously via the
		// permission directory.
		Role: RoleRef{ID: data.User.RoleID},
	}
	s.current.Set(user)
	s.log.Info("login succeeded", "user_id", user.ID, "role_id", user.Role.ID)

	if err := s.perms.LoadUserPermissions(ctx); err != nil {
		// Fail-closed state plus the reconciliation backstop cover this.
		s.log.Error("permission load after login failed", "error", err)
	}

	return &LoginResult{Status: StatusAuthenticated, User: user}, nil
}

// Register posts a registration. The backend outcome passes through
// untouched; the user must log in afterwards.
func (s *Service) Register(ctx context.Context, req hospitalapi.RegisterRequest) (*hospitalapi.RegisterResult, error) {
	return s.api.Register(ctx, req)
}

// ValidateToken asks the backend who the stored token belongs to and
// maps the answer to a User. Used at startup to decide whether a stored
// token is still good.
func (s *Service) ValidateToken(ctx context.Context) (*User, error) {
	profile, err := s.api.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:        profile.ID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
		Role: RoleRef{
			ID:          profile.Role.ID,
			Name:        profile.Role.Name,
			Permissions: profile.Role.Permissions,
		},
	}, nil
}

// Logout tells the backend the session is over, then cleans up locally.
// The backend call is best-effort: local state must never stay "logged
// in" just because the network call failed.
func (s *Service) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn("backend logout failed, proceeding with local cleanup", "error", err)
	}
	s.PerformLogout(ctx)
}

// PerformLogout removes the token and publishes a nil identity. It does
// not touch the permission directory or the activity session; those
// observe the token removal and the nil identity respectively.
func (s *Service) PerformLogout(ctx context.Context) {
	if err := s.tokens.Remove(ctx); err != nil {
		s.log.Error("failed to remove token during logout", "error", err)
	}
	s.current.Set(nil)
	s.log.Info("logged out")
}

// IsAuthenticated reports whether a token is stored AND an identity is
// published. A token alone after a failed validation is not enough.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	if s.current.Get() == nil {
		return false
	}
	token, err := s.tokens.Get(ctx)
	return err == nil && token != ""
}

// CurrentUser returns the published identity, or nil when logged out.
func (s *Service) CurrentUser() *User {
	return s.current.Get()
}

// UserChanges returns a subscription carrying the current identity on
// every replacement (nil on logout).
func (s *Service) UserChanges() (<-chan *User, func()) {
	return s.current.Subscribe()
}

// Initialized settles exactly once, after startup token validation (or
// its absence) has been resolved. Consumers that gate on authentication
// at startup must wait on it before deciding, so "not yet validated"
// is never misread as "not authenticated".
func (s *Service) Initialized() *watchx.Latch {
	return s.initialized
}
