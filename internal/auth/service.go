package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/worktally/internal"
	sessionDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/google/uuid"
)

// touchInterval limits how often last_used_at is written for a session.
const touchInterval = 5 * time.Minute

type RepositoryAPI interface {
	CreateSession(ctx context.Context, s *sessionDatamodel.Session) error
	GetSession(ctx context.Context, id string) (*sessionDatamodel.Session, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID int64) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetUserByLogin(ctx context.Context, login string) (*userDatamodel.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// Service is the session credential service. Every handler that mints or
// revokes a bearer token goes through it.
type Service struct {
	repo   RepositoryAPI
	tokens TokenGeneratorAPI
	hasher PasswordHasher
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, hasher PasswordHasher, ttl time.Duration, logger *slog.Logger, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = internal.DefaultSessionTTL
	}
	s := &Service{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) IssueSession(ctx context.Context, userID int64) (string, error) {
	now := s.now().UTC()
	sess := &sessionDatamodel.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		s.logger.Error("failed to create session", "error", err, "user_id", userID)
		return "", fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokens.GenerateToken(sess.ID, userID, sess.ExpiresAt)
	if err != nil {
		s.logger.Error("failed to sign session token", "error", err, "user_id", userID)
		_ = s.repo.DeleteSession(ctx, sess.ID)
		return "", err
	}

	s.logger.Info("session issued", "user_id", userID, "session_id", sess.ID)
	return token, nil
}

// Authenticate resolves a bearer token to the caller it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	sess, err := s.repo.GetSession(ctx, claims.SessionID())
	if err != nil {
		s.logger.Error("failed to load session", "error", err, "session_id", claims.SessionID())
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil || sess.UserID != claims.UserID {
		return nil, internal.ErrSessionRevoked
	}

	now := s.now().UTC()
	if !sess.ExpiresAt.After(now) {
		return nil, internal.ErrTokenExpired
	}

	u, err := s.repo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if u == nil {
		return nil, internal.ErrSessionRevoked
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}

	if sess.LastUsedAt == nil || now.Sub(*sess.LastUsedAt) > touchInterval {
		if err := s.repo.TouchSession(ctx, sess.ID, now); err != nil {
			s.logger.Warn("failed to touch session", "error", err, "session_id", sess.ID)
		}
	}

	return ToPrincipal(u, sess.ID), nil
}

func (s *Service) RevokeSession(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Error("failed to revoke session", "error", err, "session_id", sessionID)
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *Service) RevokeAllSessions(ctx context.Context, userID int64) error {
	n, err := s.repo.DeleteUserSessions(ctx, userID)
	if err != nil {
		s.logger.Error("failed to revoke sessions", "error", err, "user_id", userID)
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.logger.Info("sessions revoked", "user_id", userID, "count", n)
	return nil
}

func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByLogin(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to look up user for login", "error", err)
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	// Pending and deactivated accounts get the same answer as a wrong password.
	if u == nil || !u.IsActive || !u.HasUsablePassword() || !s.hasher.Verify(u.PasswordHash, dto.Password) {
		s.logger.Warn("login rejected", "login", dto.Email)
		return nil, internal.ErrInvalidCredentials
	}

	token, err := s.IssueSession(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, u.ID, s.now().UTC()); err != nil {
		s.logger.Warn("failed to record last login", "error", err, "user_id", u.ID)
	}

	return &LoginResponse{Token: token, User: ToSummary(u)}, nil
}

func (s *Service) Logout(ctx context.Context, caller *internal.User) error {
	if caller == nil || caller.SessionID == "" {
		return internal.ErrInvalidToken
	}
	if err := s.RevokeSession(ctx, caller.SessionID); err != nil {
		return err
	}
	s.logger.Info("user logged out", "user_id", caller.ID)
	return nil
}

func ToPrincipal(u *userDatamodel.User, sessionID string) *internal.User {
	p := &internal.User{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           coreuser.Role(u.Role),
		OrganizationID: u.OrganizationID,
		SessionID:      sessionID,
	}
	if u.Username != nil {
		p.Username = *u.Username
	}
	return p
}

func ToSummary(u *userDatamodel.User) UserSummary {
	summary := UserSummary{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
	}
	if u.Username != nil {
		summary.Username = *u.Username
	}
	return summary
}
