package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
)

var (
	ErrUserNotFound  = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	ErrEmailTaken    = internal.NewConflictError("A user with that email already exists.", internal.ErrCodeEmailTaken)
	ErrUsernameTaken = internal.NewConflictError("A user with that username already exists.", internal.ErrCodeUsernameTaken)
	ErrAccountExists = internal.NewConflictError("A user with those details already exists.", internal.ErrCodeAlreadyExists)
	ErrWrongPassword = internal.NewValidationFieldError("old_password", "Wrong password.", internal.ErrCodeWrongPassword)
)

type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User, p *userDatamodel.UserProfile) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetProfile(ctx context.Context, userID int64) (*userDatamodel.UserProfile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error)
	UpdateFields(ctx context.Context, id int64, changes map[string]interface{}) error
	SaveProfile(ctx context.Context, p *userDatamodel.UserProfile) error
	ChangePassword(ctx context.Context, id int64, hash string) (revoked int64, err error)
	GetOrganizationSummary(ctx context.Context, orgID string) (*OrganizationSummary, error)
}

type SessionIssuer interface {
	IssueSession(ctx context.Context, userID int64) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type Service struct {
	repo     RepositoryAPI
	sessions SessionIssuer
	hasher   PasswordHasher
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo RepositoryAPI, sessions SessionIssuer, hasher PasswordHasher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an active account that belongs to no organization.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, dto.Email, dto.Username, 0); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, err
	}

	u := NewActive(dto.Email, dto.Username, dto.FirstName, dto.LastName, coreuser.RoleEmployee, nil, s.now().UTC())
	u.PasswordHash = hash
	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row, &userDatamodel.UserProfile{}); err != nil {
		if datamodel.IsUniqueViolation(err) {
			return nil, s.raceConflict(ctx, dto.Email, dto.Username, err)
		}
		s.logger.Error("failed to create user", "error", err, "email", u.Email)
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.sessions.IssueSession(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", row.ID)
	return &AuthResponse{User: FromDataModel(row).ToResponse(), Token: token}, nil
}

// raceConflict names the field behind a unique violation on insert. The
// translated driver error carries no constraint name, so the availability
// checks run again now that the competing row is committed.
func (s *Service) raceConflict(ctx context.Context, email, username string, cause error) error {
	return RaceConflict(s.ensureAvailable(ctx, email, username, 0), cause)
}

// RaceConflict attaches cause to the conflict a repeated availability check
// found, or reports ErrAccountExists when the check no longer sees one.
func RaceConflict(recheck, cause error) error {
	if recheck == nil {
		return ErrAccountExists.WithCause(cause)
	}
	if appErr, ok := internal.IsAppError(recheck); ok {
		return appErr.WithCause(cause)
	}
	return recheck
}

func (s *Service) ensureAvailable(ctx context.Context, email, username string, excludeID int64) error {
	if email != "" {
		taken, err := s.repo.EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return ErrEmailTaken
		}
	}
	if username != "" {
		taken, err := s.repo.UsernameExists(ctx, username, excludeID)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load user", "error", err, "user_id", id)
		return nil, fmt.Errorf("load user: %w", err)
	}
	if row == nil {
		return nil, ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// GetMe returns the caller with profile and organization summary.
func (s *Service) GetMe(ctx context.Context, caller *internal.User) (*UserResponse, error) {
	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	resp := u.ToResponse()

	profile, err := s.repo.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	resp.Profile = ProfileFromDataModel(profile).ToResponse()

	if u.OrganizationID != nil {
		org, err := s.repo.GetOrganizationSummary(ctx, *u.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("load organization: %w", err)
		}
		resp.Organization = org
	}
	return &resp, nil
}

func (s *Service) UpdateMe(ctx context.Context, caller *internal.User, dto UpdateMeDTO) (*UserResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if changes := dto.Changes(); len(changes) > 0 {
		if err := s.repo.UpdateFields(ctx, caller.ID, changes); err != nil {
			s.logger.Error("failed to update user", "error", err, "user_id", caller.ID)
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return s.GetMe(ctx, caller)
}

// ChangePassword stores the new hash, revokes every session of the caller
// and returns a fresh token.
func (s *Service) ChangePassword(ctx context.Context, caller *internal.User, dto ChangePasswordDTO) (*ChangePasswordResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, dto.OldPassword) {
		return nil, ErrWrongPassword
	}

	hash, err := s.hasher.Hash(dto.NewPassword)
	if err != nil {
		return nil, err
	}
	revoked, err := s.repo.ChangePassword(ctx, u.ID, hash)
	if err != nil {
		s.logger.Error("failed to store password", "error", err, "user_id", u.ID)
		return nil, fmt.Errorf("update password: %w", err)
	}
	s.logger.Info("sessions revoked", "user_id", u.ID, "count", revoked)

	token, err := s.sessions.IssueSession(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("password changed", "user_id", u.ID)
	return &ChangePasswordResponse{Detail: "Password changed successfully", Token: token}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, caller *internal.User, dto UpdateProfileDTO) (*UserResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if changes := dto.UpdateMeDTO.Changes(); len(changes) > 0 {
		if err := s.repo.UpdateFields(ctx, caller.ID, changes); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	row, err := s.repo.GetProfile(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	profile := ProfileFromDataModel(row)
	if profile == nil {
		profile = &Profile{UserID: caller.ID}
	}
	dto.ApplyTo(profile)
	if err := s.repo.SaveProfile(ctx, ProfileToDataModel(profile)); err != nil {
		s.logger.Error("failed to save profile", "error", err, "user_id", caller.ID)
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", caller.ID)
	return s.GetMe(ctx, caller)
}
