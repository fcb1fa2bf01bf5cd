package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"github.com/frahmantamala/worktally/internal/core/events"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/frahmantamala/worktally/internal/mailer"
	"github.com/frahmantamala/worktally/internal/organization"
	"github.com/frahmantamala/worktally/internal/user"
	"github.com/google/uuid"
)

const emailWarning = "Invitation created, but the email could not be sent. Share the activation link with the invitee."

var (
	ErrInvitationNotFound = internal.NewNotFoundError("Invalid or expired invitation token.", internal.ErrCodeInvitationNotFound)
	ErrNotAllowedToInvite = internal.NewForbiddenError("Only organization owners and admins can invite users.", internal.ErrCodeForbidden)
	ErrOrganizationFull   = internal.NewCapacityError("Organization has reached its maximum number of users.", internal.ErrCodeOrganizationFull)
)

type RepositoryAPI interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error)
	CreatePending(ctx context.Context, u *userDatamodel.User, p *userDatamodel.UserProfile) error
	GetPendingByToken(ctx context.Context, token string) (*userDatamodel.User, error)
	GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	// Activate consumes the token and returns the number of rows it changed.
	Activate(ctx context.Context, token, username, passwordHash string, now time.Time) (int64, error)
}

type OrganizationFinder interface {
	Find(ctx context.Context, id string) (*organization.Organization, error)
	CanAddUsers(ctx context.Context, org *organization.Organization) (bool, error)
}

type SessionIssuer interface {
	IssueSession(ctx context.Context, userID int64) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Service struct {
	repo      RepositoryAPI
	orgs      OrganizationFinder
	sessions  SessionIssuer
	hasher    PasswordHasher
	mail      mailer.Sender
	publisher events.Publisher
	app       internal.AppConfig
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo RepositoryAPI, orgs OrganizationFinder, sessions SessionIssuer, hasher PasswordHasher, mail mailer.Sender, publisher events.Publisher, app internal.AppConfig, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{
		repo:      repo,
		orgs:      orgs,
		sessions:  sessions,
		hasher:    hasher,
		mail:      mail,
		publisher: publisher,
		app:       app,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Invite(ctx context.Context, inviter *internal.User, dto InviteDTO) (*InviteResponse, error) {
	if !inviter.IsPrivileged() {
		s.logger.Warn("invite denied", "user_id", inviter.ID, "role", inviter.Role)
		return nil, ErrNotAllowedToInvite
	}
	if !inviter.HasOrganization() {
		return nil, internal.ErrNoOrganization
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	role, err := s.grantableRole(inviter, dto.Role)
	if err != nil {
		return nil, err
	}

	email := user.NormalizeEmail(dto.Email)
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, user.ErrEmailTaken
	}

	org, err := s.orgs.Find(ctx, *inviter.OrganizationID)
	if err != nil {
		return nil, err
	}
	ok, err := s.orgs.CanAddUsers(ctx, org)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("organization is full", "organization_id", org.ID, "max_users", org.MaxUsers)
		return nil, ErrOrganizationFull
	}

	now := s.now().UTC()
	token := uuid.NewString()
	inviterID := inviter.ID
	pending := &user.User{
		Email:           email,
		FirstName:       dto.FirstName,
		LastName:        dto.LastName,
		JobTitle:        dto.JobTitle,
		Department:      dto.Department,
		OrganizationID:  &org.ID,
		Role:            role,
		IsInvited:       true,
		InvitationToken: &token,
		InvitedByID:     &inviterID,
		InvitedAt:       &now,
		DateJoined:      now,
	}
	row := user.ToDataModel(pending)
	if err := s.repo.CreatePending(ctx, row, &userDatamodel.UserProfile{}); err != nil {
		if datamodel.IsUniqueViolation(err) {
			return nil, user.ErrEmailTaken.WithCause(err)
		}
		s.logger.Error("failed to create invitation", "error", err, "organization_id", org.ID)
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	link := s.app.ActivationLink(token)
	subject, body := mailer.InvitationEmail(mailer.InvitationData{
		AppName:          s.app.Name,
		OrganizationName: org.Name,
		InviterName:      inviter.DisplayName(),
		FirstName:        row.FirstName,
		Role:             role.String(),
		ActivationLink:   link,
	})

	resp := &InviteResponse{
		Message:        fmt.Sprintf("Invitation sent to %s", row.Email),
		User:           InvitedUserResponse{UserResponse: user.FromDataModel(row).ToResponse(), InvitationToken: token},
		ActivationLink: link,
		EmailSent:      true,
	}
	if err := mailer.SendInvitationEmail(ctx, s.mail, row.Email, subject, body); err != nil {
		if errors.Is(err, mailer.ErrDeliveryDisabled) {
			s.logger.Info("invitation email not delivered", "invitee_id", row.ID, "reason", err)
		} else {
			s.logger.Warn("failed to send invitation email", "error", err, "invitee_id", row.ID)
		}
		resp.Message = fmt.Sprintf("Invitation created for %s", row.Email)
		resp.EmailSent = false
		resp.Warning = emailWarning
	}

	s.logger.Info("user invited", "organization_id", org.ID, "inviter_id", inviter.ID, "invitee_id", row.ID, "role", role)
	if err := s.publisher.Publish(ctx, events.NewInvitationCreatedEvent(org.ID, inviter.ID, row.ID, row.Email, role.String(), resp.EmailSent)); err != nil {
		s.logger.Warn("failed to publish invitation created event", "error", err)
	}
	return resp, nil
}

func (s *Service) grantableRole(inviter *internal.User, raw string) (coreuser.Role, error) {
	if raw == "" {
		return coreuser.RoleEmployee, nil
	}
	role, err := coreuser.ParseRole(raw)
	if err != nil {
		return "", internal.NewValidationFieldError("role", fmt.Sprintf("%q is not a valid choice.", raw), internal.ErrCodeInvalidRole)
	}
	if !inviter.Role.CanGrant(role) {
		return "", internal.NewValidationFieldError("role", fmt.Sprintf("You cannot invite users with the %s role.", role), internal.ErrCodeInvalidRole)
	}
	return role, nil
}

// Accept activates the pending user holding dto.Token. The token is consumed
// by a conditional update, so only one of several concurrent calls succeeds.
func (s *Service) Accept(ctx context.Context, dto AcceptDTO) (*AcceptResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	pending, err := s.repo.GetPendingByToken(ctx, dto.Token)
	if err != nil {
		return nil, fmt.Errorf("load invitation: %w", err)
	}
	if pending == nil {
		return nil, ErrInvitationNotFound
	}

	taken, err := s.repo.UsernameExists(ctx, dto.Username, pending.ID)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, user.ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.Activate(ctx, dto.Token, dto.Username, hash, s.now().UTC())
	if err != nil {
		if datamodel.IsUniqueViolation(err) {
			return nil, user.ErrUsernameTaken.WithCause(err)
		}
		s.logger.Error("failed to activate invitation", "error", err, "user_id", pending.ID)
		return nil, fmt.Errorf("activate invitation: %w", err)
	}
	if affected == 0 {
		return nil, ErrInvitationNotFound
	}

	row, err := s.repo.GetUserByID(ctx, pending.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	if row == nil {
		return nil, user.ErrUserNotFound
	}
	if row.OrganizationID == nil {
		return nil, organization.ErrOrganizationNotFound
	}
	org, err := s.orgs.Find(ctx, *row.OrganizationID)
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.IssueSession(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("invitation accepted", "user_id", row.ID, "organization_id", org.ID)
	if err := s.publisher.Publish(ctx, events.NewInvitationAcceptedEvent(org.ID, org.Name, row.ID, row.Email, row.FirstName)); err != nil {
		s.logger.Warn("failed to publish invitation accepted event", "error", err)
	}

	return &AcceptResponse{
		Message:      fmt.Sprintf("Welcome to %s!", org.Name),
		User:         user.FromDataModel(row).ToResponse(),
		Organization: org.ToResponse(),
		Token:        token,
	}, nil
}

// Preview describes a pending invitation without consuming it.
func (s *Service) Preview(ctx context.Context, token string) (*PreviewResponse, error) {
	if token == "" {
		return nil, ErrInvitationNotFound
	}
	pending, err := s.repo.GetPendingByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load invitation: %w", err)
	}
	if pending == nil || pending.OrganizationID == nil {
		return nil, ErrInvitationNotFound
	}

	org, err := s.orgs.Find(ctx, *pending.OrganizationID)
	if err != nil {
		return nil, err
	}

	preview := &PreviewResponse{
		Email:            pending.Email,
		FirstName:        pending.FirstName,
		LastName:         pending.LastName,
		Role:             pending.Role,
		OrganizationName: org.Name,
		InvitedAt:        pending.InvitedAt,
	}
	if pending.InvitedByID != nil {
		inviter, err := s.repo.GetUserByID(ctx, *pending.InvitedByID)
		if err != nil {
			return nil, fmt.Errorf("load inviter: %w", err)
		}
		if inviter != nil {
			preview.InvitedBy = user.FromDataModel(inviter).DisplayName()
		}
	}
	return preview, nil
}
