package organization

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	organizationDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"github.com/frahmantamala/worktally/internal/core/events"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/frahmantamala/worktally/internal/user"
	"github.com/google/uuid"
)

var (
	ErrOrganizationExists   = internal.NewConflictError("An organization with this name already exists.", internal.ErrCodeSlugTaken)
	ErrOrganizationNotFound = internal.NewNotFoundError("Organization not found", internal.ErrCodeOrganizationNotFound)
)

type RepositoryAPI interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	CreateWithOwner(ctx context.Context, org *organizationDatamodel.Organization, owner *userDatamodel.User, profile *userDatamodel.UserProfile) error
	GetByID(ctx context.Context, id string) (*organizationDatamodel.Organization, error)
	CountMembers(ctx context.Context, orgID string) (int64, error)
	ListActiveMembers(ctx context.Context, orgID string) ([]*userDatamodel.User, error)
	ListPendingInvitations(ctx context.Context, orgID string) ([]*userDatamodel.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) ([]*userDatamodel.User, error)
}

type SessionIssuer interface {
	IssueSession(ctx context.Context, userID int64) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Service struct {
	repo            RepositoryAPI
	sessions        SessionIssuer
	hasher          PasswordHasher
	publisher       events.Publisher
	defaultMaxUsers int
	logger          *slog.Logger
	now             func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithDefaultMaxUsers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultMaxUsers = n
		}
	}
}

func NewService(repo RepositoryAPI, sessions SessionIssuer, hasher PasswordHasher, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{
		repo:            repo,
		sessions:        sessions,
		hasher:          hasher,
		publisher:       publisher,
		defaultMaxUsers: internal.DefaultMaxUsers,
		logger:          logger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the organization, its owner and the owner's profile in one
// transaction, then signs the owner in.
func (s *Service) Register(ctx context.Context, dto RegisterOrganizationDTO) (*RegisterResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	slug := Slugify(dto.OrganizationName)
	if err := s.ensureAvailable(ctx, slug, dto.Email, dto.Username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	org := &Organization{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(dto.OrganizationName),
		Slug:        slug,
		Description: dto.OrganizationDescription,
		IsActive:    true,
		MaxUsers:    s.defaultMaxUsers,
		Email:       dto.OrganizationEmail,
		Phone:       dto.OrganizationPhone,
		Website:     dto.OrganizationWebsite,
		Address:     dto.OrganizationAddress,
	}
	owner := user.NewActive(dto.Email, dto.Username, dto.FirstName, dto.LastName, coreuser.RoleOwner, &org.ID, now)
	owner.PasswordHash = hash

	orgRow := ToDataModel(org)
	ownerRow := user.ToDataModel(owner)
	if err := s.repo.CreateWithOwner(ctx, orgRow, ownerRow, &userDatamodel.UserProfile{}); err != nil {
		if datamodel.IsUniqueViolation(err) {
			return nil, user.RaceConflict(s.ensureAvailable(ctx, slug, dto.Email, dto.Username), err)
		}
		s.logger.Error("failed to create organization", "error", err, "slug", slug)
		return nil, fmt.Errorf("create organization: %w", err)
	}

	token, err := s.sessions.IssueSession(ctx, ownerRow.ID)
	if err != nil {
		return nil, err
	}

	created := FromDataModel(orgRow)
	created.UserCount = 1

	s.logger.Info("organization registered", "organization_id", created.ID, "slug", slug, "owner_id", ownerRow.ID)
	if err := s.publisher.Publish(ctx, events.NewOrganizationRegisteredEvent(created.ID, slug, ownerRow.ID)); err != nil {
		s.logger.Warn("failed to publish organization registered event", "error", err)
	}

	return &RegisterResponse{
		Message:      "Organization registered successfully",
		User:         user.FromDataModel(ownerRow).ToResponse(),
		Organization: created.ToResponse(),
		Token:        token,
	}, nil
}

func (s *Service) ensureAvailable(ctx context.Context, slug, email, username string) error {
	exists, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return ErrOrganizationExists
	}

	exists, err = s.repo.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return user.ErrEmailTaken
	}

	exists, err = s.repo.UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if exists {
		return user.ErrUsernameTaken
	}
	return nil
}

// Find loads an organization together with its current member count.
func (s *Service) Find(ctx context.Context, id string) (*Organization, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load organization", "error", err, "organization_id", id)
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if row == nil {
		return nil, ErrOrganizationNotFound
	}

	org := FromDataModel(row)
	org.UserCount, err = s.repo.CountMembers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	return org, nil
}

// CanAddUsers re-reads the member count; it is a check-then-act guard.
func (s *Service) CanAddUsers(ctx context.Context, org *Organization) (bool, error) {
	count, err := s.repo.CountMembers(ctx, org.ID)
	if err != nil {
		return false, fmt.Errorf("count members: %w", err)
	}
	org.UserCount = count
	return org.HasCapacity(), nil
}

func (s *Service) Get(ctx context.Context, caller *internal.User) (*OrganizationResponse, error) {
	if !caller.HasOrganization() {
		return nil, internal.ErrNoOrganization
	}
	org, err := s.Find(ctx, *caller.OrganizationID)
	if err != nil {
		return nil, err
	}
	resp := org.ToResponse()
	return &resp, nil
}

// GetTeam lists active members by role rank then name, and pending
// invitations newest first.
func (s *Service) GetTeam(ctx context.Context, caller *internal.User) (*TeamResponse, error) {
	if !caller.HasOrganization() {
		return nil, internal.ErrNoOrganization
	}
	org, err := s.Find(ctx, *caller.OrganizationID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListActiveMembers(ctx, org.ID)
	if err != nil {
		s.logger.Error("failed to list members", "error", err, "organization_id", org.ID)
		return nil, fmt.Errorf("list members: %w", err)
	}
	pending, err := s.repo.ListPendingInvitations(ctx, org.ID)
	if err != nil {
		s.logger.Error("failed to list pending invitations", "error", err, "organization_id", org.ID)
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	inviterNames, err := s.inviterNames(ctx, pending)
	if err != nil {
		return nil, err
	}

	team := &TeamResponse{
		Organization:       org.ToResponse(),
		ActiveMembers:      make([]user.UserResponse, 0, len(members)),
		PendingInvitations: make([]PendingInvitationResponse, 0, len(pending)),
	}
	for _, m := range members {
		team.ActiveMembers = append(team.ActiveMembers, user.FromDataModel(m).ToResponse())
	}
	for _, p := range pending {
		inv := PendingInvitationResponse{
			ID:         p.ID,
			Email:      p.Email,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Role:       p.Role,
			JobTitle:   p.JobTitle,
			Department: p.Department,
			InvitedAt:  p.InvitedAt,
		}
		if p.InvitedByID != nil {
			inv.InvitedBy = inviterNames[*p.InvitedByID]
		}
		team.PendingInvitations = append(team.PendingInvitations, inv)
	}
	return team, nil
}

func (s *Service) inviterNames(ctx context.Context, pending []*userDatamodel.User) (map[int64]string, error) {
	names := map[int64]string{}
	ids := []int64{}
	seen := map[int64]bool{}
	for _, p := range pending {
		if p.InvitedByID != nil && !seen[*p.InvitedByID] {
			seen[*p.InvitedByID] = true
			ids = append(ids, *p.InvitedByID)
		}
	}
	if len(ids) == 0 {
		return names, nil
	}

	inviters, err := s.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load inviters: %w", err)
	}
	for _, u := range inviters {
		names[u.ID] = user.FromDataModel(u).DisplayName()
	}
	return names, nil
}
