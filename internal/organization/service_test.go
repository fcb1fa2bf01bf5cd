package organization_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/auth"
	authPostgres "github.com/frahmantamala/worktally/internal/auth/postgres"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	organizationDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"github.com/frahmantamala/worktally/internal/core/events"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/frahmantamala/worktally/internal/organization"
	orgPostgres "github.com/frahmantamala/worktally/internal/organization/postgres"
	"github.com/frahmantamala/worktally/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// racingRepository hides existing rows from the availability checks until the
// insert runs, the window a concurrent registration would slip through.
type racingRepository struct {
	organization.RepositoryAPI
	blind bool
}

func (r *racingRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if r.blind {
		return false, nil
	}
	return r.RepositoryAPI.SlugExists(ctx, slug)
}

func (r *racingRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if r.blind {
		return false, nil
	}
	return r.RepositoryAPI.EmailExists(ctx, email)
}

func (r *racingRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	if r.blind {
		return false, nil
	}
	return r.RepositoryAPI.UsernameExists(ctx, username)
}

func (r *racingRepository) CreateWithOwner(ctx context.Context, org *organizationDatamodel.Organization, owner *userDatamodel.User, profile *userDatamodel.UserProfile) error {
	r.blind = false
	return r.RepositoryAPI.CreateWithOwner(ctx, org, owner, profile)
}

var _ = Describe("Organization Service", func() {
	var (
		db        *gorm.DB
		service   *organization.Service
		sessions  *auth.Service
		publisher *recordingPublisher
		ctx       context.Context
	)

	registration := func(name, email, username string) organization.RegisterOrganizationDTO {
		return organization.RegisterOrganizationDTO{
			OrganizationName: name,
			Email:            email,
			Username:         username,
			Password:         "password123",
			Password2:        "password123",
			FirstName:        "Alice",
			LastName:         "Smith",
		}
	}

	callerFor := func(resp *organization.RegisterResponse) *internal.User {
		orgID := resp.Organization.ID
		return &internal.User{ID: resp.User.ID, Role: coreuser.Role(resp.User.Role), OrganizationID: &orgID}
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = datamodel.OpenSQLite(datamodel.MemoryDSN(), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(datamodel.AutoMigrate(db)).To(Succeed())

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		sessions = auth.NewService(authPostgres.NewAuthRepository(db), auth.NewJWTTokenGenerator("0123456789abcdef0123456789abcdef"), hasher, time.Hour, logger)
		publisher = &recordingPublisher{}
		service = organization.NewService(orgPostgres.NewOrganizationRepository(db), sessions, hasher, publisher, logger,
			organization.WithDefaultMaxUsers(3))
	})

	Describe("Register", func() {
		It("should create the organization, owner and profile and sign the owner in", func() {
			resp, err := service.Register(ctx, registration("My Org!", "alice@example.com", "alice"))
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Organization.Slug).To(Equal("my-org"))
			Expect(resp.Organization.MaxUsers).To(Equal(3))
			Expect(resp.Organization.UserCount).To(Equal(int64(1)))
			Expect(resp.User.Role).To(Equal("owner"))
			Expect(*resp.User.OrganizationID).To(Equal(resp.Organization.ID))

			var profiles int64
			Expect(db.Model(&userDatamodel.UserProfile{}).Where("user_id = ?", resp.User.ID).Count(&profiles).Error).To(Succeed())
			Expect(profiles).To(Equal(int64(1)))

			caller, err := sessions.Authenticate(ctx, resp.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(caller.ID).To(Equal(resp.User.ID))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeOrganizationRegistered))
		})

		It("should conflict when the slug is taken", func() {
			_, err := service.Register(ctx, registration("Acme", "a@example.com", "a"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Register(ctx, registration("ACME", "b@example.com", "b"))
			Expect(errors.Is(err, organization.ErrOrganizationExists)).To(BeTrue())
		})

		It("should conflict when the email is taken", func() {
			_, err := service.Register(ctx, registration("Acme", "a@example.com", "a"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Register(ctx, registration("Other", "A@example.com", "b"))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeEmailTaken))
		})

		It("should conflict when the username is taken", func() {
			_, err := service.Register(ctx, registration("Acme", "a@example.com", "a"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Register(ctx, registration("Other", "b@example.com", "a"))
			Expect(errors.Is(err, user.ErrUsernameTaken)).To(BeTrue())
		})

		It("should reject names without slug characters", func() {
			_, err := service.Register(ctx, registration("!!!", "a@example.com", "a"))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should reject mismatched passwords", func() {
			dto := registration("Acme", "a@example.com", "a")
			dto.Password2 = "something-else"
			_, err := service.Register(ctx, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("Password fields didn't match."))
		})
	})

	Describe("GetTeam", func() {
		It("should order members by role then name and list pending invitations with their inviter", func() {
			resp, err := service.Register(ctx, registration("Acme", "alice@example.com", "alice"))
			Expect(err).NotTo(HaveOccurred())
			orgID := resp.Organization.ID
			ownerID := resp.User.ID
			now := time.Now().UTC()
			token := "tok-1"

			rows := []*userDatamodel.User{
				{Email: "zed@example.com", FirstName: "Zed", Role: "employee", IsActive: true, OrganizationID: &orgID, PasswordHash: "x", DateJoined: now},
				{Email: "amy@example.com", FirstName: "Amy", Role: "employee", IsActive: true, OrganizationID: &orgID, PasswordHash: "x", DateJoined: now},
				{Email: "max@example.com", FirstName: "Max", Role: "manager", IsActive: true, OrganizationID: &orgID, PasswordHash: "x", DateJoined: now},
				{Email: "pen@example.com", FirstName: "Pen", Role: "employee", IsInvited: true, InvitationToken: &token, InvitedByID: &ownerID, InvitedAt: &now, OrganizationID: &orgID, DateJoined: now},
			}
			for _, row := range rows {
				Expect(db.Create(row).Error).To(Succeed())
			}

			team, err := service.GetTeam(ctx, callerFor(resp))
			Expect(err).NotTo(HaveOccurred())

			names := []string{}
			for _, m := range team.ActiveMembers {
				names = append(names, m.FirstName)
			}
			Expect(names).To(Equal([]string{"Alice", "Max", "Amy", "Zed"}))

			Expect(team.PendingInvitations).To(HaveLen(1))
			Expect(team.PendingInvitations[0].Email).To(Equal("pen@example.com"))
			Expect(team.PendingInvitations[0].InvitedBy).To(Equal("Alice Smith"))
			Expect(team.Organization.UserCount).To(Equal(int64(5)))
		})

		It("should fail for callers without an organization", func() {
			_, err := service.GetTeam(ctx, &internal.User{ID: 1})
			Expect(errors.Is(err, internal.ErrNoOrganization)).To(BeTrue())
		})
	})

	Describe("CanAddUsers", func() {
		It("should turn false once the member count reaches max users", func() {
			resp, err := service.Register(ctx, registration("Acme", "alice@example.com", "alice"))
			Expect(err).NotTo(HaveOccurred())
			org, err := service.Find(ctx, resp.Organization.ID)
			Expect(err).NotTo(HaveOccurred())

			ok, err := service.CanAddUsers(ctx, org)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			orgID := org.ID
			for _, email := range []string{"b@example.com", "c@example.com"} {
				Expect(db.Create(&userDatamodel.User{Email: email, Role: "employee", IsActive: true, OrganizationID: &orgID, DateJoined: time.Now()}).Error).To(Succeed())
			}

			ok, err = service.CanAddUsers(ctx, org)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(org.UserCount).To(Equal(int64(3)))
		})
	})

	Describe("Register racing another registration", func() {
		var racing *racingRepository

		BeforeEach(func() {
			racing = &racingRepository{RepositoryAPI: orgPostgres.NewOrganizationRepository(db)}
			service = organization.NewService(racing, sessions, auth.NewBcryptHasher(bcrypt.MinCost), publisher,
				slog.New(slog.NewTextHandler(io.Discard, nil)))

			_, err := service.Register(ctx, registration("Acme", "a@example.com", "a"))
			Expect(err).NotTo(HaveOccurred())
			racing.blind = true
		})

		It("should report the taken slug", func() {
			_, err := service.Register(ctx, registration("ACME", "b@example.com", "b"))
			Expect(errors.Is(err, organization.ErrOrganizationExists)).To(BeTrue())
			Expect(errors.Is(err, user.ErrEmailTaken)).To(BeFalse())
		})

		It("should report the taken username", func() {
			_, err := service.Register(ctx, registration("Other", "b@example.com", "a"))
			Expect(errors.Is(err, user.ErrUsernameTaken)).To(BeTrue())
			Expect(errors.Is(err, user.ErrEmailTaken)).To(BeFalse())
		})

		It("should report the taken email", func() {
			_, err := service.Register(ctx, registration("Other", "a@example.com", "b"))
			Expect(errors.Is(err, user.ErrEmailTaken)).To(BeTrue())
		})

		It("should leave no partial organization behind", func() {
			_, err := service.Register(ctx, registration("Other", "b@example.com", "a"))
			Expect(err).To(HaveOccurred())
			var orgs int64
			Expect(db.Model(&organizationDatamodel.Organization{}).Count(&orgs).Error).To(Succeed())
			Expect(orgs).To(Equal(int64(1)))
		})
	})

	It("should return not found for an unknown organization", func() {
		_, err := service.Find(ctx, "00000000-0000-0000-0000-000000000000")
		Expect(errors.Is(err, organization.ErrOrganizationNotFound)).To(BeTrue())
	})
})
