package invitation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/auth"
	authPostgres "github.com/frahmantamala/worktally/internal/auth/postgres"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"github.com/frahmantamala/worktally/internal/core/events"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/frahmantamala/worktally/internal/invitation"
	invitationPostgres "github.com/frahmantamala/worktally/internal/invitation/postgres"
	"github.com/frahmantamala/worktally/internal/mailer"
	"github.com/frahmantamala/worktally/internal/organization"
	orgPostgres "github.com/frahmantamala/worktally/internal/organization/postgres"
	"github.com/frahmantamala/worktally/internal/user"
	"github.com/frahmantamala/worktally/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestInvitation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Invitation Suite")
}

type fakeSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	err      error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeSender) sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.messages...)
}

var _ = Describe("Invitation Service", func() {
	var (
		db       *gorm.DB
		ctx      context.Context
		orgs     *organization.Service
		sessions *auth.Service
		sender   *fakeSender
		bus      *events.EventBus
		service  *invitation.Service
		owner    *internal.User
		app      internal.AppConfig
	)

	register := func(maxUsers int) {
		lg := logger.Discard()
		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		sessions = auth.NewService(authPostgres.NewAuthRepository(db), auth.NewJWTTokenGenerator("0123456789abcdef0123456789abcdef"), hasher, time.Hour, lg)
		orgs = organization.NewService(orgPostgres.NewOrganizationRepository(db), sessions, hasher, bus, lg,
			organization.WithDefaultMaxUsers(maxUsers))
		service = invitation.NewService(invitationPostgres.NewInvitationRepository(db), orgs, sessions, hasher, sender, bus, app, lg)

		resp, err := orgs.Register(ctx, organization.RegisterOrganizationDTO{
			OrganizationName: "Acme",
			Email:            "alice@example.com",
			Username:         "alice",
			Password:         "password123",
			Password2:        "password123",
			FirstName:        "Alice",
			LastName:         "Smith",
		})
		Expect(err).NotTo(HaveOccurred())
		owner, err = sessions.Authenticate(ctx, resp.Token)
		Expect(err).NotTo(HaveOccurred())
	}

	invite := func(email string) invitation.InviteDTO {
		return invitation.InviteDTO{Email: email, FirstName: "Bob", LastName: "Jones"}
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = datamodel.OpenSQLite(datamodel.MemoryDSN(), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(datamodel.AutoMigrate(db)).To(Succeed())
		sender = &fakeSender{}
		bus = events.NewEventBus(logger.Discard())
		app = internal.AppConfig{Name: "WorkTally", FrontendURL: "https://app.example.com/"}
	})

	Describe("Invite", func() {
		BeforeEach(func() { register(50) })

		It("should create a pending member and email the activation link", func() {
			resp, err := service.Invite(ctx, owner, invite("bob@example.com"))
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.EmailSent).To(BeTrue())
			Expect(resp.Warning).To(BeEmpty())
			Expect(resp.User.InvitationToken).NotTo(BeEmpty())
			Expect(resp.ActivationLink).To(Equal("https://app.example.com/accept-invitation?token=" + resp.User.InvitationToken))
			Expect(resp.User.Role).To(Equal("employee"))
			Expect(resp.User.IsActive).To(BeFalse())
			Expect(resp.User.IsInvited).To(BeTrue())

			msgs := sender.sent()
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].To).To(ConsistOf("bob@example.com"))
			Expect(msgs[0].Body).To(ContainSubstring(resp.ActivationLink))
			Expect(msgs[0].Body).To(ContainSubstring("Alice Smith has invited you to join Acme"))

			var row userDatamodel.User
			Expect(db.Where("email = ?", "bob@example.com").First(&row).Error).To(Succeed())
			Expect(row.HasUsablePassword()).To(BeFalse())
			Expect(*row.InvitedByID).To(Equal(owner.ID))
			Expect(row.InvitedAt).NotTo(BeNil())
		})

		It("should keep the invitation when the email cannot be delivered", func() {
			sender.err = errors.New("smtp down")

			resp, err := service.Invite(ctx, owner, invite("bob@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.EmailSent).To(BeFalse())
			Expect(resp.Warning).NotTo(BeEmpty())
			Expect(resp.ActivationLink).To(ContainSubstring(resp.User.InvitationToken))

			var count int64
			Expect(db.Model(&userDatamodel.User{}).Where("email = ?", "bob@example.com").Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})

		It("should reject non privileged inviters", func() {
			orgID := *owner.OrganizationID
			manager := &internal.User{ID: 99, Role: coreuser.RoleManager, OrganizationID: &orgID}
			_, err := service.Invite(ctx, manager, invite("bob@example.com"))
			Expect(errors.Is(err, invitation.ErrNotAllowedToInvite)).To(BeTrue())
		})

		It("should reject privileged inviters without an organization", func() {
			_, err := service.Invite(ctx, &internal.User{ID: 1, Role: coreuser.RoleAdmin}, invite("bob@example.com"))
			Expect(errors.Is(err, internal.ErrNoOrganization)).To(BeTrue())
		})

		DescribeTable("role grants",
			func(inviterRole coreuser.Role, role string, allowed bool) {
				caller := *owner
				caller.Role = inviterRole
				dto := invite("bob@example.com")
				dto.Role = role
				_, err := service.Invite(ctx, &caller, dto)
				if allowed {
					Expect(err).NotTo(HaveOccurred())
					return
				}
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			},
			Entry("owner grants admin", coreuser.RoleOwner, "admin", true),
			Entry("owner cannot grant owner", coreuser.RoleOwner, "owner", false),
			Entry("admin grants manager", coreuser.RoleAdmin, "manager", true),
			Entry("legacy creator role is unknown", coreuser.RoleOwner, "creator", false),
		)

		It("should conflict on an existing email, pending users included", func() {
			_, err := service.Invite(ctx, owner, invite("bob@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Invite(ctx, owner, invite("bob@EXAMPLE.com"))
			Expect(errors.Is(err, user.ErrEmailTaken)).To(BeTrue())

			_, err = service.Invite(ctx, owner, invite("alice@example.com"))
			Expect(errors.Is(err, user.ErrEmailTaken)).To(BeTrue())
		})
	})

	Describe("capacity", func() {
		It("should fail once user_count reaches max_users", func() {
			register(2)

			_, err := service.Invite(ctx, owner, invite("bob@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Invite(ctx, owner, invite("carol@example.com"))
			Expect(errors.Is(err, invitation.ErrOrganizationFull)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(409))
		})
	})

	Describe("Accept", func() {
		var token string

		BeforeEach(func() {
			register(50)
			resp, err := service.Invite(ctx, owner, invite("bob@example.com"))
			Expect(err).NotTo(HaveOccurred())
			token = resp.User.InvitationToken
		})

		accept := func(username string) invitation.AcceptDTO {
			return invitation.AcceptDTO{Token: token, Username: username, Password: "secret123", Password2: "secret123"}
		}

		It("should activate the member exactly once", func() {
			resp, err := service.Accept(ctx, accept("bob"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.User.IsActive).To(BeTrue())
			Expect(resp.User.IsInvited).To(BeFalse())
			Expect(resp.User.Username).To(Equal("bob"))
			Expect(resp.Organization.Name).To(Equal("Acme"))

			caller, err := sessions.Authenticate(ctx, resp.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(caller.Email).To(Equal("bob@example.com"))

			_, err = sessions.Login(ctx, auth.LoginDTO{Email: "bob", Password: "secret123"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Accept(ctx, accept("bob2"))
			Expect(errors.Is(err, invitation.ErrInvitationNotFound)).To(BeTrue())
		})

		It("should let only one of several concurrent acceptances win", func() {
			sqlDB, err := db.DB()
			Expect(err).NotTo(HaveOccurred())
			sqlDB.SetMaxOpenConns(1)

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
			)
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					if _, err := service.Accept(ctx, accept("bob")); err == nil {
						mu.Lock()
						successes++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			Expect(successes).To(Equal(1))
		})

		It("should reject usernames held by other accounts", func() {
			_, err := service.Accept(ctx, accept("alice"))
			Expect(errors.Is(err, user.ErrUsernameTaken)).To(BeTrue())
		})

		It("should reject unknown tokens", func() {
			dto := accept("bob")
			dto.Token = "does-not-exist"
			_, err := service.Accept(ctx, dto)
			Expect(errors.Is(err, invitation.ErrInvitationNotFound)).To(BeTrue())
		})

		It("should validate the password pair", func() {
			dto := accept("bob")
			dto.Password2 = "different1"
			_, err := service.Accept(ctx, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should send a welcome email through the event bus", func() {
			welcome := &fakeSender{}
			invitation.RegisterWelcomeMail(bus, welcome, app, logger.Discard())

			_, err := service.Accept(ctx, accept("bob"))
			Expect(err).NotTo(HaveOccurred())
			Expect(bus.Drain(ctx)).To(Succeed())

			msgs := welcome.sent()
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].To).To(ConsistOf("bob@example.com"))
			Expect(msgs[0].HTML).To(BeTrue())
			Expect(msgs[0].Subject).To(Equal("Welcome to Acme"))
		})
	})

	Describe("Preview", func() {
		It("should describe the pending invitation", func() {
			register(50)
			resp, err := service.Invite(ctx, owner, invite("bob@example.com"))
			Expect(err).NotTo(HaveOccurred())

			preview, err := service.Preview(ctx, resp.User.InvitationToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(preview.Email).To(Equal("bob@example.com"))
			Expect(preview.OrganizationName).To(Equal("Acme"))
			Expect(preview.InvitedBy).To(Equal("Alice Smith"))
			Expect(preview.Role).To(Equal("employee"))
		})

		It("should not find unknown tokens", func() {
			register(50)
			_, err := service.Preview(ctx, "nope")
			Expect(errors.Is(err, invitation.ErrInvitationNotFound)).To(BeTrue())
		})
	})

	It("should move bob from pending to active on the team roster", func() {
		register(50)
		resp, err := service.Invite(ctx, owner, invite("bob@example.com"))
		Expect(err).NotTo(HaveOccurred())

		team, err := orgs.GetTeam(ctx, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(team.ActiveMembers).To(HaveLen(1))
		Expect(team.PendingInvitations).To(HaveLen(1))
		Expect(team.Organization.UserCount).To(Equal(int64(2)))

		_, err = service.Accept(ctx, invitation.AcceptDTO{Token: resp.User.InvitationToken, Username: "bob", Password: "secret123", Password2: "secret123"})
		Expect(err).NotTo(HaveOccurred())

		team, err = orgs.GetTeam(ctx, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(team.ActiveMembers).To(HaveLen(2))
		Expect(team.PendingInvitations).To(BeEmpty())
		Expect(team.Organization.UserCount).To(Equal(int64(2)))
	})
})
