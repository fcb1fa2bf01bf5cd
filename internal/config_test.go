package internal_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/worktally/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

func validConfig() *internal.Config {
	cfg := &internal.Config{
		Database: internal.DatabaseConfig{Source: "postgres://localhost/worktally"},
		Security: internal.SecurityConfig{SessionSecret: strings.Repeat("s", 32)},
		App:      internal.AppConfig{FrontendURL: "http://localhost:3000"},
	}
	cfg.ApplyDefaults()
	return cfg
}

var _ = Describe("Config", func() {
	It("applies defaults", func() {
		cfg := validConfig()
		Expect(cfg.Organization.DefaultMaxUsers).To(Equal(50))
		Expect(cfg.Security.SessionTTL).To(Equal(30 * 24 * time.Hour))
		Expect(cfg.Database.Driver).To(Equal("postgres"))
		Expect(cfg.Worker.SessionPruneSchedule).To(Equal("@hourly"))
	})

	It("accepts a complete configuration", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("rejects a short session secret", func() {
		cfg := validConfig()
		cfg.Security.SessionSecret = "short"
		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("SessionSecret"))
	})

	It("requires a mail host when mail is enabled", func() {
		cfg := validConfig()
		cfg.Mail.Enabled = true
		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Host"))
	})

	It("rejects more idle than open connections", func() {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 20
		cfg.Database.MaxOpenConns = 5
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("max_idle_conns")))
	})

	It("builds activation links", func() {
		app := internal.AppConfig{FrontendURL: "https://app.example.com/"}
		Expect(app.ActivationLink("abc")).To(Equal("https://app.example.com/accept-invitation?token=abc"))
	})
})

var _ = Describe("AppError", func() {
	It("matches sentinels after WithCause", func() {
		base := internal.NewConflictError("taken", internal.ErrCodeEmailTaken)
		wrapped := base.WithCause(errors.New("duplicate key"))
		Expect(wrapped).To(MatchError(base))
		Expect(base.Cause).To(BeNil())
	})

	It("finds app errors through wrapping", func() {
		appErr, ok := internal.IsAppError(internal.ErrInvalidToken)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(401))
	})

	It("reports capacity errors as conflicts", func() {
		err := internal.NewCapacityError("full", internal.ErrCodeOrganizationFull)
		status, body := err.ToHTTPResponse()
		Expect(status).To(Equal(409))
		Expect(body.(internal.Response).Error.Type).To(Equal(internal.ErrorTypeCapacity))
	})

	It("uses the first field error as message", func() {
		err := internal.NewValidationFieldError("end_date", "End date must be after start date", internal.ErrCodeInvalidDate)
		Expect(err.Error()).To(Equal("End date must be after start date"))
	})
})
