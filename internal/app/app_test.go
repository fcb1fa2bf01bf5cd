package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/app"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	"github.com/frahmantamala/worktally/internal/mailer"
	"github.com/frahmantamala/worktally/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestApp(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "App Suite")
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

type body = map[string]interface{}

var _ = Describe("WorkTally API", func() {
	var (
		a    *app.App
		mail *outbox
	)

	BeforeEach(func() {
		db, err := datamodel.OpenSQLite(datamodel.MemoryDSN(), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(datamodel.AutoMigrate(db)).To(Succeed())

		cfg := &internal.Config{
			Security: internal.SecurityConfig{
				SessionSecret: "0123456789abcdef0123456789abcdef",
				BCryptCost:    4,
			},
			App:       internal.AppConfig{FrontendURL: "http://app.example.com"},
			RateLimit: internal.RateLimitConfig{Enabled: false},
			Observability: internal.ObservabilityConfig{
				Metrics: internal.MetricsConfig{Enabled: true},
			},
		}
		cfg.ApplyDefaults()

		mail = &outbox{}
		a, err = app.New(cfg, db, logger.Discard(), app.WithMailSender(mail))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(a.Shutdown(context.Background())).To(Succeed())
		})
	})

	call := func(method, path, token string, payload interface{}) (int, body) {
		var buf bytes.Buffer
		if payload != nil {
			Expect(json.NewEncoder(&buf).Encode(payload)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		a.Router.ServeHTTP(w, req)

		out := body{}
		if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json" {
			Expect(json.Unmarshal(w.Body.Bytes(), &out)).To(Succeed())
		}
		return w.Code, out
	}

	api := func(path string) string { return "/api/v1" + path }

	registerAcme := func() string {
		status, resp := call(http.MethodPost, api("/organization/register"), "", body{
			"organization_name": "Acme",
			"email":             "alice@example.com",
			"username":          "alice",
			"password":          "password123",
			"password2":         "password123",
			"first_name":        "Alice",
			"last_name":         "Smith",
		})
		Expect(status).To(Equal(http.StatusCreated))
		return resp["token"].(string)
	}

	It("should walk an organization from registration to a reviewed time off request", func() {
		alice := registerAcme()

		status, invite := call(http.MethodPost, api("/organization/invite"), alice, body{
			"email":      "bob@example.com",
			"first_name": "Bob",
			"last_name":  "Jones",
		})
		Expect(status).To(Equal(http.StatusCreated))
		Expect(invite["email_sent"]).To(BeTrue())
		invitationToken := invite["user"].(body)["invitation_token"].(string)
		Expect(invite["activation_link"]).To(Equal("http://app.example.com/accept-invitation?token=" + invitationToken))

		status, team := call(http.MethodGet, api("/organization/team"), alice, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(team["active_members"]).To(HaveLen(1))
		Expect(team["pending_invitations"]).To(HaveLen(1))

		status, preview := call(http.MethodGet, api("/invitation/"+invitationToken), "", nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(preview["organization_name"]).To(Equal("Acme"))

		accept := body{"token": invitationToken, "username": "bob", "password": "password123", "password2": "password123"}
		status, accepted := call(http.MethodPost, api("/invitation/accept"), "", accept)
		Expect(status).To(Equal(http.StatusOK))
		bob := accepted["token"].(string)

		status, _ = call(http.MethodPost, api("/invitation/accept"), "", accept)
		Expect(status).To(Equal(http.StatusNotFound))

		_, team = call(http.MethodGet, api("/organization/team"), alice, nil)
		Expect(team["active_members"]).To(HaveLen(2))
		Expect(team["pending_invitations"]).To(BeEmpty())
		Expect(team["organization"].(body)["user_count"]).To(BeEquivalentTo(2))

		Expect(a.Bus.Drain(context.Background())).To(Succeed())
		Eventually(mail.count).Should(Equal(2))

		status, _ = call(http.MethodPost, api("/organization/invite"), bob, body{
			"email": "carol@example.com", "first_name": "Carol", "last_name": "White",
		})
		Expect(status).To(Equal(http.StatusForbidden))

		status, _ = call(http.MethodPost, api("/clock-in"), bob, body{"notes": "standup"})
		Expect(status).To(Equal(http.StatusCreated))
		status, conflict := call(http.MethodPost, api("/clock-in"), bob, nil)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(conflict["error"].(body)["type"]).To(Equal("CONFLICT"))

		status, board := call(http.MethodGet, api("/dashboard"), bob, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(board["active_time_entry"]).NotTo(BeNil())
		Expect(board["recent_time_entries"]).To(HaveLen(1))

		status, out := call(http.MethodPost, api("/clock-out"), bob, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(out["duration"]).To(MatchRegexp(`^\d{2}:\d{2}:\d{2}$`))

		tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
		status, request := call(http.MethodPost, api("/time-off"), bob, body{
			"start_date": tomorrow, "end_date": tomorrow, "request_type": "vacation",
		})
		Expect(status).To(Equal(http.StatusCreated))
		Expect(request["days_requested"]).To(BeEquivalentTo(1))
		reviewPath := api("/time-off/" + jsonID(request) + "/review")

		status, _ = call(http.MethodPost, reviewPath, bob, body{"status": "approved"})
		Expect(status).To(Equal(http.StatusForbidden))

		status, reviewed := call(http.MethodPost, reviewPath, alice, body{"status": "approved"})
		Expect(status).To(Equal(http.StatusOK))
		Expect(reviewed["status"]).To(Equal("approved"))

		status, again := call(http.MethodPost, reviewPath, alice, body{"status": "rejected"})
		Expect(status).To(Equal(http.StatusConflict))
		Expect(again["error"].(body)["message"]).To(Equal("Time off request has already been approved"))
	})

	It("should reject protected routes without credentials", func() {
		status, resp := call(http.MethodGet, api("/me"), "", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(resp["error"].(body)["type"]).To(Equal("UNAUTHORIZED"))
	})

	It("should answer health checks and expose metrics", func() {
		status, health := call(http.MethodGet, api("/health"), "", nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(health["status"]).To(Equal("healthy"))

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()
		a.Router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`worktally_http_requests_total{method="GET",path="/api/v1/health",status="200"} 1`))
	})
})

func jsonID(b body) string {
	return strconv.FormatInt(int64(b["id"].(float64)), 10)
}
