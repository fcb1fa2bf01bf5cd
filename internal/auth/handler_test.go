package auth_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/auth"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/frahmantamala/worktally/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Auth Handler", func() {
	var (
		mockRepo *MockRepository
		handler  *auth.Handler
		rbac     *auth.RBACAuthorization
		slogger  *slog.Logger
	)

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockRepo = NewMockRepository()
		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		hash, err := hasher.Hash("s3cret-pass")
		Expect(err).NotTo(HaveOccurred())
		mockRepo.AddUser(&userDatamodel.User{
			ID:           7,
			Email:        "emp@example.com",
			PasswordHash: hash,
			Role:         string(coreuser.RoleEmployee),
			IsActive:     true,
		})

		service := auth.NewService(mockRepo, auth.NewJWTTokenGenerator(testSecret), hasher, time.Hour, slogger)
		handler = auth.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		rbac = auth.NewRBACAuthorization(slogger)
	})

	login := func() string {
		body := strings.NewReader(`{"email":"emp@example.com","password":"s3cret-pass"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		w := httptest.NewRecorder()
		handler.Login(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp auth.LoginResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp.Token
	}

	It("should return 401 with the error envelope for bad credentials", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"emp@example.com","password":"bad"}`))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		var resp map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp["error"]["code"]).To(Equal("INVALID_CREDENTIALS"))
	})

	It("should return 400 for a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should put the caller in the context for both header schemes", func() {
		token := login()
		var seen *internal.User
		protected := handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = internal.UserFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

		for _, scheme := range []string{"Bearer", "Token"} {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req.Header.Set("Authorization", scheme+" "+token)
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(seen).NotTo(BeNil())
			Expect(seen.ID).To(Equal(int64(7)))
		}
	})

	It("should reject requests without credentials", func() {
		protected := handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Fail("handler must not run")
		}))
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should invalidate the token on logout", func() {
		token := login()
		logout := handler.AuthMiddleware(http.HandlerFunc(handler.Logout))

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		logout.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w = httptest.NewRecorder()
		logout.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	Describe("RBACAuthorization", func() {
		ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		It("should forbid employees from privileged routes", func() {
			req := httptest.NewRequest(http.MethodPost, "/invitations", nil)
			req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: 1, Role: coreuser.RoleEmployee}))
			w := httptest.NewRecorder()
			rbac.RequirePrivileged()(ok).ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should admit admins to privileged routes", func() {
			req := httptest.NewRequest(http.MethodPost, "/invitations", nil)
			req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: 1, Role: coreuser.RoleAdmin}))
			w := httptest.NewRecorder()
			rbac.RequirePrivileged()(ok).ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("should reject callers without an organization", func() {
			req := httptest.NewRequest(http.MethodGet, "/team", nil)
			req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: 1, Role: coreuser.RoleEmployee}))
			w := httptest.NewRecorder()
			rbac.RequireOrganization()(ok).ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
