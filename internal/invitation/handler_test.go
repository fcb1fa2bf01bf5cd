package invitation_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/worktally/internal"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/frahmantamala/worktally/internal/invitation"
	"github.com/frahmantamala/worktally/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	lastToken   string
	lastInviter *internal.User
	err         error
}

func (s *stubService) Invite(_ context.Context, inviter *internal.User, dto invitation.InviteDTO) (*invitation.InviteResponse, error) {
	s.lastInviter = inviter
	if s.err != nil {
		return nil, s.err
	}
	return &invitation.InviteResponse{ActivationLink: "https://app/accept-invitation?token=t", EmailSent: true}, nil
}

func (s *stubService) Accept(_ context.Context, dto invitation.AcceptDTO) (*invitation.AcceptResponse, error) {
	s.lastToken = dto.Token
	if s.err != nil {
		return nil, s.err
	}
	return &invitation.AcceptResponse{Token: "session"}, nil
}

func (s *stubService) Preview(_ context.Context, token string) (*invitation.PreviewResponse, error) {
	s.lastToken = token
	if s.err != nil {
		return nil, s.err
	}
	return &invitation.PreviewResponse{Email: "bob@example.com"}, nil
}

var _ = Describe("Invitation Handler", func() {
	var (
		stub    *stubService
		handler *invitation.Handler
		router  chi.Router
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		stub = &stubService{}
		handler = invitation.NewHandler(&transport.BaseHandler{Logger: slogger}, stub)
		router = chi.NewRouter()
		router.Get("/invitation/{token}", handler.Preview)
		router.Post("/invitation/accept", handler.Accept)
	})

	It("should read the token from the path", func() {
		req := httptest.NewRequest(http.MethodGet, "/invitation/abc-123", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(stub.lastToken).To(Equal("abc-123"))
	})

	It("should render not found for unknown tokens", func() {
		stub.err = invitation.ErrInvitationNotFound
		req := httptest.NewRequest(http.MethodGet, "/invitation/nope", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		var resp map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp["error"]["code"]).To(Equal("INVITATION_NOT_FOUND"))
	})

	It("should accept with a json body", func() {
		body := strings.NewReader(`{"token":"t1","username":"bob","password":"secret123","password2":"secret123"}`)
		req := httptest.NewRequest(http.MethodPost, "/invitation/accept", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(stub.lastToken).To(Equal("t1"))
	})

	It("should answer 201 to an authenticated invite", func() {
		orgID := "org-1"
		caller := &internal.User{ID: 1, Role: coreuser.RoleOwner, OrganizationID: &orgID}
		req := httptest.NewRequest(http.MethodPost, "/organization/invite", strings.NewReader(`{"email":"bob@example.com"}`))
		req = req.WithContext(internal.ContextWithUser(req.Context(), caller))
		w := httptest.NewRecorder()
		handler.Invite(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(stub.lastInviter).To(Equal(caller))
	})

	It("should map capacity errors to 409", func() {
		stub.err = invitation.ErrOrganizationFull
		orgID := "org-1"
		caller := &internal.User{ID: 1, Role: coreuser.RoleOwner, OrganizationID: &orgID}
		req := httptest.NewRequest(http.MethodPost, "/organization/invite", strings.NewReader(`{}`))
		req = req.WithContext(internal.ContextWithUser(req.Context(), caller))
		w := httptest.NewRecorder()
		handler.Invite(w, req)

		Expect(w.Code).To(Equal(http.StatusConflict))
	})
})
