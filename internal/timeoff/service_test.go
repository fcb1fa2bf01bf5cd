package timeoff_test

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"github.com/frahmantamala/worktally/internal/core/events"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/frahmantamala/worktally/internal/timeoff"
	timeoffPostgres "github.com/frahmantamala/worktally/internal/timeoff/postgres"
	"github.com/frahmantamala/worktally/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type capturePublisher struct {
	events []events.Event
}

func (c *capturePublisher) Publish(_ context.Context, e events.Event) error {
	c.events = append(c.events, e)
	return nil
}

var _ = Describe("TimeOff Service", func() {
	var (
		db        *gorm.DB
		ctx       context.Context
		now       time.Time
		publisher *capturePublisher
		service   *timeoff.Service
		admin     *internal.User
		employee  *internal.User
		stranger  *internal.User
	)

	addUser := func(email, first string, role coreuser.Role, org *string) *internal.User {
		row := &userDatamodel.User{Email: email, FirstName: first, Role: string(role), IsActive: true, OrganizationID: org, PasswordHash: "x", DateJoined: now}
		Expect(db.Create(row).Error).To(Succeed())
		return &internal.User{ID: row.ID, Email: email, FirstName: first, Role: role, OrganizationID: org}
	}

	request := func(caller *internal.User) *timeoff.TimeOffResponse {
		resp, err := service.Request(ctx, caller, timeoff.CreateTimeOffDTO{StartDate: "2026-07-01", EndDate: "2026-07-03", RequestType: "vacation", Reason: "beach"})
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = datamodel.OpenSQLite(datamodel.MemoryDSN(), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(datamodel.AutoMigrate(db)).To(Succeed())

		now = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
		publisher = &capturePublisher{}
		service = timeoff.NewService(timeoffPostgres.NewTimeOffRepository(db), publisher, logger.Discard(),
			timeoff.WithClock(func() time.Time { return now }))

		orgA := "org-a"
		orgB := "org-b"
		admin = addUser("adm@example.com", "Ada", coreuser.RoleAdmin, &orgA)
		employee = addUser("emp@example.com", "Eve", coreuser.RoleEmployee, &orgA)
		stranger = addUser("str@example.com", "Sam", coreuser.RoleOwner, &orgB)
	})

	It("should create pending requests with the inclusive day count", func() {
		resp := request(employee)
		Expect(resp.Status).To(Equal("pending"))
		Expect(resp.DaysRequested).To(Equal(3))
		Expect(resp.StartDate).To(Equal("2026-07-01"))
		Expect(resp.UserName).To(Equal("Eve"))
	})

	Describe("Review", func() {
		It("should approve once and refuse a second review", func() {
			req := request(employee)

			reviewed, err := service.Review(ctx, admin, req.ID, timeoff.ReviewDTO{Status: "approved", ReviewNotes: "enjoy"})
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Status).To(Equal("approved"))
			Expect(*reviewed.ReviewedByID).To(Equal(admin.ID))
			Expect(reviewed.ReviewedAt).NotTo(BeNil())
			Expect(reviewed.ReviewNotes).To(Equal("enjoy"))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeTimeOffReviewed))

			_, err = service.Review(ctx, admin, req.ID, timeoff.ReviewDTO{Status: "rejected"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeConflict))
			Expect(appErr.Message).To(Equal("Time off request has already been approved"))
		})

		It("should forbid non privileged reviewers", func() {
			req := request(employee)
			_, err := service.Review(ctx, employee, req.ID, timeoff.ReviewDTO{Status: "approved"})
			Expect(errors.Is(err, timeoff.ErrNotAllowedReview)).To(BeTrue())
		})

		It("should hide requests of other organizations", func() {
			req := request(employee)
			_, err := service.Review(ctx, stranger, req.ID, timeoff.ReviewDTO{Status: "approved"})
			Expect(errors.Is(err, timeoff.ErrTimeOffNotFound)).To(BeTrue())
		})

		It("should validate the status", func() {
			req := request(employee)
			_, err := service.Review(ctx, admin, req.ID, timeoff.ReviewDTO{Status: "maybe"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("List", func() {
		It("should show the organization to privileged members and own requests otherwise", func() {
			request(employee)
			request(admin)
			request(stranger)

			all, err := service.List(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))

			own, err := service.List(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(own).To(HaveLen(1))
			Expect(own[0].UserID).To(Equal(employee.ID))
		})

		It("should list only the caller's pending requests for the dashboard", func() {
			first := request(employee)
			request(employee)
			_, err := service.Review(ctx, admin, first.ID, timeoff.ReviewDTO{Status: "rejected"})
			Expect(err).NotTo(HaveOccurred())

			pending, err := service.ListPending(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(1))
			Expect(pending[0].Status).To(Equal("pending"))
		})
	})

	Describe("Update and Delete", func() {
		It("should let the requester edit while pending", func() {
			req := request(employee)
			end := "2026-07-05"
			updated, err := service.Update(ctx, employee, req.ID, timeoff.UpdateTimeOffDTO{EndDate: &end})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.DaysRequested).To(Equal(5))
			Expect(updated.Reason).To(Equal("beach"))
		})

		It("should refuse edits by other members and after review", func() {
			req := request(employee)
			reason := "mine now"
			_, err := service.Update(ctx, admin, req.ID, timeoff.UpdateTimeOffDTO{Reason: &reason})
			Expect(errors.Is(err, timeoff.ErrNotRequester)).To(BeTrue())

			_, err = service.Review(ctx, admin, req.ID, timeoff.ReviewDTO{Status: "approved"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, employee, req.ID, timeoff.UpdateTimeOffDTO{Reason: &reason})
			Expect(errors.Is(err, timeoff.ErrCannotModify)).To(BeTrue())
			Expect(errors.Is(service.Delete(ctx, employee, req.ID), timeoff.ErrCannotModify)).To(BeTrue())
		})

		It("should delete pending requests", func() {
			req := request(employee)
			Expect(service.Delete(ctx, employee, req.ID)).To(Succeed())
			_, err := service.Get(ctx, employee, req.ID)
			Expect(errors.Is(err, timeoff.ErrTimeOffNotFound)).To(BeTrue())
		})
	})
})
