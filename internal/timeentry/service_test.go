package timeentry_test

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	projectDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/project"
	timeentryDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeentry"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
	"github.com/frahmantamala/worktally/internal/timeentry"
	timeentryPostgres "github.com/frahmantamala/worktally/internal/timeentry/postgres"
	"github.com/frahmantamala/worktally/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("TimeEntry Service", func() {
	var (
		db       *gorm.DB
		ctx      context.Context
		now      time.Time
		service  *timeentry.Service
		orgID    string
		owner    *internal.User
		employee *internal.User
		outsider *internal.User
	)

	addUser := func(email string, role coreuser.Role, org *string) *internal.User {
		row := &userDatamodel.User{Email: email, FirstName: email[:3], Role: string(role), IsActive: true, OrganizationID: org, PasswordHash: "x", DateJoined: now}
		Expect(db.Create(row).Error).To(Succeed())
		return &internal.User{ID: row.ID, Email: email, Role: role, OrganizationID: org}
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = datamodel.OpenSQLite(datamodel.MemoryDSN(), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(datamodel.AutoMigrate(db)).To(Succeed())

		now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		service = timeentry.NewService(timeentryPostgres.NewTimeEntryRepository(db), logger.Discard(),
			timeentry.WithClock(func() time.Time { return now }))

		orgID = "11111111-1111-1111-1111-111111111111"
		owner = addUser("own@example.com", coreuser.RoleOwner, &orgID)
		employee = addUser("emp@example.com", coreuser.RoleEmployee, &orgID)
		outsider = addUser("out@example.com", coreuser.RoleOwner, nil)
	})

	Describe("clocking", func() {
		It("should refuse a second clock in and report the elapsed time on clock out", func() {
			entry, err := service.ClockIn(ctx, employee, timeentry.ClockInDTO{Notes: "standup"})
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.IsActive).To(BeTrue())
			Expect(entry.Duration).To(Equal(timeentry.InProgress))
			Expect(entry.UserName).To(Equal("emp"))

			_, err = service.ClockIn(ctx, employee, timeentry.ClockInDTO{})
			Expect(errors.Is(err, timeentry.ErrActiveEntryExists)).To(BeTrue())

			current, err := service.Current(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(current.ID).To(Equal(entry.ID))

			now = now.Add(2*time.Hour + 15*time.Minute + 4*time.Second)
			resp, err := service.ClockOut(ctx, employee, timeentry.ClockOutDTO{Notes: "wrapped up"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Duration).To(Equal("02:15:04"))
			Expect(resp.TimeEntry.Notes).To(Equal("standup\n\nClock out notes: wrapped up"))
			Expect(resp.TimeEntry.IsActive).To(BeFalse())

			_, err = service.ClockOut(ctx, employee, timeentry.ClockOutDTO{})
			Expect(errors.Is(err, timeentry.ErrNoActiveEntry)).To(BeTrue())

			_, err = service.Current(ctx, employee)
			Expect(errors.Is(err, timeentry.ErrNoActiveEntry)).To(BeTrue())
		})

		It("should enforce one open entry per user in the database", func() {
			Expect(db.Create(&timeentryDatamodel.TimeEntry{UserID: employee.ID, ClockIn: now}).Error).To(Succeed())
			err := db.Create(&timeentryDatamodel.TimeEntry{UserID: employee.ID, ClockIn: now.Add(time.Minute)}).Error
			Expect(datamodel.IsUniqueViolation(err)).To(BeTrue())
		})

		It("should reject projects from other organizations and let own entries drop their project", func() {
			foreign := &projectDatamodel.Project{Name: "Elsewhere", IsActive: true}
			Expect(db.Create(foreign).Error).To(Succeed())

			_, err := service.ClockIn(ctx, employee, timeentry.ClockInDTO{ProjectID: &foreign.ID})
			Expect(errors.Is(err, timeentry.ErrInvalidProject)).To(BeTrue())

			own := &projectDatamodel.Project{Name: "Website", OrganizationID: &orgID, IsActive: true}
			Expect(db.Create(own).Error).To(Succeed())
			entry, err := service.ClockIn(ctx, employee, timeentry.ClockInDTO{ProjectID: &own.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(*entry.ProjectName).To(Equal("Website"))

			_, err = service.ClockOut(ctx, employee, timeentry.ClockOutDTO{})
			Expect(err).NotTo(HaveOccurred())
			detached, err := service.Update(ctx, employee, entry.ID, timeentry.UpdateTimeEntryDTO{ClearProject: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(detached.ProjectID).To(BeNil())
			Expect(detached.ProjectName).To(BeNil())

			reloaded, err := service.Get(ctx, employee, entry.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.ProjectID).To(BeNil())
		})
	})

	Describe("visibility", func() {
		var employeeEntry *timeentry.TimeEntryResponse

		BeforeEach(func() {
			var err error
			out := now.Add(-time.Hour)
			employeeEntry, err = service.Create(ctx, employee, timeentry.CreateTimeEntryDTO{ClockIn: now.Add(-3 * time.Hour), ClockOut: &out})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ClockIn(ctx, owner, timeentry.ClockInDTO{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ClockIn(ctx, outsider, timeentry.ClockInDTO{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should list the organization for privileged members, newest first", func() {
			entries, err := service.List(ctx, owner, timeentry.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].UserID).To(Equal(owner.ID))
			Expect(entries[1].UserID).To(Equal(employee.ID))
		})

		It("should list only own entries for everyone else", func() {
			entries, err := service.List(ctx, employee, timeentry.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))

			entries, err = service.List(ctx, outsider, timeentry.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].UserID).To(Equal(outsider.ID))
		})

		It("should hide other users' entries", func() {
			_, err := service.Get(ctx, outsider, employeeEntry.ID)
			Expect(errors.Is(err, timeentry.ErrTimeEntryNotFound)).To(BeTrue())

			peer := addUser("pee@example.com", coreuser.RoleEmployee, &orgID)
			err = service.Delete(ctx, peer, employeeEntry.ID)
			Expect(errors.Is(err, timeentry.ErrTimeEntryNotFound)).To(BeTrue())
		})

		It("should let privileged members of the organization edit entries", func() {
			notes := "fixed by owner"
			updated, err := service.Update(ctx, owner, employeeEntry.ID, timeentry.UpdateTimeEntryDTO{Notes: &notes})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Notes).To(Equal(notes))
			Expect(updated.Duration).To(Equal("02:00:00"))

			Expect(service.Delete(ctx, owner, employeeEntry.ID)).To(Succeed())
			_, err = service.Get(ctx, employee, employeeEntry.ID)
			Expect(errors.Is(err, timeentry.ErrTimeEntryNotFound)).To(BeTrue())
		})
	})

	Describe("manual entries", func() {
		It("should validate ordering", func() {
			before := now.Add(-time.Hour)
			_, err := service.Create(ctx, employee, timeentry.CreateTimeEntryDTO{ClockIn: now, ClockOut: &before})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should treat an entry without clock out as the open entry", func() {
			_, err := service.Create(ctx, employee, timeentry.CreateTimeEntryDTO{ClockIn: now.Add(-time.Hour)})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ClockIn(ctx, employee, timeentry.ClockInDTO{})
			Expect(errors.Is(err, timeentry.ErrActiveEntryExists)).To(BeTrue())

			_, err = service.Create(ctx, employee, timeentry.CreateTimeEntryDTO{ClockIn: now})
			Expect(errors.Is(err, timeentry.ErrActiveEntryExists)).To(BeTrue())
		})
	})
})
