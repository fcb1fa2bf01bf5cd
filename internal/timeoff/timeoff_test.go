package timeoff_test

import (
	"testing"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/timeoff"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTimeOff(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "TimeOff Suite")
}

func fieldNames(err error) []string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue())
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue())
	names := []string{}
	for _, fe := range details.Errors {
		names = append(names, fe.Field)
	}
	return names
}

var _ = Describe("TimeOff", func() {
	day := func(s string) time.Time {
		t, err := time.Parse(timeoff.DateLayout, s)
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	DescribeTable("counts requested days inclusively",
		func(start, end string, want int) {
			t := &timeoff.TimeOff{StartDate: day(start), EndDate: day(end)}
			Expect(t.DaysRequested()).To(Equal(want))
		},
		Entry("single day", "2026-07-01", "2026-07-01", 1),
		Entry("three days", "2026-07-01", "2026-07-03", 3),
		Entry("across a month", "2026-07-30", "2026-08-02", 4),
		Entry("across the spring clock change", "2026-03-28", "2026-03-30", 3),
	)

	It("should accept only known request types", func() {
		kind, err := timeoff.ParseRequestType(" Sick ")
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(timeoff.TypeSick))

		_, err = timeoff.ParseRequestType("sabbatical")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("CreateTimeOffDTO", func() {
	today := time.Date(2026, 6, 15, 13, 0, 0, 0, time.UTC)

	It("should allow a request starting today", func() {
		_, _, _, err := timeoff.CreateTimeOffDTO{StartDate: "2026-06-15", EndDate: "2026-06-15", RequestType: "vacation"}.Parse(today)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject an end before the start", func() {
		_, _, _, err := timeoff.CreateTimeOffDTO{StartDate: "2026-06-20", EndDate: "2026-06-19", RequestType: "vacation"}.Parse(today)
		Expect(fieldNames(err)).To(ConsistOf("end_date"))
	})

	It("should reject a start in the past", func() {
		_, _, _, err := timeoff.CreateTimeOffDTO{StartDate: "2026-06-14", EndDate: "2026-06-20", RequestType: "vacation"}.Parse(today)
		Expect(fieldNames(err)).To(ConsistOf("start_date"))
	})

	It("should report missing and malformed fields together", func() {
		_, _, _, err := timeoff.CreateTimeOffDTO{StartDate: "15/06/2026", RequestType: "holiday"}.Parse(today)
		Expect(fieldNames(err)).To(ConsistOf("start_date", "end_date", "request_type"))
	})
})
