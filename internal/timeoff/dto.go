package timeoff

import (
	"fmt"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/common/validation"
)

const DateLayout = "2006-01-02"

type CreateTimeOffDTO struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	RequestType string `json:"request_type"`
	Reason      string `json:"reason" validate:"max=5000"`
}

// Parse validates d against today and returns the normalized request fields.
func (d CreateTimeOffDTO) Parse(today time.Time) (start, end time.Time, kind RequestType, err error) {
	v := validation.NewValidator().Struct(d)
	start, end, kind = parseFields(v, d.StartDate, d.EndDate, d.RequestType)
	checkRange(v, start, end, today)
	return start, end, kind, v.Validate()
}

type UpdateTimeOffDTO struct {
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	RequestType *string `json:"request_type"`
	Reason      *string `json:"reason" validate:"omitempty,max=5000"`
}

// ApplyTo merges d into t and re-validates the resulting range.
func (d UpdateTimeOffDTO) ApplyTo(t *TimeOff, today time.Time) error {
	v := validation.NewValidator().Struct(d)
	startRaw, endRaw, kindRaw := t.StartDate.Format(DateLayout), t.EndDate.Format(DateLayout), string(t.RequestType)
	if d.StartDate != nil {
		startRaw = *d.StartDate
	}
	if d.EndDate != nil {
		endRaw = *d.EndDate
	}
	if d.RequestType != nil {
		kindRaw = *d.RequestType
	}
	start, end, kind := parseFields(v, startRaw, endRaw, kindRaw)
	checkRange(v, start, end, today)
	if err := v.Validate(); err != nil {
		return err
	}
	t.StartDate, t.EndDate, t.RequestType = start, end, kind
	if d.Reason != nil {
		t.Reason = *d.Reason
	}
	return nil
}

func parseFields(v *validation.ValidationBuilder, startRaw, endRaw, kindRaw string) (start, end time.Time, kind RequestType) {
	start = parseDate(v, "start_date", startRaw)
	end = parseDate(v, "end_date", endRaw)
	if kindRaw == "" {
		v.AddError("request_type", "This field is required.", internal.ErrCodeValidationFailed)
		return start, end, ""
	}
	kind, err := ParseRequestType(kindRaw)
	if err != nil {
		v.AddError("request_type", fmt.Sprintf("%q is not a valid choice.", kindRaw), internal.ErrCodeValidationFailed)
	}
	return start, end, kind
}

func parseDate(v *validation.ValidationBuilder, field, raw string) time.Time {
	if raw == "" {
		v.AddError(field, "This field is required.", internal.ErrCodeValidationFailed)
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		v.AddError(field, "Date has wrong format. Use YYYY-MM-DD.", internal.ErrCodeInvalidDate)
		return time.Time{}
	}
	return t
}

func checkRange(v *validation.ValidationBuilder, start, end, today time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.AddError("end_date", "End date must be after start date", internal.ErrCodeValidationFailed)
	}
	if start.Before(Date(today)) {
		v.AddError("start_date", "Start date cannot be in the past", internal.ErrCodeValidationFailed)
	}
}

type ReviewDTO struct {
	Status      string `json:"status" validate:"required,oneof=approved rejected"`
	ReviewNotes string `json:"review_notes" validate:"max=5000"`
}

func (d ReviewDTO) Validate() error {
	return validation.Struct(d)
}

type TimeOffResponse struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	UserName      string     `json:"user_name,omitempty"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	RequestType   string     `json:"request_type"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason"`
	DaysRequested int        `json:"days_requested"`
	ReviewedByID  *int64     `json:"reviewed_by_id"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	ReviewNotes   string     `json:"review_notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
