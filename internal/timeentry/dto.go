package timeentry

import (
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/common/validation"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type ClockInDTO struct {
	ProjectID *int64 `json:"project_id"`
	Notes     string `json:"notes" validate:"max=5000"`
}

func (d ClockInDTO) Validate() error {
	return validation.Struct(d)
}

type ClockOutDTO struct {
	Notes string `json:"notes" validate:"max=5000"`
}

func (d ClockOutDTO) Validate() error {
	return validation.Struct(d)
}

type CreateTimeEntryDTO struct {
	ProjectID *int64     `json:"project_id"`
	ClockIn   time.Time  `json:"clock_in"`
	ClockOut  *time.Time `json:"clock_out"`
	Notes     string     `json:"notes" validate:"max=5000"`
}

func (d CreateTimeEntryDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	v.Field("clock_in", d.ClockIn).Required()
	checkOrder(v, d.ClockIn, d.ClockOut)
	return v.Validate()
}

// UpdateTimeEntryDTO is a partial update; nil fields keep their value.
// ClearProject detaches the entry from its project.
type UpdateTimeEntryDTO struct {
	ProjectID    *int64     `json:"project_id"`
	ClearProject bool       `json:"clear_project"`
	ClockIn      *time.Time `json:"clock_in"`
	ClockOut     *time.Time `json:"clock_out"`
	Notes        *string    `json:"notes" validate:"omitempty,max=5000"`
}

func (d UpdateTimeEntryDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	if d.ClearProject && d.ProjectID != nil {
		v.AddError("clear_project", "Cannot set project_id and clear_project together.", internal.ErrCodeValidationFailed)
	}
	return v.Validate()
}

// ApplyTo merges d into e and re-checks the ordering of the result.
func (d UpdateTimeEntryDTO) ApplyTo(e *TimeEntry) error {
	if d.ProjectID != nil {
		e.ProjectID = d.ProjectID
	}
	if d.ClearProject {
		e.ProjectID = nil
	}
	if d.ClockIn != nil {
		e.ClockIn = d.ClockIn.UTC()
	}
	if d.ClockOut != nil {
		out := d.ClockOut.UTC()
		e.ClockOut = &out
	}
	if d.Notes != nil {
		e.Notes = *d.Notes
	}
	v := validation.NewValidator()
	checkOrder(v, e.ClockIn, e.ClockOut)
	return v.Validate()
}

func checkOrder(v *validation.ValidationBuilder, in time.Time, out *time.Time) {
	if out != nil && !in.IsZero() && out.Before(in) {
		v.AddError("clock_out", "Clock out time must be after clock in time.", internal.ErrCodeValidationFailed)
	}
}

type ListFilter struct {
	Limit  int
	Offset int
}

func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type TimeEntryResponse struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	UserName    string     `json:"user_name"`
	ProjectID   *int64     `json:"project_id"`
	ProjectName *string    `json:"project_name"`
	ClockIn     time.Time  `json:"clock_in"`
	ClockOut    *time.Time `json:"clock_out"`
	Notes       string     `json:"notes"`
	Duration    string     `json:"duration"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ClockOutResponse struct {
	Message   string            `json:"message"`
	TimeEntry TimeEntryResponse `json:"time_entry"`
	Duration  string            `json:"duration"`
}
