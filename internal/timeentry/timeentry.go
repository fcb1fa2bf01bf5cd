package timeentry

import (
	"fmt"
	"strings"
	"time"

	timeentryDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeentry"
)

const InProgress = "In progress"

type TimeEntry struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	UserName    string     `json:"user_name"`
	ProjectID   *int64     `json:"project_id"`
	ProjectName *string    `json:"project_name"`
	ClockIn     time.Time  `json:"clock_in"`
	ClockOut    *time.Time `json:"clock_out"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (e *TimeEntry) IsOpen() bool {
	return e.ClockOut == nil
}

// Duration is zero while the entry is open.
func (e *TimeEntry) Duration() time.Duration {
	if e.ClockOut == nil {
		return 0
	}
	return e.ClockOut.Sub(e.ClockIn)
}

func (e *TimeEntry) DurationString() string {
	if e.IsOpen() {
		return InProgress
	}
	return FormatDuration(e.Duration())
}

// AppendClockOutNotes keeps the clock-in notes and adds the clock-out ones below them.
func (e *TimeEntry) AppendClockOutNotes(notes string) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return
	}
	if e.Notes == "" {
		e.Notes = notes
		return
	}
	e.Notes = e.Notes + "\n\nClock out notes: " + notes
}

// FormatDuration renders d as HH:MM:SS. Hours grow past 24 instead of
// rolling over into days.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func (e *TimeEntry) ToResponse() TimeEntryResponse {
	return TimeEntryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		UserName:    e.UserName,
		ProjectID:   e.ProjectID,
		ProjectName: e.ProjectName,
		ClockIn:     e.ClockIn,
		ClockOut:    e.ClockOut,
		Notes:       e.Notes,
		Duration:    e.DurationString(),
		IsActive:    e.IsOpen(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func ToDataModel(e *TimeEntry) *timeentryDatamodel.TimeEntry {
	return &timeentryDatamodel.TimeEntry{
		ID:        e.ID,
		UserID:    e.UserID,
		ProjectID: e.ProjectID,
		ClockIn:   e.ClockIn,
		ClockOut:  e.ClockOut,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func FromDataModel(d *timeentryDatamodel.TimeEntry) *TimeEntry {
	return &TimeEntry{
		ID:        d.ID,
		UserID:    d.UserID,
		ProjectID: d.ProjectID,
		ClockIn:   d.ClockIn,
		ClockOut:  d.ClockOut,
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func FromDetail(d *timeentryDatamodel.TimeEntryDetail) *TimeEntry {
	e := FromDataModel(&d.TimeEntry)
	e.UserName = strings.TrimSpace(d.UserFirstName + " " + d.UserLastName)
	if e.UserName == "" {
		e.UserName = d.UserEmail
	}
	e.ProjectName = d.ProjectName
	return e
}
