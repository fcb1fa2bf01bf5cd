package timeoff

import (
	"fmt"
	"strings"
	"time"

	timeoffDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeoff"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type RequestType string

const (
	TypeVacation RequestType = "vacation"
	TypeSick     RequestType = "sick"
	TypePersonal RequestType = "personal"
	TypeOther    RequestType = "other"
)

var RequestTypes = []RequestType{TypeVacation, TypeSick, TypePersonal, TypeOther}

func ParseRequestType(s string) (RequestType, error) {
	t := RequestType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RequestTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown request type %q", s)
}

type TimeOff struct {
	ID           int64
	UserID       int64
	StartDate    time.Time
	EndDate      time.Time
	RequestType  RequestType
	Status       Status
	Reason       string
	ReviewedByID *int64
	ReviewedAt   *time.Time
	ReviewNotes  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *TimeOff) IsPending() bool {
	return t.Status == StatusPending
}

// DaysRequested counts both ends of the range.
func (t *TimeOff) DaysRequested() int {
	return DaysBetween(t.StartDate, t.EndDate) + 1
}

// DaysBetween counts calendar days from start to end, ignoring the clock.
func DaysBetween(start, end time.Time) int {
	s := Date(start)
	e := Date(end)
	return int(e.Sub(s).Hours() / 24)
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (t *TimeOff) ToResponse() TimeOffResponse {
	return TimeOffResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		StartDate:     t.StartDate.Format(DateLayout),
		EndDate:       t.EndDate.Format(DateLayout),
		RequestType:   string(t.RequestType),
		Status:        string(t.Status),
		Reason:        t.Reason,
		DaysRequested: t.DaysRequested(),
		ReviewedByID:  t.ReviewedByID,
		ReviewedAt:    t.ReviewedAt,
		ReviewNotes:   t.ReviewNotes,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func ToDataModel(t *TimeOff) *timeoffDatamodel.TimeOff {
	return &timeoffDatamodel.TimeOff{
		ID:           t.ID,
		UserID:       t.UserID,
		StartDate:    t.StartDate,
		EndDate:      t.EndDate,
		RequestType:  string(t.RequestType),
		Status:       string(t.Status),
		Reason:       t.Reason,
		ReviewedByID: t.ReviewedByID,
		ReviewedAt:   t.ReviewedAt,
		ReviewNotes:  t.ReviewNotes,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func FromDataModel(d *timeoffDatamodel.TimeOff) *TimeOff {
	return &TimeOff{
		ID:           d.ID,
		UserID:       d.UserID,
		StartDate:    Date(d.StartDate),
		EndDate:      Date(d.EndDate),
		RequestType:  RequestType(d.RequestType),
		Status:       Status(d.Status),
		Reason:       d.Reason,
		ReviewedByID: d.ReviewedByID,
		ReviewedAt:   d.ReviewedAt,
		ReviewNotes:  d.ReviewNotes,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func FromDetail(d *timeoffDatamodel.TimeOffDetail) (*TimeOff, string) {
	name := strings.TrimSpace(d.UserFirstName + " " + d.UserLastName)
	if name == "" {
		name = d.UserEmail
	}
	return FromDataModel(&d.TimeOff), name
}
