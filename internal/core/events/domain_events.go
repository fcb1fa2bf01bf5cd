package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrganizationRegistered = "organization.registered"
	EventTypeInvitationCreated      = "invitation.created"
	EventTypeInvitationAccepted     = "invitation.accepted"
	EventTypeTimeOffReviewed        = "timeoff.reviewed"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type OrganizationRegisteredEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	Slug           string `json:"slug"`
	OwnerID        int64  `json:"owner_id"`
}

func NewOrganizationRegisteredEvent(orgID, slug string, ownerID int64) *OrganizationRegisteredEvent {
	return &OrganizationRegisteredEvent{
		BaseEvent: newBase(EventTypeOrganizationRegistered, map[string]interface{}{
			"organization_id": orgID,
			"slug":            slug,
			"owner_id":        ownerID,
		}),
		OrganizationID: orgID,
		Slug:           slug,
		OwnerID:        ownerID,
	}
}

type InvitationCreatedEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	InviterID      int64  `json:"inviter_id"`
	InviteeID      int64  `json:"invitee_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	EmailSent      bool   `json:"email_sent"`
}

func NewInvitationCreatedEvent(orgID string, inviterID, inviteeID int64, email, role string, emailSent bool) *InvitationCreatedEvent {
	return &InvitationCreatedEvent{
		BaseEvent: newBase(EventTypeInvitationCreated, map[string]interface{}{
			"organization_id": orgID,
			"inviter_id":      inviterID,
			"invitee_id":      inviteeID,
			"role":            role,
			"email_sent":      emailSent,
		}),
		OrganizationID: orgID,
		InviterID:      inviterID,
		InviteeID:      inviteeID,
		Email:          email,
		Role:           role,
		EmailSent:      emailSent,
	}
}

type InvitationAcceptedEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	UserID         int64  `json:"user_id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	OrgName        string `json:"organization_name"`
}

func NewInvitationAcceptedEvent(orgID, orgName string, userID int64, email, firstName string) *InvitationAcceptedEvent {
	return &InvitationAcceptedEvent{
		BaseEvent: newBase(EventTypeInvitationAccepted, map[string]interface{}{
			"organization_id": orgID,
			"user_id":         userID,
		}),
		OrganizationID: orgID,
		UserID:         userID,
		Email:          email,
		FirstName:      firstName,
		OrgName:        orgName,
	}
}

type TimeOffReviewedEvent struct {
	BaseEvent
	TimeOffID  int64  `json:"time_off_id"`
	UserID     int64  `json:"user_id"`
	ReviewerID int64  `json:"reviewer_id"`
	Status     string `json:"status"`
}

func NewTimeOffReviewedEvent(timeOffID, userID, reviewerID int64, status string) *TimeOffReviewedEvent {
	return &TimeOffReviewedEvent{
		BaseEvent: newBase(EventTypeTimeOffReviewed, map[string]interface{}{
			"time_off_id": timeOffID,
			"user_id":     userID,
			"reviewer_id": reviewerID,
			"status":      status,
		}),
		TimeOffID:  timeOffID,
		UserID:     userID,
		ReviewerID: reviewerID,
		Status:     status,
	}
}
