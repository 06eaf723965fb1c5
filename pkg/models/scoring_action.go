package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the moderation state of a scoring action.
// Actions start pending and move exactly once to verified or rejected.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s VerificationStatus) IsTerminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// IsValid reports whether s is a known verification status.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// ActionType classifies the kind of evidentiary event.
type ActionType string

const (
	ActionStatement   ActionType = "statement"
	ActionVote        ActionType = "vote"
	ActionSponsorship ActionType = "sponsorship"
	ActionSocialPost  ActionType = "social_post"
	ActionPublicEvent ActionType = "public_event"
	ActionInterview   ActionType = "interview"
	ActionOther       ActionType = "other"
)

// ValidActionTypes contains all accepted action type values.
var ValidActionTypes = []ActionType{
	ActionStatement,
	ActionVote,
	ActionSponsorship,
	ActionSocialPost,
	ActionPublicEvent,
	ActionInterview,
	ActionOther,
}

// IsValidActionType checks if the given action type is valid.
func IsValidActionType(t ActionType) bool {
	for _, v := range ValidActionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ScoringAction is a single dated, verifiable unit of evidence about a
// politician's behavior. Once verified its points and category are frozen;
// corrections require a new action so the audit trail stays intact.
type ScoringAction struct {
	ID              uuid.UUID          `json:"id"`
	PoliticianID    uuid.UUID          `json:"politician_id"`
	Category        Category           `json:"category"`
	ActionType      ActionType         `json:"action_type"`
	ActionDate      time.Time          `json:"action_date"`
	Description     string             `json:"description"`
	SourceURL       string             `json:"source_url,omitempty"`
	Points          int                `json:"points"`
	Status          VerificationStatus `json:"verification_status"`
	SubmittedBy     uuid.UUID          `json:"submitted_by"`
	VerifiedBy      *uuid.UUID         `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time         `json:"verified_at,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ActionFilter narrows action list queries. Zero values mean no filter.
type ActionFilter struct {
	Category Category
	Status   VerificationStatus
	Limit    int
	Offset   int
}
