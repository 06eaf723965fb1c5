package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoreStatus is the human-facing classification derived from the total score.
type ScoreStatus string

const (
	StatusInsufficientData  ScoreStatus = "INSUFFICIENT_DATA"
	StatusPersonOfInterest  ScoreStatus = "PERSON_OF_INTEREST"
	StatusUnderSurveillance ScoreStatus = "UNDER_SURVEILLANCE"
	StatusWhistleblower     ScoreStatus = "WHISTLEBLOWER"
)

// ScoreSnapshot is the current recomputed aggregate for a politician. It is
// always a pure function of the politician's verified actions at computation
// time and is only ever replaced wholesale, never edited.
type ScoreSnapshot struct {
	PoliticianID uuid.UUID `json:"politician_id"`
	TotalScore   int       `json:"total_score"`

	PublicStatementsScore  int `json:"public_statements_score"`
	LegislativeActionScore int `json:"legislative_action_score"`
	PublicEngagementScore  int `json:"public_engagement_score"`
	SocialMediaScore       int `json:"social_media_score"`
	ConsistencyScore       int `json:"consistency_score"`

	// DaysOfSilence is nil when the politician has no verified actions;
	// consumers render it as "N/A", never as zero.
	DaysOfSilence    *int        `json:"days_of_silence"`
	Dormant          bool        `json:"dormant"`
	Status           ScoreStatus `json:"status"`
	LastActivityDate *time.Time  `json:"last_activity_date,omitempty"`
	LastCalculated   time.Time   `json:"last_calculated"`
}

// CategoryScore returns the snapshot's score for the given category.
func (s *ScoreSnapshot) CategoryScore(c Category) int {
	switch c {
	case CategoryPublicStatements:
		return s.PublicStatementsScore
	case CategoryLegislativeAction:
		return s.LegislativeActionScore
	case CategoryPublicEngagement:
		return s.PublicEngagementScore
	case CategorySocialMedia:
		return s.SocialMediaScore
	case CategoryConsistency:
		return s.ConsistencyScore
	}
	return 0
}

// ScoreHistoryEntry is an immutable copy of a snapshot taken at recompute
// time. History rows are append-only and feed trend charts.
type ScoreHistoryEntry struct {
	ID           uuid.UUID `json:"id"`
	PoliticianID uuid.UUID `json:"politician_id"`
	TotalScore   int       `json:"total_score"`

	PublicStatementsScore  int `json:"public_statements_score"`
	LegislativeActionScore int `json:"legislative_action_score"`
	PublicEngagementScore  int `json:"public_engagement_score"`
	SocialMediaScore       int `json:"social_media_score"`
	ConsistencyScore       int `json:"consistency_score"`

	DaysOfSilence *int        `json:"days_of_silence"`
	Status        ScoreStatus `json:"status"`
	RecordedDate  time.Time   `json:"recorded_date"`
}

// ScoreComponent is one category's contribution inside a score breakdown.
type ScoreComponent struct {
	Category Category `json:"category"`
	Score    int      `json:"score"`
	Max      int      `json:"max"`
}

// ScoreStats aggregates snapshot state across the directory.
type ScoreStats struct {
	TotalPoliticians int                 `json:"total_politicians"`
	Scored           int                 `json:"scored"`
	InsufficientData int                 `json:"insufficient_data"`
	AverageScore     float64             `json:"average_score"`
	StatusCounts     map[ScoreStatus]int `json:"status_counts"`
}
