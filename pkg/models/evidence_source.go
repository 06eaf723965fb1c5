package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceType classifies the provenance of an evidence source.
type SourceType string

const (
	SourceOfficialRecord SourceType = "official_record"
	SourceJournalism     SourceType = "investigative_journalism"
	SourceFirstParty     SourceType = "first_party"
	SourceSocialMedia    SourceType = "social_media"
)

// ValidSourceTypes contains all accepted source type values.
var ValidSourceTypes = []SourceType{
	SourceOfficialRecord,
	SourceJournalism,
	SourceFirstParty,
	SourceSocialMedia,
}

// IsValidSourceType checks if the given source type is valid.
func IsValidSourceType(t SourceType) bool {
	for _, v := range ValidSourceTypes {
		if v == t {
			return true
		}
	}
	return false
}

// EvidenceSource links a scoring action to supporting material. At least one
// source per action is recommended, not required.
type EvidenceSource struct {
	ID         uuid.UUID  `json:"id"`
	ActionID   uuid.UUID  `json:"action_id"`
	URL        string     `json:"url"`
	SourceType SourceType `json:"source_type"`
	Confidence int        `json:"confidence_rating"` // 1 (weak) to 5 (authoritative)
	CreatedAt  time.Time  `json:"created_at"`
}
