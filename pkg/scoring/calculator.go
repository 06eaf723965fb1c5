// Package scoring turns a politician's verified scoring actions into the
// composite 0-100 score snapshot. Every function here is pure: the snapshot
// is fully determined by the set of verified actions and the supplied clock,
// so recomputing without new evidence always yields the same result.
package scoring

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/civicledger/civicledger-engine/pkg/models"
)

// DormantAfterDays is the silence threshold past which a politician is
// flagged as dormant.
const DormantAfterDays = 30

// Compute derives a full score snapshot from the given actions at time now.
// Actions that are not verified are ignored regardless of how they got here,
// so a caller passing an unfiltered list cannot leak pending or rejected
// evidence into a score.
func Compute(politicianID uuid.UUID, actions []*models.ScoringAction, now time.Time) *models.ScoreSnapshot {
	verified := make([]*models.ScoringAction, 0, len(actions))
	for _, a := range actions {
		if a.Status == models.StatusVerified {
			verified = append(verified, a)
		}
	}

	snapshot := &models.ScoreSnapshot{
		PoliticianID:   politicianID,
		LastCalculated: now,
	}

	if len(verified) == 0 {
		// Unknown is not the same as proven low: no verified evidence at
		// all yields INSUFFICIENT_DATA, not a numeric zero.
		snapshot.Status = models.StatusInsufficientData
		return snapshot
	}

	byCategory := make(map[models.Category]int)
	for _, a := range verified {
		byCategory[a.Category] += a.Points
	}

	snapshot.PublicStatementsScore = CategoryScore(models.CategoryPublicStatements, byCategory[models.CategoryPublicStatements])
	snapshot.LegislativeActionScore = CategoryScore(models.CategoryLegislativeAction, byCategory[models.CategoryLegislativeAction])
	snapshot.PublicEngagementScore = CategoryScore(models.CategoryPublicEngagement, byCategory[models.CategoryPublicEngagement])
	snapshot.SocialMediaScore = CategoryScore(models.CategorySocialMedia, byCategory[models.CategorySocialMedia])

	snapshot.ConsistencyScore = ConsistencyScore(
		snapshot.PublicStatementsScore,
		snapshot.LegislativeActionScore,
		snapshot.PublicEngagementScore,
		snapshot.SocialMediaScore,
	)

	snapshot.TotalScore = snapshot.PublicStatementsScore +
		snapshot.LegislativeActionScore +
		snapshot.PublicEngagementScore +
		snapshot.SocialMediaScore +
		snapshot.ConsistencyScore

	snapshot.Status = StatusFor(snapshot.TotalScore)

	last := lastActionDate(verified)
	snapshot.LastActivityDate = &last
	days := DaysOfSilence(last, now)
	snapshot.DaysOfSilence = &days
	snapshot.Dormant = days >= DormantAfterDays

	return snapshot
}

// CategoryScore is the saturating point sum for one category: raw points
// capped at the category maximum. Additional evidence can only help a
// per-category score, never dilute it.
func CategoryScore(c models.Category, points int) int {
	if points <= 0 {
		return 0
	}
	if max := c.Max(); points > max {
		return max
	}
	return points
}

// ConsistencyScore maps the dispersion of the four evidentiary category
// scores to the 0-10 consistency band. Each score is normalized to a
// percentage of its category maximum; the population standard deviation over
// those four percentages (zeros included) is then folded into
// round(10 - sigma/5), clamped to [0, 10]. Uniformly strong and uniformly
// weak records are both "consistent" - wide swings are penalized regardless
// of direction. Fewer than two categories with data yields 0.
func ConsistencyScore(statements, legislative, engagement, socialMedia int) int {
	scores := []int{statements, legislative, engagement, socialMedia}
	maxes := []int{
		models.CategoryPublicStatements.Max(),
		models.CategoryLegislativeAction.Max(),
		models.CategoryPublicEngagement.Max(),
		models.CategorySocialMedia.Max(),
	}

	withData := 0
	normalized := make([]float64, len(scores))
	for i, s := range scores {
		normalized[i] = float64(s) / float64(maxes[i]) * 100
		if s > 0 {
			withData++
		}
	}
	if withData < 2 {
		return 0
	}

	sigma := populationStdDev(normalized)
	score := int(math.Round(10 - sigma/5))
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// StatusFor maps a total score to its status band. Callers must handle the
// no-evidence case before calling; INSUFFICIENT_DATA overrides the bands.
func StatusFor(total int) models.ScoreStatus {
	switch {
	case total >= 70:
		return models.StatusWhistleblower
	case total >= 40:
		return models.StatusUnderSurveillance
	default:
		return models.StatusPersonOfInterest
	}
}

// DaysOfSilence returns the whole days elapsed between the most recent
// verified action and now, floored at zero.
func DaysOfSilence(lastActivity, now time.Time) int {
	days := int(now.Sub(lastActivity).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func lastActionDate(actions []*models.ScoringAction) time.Time {
	var last time.Time
	for _, a := range actions {
		if a.ActionDate.After(last) {
			last = a.ActionDate
		}
	}
	return last
}

func populationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff / float64(len(values)))
}
