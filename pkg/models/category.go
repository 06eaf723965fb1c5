package models

// Category is one of the fixed evidence buckets a scoring action falls into.
// The set is closed: category maxima double as composite weights and must
// always sum to 100.
type Category string

const (
	CategoryPublicStatements  Category = "public_statements"
	CategoryLegislativeAction Category = "legislative_action"
	CategoryPublicEngagement  Category = "public_engagement"
	CategorySocialMedia       Category = "social_media"
	CategoryConsistency       Category = "consistency"
)

// categoryMax maps each category to its point cap. The caps encode the
// composite weighting directly: 30+25+20+15+10 = 100.
var categoryMax = map[Category]int{
	CategoryPublicStatements:  30,
	CategoryLegislativeAction: 25,
	CategoryPublicEngagement:  20,
	CategorySocialMedia:       15,
	CategoryConsistency:       10,
}

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryPublicStatements,
	CategoryLegislativeAction,
	CategoryPublicEngagement,
	CategorySocialMedia,
	CategoryConsistency,
}

// EvidentiaryCategories lists the categories that accept submitted evidence.
// Consistency is derived from the dispersion of the other four and cannot be
// scored directly.
var EvidentiaryCategories = []Category{
	CategoryPublicStatements,
	CategoryLegislativeAction,
	CategoryPublicEngagement,
	CategorySocialMedia,
}

// Max returns the point cap for the category, or 0 for an unknown category.
func (c Category) Max() int {
	return categoryMax[c]
}

// IsValid reports whether c is a member of the closed category set.
func (c Category) IsValid() bool {
	_, ok := categoryMax[c]
	return ok
}

// IsEvidentiary reports whether evidence may be submitted under c.
func (c Category) IsEvidentiary() bool {
	return c.IsValid() && c != CategoryConsistency
}
