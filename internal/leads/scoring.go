package leads

// Scoring weights. The base applies to every lead; each signal adds its
// fixed delta and the sum is clamped to 100.
const (
	baseScore          = 30
	emailPoints        = 15
	phonePoints        = 10
	propertyPoints     = 20
	viewingPoints      = 25
	financePoints      = 10
	maxScore           = 100
	highScoreThreshold = 75
	midScoreThreshold  = 50
)

// Timeline urgency tiers, most to least urgent.
const (
	TimelineImmediate  = "immediate"
	TimelineShortTerm  = "short-term"
	TimelineMediumTerm = "medium-term"
	TimelineLongTerm   = "long-term"
	TimelineFlexible   = "flexible"
)

var timelinePoints = map[string]int{
	TimelineImmediate:  10,
	TimelineShortTerm:  7,
	TimelineMediumTerm: 4,
	TimelineLongTerm:   1,
	TimelineFlexible:   0,
}

// Priority tiers derived from score and timeline.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ComputeScore derives the 0-100 quality score for a lead from its current
// fields. Pure and total: no I/O, never fails. Each contributing delta is
// recorded in the factors map for explainability.
func ComputeScore(lead *Lead) (int, map[string]int) {
	score := baseScore
	factors := map[string]int{}

	if lead.Contact.Email != "" {
		score += emailPoints
		factors["hasEmail"] = emailPoints
	}
	if lead.Contact.Phone != "" {
		score += phonePoints
		factors["hasPhone"] = phonePoints
	}
	if lead.PropertyInterest.PropertyID != "" {
		score += propertyPoints
		factors["propertySpecified"] = propertyPoints
	}
	if lead.Status == StatusViewingBooked {
		score += viewingPoints
		factors["viewingBooked"] = viewingPoints
	}
	if lead.Financials.MortgageApproval == MortgageApproved {
		score += financePoints
		factors["financeApproved"] = financePoints
	}
	if pts, ok := timelinePoints[lead.Timeline]; ok && pts > 0 {
		score += pts
		factors["timeline"] = pts
	}

	if score > maxScore {
		score = maxScore
	}
	return score, factors
}

// PriorityFor derives the priority tier from a score and timeline. The
// urgent condition is checked first and short-circuits the rest.
func PriorityFor(score int, timeline string) string {
	switch {
	case timeline == TimelineImmediate && score >= highScoreThreshold:
		return PriorityUrgent
	case score >= highScoreThreshold:
		return PriorityHigh
	case score >= midScoreThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
