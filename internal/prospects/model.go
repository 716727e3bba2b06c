package prospects

import "time"

// Pipeline statuses, in rough funnel order.
const (
	StatusNew           = "new"
	StatusContacted     = "contacted"
	StatusDemoScheduled = "demo_scheduled"
	StatusDemoCompleted = "demo_completed"
	StatusProposalSent  = "proposal_sent"
	StatusNegotiation   = "negotiation"
	StatusWon           = "won"
	StatusLost          = "lost"
	StatusNurture       = "nurture"
)

var validStatuses = map[string]bool{
	StatusNew: true, StatusContacted: true, StatusDemoScheduled: true,
	StatusDemoCompleted: true, StatusProposalSent: true, StatusNegotiation: true,
	StatusWon: true, StatusLost: true, StatusNurture: true,
}

// Prospect is an estate agency in the sales pipeline for the platform
// itself, as opposed to a Lead, which belongs to a signed-up agency.
type Prospect struct {
	ID                 string     `json:"id"`
	AgencyName         string     `json:"agency"`
	ContactName        string     `json:"contact"`
	ContactTitle       string     `json:"title"`
	Location           string     `json:"location"`
	Phone              string     `json:"phone"`
	Email              string     `json:"email"`
	Website            string     `json:"website"`
	CurrentCRM         string     `json:"currentCrm"`
	Branches           int        `json:"branches"`
	TeamSize           int        `json:"teamSize"`
	MonthlyEnquiries   int        `json:"monthlyEnquiries"`
	PainPoints         []string   `json:"painPoints"`
	ChannelsInterested []string   `json:"channelsInterested"`
	Status             string     `json:"status"`
	LostReason         string     `json:"lostReason,omitempty"`
	DemoDate           *time.Time `json:"demoDate,omitempty"`
	FitScore           int        `json:"fitScore"`
	NextAction         string     `json:"nextAction"`
	Notes              string     `json:"notes"`
	Timeline           []Event    `json:"timeline"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Event is one timestamped touchpoint with a prospect.
type Event struct {
	ID         int       `json:"id"`
	ProspectID string    `json:"prospectId"`
	Type       string    `json:"type"`
	Date       time.Time `json:"date"`
	Note       string    `json:"note"`
}

// Fit score weights. High enquiry volume and multiple branches are the
// strongest buy signals; an incumbent CRM means an integration path
// exists rather than a manual process to displace.
const (
	fitBase        = 20
	fitMaxScore    = 100
	fitMultiBranch = 15
	fitHasCRM      = 10
	fitBigTeam     = 10
	fitPerChannel  = 5
	fitChannelCap  = 15
)

// ComputeFitScore derives the 0-100 sales-fit score from a prospect's
// firmographics. Pure; recomputed on every upsert.
func ComputeFitScore(p *Prospect) int {
	score := fitBase

	switch {
	case p.MonthlyEnquiries >= 200:
		score += 25
	case p.MonthlyEnquiries >= 100:
		score += 18
	case p.MonthlyEnquiries >= 50:
		score += 10
	case p.MonthlyEnquiries >= 20:
		score += 5
	}

	if p.Branches > 1 {
		score += fitMultiBranch
	}
	if p.CurrentCRM != "" {
		score += fitHasCRM
	}
	if p.TeamSize >= 10 {
		score += fitBigTeam
	}

	channels := len(p.ChannelsInterested) * fitPerChannel
	if channels > fitChannelCap {
		channels = fitChannelCap
	}
	score += channels

	if score > fitMaxScore {
		score = fitMaxScore
	}
	return score
}
