package leads

import (
	"strings"
	"time"
)

// Lead statuses.
const (
	StatusNew           = "new"
	StatusContacted     = "contacted"
	StatusQualified     = "qualified"
	StatusViewingBooked = "viewing-booked"
	StatusConverted     = "converted"
	StatusLost          = "lost"
)

var validStatuses = map[string]bool{
	StatusNew: true, StatusContacted: true, StatusQualified: true,
	StatusViewingBooked: true, StatusConverted: true, StatusLost: true,
}

// Mortgage approval states.
const (
	MortgageNone       = "none"
	MortgageInProgress = "in-progress"
	MortgageApproved   = "approved"
)

// Capture channels.
var validChannels = map[string]bool{
	"phone": true, "webchat": true, "whatsapp": true, "messenger": true, "manual": true,
}

// Contact is the lead's contact block. Phone is mandatory.
type Contact struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone"`
	PreferredContact string `json:"preferred_contact"`
}

// FullName joins the name parts.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// PropertyInterest snapshots the listing a lead asked about.
type PropertyInterest struct {
	PropertyID      string `json:"property_id,omitempty"`
	PropertyRef     string `json:"property_ref,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
	PropertyPrice   int64  `json:"property_price,omitempty"`
}

// Requirements captures what the lead is searching for.
type Requirements struct {
	Bedrooms     int      `json:"bedrooms,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	Location     string   `json:"location,omitempty"`
	MaxBudget    int64    `json:"max_budget,omitempty"`
	MustHaves    []string `json:"must_haves,omitempty"`
}

// Financials captures buying readiness.
type Financials struct {
	MortgageApproval string `json:"mortgage_approval,omitempty"`
	Budget           int64  `json:"budget,omitempty"`
	Deposit          int64  `json:"deposit,omitempty"`
}

// ScoreInfo is the derived quality estimate and its breakdown.
type ScoreInfo struct {
	Value          int            `json:"value"`
	Factors        map[string]int `json:"factors"`
	LastCalculated time.Time      `json:"last_calculated"`
}

// Source records the capture channel.
type Source struct {
	Channel  string `json:"channel"`
	Referrer string `json:"referrer,omitempty"`
}

// ConversationRef links the lead to the chatbot session that captured it.
type ConversationRef struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Summary        string `json:"summary,omitempty"`
}

// Note is one append-only timestamped annotation.
type Note struct {
	Text    string    `json:"text"`
	AddedAt time.Time `json:"added_at"`
}

// Lead is a prospective customer captured through some channel. Score and
// priority are derived from the other fields and never set directly.
type Lead struct {
	ID               string           `json:"id"`
	AgentID          string           `json:"agent_id"`
	Contact          Contact          `json:"contact"`
	PropertyInterest PropertyInterest `json:"property_interest"`
	Requirements     Requirements     `json:"requirements"`
	Timeline         string           `json:"timeline,omitempty"`
	Financials       Financials       `json:"financials"`
	Score            ScoreInfo        `json:"score"`
	Source           Source           `json:"source"`
	Conversation     ConversationRef  `json:"conversation"`
	Status           string           `json:"status"`
	Priority         string           `json:"priority"`
	Notes            []Note           `json:"notes"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        *time.Time       `json:"-"`
}

// Rescore recomputes score and priority in place. Called whenever a
// scoring-relevant field changes, never on unrelated saves.
func (l *Lead) Rescore(now time.Time) {
	value, factors := ComputeScore(l)
	l.Score = ScoreInfo{Value: value, Factors: factors, LastCalculated: now}
	l.Priority = PriorityFor(value, l.Timeline)
}

// CreateLeadRequest is the canonical lead-capture payload.
type CreateLeadRequest struct {
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	PreferredContact string           `json:"preferred_contact"`
	PropertyInterest PropertyInterest `json:"property_interest"`
	Requirements     Requirements     `json:"requirements"`
	Timeline         string           `json:"timeline"`
	Financials       Financials       `json:"financials"`
	Channel          string           `json:"channel"`
	Referrer         string           `json:"referrer"`
	ConversationID   string           `json:"conversation_id"`
}

// Validate enforces the minimum capture contract: first name and phone.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return ErrMissingFirstName
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	if r.Channel != "" && !validChannels[r.Channel] {
		return ErrInvalidChannel
	}
	return nil
}

// UpdateLeadRequest patches mutable lead fields. Nil means untouched.
type UpdateLeadRequest struct {
	FirstName        *string           `json:"first_name,omitempty"`
	LastName         *string           `json:"last_name,omitempty"`
	Email            *string           `json:"email,omitempty"`
	Phone            *string           `json:"phone,omitempty"`
	PreferredContact *string           `json:"preferred_contact,omitempty"`
	PropertyInterest *PropertyInterest `json:"property_interest,omitempty"`
	Requirements     *Requirements     `json:"requirements,omitempty"`
	Timeline         *string           `json:"timeline,omitempty"`
	Financials       *Financials       `json:"financials,omitempty"`
	Status           *string           `json:"status,omitempty"`
}

// TouchesScoring reports whether the patch changes any scoring-relevant
// field: contact, property interest, financials, timeline, or status.
func (r *UpdateLeadRequest) TouchesScoring() bool {
	return r.FirstName != nil || r.LastName != nil || r.Email != nil || r.Phone != nil ||
		r.PropertyInterest != nil || r.Financials != nil || r.Timeline != nil || r.Status != nil
}

// StatusCount is one row of the stats projection.
type StatusCount struct {
	Status   string  `json:"status"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

// Stats is the dashboard reporting projection.
type Stats struct {
	Total    int           `json:"total"`
	ByStatus []StatusCount `json:"by_status"`
}
