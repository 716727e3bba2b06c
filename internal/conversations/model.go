package conversations

import (
	"strings"
	"time"
)

// Channels a conversation can arrive on.
var validChannels = map[string]bool{
	"phone": true, "webchat": true, "whatsapp": true, "messenger": true,
}

// Outcomes the chatbot platform reports.
const (
	OutcomeLeadCaptured        = "lead_captured"
	OutcomeBookingMade         = "booking_made"
	OutcomeInformationProvided = "information_provided"
	OutcomeEscalated           = "escalated"
	OutcomeAbandoned           = "abandoned"
)

var validOutcomes = map[string]bool{
	OutcomeLeadCaptured: true, OutcomeBookingMade: true,
	OutcomeInformationProvided: true, OutcomeEscalated: true,
	OutcomeAbandoned: true,
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of the transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Customer identifies the person on the other end as far as the channel
// allows.
type Customer struct {
	Phone      string `json:"phone,omitempty"`
	Identifier string `json:"identifier,omitempty"`
}

// Escalation records a handoff to a human.
type Escalation struct {
	Escalated bool      `json:"escalated"`
	At        time.Time `json:"at,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// MessageCounts is the per-role transcript breakdown.
type MessageCounts struct {
	Total     int `json:"total"`
	User      int `json:"user"`
	Assistant int `json:"assistant"`
	System    int `json:"system"`
}

// Conversation is one logged chatbot session. Duration and message counts
// are derived from the transcript before persisting, never stored
// independently of it.
type Conversation struct {
	ID              string        `json:"id"`
	AgentID         string        `json:"agent_id"`
	ExternalID      string        `json:"external_id,omitempty"`
	Channel         string        `json:"channel"`
	Customer        Customer      `json:"customer"`
	Messages        []Message     `json:"messages"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	DurationSeconds int           `json:"duration_seconds"`
	Counts          MessageCounts `json:"message_counts"`
	Summary         string        `json:"summary,omitempty"`
	Intent          string        `json:"intent,omitempty"`
	Outcome         string        `json:"outcome,omitempty"`
	LeadID          string        `json:"lead_id,omitempty"`
	BookingID       string        `json:"booking_id,omitempty"`
	Escalation      *Escalation   `json:"escalation,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	DeletedAt       *time.Time    `json:"-"`
}

// Derive recomputes duration and message counts from the transcript.
func (c *Conversation) Derive() {
	counts := MessageCounts{Total: len(c.Messages)}
	for _, m := range c.Messages {
		switch m.Role {
		case RoleUser:
			counts.User++
		case RoleAssistant:
			counts.Assistant++
		case RoleSystem:
			counts.System++
		}
	}
	c.Counts = counts

	if c.EndedAt != nil && !c.StartedAt.IsZero() && c.EndedAt.After(c.StartedAt) {
		c.DurationSeconds = int(c.EndedAt.Sub(c.StartedAt) / time.Second)
	} else {
		c.DurationSeconds = 0
	}
}

// LogConversationRequest is the canonical conversation-log payload.
type LogConversationRequest struct {
	ExternalID     string     `json:"external_id"`
	Channel        string     `json:"channel"`
	CustomerPhone  string     `json:"customer_phone"`
	CustomerID     string     `json:"customer_id"`
	Messages       []Message  `json:"messages"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	Summary        string     `json:"summary"`
	Intent         string     `json:"intent"`
	Outcome        string     `json:"outcome"`
	LeadID         string     `json:"lead_id"`
	BookingID      string     `json:"booking_id"`
	Escalated      bool       `json:"escalated"`
	EscalationNote string     `json:"escalation_note"`
}

// Validate enforces the logging contract: a channel we know, and an
// outcome from the fixed set when one is given.
func (r *LogConversationRequest) Validate() error {
	if strings.TrimSpace(r.Channel) == "" || !validChannels[r.Channel] {
		return ErrInvalidChannel
	}
	if r.Outcome != "" && !validOutcomes[r.Outcome] {
		return ErrInvalidOutcome
	}
	return nil
}
