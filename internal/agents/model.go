package agents

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Subscription states gate tenant access at the API boundary.
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// Subscription captures the billing state of an agency.
type Subscription struct {
	Tier              string     `json:"tier"`
	Status            string     `json:"status"`
	MonthlyPrice      int64      `json:"monthly_price"`
	ConversationsUsed int        `json:"conversations_used"`
	ConversationLimit int        `json:"conversation_limit"`
	TrialEndsAt       *time.Time `json:"trial_ends_at,omitempty"`
}

// Channels lists the inbound numbers registered for each channel.
type Channels struct {
	Phone    string `json:"phone,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
	SMS      string `json:"sms,omitempty"`
}

// Agent is one estate-agency tenant. Every child entity is scoped to its ID.
type Agent struct {
	ID           string       `json:"id"`
	CompanyName  string       `json:"company_name"`
	Slug         string       `json:"slug"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	APIKey       string       `json:"-"`
	Subscription Subscription `json:"subscription"`
	Channels     Channels     `json:"channels"`
	Status       string       `json:"status"`
	OnboardedAt  *time.Time   `json:"onboarded_at,omitempty"`
	LastActiveAt *time.Time   `json:"last_active_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	DeletedAt    *time.Time   `json:"-"`
}

// CreateAgentRequest is the operator-facing onboarding payload.
type CreateAgentRequest struct {
	CompanyName       string `json:"company_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Tier              string `json:"tier"`
	ConversationLimit int    `json:"conversation_limit"`
	ChannelPhone      string `json:"channel_phone"`
	ChannelWhatsApp   string `json:"channel_whatsapp"`
	ChannelSMS        string `json:"channel_sms"`
}

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Validate checks required onboarding fields.
func (r *CreateAgentRequest) Validate() error {
	if strings.TrimSpace(r.CompanyName) == "" {
		return ErrMissingCompanyName
	}
	if !emailRe.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	return nil
}

// CanAccess reports whether the subscription state admits API traffic.
func (a *Agent) CanAccess() bool {
	return a.Subscription.Status == SubscriptionActive || a.Subscription.Status == SubscriptionTrial
}

// OverQuota reports whether the monthly conversation allowance is spent.
func (a *Agent) OverQuota() bool {
	return a.Subscription.ConversationLimit > 0 &&
		a.Subscription.ConversationsUsed >= a.Subscription.ConversationLimit
}

var slugStrip = regexp.MustCompile(`[^\w\s-]`)
var slugSpaces = regexp.MustCompile(`\s+`)

// Slugify derives a URL-safe identifier from a company name.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return s
}

// NewAPIKey mints an opaque tenant credential. It is shown once at creation
// and never re-displayed.
func NewAPIKey() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("agents: crypto/rand unavailable: " + err.Error())
	}
	return "rr_" + hex.EncodeToString(buf)
}
