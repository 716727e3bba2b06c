package bookings

import (
	"strings"
	"time"
)

// Appointment types.
const (
	TypeViewing   = "viewing"
	TypeValuation = "valuation"
	TypeCallback  = "callback"
)

var validTypes = map[string]bool{
	TypeViewing: true, TypeValuation: true, TypeCallback: true,
}

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// transitions is the allowed status state machine. Completed, cancelled,
// and no-show are terminal.
var transitions = map[string]map[string]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Cancellation actors.
const (
	CancelledByCustomer = "customer"
	CancelledByAgent    = "agent"
	CancelledBySystem   = "system"
)

// Customer is the contact snapshot captured at booking time. It is not
// re-synced if the linked lead changes later.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// PropertySnapshot denormalizes the listing the appointment is about.
type PropertySnapshot struct {
	Reference string `json:"reference,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Cancellation records who cancelled, when, and why.
type Cancellation struct {
	At     time.Time `json:"at"`
	By     string    `json:"by"`
	Reason string    `json:"reason,omitempty"`
}

// Booking is a scheduled appointment between a tenant and a customer. EndAt
// is derived from ScheduledAt plus duration and must be recomputed whenever
// either changes.
type Booking struct {
	ID              string           `json:"id"`
	AgentID         string           `json:"agent_id"`
	LeadID          string           `json:"lead_id,omitempty"`
	PropertyID      string           `json:"property_id"`
	Type            string           `json:"type"`
	ScheduledAt     time.Time        `json:"scheduled_at"`
	DurationMinutes int              `json:"duration_minutes"`
	EndAt           time.Time        `json:"end_at"`
	Customer        Customer         `json:"customer"`
	Property        PropertySnapshot `json:"property"`
	Status          string           `json:"status"`
	Cancellation    *Cancellation    `json:"cancellation,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       *time.Time       `json:"-"`
}

// DeriveEnd recomputes the end timestamp from start and duration.
func (b *Booking) DeriveEnd() {
	b.EndAt = b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// Active reports whether the booking blocks its time interval.
func (b *Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Overlaps applies the half-open interval test [s1,e1) vs [s2,e2).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.ScheduledAt.Before(end) && start.Before(b.EndAt)
}

// CreateBookingRequest is the canonical booking payload from either surface.
type CreateBookingRequest struct {
	PropertyID      string    `json:"property_id"`
	LeadID          string    `json:"lead_id"`
	Type            string    `json:"type"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerEmail   string    `json:"customer_email"`
	Notes           string    `json:"notes"`
}

// Validate enforces the booking capture contract.
func (r *CreateBookingRequest) Validate() error {
	if strings.TrimSpace(r.PropertyID) == "" {
		return ErrMissingProperty
	}
	if r.Type != "" && !validTypes[r.Type] {
		return ErrInvalidType
	}
	if r.ScheduledAt.IsZero() {
		return ErrMissingStart
	}
	if r.DurationMinutes < 0 {
		return ErrInvalidDuration
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return ErrMissingCustomerName
	}
	if strings.TrimSpace(r.CustomerPhone) == "" {
		return ErrMissingCustomerPhone
	}
	return nil
}

// UpdateBookingRequest patches mutable booking fields. Nil means untouched.
type UpdateBookingRequest struct {
	Type            *string    `json:"type,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	CustomerName    *string    `json:"customer_name,omitempty"`
	CustomerPhone   *string    `json:"customer_phone,omitempty"`
	CustomerEmail   *string    `json:"customer_email,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

// MovesTime reports whether the patch changes the booking's interval.
func (r *UpdateBookingRequest) MovesTime() bool {
	return r.ScheduledAt != nil || r.DurationMinutes != nil
}

// CancelRequest carries the cancellation metadata.
type CancelRequest struct {
	By     string `json:"by"`
	Reason string `json:"reason"`
}
