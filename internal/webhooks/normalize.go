// Package webhooks is the surface the conversational-AI platform calls.
// Different chatbot flow versions send the same logical fields under
// snake_case or camelCase names; normalization happens once here, at the
// boundary, producing the canonical request types the domain packages
// accept.
package webhooks

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/royalresponse/platform/internal/bookings"
	"github.com/royalresponse/platform/internal/conversations"
	"github.com/royalresponse/platform/internal/leads"
)

type payload map[string]json.RawMessage

func parsePayload(r io.Reader) (payload, error) {
	var p payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("webhooks: malformed payload: %w", err)
	}
	return p, nil
}

// str returns the first present, non-empty string among the given keys.
func (p payload) str(keys ...string) string {
	for _, k := range keys {
		raw, ok := p[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// num returns the first present numeric value among the given keys. The
// chatbot platform sends numbers both as JSON numbers and as strings.
func (p payload) num(keys ...string) int64 {
	for _, k := range keys {
		raw, ok := p[k]
		if !ok {
			continue
		}
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			var parsed int64
			if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &parsed); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func (p payload) boolean(keys ...string) bool {
	for _, k := range keys {
		raw, ok := p[k]
		if !ok {
			continue
		}
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return b
		}
	}
	return false
}

func (p payload) object(keys ...string) payload {
	for _, k := range keys {
		raw, ok := p[k]
		if !ok {
			continue
		}
		var nested payload
		if err := json.Unmarshal(raw, &nested); err == nil {
			return nested
		}
	}
	return nil
}

func (p payload) strings(keys ...string) []string {
	for _, k := range keys {
		raw, ok := p[k]
		if !ok {
			continue
		}
		var out []string
		if err := json.Unmarshal(raw, &out); err == nil {
			return out
		}
	}
	return nil
}

// splitName breaks a single "name" field into first/last when the payload
// has no separate name parts.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// normalizeLead maps a lead-capture payload to the canonical request.
func normalizeLead(r io.Reader) (*leads.CreateLeadRequest, error) {
	p, err := parsePayload(r)
	if err != nil {
		return nil, err
	}

	first := p.str("first_name", "firstName")
	last := p.str("last_name", "lastName")
	if first == "" {
		first, last = splitName(p.str("name", "customer_name", "customerName"))
	}

	req := &leads.CreateLeadRequest{
		FirstName:        first,
		LastName:         last,
		Email:            p.str("email"),
		Phone:            p.str("phone", "phone_number", "phoneNumber"),
		PreferredContact: p.str("preferred_contact", "preferredContact"),
		Timeline:         p.str("timeline"),
		Channel:          p.str("channel", "source"),
		ConversationID:   p.str("conversation_id", "conversationId"),
		PropertyInterest: leads.PropertyInterest{
			PropertyID: p.str("property_id", "propertyId"),
		},
	}

	if reqs := p.object("requirements"); reqs != nil {
		req.Requirements = leads.Requirements{
			Bedrooms:     int(reqs.num("bedrooms")),
			PropertyType: reqs.str("property_type", "propertyType"),
			Location:     reqs.str("location", "area"),
			MaxBudget:    reqs.num("max_budget", "maxBudget", "budget"),
			MustHaves:    reqs.strings("must_haves", "mustHaves"),
		}
	}
	if fin := p.object("financials"); fin != nil {
		req.Financials = leads.Financials{
			MortgageApproval: fin.str("mortgage_approval", "mortgageApproval"),
			Budget:           fin.num("budget"),
			Deposit:          fin.num("deposit"),
		}
	}
	return req, nil
}

// normalizeBooking maps a booking payload to the canonical request. Date
// and time-of-day arrive as separate fields ("2026-03-14" and "10:00");
// a combined timestamp is also accepted.
func normalizeBooking(r io.Reader) (*bookings.CreateBookingRequest, error) {
	p, err := parsePayload(r)
	if err != nil {
		return nil, err
	}

	name := p.str("customer_name", "customerName", "name")
	req := &bookings.CreateBookingRequest{
		PropertyID:      p.str("property_id", "propertyId"),
		LeadID:          p.str("lead_id", "leadId"),
		Type:            p.str("type", "booking_type", "bookingType"),
		DurationMinutes: int(p.num("duration_minutes", "durationMinutes", "duration")),
		CustomerName:    name,
		CustomerPhone:   p.str("customer_phone", "customerPhone", "phone"),
		CustomerEmail:   p.str("customer_email", "customerEmail", "email"),
		Notes:           p.str("notes"),
	}

	if ts := p.str("scheduled_at", "scheduledAt"); ts != "" {
		at, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("webhooks: bad scheduled_at %q: %w", ts, err)
		}
		req.ScheduledAt = at.UTC()
		return req, nil
	}

	date := p.str("date", "booking_date", "bookingDate")
	clock := p.str("time", "booking_time", "bookingTime")
	if date == "" || clock == "" {
		return nil, errMissingDateTime
	}
	at, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return nil, fmt.Errorf("webhooks: bad date/time %q %q: %w", date, clock, err)
	}
	req.ScheduledAt = at.UTC()
	return req, nil
}

// normalizeDate extracts the date for an availability check.
func normalizeDate(r io.Reader) (time.Time, error) {
	p, err := parsePayload(r)
	if err != nil {
		return time.Time{}, err
	}
	date := p.str("date", "booking_date", "bookingDate")
	if date == "" {
		return time.Time{}, errMissingDateTime
	}
	at, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("webhooks: bad date %q: %w", date, err)
	}
	return at, nil
}

// normalizeConversation maps a conversation-log payload to the canonical
// request.
func normalizeConversation(r io.Reader) (*conversations.LogConversationRequest, error) {
	p, err := parsePayload(r)
	if err != nil {
		return nil, err
	}

	req := &conversations.LogConversationRequest{
		ExternalID:     p.str("conversation_id", "conversationId", "external_id", "externalId"),
		Channel:        p.str("channel"),
		CustomerPhone:  p.str("customer_phone", "customerPhone", "phone"),
		CustomerID:     p.str("customer_id", "customerId"),
		Summary:        p.str("summary"),
		Intent:         p.str("intent"),
		Outcome:        p.str("outcome"),
		LeadID:         p.str("lead_id", "leadId"),
		BookingID:      p.str("booking_id", "bookingId"),
		Escalated:      p.boolean("escalated"),
		EscalationNote: p.str("escalation_note", "escalationNote", "escalation_reason"),
	}

	if raw, ok := p["messages"]; ok {
		if err := json.Unmarshal(raw, &req.Messages); err != nil {
			return nil, fmt.Errorf("webhooks: bad messages: %w", err)
		}
	}
	if ts := p.str("started_at", "startedAt"); ts != "" {
		if at, err := time.Parse(time.RFC3339, ts); err == nil {
			req.StartedAt = at.UTC()
		}
	}
	if ts := p.str("ended_at", "endedAt"); ts != "" {
		if at, err := time.Parse(time.RFC3339, ts); err == nil {
			utc := at.UTC()
			req.EndedAt = &utc
		}
	}
	return req, nil
}

// normalizeSearch maps a property-search payload to the repository filter
// shape.
type searchRequest struct {
	Bedrooms int
	MinPrice int64
	MaxPrice int64
	Location string
	Type     string
}

func normalizeSearch(r io.Reader) (*searchRequest, error) {
	p, err := parsePayload(r)
	if err != nil {
		return nil, err
	}
	return &searchRequest{
		Bedrooms: int(p.num("bedrooms")),
		MinPrice: p.num("min_price", "minPrice"),
		MaxPrice: p.num("max_price", "maxPrice", "budget"),
		Location: p.str("location", "area", "city"),
		Type:     p.str("type", "property_type", "propertyType"),
	}, nil
}
