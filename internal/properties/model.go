package properties

import (
	"strconv"
	"strings"
	"time"
)

const (
	StatusAvailable  = "available"
	StatusUnderOffer = "under-offer"
	StatusSold       = "sold"
	StatusLet        = "let"
	StatusWithdrawn  = "withdrawn"
)

var validTypes = map[string]bool{
	"house": true, "flat": true, "bungalow": true,
	"maisonette": true, "land": true, "commercial": true,
}

var validStatuses = map[string]bool{
	StatusAvailable: true, StatusUnderOffer: true, StatusSold: true,
	StatusLet: true, StatusWithdrawn: true,
}

// Address is a UK-style postal address.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Summary renders the short form used in denormalized snapshots.
func (a Address) Summary() string {
	return a.Line1 + ", " + a.City
}

// Full renders the complete single-line address.
func (a Address) Full() string {
	return a.Line1 + ", " + a.City + ", " + a.Postcode
}

// Price is a listing price in whole pounds.
type Price struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Display formats the amount with thousands separators for chatbot replies.
func (p Price) Display() string {
	s := strconv.FormatInt(p.Amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "£" + b.String()
	if neg {
		out = "-" + out
	}
	return out
}

// Rental marks a listing as to-let rather than for-sale.
type Rental struct {
	IsRental      bool       `json:"is_rental"`
	RentPeriod    string     `json:"rent_period,omitempty"`
	AvailableFrom *time.Time `json:"available_from,omitempty"`
}

// Metrics tracks listing engagement counters.
type Metrics struct {
	Views     int `json:"views"`
	Enquiries int `json:"enquiries"`
	Viewings  int `json:"viewings"`
}

// Property is a listing owned by one agency.
type Property struct {
	ID          string     `json:"id"`
	AgentID     string     `json:"agent_id"`
	ExternalRef string     `json:"external_ref"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Address     Address    `json:"address"`
	Type        string     `json:"type"`
	Bedrooms    int        `json:"bedrooms"`
	Bathrooms   int        `json:"bathrooms"`
	Price       Price      `json:"price"`
	Rental      Rental     `json:"rental"`
	Status      string     `json:"status"`
	Features    []string   `json:"features"`
	EPCRating   string     `json:"epc_rating,omitempty"`
	Metrics     Metrics    `json:"metrics"`
	ListedDate  time.Time  `json:"listed_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// CreatePropertyRequest is the dashboard listing payload.
type CreatePropertyRequest struct {
	ExternalRef string   `json:"external_ref"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     Address  `json:"address"`
	Type        string   `json:"type"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	PriceAmount int64    `json:"price_amount"`
	IsRental    bool     `json:"is_rental"`
	RentPeriod  string   `json:"rent_period"`
	Features    []string `json:"features"`
	EPCRating   string   `json:"epc_rating"`
}

// Validate checks required listing fields.
func (r *CreatePropertyRequest) Validate() error {
	if strings.TrimSpace(r.ExternalRef) == "" {
		return ErrMissingExternalRef
	}
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Description) == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(r.Address.Line1) == "" || strings.TrimSpace(r.Address.City) == "" ||
		strings.TrimSpace(r.Address.Postcode) == "" {
		return ErrMissingAddress
	}
	if !validTypes[r.Type] {
		return ErrInvalidType
	}
	if r.Bedrooms < 0 || r.Bedrooms > 20 {
		return ErrInvalidBedrooms
	}
	if r.PriceAmount < 0 {
		return ErrInvalidPrice
	}
	return nil
}
