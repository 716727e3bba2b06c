package properties

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores listings. Every read is tenant-scoped and excludes
// soft-deleted rows.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("properties: db required")
	}
	return &Repository{db: db}
}

const propertyColumns = `
	id, agent_id, external_ref, title, description,
	address_line1, address_line2, address_city, address_postcode, address_country,
	type, bedrooms, bathrooms, price_amount, price_currency,
	is_rental, rent_period, available_from,
	status, features, epc_rating,
	views, enquiries, viewings,
	listed_date, created_at, updated_at, deleted_at`

func scanProperty(row pgx.Row) (*Property, error) {
	var p Property
	err := row.Scan(
		&p.ID, &p.AgentID, &p.ExternalRef, &p.Title, &p.Description,
		&p.Address.Line1, &p.Address.Line2, &p.Address.City, &p.Address.Postcode, &p.Address.Country,
		&p.Type, &p.Bedrooms, &p.Bathrooms, &p.Price.Amount, &p.Price.Currency,
		&p.Rental.IsRental, &p.Rental.RentPeriod, &p.Rental.AvailableFrom,
		&p.Status, &p.Features, &p.EPCRating,
		&p.Metrics.Views, &p.Metrics.Enquiries, &p.Metrics.Viewings,
		&p.ListedDate, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("properties: scan failed: %w", err)
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return &p, nil
}

// Create inserts a new listing.
func (r *Repository) Create(ctx context.Context, agentID string, req *CreatePropertyRequest) (*Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Property{
		ID:          uuid.New().String(),
		AgentID:     agentID,
		ExternalRef: req.ExternalRef,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Type:        req.Type,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Price:       Price{Amount: req.PriceAmount, Currency: "GBP"},
		Rental:      Rental{IsRental: req.IsRental, RentPeriod: req.RentPeriod},
		Status:      StatusAvailable,
		Features:    req.Features,
		EPCRating:   req.EPCRating,
		ListedDate:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Address.Country == "" {
		p.Address.Country = "United Kingdom"
	}
	p.Address.Postcode = strings.ToUpper(p.Address.Postcode)
	if p.Features == nil {
		p.Features = []string{}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO properties (id, agent_id, external_ref, title, description,
			address_line1, address_line2, address_city, address_postcode, address_country,
			type, bedrooms, bathrooms, price_amount, price_currency,
			is_rental, rent_period, status, features, epc_rating,
			listed_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$21,$21)`,
		p.ID, p.AgentID, p.ExternalRef, p.Title, p.Description,
		p.Address.Line1, p.Address.Line2, p.Address.City, p.Address.Postcode, p.Address.Country,
		p.Type, p.Bedrooms, p.Bathrooms, p.Price.Amount, p.Price.Currency,
		p.Rental.IsRental, p.Rental.RentPeriod, p.Status, p.Features, p.EPCRating,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("properties: insert failed: %w", err)
	}
	return p, nil
}

// GetForAgent fetches one listing scoped to the tenant.
func (r *Repository) GetForAgent(ctx context.Context, agentID, id string) (*Property, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`, id, agentID)
	return scanProperty(row)
}

// GetAvailableForAgent fetches a listing only while it is still on the market.
// Used by the chatbot surface.
func (r *Repository) GetAvailableForAgent(ctx context.Context, agentID, id string) (*Property, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE id = $1 AND agent_id = $2 AND status = $3 AND deleted_at IS NULL`,
		id, agentID, StatusAvailable)
	return scanProperty(row)
}

// SearchFilter narrows a tenant's listings.
type SearchFilter struct {
	Status   string
	Type     string
	Bedrooms int
	MinPrice int64
	MaxPrice int64
	Location string // matched against city and postcode
	Limit    int
}

// Search returns listings matching the filter, cheapest first.
func (r *Repository) Search(ctx context.Context, agentID string, f SearchFilter) ([]*Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE agent_id = $1 AND deleted_at IS NULL`
	args := []any{agentID}

	add := func(clause string, val any) {
		args = append(args, val)
		query += " AND " + clause + "$" + strconv.Itoa(len(args))
	}

	if f.Status != "" {
		add("status = ", f.Status)
	}
	if f.Type != "" {
		add("type = ", f.Type)
	}
	if f.Bedrooms > 0 {
		add("bedrooms = ", f.Bedrooms)
	}
	if f.MinPrice > 0 {
		add("price_amount >= ", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		add("price_amount <= ", f.MaxPrice)
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		n := strconv.Itoa(len(args))
		query += " AND (address_city ILIKE $" + n + " OR address_postcode ILIKE $" + n + ")"
	}

	query += " ORDER BY price_amount ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("properties: search failed: %w", err)
	}
	defer rows.Close()

	out := []*Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePropertyRequest patches mutable listing fields.
type UpdatePropertyRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	PriceAmount *int64    `json:"price_amount,omitempty"`
	Bedrooms    *int      `json:"bedrooms,omitempty"`
	Bathrooms   *int      `json:"bathrooms,omitempty"`
	Features    *[]string `json:"features,omitempty"`
	EPCRating   *string   `json:"epc_rating,omitempty"`
}

// Update merges the patch onto the stored listing.
func (r *Repository) Update(ctx context.Context, agentID, id string, patch *UpdatePropertyRequest) (*Property, error) {
	p, err := r.GetForAgent(ctx, agentID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		if !validStatuses[*patch.Status] {
			return nil, ErrInvalidType
		}
		p.Status = *patch.Status
	}
	if patch.PriceAmount != nil {
		if *patch.PriceAmount < 0 {
			return nil, ErrInvalidPrice
		}
		p.Price.Amount = *patch.PriceAmount
	}
	if patch.Bedrooms != nil {
		if *patch.Bedrooms < 0 || *patch.Bedrooms > 20 {
			return nil, ErrInvalidBedrooms
		}
		p.Bedrooms = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		p.Bathrooms = *patch.Bathrooms
	}
	if patch.Features != nil {
		p.Features = *patch.Features
	}
	if patch.EPCRating != nil {
		p.EPCRating = *patch.EPCRating
	}

	now := time.Now().UTC()
	p.UpdatedAt = now
	_, err = r.db.Exec(ctx, `
		UPDATE properties SET
			title = $3, description = $4, status = $5, price_amount = $6,
			bedrooms = $7, bathrooms = $8, features = $9, epc_rating = $10, updated_at = $11
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`,
		p.ID, agentID, p.Title, p.Description, p.Status, p.Price.Amount,
		p.Bedrooms, p.Bathrooms, p.Features, p.EPCRating, now,
	)
	if err != nil {
		return nil, fmt.Errorf("properties: update failed: %w", err)
	}
	return p, nil
}

// IncrementMetric bumps one of the engagement counters.
func (r *Repository) IncrementMetric(ctx context.Context, agentID, id, metric string) error {
	var column string
	switch metric {
	case "views":
		column = "views"
	case "enquiries":
		column = "enquiries"
	case "viewings":
		column = "viewings"
	default:
		return fmt.Errorf("properties: unknown metric %q", metric)
	}
	_, err := r.db.Exec(ctx,
		`UPDATE properties SET `+column+` = `+column+` + 1 WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`,
		id, agentID)
	if err != nil {
		return fmt.Errorf("properties: increment %s failed: %w", metric, err)
	}
	return nil
}

// SoftDelete marks the listing deleted.
func (r *Repository) SoftDelete(ctx context.Context, agentID, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE properties SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`, id, agentID)
	if err != nil {
		return fmt.Errorf("properties: soft delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}
	return nil
}
