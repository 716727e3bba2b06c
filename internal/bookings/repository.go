package bookings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores bookings. Every read is tenant-scoped and excludes
// soft-deleted rows.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("bookings: db required")
	}
	return &Repository{db: db}
}

const bookingColumns = `
	id, agent_id, lead_id, property_id, type,
	scheduled_at, duration_minutes, end_at,
	customer_name, customer_phone, customer_email,
	property_reference, property_address,
	status, cancelled_at, cancelled_by, cancel_reason, notes,
	created_at, updated_at, deleted_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b           Booking
		cancelledAt *time.Time
		cancelledBy *string
		reason      *string
	)
	err := row.Scan(
		&b.ID, &b.AgentID, &b.LeadID, &b.PropertyID, &b.Type,
		&b.ScheduledAt, &b.DurationMinutes, &b.EndAt,
		&b.Customer.Name, &b.Customer.Phone, &b.Customer.Email,
		&b.Property.Reference, &b.Property.Address,
		&b.Status, &cancelledAt, &cancelledBy, &reason, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: scan failed: %w", err)
	}
	if cancelledAt != nil {
		b.Cancellation = &Cancellation{At: *cancelledAt}
		if cancelledBy != nil {
			b.Cancellation.By = *cancelledBy
		}
		if reason != nil {
			b.Cancellation.Reason = *reason
		}
	}
	return &b, nil
}

// Insert persists a new booking.
func (r *Repository) Insert(ctx context.Context, b *Booking) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (id, agent_id, lead_id, property_id, type,
			scheduled_at, duration_minutes, end_at,
			customer_name, customer_phone, customer_email,
			property_reference, property_address,
			status, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)`,
		b.ID, b.AgentID, b.LeadID, b.PropertyID, b.Type,
		b.ScheduledAt, b.DurationMinutes, b.EndAt,
		b.Customer.Name, b.Customer.Phone, b.Customer.Email,
		b.Property.Reference, b.Property.Address,
		b.Status, b.Notes, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("bookings: insert failed: %w", err)
	}
	return nil
}

// GetForAgent fetches one booking scoped to the tenant.
func (r *Repository) GetForAgent(ctx context.Context, agentID, id string) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`, id, agentID)
	return scanBooking(row)
}

// Save writes the mutable state of an already-loaded booking back.
func (r *Repository) Save(ctx context.Context, b *Booking) error {
	var (
		cancelledAt *time.Time
		cancelledBy *string
		reason      *string
	)
	if b.Cancellation != nil {
		cancelledAt = &b.Cancellation.At
		cancelledBy = &b.Cancellation.By
		reason = &b.Cancellation.Reason
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE bookings SET
			type = $3, scheduled_at = $4, duration_minutes = $5, end_at = $6,
			customer_name = $7, customer_phone = $8, customer_email = $9,
			status = $10, cancelled_at = $11, cancelled_by = $12, cancel_reason = $13,
			notes = $14, updated_at = $15
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`,
		b.ID, b.AgentID,
		b.Type, b.ScheduledAt, b.DurationMinutes, b.EndAt,
		b.Customer.Name, b.Customer.Phone, b.Customer.Email,
		b.Status, cancelledAt, cancelledBy, reason,
		b.Notes, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("bookings: save failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func collectBookings(rows pgx.Rows) ([]*Booking, error) {
	defer rows.Close()
	out := []*Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindOverlapping returns the tenant's active bookings whose [start, end)
// interval overlaps the candidate's, excluding the candidate itself on
// update. When propertyID is non-empty the check is scoped to that listing
// only, so different properties can be shown simultaneously.
func (r *Repository) FindOverlapping(ctx context.Context, agentID, propertyID string, start, end time.Time, excludeID string) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE agent_id = $1 AND deleted_at IS NULL
		  AND status IN ('pending', 'confirmed')
		  AND scheduled_at < $2 AND end_at > $3`
	args := []any{agentID, end, start}

	if propertyID != "" {
		args = append(args, propertyID)
		query += " AND property_id = $" + strconv.Itoa(len(args))
	}
	if excludeID != "" {
		args = append(args, excludeID)
		query += " AND id <> $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: overlap query failed: %w", err)
	}
	return collectBookings(rows)
}

// ListActiveBetween returns the tenant's pending and confirmed bookings
// overlapping [from, to), for availability computation.
func (r *Repository) ListActiveBetween(ctx context.Context, agentID string, from, to time.Time) ([]*Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE agent_id = $1 AND deleted_at IS NULL
		  AND status IN ('pending', 'confirmed')
		  AND scheduled_at < $2 AND end_at > $3
		ORDER BY scheduled_at ASC`, agentID, to, from)
	if err != nil {
		return nil, fmt.Errorf("bookings: active range query failed: %w", err)
	}
	return collectBookings(rows)
}

// ListFilter narrows a tenant's bookings.
type ListFilter struct {
	Status string
	Type   string
	From   time.Time
	To     time.Time
}

// List returns the tenant's bookings in chronological order.
func (r *Repository) List(ctx context.Context, agentID string, f ListFilter) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE agent_id = $1 AND deleted_at IS NULL`
	args := []any{agentID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += " AND type = $" + strconv.Itoa(len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += " AND scheduled_at >= $" + strconv.Itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += " AND scheduled_at < $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY scheduled_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	return collectBookings(rows)
}

// SoftDelete marks a booking deleted without removing the row.
func (r *Repository) SoftDelete(ctx context.Context, agentID, id string, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`, id, agentID, now)
	if err != nil {
		return fmt.Errorf("bookings: soft delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}
