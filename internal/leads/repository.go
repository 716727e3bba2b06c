package leads

import (
	"context"
	"encoding/json"
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

// Repository stores leads. Every read is tenant-scoped and excludes
// soft-deleted rows.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("leads: db required")
	}
	return &Repository{db: db}
}

const leadColumns = `
	id, agent_id,
	first_name, last_name, email, phone, preferred_contact,
	property_id, property_ref, property_address, property_price,
	requirements, timeline, mortgage_approval, budget, deposit,
	score_value, score_factors, score_calculated_at,
	source_channel, source_referrer, conversation_id, conversation_summary,
	status, priority, notes,
	created_at, updated_at, deleted_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		l            Lead
		requirements []byte
		factors      []byte
		notes        []byte
	)
	err := row.Scan(
		&l.ID, &l.AgentID,
		&l.Contact.FirstName, &l.Contact.LastName, &l.Contact.Email, &l.Contact.Phone, &l.Contact.PreferredContact,
		&l.PropertyInterest.PropertyID, &l.PropertyInterest.PropertyRef,
		&l.PropertyInterest.PropertyAddress, &l.PropertyInterest.PropertyPrice,
		&requirements, &l.Timeline, &l.Financials.MortgageApproval, &l.Financials.Budget, &l.Financials.Deposit,
		&l.Score.Value, &factors, &l.Score.LastCalculated,
		&l.Source.Channel, &l.Source.Referrer, &l.Conversation.ConversationID, &l.Conversation.Summary,
		&l.Status, &l.Priority, &notes,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: scan failed: %w", err)
	}

	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &l.Requirements); err != nil {
			return nil, fmt.Errorf("leads: decode requirements: %w", err)
		}
	}
	l.Score.Factors = map[string]int{}
	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &l.Score.Factors); err != nil {
			return nil, fmt.Errorf("leads: decode score factors: %w", err)
		}
	}
	l.Notes = []Note{}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &l.Notes); err != nil {
			return nil, fmt.Errorf("leads: decode notes: %w", err)
		}
	}
	return &l, nil
}

func marshalBlobs(l *Lead) (requirements, factors, notes []byte, err error) {
	if requirements, err = json.Marshal(l.Requirements); err != nil {
		return nil, nil, nil, fmt.Errorf("leads: encode requirements: %w", err)
	}
	if factors, err = json.Marshal(l.Score.Factors); err != nil {
		return nil, nil, nil, fmt.Errorf("leads: encode score factors: %w", err)
	}
	if l.Notes == nil {
		l.Notes = []Note{}
	}
	if notes, err = json.Marshal(l.Notes); err != nil {
		return nil, nil, nil, fmt.Errorf("leads: encode notes: %w", err)
	}
	return requirements, factors, notes, nil
}

// Insert persists a freshly built lead.
func (r *Repository) Insert(ctx context.Context, l *Lead) error {
	requirements, factors, notes, err := marshalBlobs(l)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO leads (id, agent_id,
			first_name, last_name, email, phone, preferred_contact,
			property_id, property_ref, property_address, property_price,
			requirements, timeline, mortgage_approval, budget, deposit,
			score_value, score_factors, score_calculated_at,
			source_channel, source_referrer, conversation_id, conversation_summary,
			status, priority, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$27)`,
		l.ID, l.AgentID,
		l.Contact.FirstName, l.Contact.LastName, l.Contact.Email, l.Contact.Phone, l.Contact.PreferredContact,
		l.PropertyInterest.PropertyID, l.PropertyInterest.PropertyRef,
		l.PropertyInterest.PropertyAddress, l.PropertyInterest.PropertyPrice,
		requirements, l.Timeline, l.Financials.MortgageApproval, l.Financials.Budget, l.Financials.Deposit,
		l.Score.Value, factors, l.Score.LastCalculated,
		l.Source.Channel, l.Source.Referrer, l.Conversation.ConversationID, l.Conversation.Summary,
		l.Status, l.Priority, notes, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// GetForAgent fetches one lead scoped to the tenant.
func (r *Repository) GetForAgent(ctx context.Context, agentID, id string) (*Lead, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`, id, agentID)
	return scanLead(row)
}

// Save writes the full mutable state of an already-loaded lead back.
func (r *Repository) Save(ctx context.Context, l *Lead) error {
	requirements, factors, notes, err := marshalBlobs(l)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET
			first_name = $3, last_name = $4, email = $5, phone = $6, preferred_contact = $7,
			property_id = $8, property_ref = $9, property_address = $10, property_price = $11,
			requirements = $12, timeline = $13, mortgage_approval = $14, budget = $15, deposit = $16,
			score_value = $17, score_factors = $18, score_calculated_at = $19,
			status = $20, priority = $21, notes = $22, updated_at = $23
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`,
		l.ID, l.AgentID,
		l.Contact.FirstName, l.Contact.LastName, l.Contact.Email, l.Contact.Phone, l.Contact.PreferredContact,
		l.PropertyInterest.PropertyID, l.PropertyInterest.PropertyRef,
		l.PropertyInterest.PropertyAddress, l.PropertyInterest.PropertyPrice,
		requirements, l.Timeline, l.Financials.MortgageApproval, l.Financials.Budget, l.Financials.Deposit,
		l.Score.Value, factors, l.Score.LastCalculated,
		l.Status, l.Priority, notes, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: save failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// ListFilter narrows a tenant's leads.
type ListFilter struct {
	Status   string
	Priority string
	MinScore int
}

// List returns the tenant's leads, best-scored and newest first.
func (r *Repository) List(ctx context.Context, agentID string, f ListFilter) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE agent_id = $1 AND deleted_at IS NULL`
	args := []any{agentID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		query += " AND priority = $" + strconv.Itoa(len(args))
	}
	if f.MinScore > 0 {
		args = append(args, f.MinScore)
		query += " AND score_value >= $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY score_value DESC, created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SoftDelete marks the lead deleted without losing its history.
func (r *Repository) SoftDelete(ctx context.Context, agentID, id string, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`, id, agentID, now)
	if err != nil {
		return fmt.Errorf("leads: soft delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// Stats aggregates count and average score by status for the dashboard.
func (r *Repository) Stats(ctx context.Context, agentID string) (*Stats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(AVG(score_value), 0)
		FROM leads
		WHERE agent_id = $1 AND deleted_at IS NULL
		GROUP BY status
		ORDER BY status`, agentID)
	if err != nil {
		return nil, fmt.Errorf("leads: stats failed: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByStatus: []StatusCount{}}
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count, &sc.AvgScore); err != nil {
			return nil, fmt.Errorf("leads: stats scan failed: %w", err)
		}
		stats.ByStatus = append(stats.ByStatus, sc)
		stats.Total += sc.Count
	}
	return stats, rows.Err()
}
