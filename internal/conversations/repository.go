package conversations

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

// Repository stores conversation logs.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("conversations: db required")
	}
	return &Repository{db: db}
}

const conversationColumns = `
	id, agent_id, external_id, channel,
	customer_phone, customer_identifier,
	messages, started_at, ended_at, duration_seconds,
	messages_total, messages_user, messages_assistant, messages_system,
	summary, intent, outcome, lead_id, booking_id,
	escalated, escalated_at, escalation_reason,
	created_at, updated_at, deleted_at`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var (
		c           Conversation
		messages    []byte
		escalated   bool
		escalatedAt *time.Time
		reason      *string
	)
	err := row.Scan(
		&c.ID, &c.AgentID, &c.ExternalID, &c.Channel,
		&c.Customer.Phone, &c.Customer.Identifier,
		&messages, &c.StartedAt, &c.EndedAt, &c.DurationSeconds,
		&c.Counts.Total, &c.Counts.User, &c.Counts.Assistant, &c.Counts.System,
		&c.Summary, &c.Intent, &c.Outcome, &c.LeadID, &c.BookingID,
		&escalated, &escalatedAt, &reason,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversations: scan failed: %w", err)
	}

	c.Messages = []Message{}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &c.Messages); err != nil {
			return nil, fmt.Errorf("conversations: decode transcript: %w", err)
		}
	}
	if escalated {
		c.Escalation = &Escalation{Escalated: true}
		if escalatedAt != nil {
			c.Escalation.At = *escalatedAt
		}
		if reason != nil {
			c.Escalation.Reason = *reason
		}
	}
	return &c, nil
}

// Insert persists a logged conversation.
func (r *Repository) Insert(ctx context.Context, c *Conversation) error {
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("conversations: encode transcript: %w", err)
	}

	var (
		escalated   bool
		escalatedAt *time.Time
		reason      *string
	)
	if c.Escalation != nil && c.Escalation.Escalated {
		escalated = true
		escalatedAt = &c.Escalation.At
		reason = &c.Escalation.Reason
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO conversations (id, agent_id, external_id, channel,
			customer_phone, customer_identifier,
			messages, started_at, ended_at, duration_seconds,
			messages_total, messages_user, messages_assistant, messages_system,
			summary, intent, outcome, lead_id, booking_id,
			escalated, escalated_at, escalation_reason,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$23)`,
		c.ID, c.AgentID, c.ExternalID, c.Channel,
		c.Customer.Phone, c.Customer.Identifier,
		messages, c.StartedAt, c.EndedAt, c.DurationSeconds,
		c.Counts.Total, c.Counts.User, c.Counts.Assistant, c.Counts.System,
		c.Summary, c.Intent, c.Outcome, c.LeadID, c.BookingID,
		escalated, escalatedAt, reason,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("conversations: insert failed: %w", err)
	}
	return nil
}

// GetForAgent fetches one conversation scoped to the tenant.
func (r *Repository) GetForAgent(ctx context.Context, agentID, id string) (*Conversation, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1 AND agent_id = $2 AND deleted_at IS NULL`, id, agentID)
	return scanConversation(row)
}

// ListFilter narrows a tenant's conversation logs.
type ListFilter struct {
	Channel string
	Outcome string
	From    time.Time
	To      time.Time
}

// List returns the tenant's conversations, newest first.
func (r *Repository) List(ctx context.Context, agentID string, f ListFilter) ([]*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE agent_id = $1 AND deleted_at IS NULL`
	args := []any{agentID}

	if f.Channel != "" {
		args = append(args, f.Channel)
		query += " AND channel = $" + strconv.Itoa(len(args))
	}
	if f.Outcome != "" {
		args = append(args, f.Outcome)
		query += " AND outcome = $" + strconv.Itoa(len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += " AND started_at >= $" + strconv.Itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += " AND started_at < $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY started_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversations: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
