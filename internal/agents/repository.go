package agents

import (
	"context"
	"errors"
	"fmt"
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

// Repository stores tenants in the relational database. Reads exclude
// soft-deleted rows unless the method says otherwise.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("agents: db required")
	}
	return &Repository{db: db}
}

const agentColumns = `
	id, company_name, slug, email, phone, api_key,
	tier, subscription_status, monthly_price, conversations_used, conversation_limit, trial_ends_at,
	channel_phone, channel_whatsapp, channel_sms,
	status, onboarded_at, last_active_at, created_at, updated_at, deleted_at`

func scanAgent(row pgx.Row) (*Agent, error) {
	var a Agent
	err := row.Scan(
		&a.ID, &a.CompanyName, &a.Slug, &a.Email, &a.Phone, &a.APIKey,
		&a.Subscription.Tier, &a.Subscription.Status, &a.Subscription.MonthlyPrice,
		&a.Subscription.ConversationsUsed, &a.Subscription.ConversationLimit, &a.Subscription.TrialEndsAt,
		&a.Channels.Phone, &a.Channels.WhatsApp, &a.Channels.SMS,
		&a.Status, &a.OnboardedAt, &a.LastActiveAt, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("agents: scan failed: %w", err)
	}
	return &a, nil
}

// Create inserts a new tenant with a freshly minted API key.
func (r *Repository) Create(ctx context.Context, req *CreateAgentRequest) (*Agent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tier := req.Tier
	if tier == "" {
		tier = "professional"
	}

	now := time.Now().UTC()
	a := &Agent{
		ID:          uuid.New().String(),
		CompanyName: req.CompanyName,
		Slug:        Slugify(req.CompanyName),
		Email:       req.Email,
		Phone:       req.Phone,
		APIKey:      NewAPIKey(),
		Subscription: Subscription{
			Tier:              tier,
			Status:            SubscriptionTrial,
			ConversationLimit: req.ConversationLimit,
		},
		Channels: Channels{
			Phone:    req.ChannelPhone,
			WhatsApp: req.ChannelWhatsApp,
			SMS:      req.ChannelSMS,
		},
		Status:      StatusActive,
		OnboardedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO agents (id, company_name, slug, email, phone, api_key,
			tier, subscription_status, monthly_price, conversations_used, conversation_limit, trial_ends_at,
			channel_phone, channel_whatsapp, channel_sms,
			status, onboarded_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)`,
		a.ID, a.CompanyName, a.Slug, a.Email, a.Phone, a.APIKey,
		a.Subscription.Tier, a.Subscription.Status, a.Subscription.MonthlyPrice,
		a.Subscription.ConversationsUsed, a.Subscription.ConversationLimit, a.Subscription.TrialEndsAt,
		a.Channels.Phone, a.Channels.WhatsApp, a.Channels.SMS,
		a.Status, a.OnboardedAt, now,
	)
	if err != nil {
		return nil, fmt.Errorf("agents: insert failed: %w", err)
	}
	return a, nil
}

// GetByID fetches a live tenant by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Agent, error) {
	row := r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanAgent(row)
}

// GetByAPIKey resolves a credential to exactly one active tenant.
func (r *Repository) GetByAPIKey(ctx context.Context, apiKey string) (*Agent, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+agentColumns+`
		FROM agents
		WHERE api_key = $1 AND status = $2 AND deleted_at IS NULL`,
		apiKey, StatusActive)
	return scanAgent(row)
}

// GetByChannelPhone resolves an inbound caller number to its tenant.
func (r *Repository) GetByChannelPhone(ctx context.Context, phone string) (*Agent, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+agentColumns+`
		FROM agents
		WHERE (channel_phone = $1 OR channel_whatsapp = $1 OR channel_sms = $1)
		  AND status = $2 AND deleted_at IS NULL`,
		phone, StatusActive)
	return scanAgent(row)
}

// List returns all live tenants, newest first.
func (r *Repository) List(ctx context.Context) ([]*Agent, error) {
	rows, err := r.db.Query(ctx, `SELECT `+agentColumns+` FROM agents WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("agents: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAgentRequest patches mutable tenant fields.
type UpdateAgentRequest struct {
	CompanyName        *string `json:"company_name,omitempty"`
	Email              *string `json:"email,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Tier               *string `json:"tier,omitempty"`
	SubscriptionStatus *string `json:"subscription_status,omitempty"`
	ConversationLimit  *int    `json:"conversation_limit,omitempty"`
	ChannelPhone       *string `json:"channel_phone,omitempty"`
	ChannelWhatsApp    *string `json:"channel_whatsapp,omitempty"`
	ChannelSMS         *string `json:"channel_sms,omitempty"`
	Status             *string `json:"status,omitempty"`
}

// Update merges the patch onto the stored row and returns the result.
func (r *Repository) Update(ctx context.Context, id string, patch *UpdateAgentRequest) (*Agent, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.CompanyName != nil {
		a.CompanyName = *patch.CompanyName
		a.Slug = Slugify(a.CompanyName)
	}
	if patch.Email != nil {
		a.Email = *patch.Email
	}
	if patch.Phone != nil {
		a.Phone = *patch.Phone
	}
	if patch.Tier != nil {
		a.Subscription.Tier = *patch.Tier
	}
	if patch.SubscriptionStatus != nil {
		a.Subscription.Status = *patch.SubscriptionStatus
	}
	if patch.ConversationLimit != nil {
		a.Subscription.ConversationLimit = *patch.ConversationLimit
	}
	if patch.ChannelPhone != nil {
		a.Channels.Phone = *patch.ChannelPhone
	}
	if patch.ChannelWhatsApp != nil {
		a.Channels.WhatsApp = *patch.ChannelWhatsApp
	}
	if patch.ChannelSMS != nil {
		a.Channels.SMS = *patch.ChannelSMS
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}

	now := time.Now().UTC()
	a.UpdatedAt = now
	_, err = r.db.Exec(ctx, `
		UPDATE agents SET
			company_name = $2, slug = $3, email = $4, phone = $5,
			tier = $6, subscription_status = $7, conversation_limit = $8,
			channel_phone = $9, channel_whatsapp = $10, channel_sms = $11,
			status = $12, updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL`,
		a.ID, a.CompanyName, a.Slug, a.Email, a.Phone,
		a.Subscription.Tier, a.Subscription.Status, a.Subscription.ConversationLimit,
		a.Channels.Phone, a.Channels.WhatsApp, a.Channels.SMS,
		a.Status, now,
	)
	if err != nil {
		return nil, fmt.Errorf("agents: update failed: %w", err)
	}
	return a, nil
}

// IncrementUsage bumps the monthly conversation counter and touches
// last_active_at. Called as a side effect of logging a conversation.
func (r *Repository) IncrementUsage(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE agents
		SET conversations_used = conversations_used + 1, last_active_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("agents: increment usage failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}
	return nil
}

// TouchLastActive records API activity without changing usage.
func (r *Repository) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE agents SET last_active_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("agents: touch last active failed: %w", err)
	}
	return nil
}

// ResetMonthlyUsage zeroes the conversation counter at billing rollover.
func (r *Repository) ResetMonthlyUsage(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE agents SET conversations_used = 0, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("agents: reset usage failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}
	return nil
}

// RegenerateAPIKey rotates the tenant credential and returns the new key.
func (r *Repository) RegenerateAPIKey(ctx context.Context, id string) (string, error) {
	key := NewAPIKey()
	tag, err := r.db.Exec(ctx, `
		UPDATE agents SET api_key = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id, key)
	if err != nil {
		return "", fmt.Errorf("agents: regenerate key failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", ErrAgentNotFound
	}
	return key, nil
}

// SoftDelete marks the tenant deleted and flips it inactive. Child rows are
// left in place; they become unreachable because authentication fails.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE agents SET deleted_at = NOW(), status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id, StatusInactive)
	if err != nil {
		return fmt.Errorf("agents: soft delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}
	return nil
}
