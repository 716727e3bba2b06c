package conversations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/royalresponse/platform/internal/observability/metrics"
	"github.com/royalresponse/platform/pkg/logging"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, c *Conversation) error
	GetForAgent(ctx context.Context, agentID, id string) (*Conversation, error)
	List(ctx context.Context, agentID string, f ListFilter) ([]*Conversation, error)
}

// UsageCounter increments a tenant's monthly conversation counter.
type UsageCounter interface {
	IncrementUsage(ctx context.Context, agentID string) error
}

// Service logs conversations and charges them against the tenant's quota.
type Service struct {
	store  Store
	usage  UsageCounter
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a conversation service. usage may be nil in tests.
func NewService(store Store, usage UsageCounter, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:  store,
		usage:  usage,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// Log validates, derives transcript stats, persists the conversation, and
// increments the tenant's usage counter. The usage bump is best-effort:
// losing one tick is better than losing the transcript.
func (s *Service) Log(ctx context.Context, agentID string, req *LogConversationRequest) (*Conversation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	c := &Conversation{
		ID:         s.newID(),
		AgentID:    agentID,
		ExternalID: req.ExternalID,
		Channel:    req.Channel,
		Customer:   Customer{Phone: req.CustomerPhone, Identifier: req.CustomerID},
		Messages:   req.Messages,
		StartedAt:  startedAt,
		EndedAt:    req.EndedAt,
		Summary:    req.Summary,
		Intent:     req.Intent,
		Outcome:    req.Outcome,
		LeadID:     req.LeadID,
		BookingID:  req.BookingID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Escalated {
		c.Escalation = &Escalation{Escalated: true, At: now, Reason: req.EscalationNote}
	}
	c.Derive()

	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	metrics.ConversationsLogged.Inc()

	if s.usage != nil {
		if err := s.usage.IncrementUsage(ctx, agentID); err != nil {
			s.logger.Warn("failed to increment usage counter", "error", err, "agent_id", agentID)
		}
	}

	s.logger.Info("conversation logged",
		"conversation_id", c.ID,
		"agent_id", agentID,
		"channel", c.Channel,
		"messages", c.Counts.Total,
		"outcome", c.Outcome,
	)
	return c, nil
}

// Get returns one conversation scoped to the tenant.
func (s *Service) Get(ctx context.Context, agentID, id string) (*Conversation, error) {
	return s.store.GetForAgent(ctx, agentID, id)
}

// List returns the tenant's conversations, filtered.
func (s *Service) List(ctx context.Context, agentID string, f ListFilter) ([]*Conversation, error) {
	return s.store.List(ctx, agentID, f)
}
