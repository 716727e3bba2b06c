package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/royalresponse/platform/pkg/logging"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, l *Lead) error
	GetForAgent(ctx context.Context, agentID, id string) (*Lead, error)
	Save(ctx context.Context, l *Lead) error
	List(ctx context.Context, agentID string, f ListFilter) ([]*Lead, error)
	Stats(ctx context.Context, agentID string) (*Stats, error)
	SoftDelete(ctx context.Context, agentID, id string, now time.Time) error
}

// Service owns the lead lifecycle: capture, scoring, status transitions,
// and notes. Score and priority are recomputed here before every persist
// that touches a scoring-relevant field, so stored state is always
// consistent with the scoring rules.
type Service struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a lead service.
func NewService(store Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// Create captures a new lead, scores it, and persists it.
func (s *Service) Create(ctx context.Context, agentID string, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	channel := req.Channel
	if channel == "" {
		channel = "manual"
	}
	preferred := req.PreferredContact
	if preferred == "" {
		preferred = "phone"
	}

	lead := &Lead{
		ID:      s.newID(),
		AgentID: agentID,
		Contact: Contact{
			FirstName:        strings.TrimSpace(req.FirstName),
			LastName:         strings.TrimSpace(req.LastName),
			Email:            strings.TrimSpace(req.Email),
			Phone:            strings.TrimSpace(req.Phone),
			PreferredContact: preferred,
		},
		PropertyInterest: req.PropertyInterest,
		Requirements:     req.Requirements,
		Timeline:         req.Timeline,
		Financials:       req.Financials,
		Source:           Source{Channel: channel, Referrer: req.Referrer},
		Conversation:     ConversationRef{ConversationID: req.ConversationID},
		Status:           StatusNew,
		Notes:            []Note{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	lead.Rescore(now)

	if err := s.store.Insert(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.Info("lead captured",
		"lead_id", lead.ID,
		"agent_id", agentID,
		"channel", channel,
		"score", lead.Score.Value,
		"priority", lead.Priority,
	)
	return lead, nil
}

// Get returns one lead scoped to the tenant.
func (s *Service) Get(ctx context.Context, agentID, id string) (*Lead, error) {
	return s.store.GetForAgent(ctx, agentID, id)
}

// List returns the tenant's leads, filtered.
func (s *Service) List(ctx context.Context, agentID string, f ListFilter) ([]*Lead, error) {
	return s.store.List(ctx, agentID, f)
}

// Stats returns the tenant's lead counts and average scores by status.
func (s *Service) Stats(ctx context.Context, agentID string) (*Stats, error) {
	return s.store.Stats(ctx, agentID)
}

// Update applies a merge patch to a lead. The score is recomputed only
// when the patch touches a field the scoring rules read.
func (s *Service) Update(ctx context.Context, agentID, id string, req *UpdateLeadRequest) (*Lead, error) {
	if req.Status != nil && !validStatuses[*req.Status] {
		return nil, ErrInvalidStatus
	}

	lead, err := s.store.GetForAgent(ctx, agentID, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		lead.Contact.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		lead.Contact.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		lead.Contact.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		lead.Contact.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.PreferredContact != nil {
		lead.Contact.PreferredContact = *req.PreferredContact
	}
	if req.PropertyInterest != nil {
		lead.PropertyInterest = *req.PropertyInterest
	}
	if req.Requirements != nil {
		lead.Requirements = *req.Requirements
	}
	if req.Timeline != nil {
		lead.Timeline = *req.Timeline
	}
	if req.Financials != nil {
		lead.Financials = *req.Financials
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}

	if lead.Contact.FirstName == "" {
		return nil, ErrMissingFirstName
	}
	if lead.Contact.Phone == "" {
		return nil, ErrMissingPhone
	}

	now := s.now()
	lead.UpdatedAt = now
	if req.TouchesScoring() {
		lead.Rescore(now)
	}

	if err := s.store.Save(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// AddNote appends a timestamped annotation. Notes never affect the score.
func (s *Service) AddNote(ctx context.Context, agentID, id, text string) (*Lead, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMissingNote
	}

	lead, err := s.store.GetForAgent(ctx, agentID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	lead.Notes = append(lead.Notes, Note{Text: text, AddedAt: now})
	lead.UpdatedAt = now

	if err := s.store.Save(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// Delete soft-deletes a lead. Deleted leads disappear from every read.
func (s *Service) Delete(ctx context.Context, agentID, id string) error {
	return s.store.SoftDelete(ctx, agentID, id, s.now())
}

// MarkViewingBooked transitions a lead to viewing-booked and rescores it.
// Called by the booking flow after a viewing is confirmed; leads already
// past that stage are left alone.
func (s *Service) MarkViewingBooked(ctx context.Context, agentID, id string) (*Lead, error) {
	lead, err := s.store.GetForAgent(ctx, agentID, id)
	if err != nil {
		return nil, err
	}

	if lead.Status == StatusConverted || lead.Status == StatusViewingBooked {
		return lead, nil
	}

	now := s.now()
	lead.Status = StatusViewingBooked
	lead.UpdatedAt = now
	lead.Rescore(now)

	if err := s.store.Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("leads: mark viewing booked: %w", err)
	}

	s.logger.Info("lead viewing booked",
		"lead_id", lead.ID,
		"agent_id", agentID,
		"score", lead.Score.Value,
		"priority", lead.Priority,
	)
	return lead, nil
}
