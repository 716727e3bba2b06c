package leads

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	leads map[string]*Lead
}

func newMemStore() *memStore {
	return &memStore{leads: map[string]*Lead{}}
}

func (m *memStore) Insert(_ context.Context, l *Lead) error {
	cp := *l
	m.leads[l.ID] = &cp
	return nil
}

func (m *memStore) GetForAgent(_ context.Context, agentID, id string) (*Lead, error) {
	l, ok := m.leads[id]
	if !ok || l.AgentID != agentID || l.DeletedAt != nil {
		return nil, ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memStore) Save(_ context.Context, l *Lead) error {
	if _, ok := m.leads[l.ID]; !ok {
		return ErrLeadNotFound
	}
	cp := *l
	m.leads[l.ID] = &cp
	return nil
}

func (m *memStore) List(_ context.Context, agentID string, f ListFilter) ([]*Lead, error) {
	out := []*Lead{}
	for _, l := range m.leads {
		if l.AgentID != agentID || l.DeletedAt != nil {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Priority != "" && l.Priority != f.Priority {
			continue
		}
		if f.MinScore > 0 && l.Score.Value < f.MinScore {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) SoftDelete(_ context.Context, agentID, id string, now time.Time) error {
	l, ok := m.leads[id]
	if !ok || l.AgentID != agentID || l.DeletedAt != nil {
		return ErrLeadNotFound
	}
	l.DeletedAt = &now
	return nil
}

func (m *memStore) Stats(_ context.Context, agentID string) (*Stats, error) {
	stats := &Stats{ByStatus: []StatusCount{}}
	for _, l := range m.leads {
		if l.AgentID == agentID && l.DeletedAt == nil {
			stats.Total++
		}
	}
	return stats, nil
}

func newTestService(store Store) *Service {
	svc := NewService(store, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Create_ScoresBeforePersist(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie",
		Phone:     "07700900123",
		Email:     "sophie@example.co.uk",
		Timeline:  TimelineImmediate,
		Channel:   "webchat",
	})
	require.NoError(t, err)

	// base 30 + phone 10 + email 15 + timeline 10
	assert.Equal(t, 65, lead.Score.Value)
	assert.Equal(t, PriorityMedium, lead.Priority)
	assert.Equal(t, StatusNew, lead.Status)
	assert.Equal(t, "webchat", lead.Source.Channel)
	assert.NotEmpty(t, lead.ID)

	stored, err := store.GetForAgent(context.Background(), "agent-1", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.Score.Value, stored.Score.Value)
}

func TestService_Create_RejectsMissingFields(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{Phone: "07700900123"})
	assert.ErrorIs(t, err, ErrMissingFirstName)

	_, err = svc.Create(context.Background(), "agent-1", &CreateLeadRequest{FirstName: "Sophie"})
	assert.ErrorIs(t, err, ErrMissingPhone)

	_, err = svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123", Channel: "carrier-pigeon",
	})
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestService_Create_DefaultsChannelToManual(t *testing.T) {
	svc := newTestService(newMemStore())

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Tom", Phone: "07700900999",
	})
	require.NoError(t, err)
	assert.Equal(t, "manual", lead.Source.Channel)
	assert.Equal(t, "phone", lead.Contact.PreferredContact)
}

func TestService_Update_RescoresOnlyWhenScoringFieldsTouched(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, lead.Score.Value)
	calculatedAt := lead.Score.LastCalculated

	// A requirements-only patch must not rescore.
	later := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }
	updated, err := svc.Update(context.Background(), "agent-1", lead.ID, &UpdateLeadRequest{
		Requirements: &Requirements{Bedrooms: 3, Location: "York"},
	})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Score.Value)
	assert.Equal(t, calculatedAt, updated.Score.LastCalculated)
	assert.Equal(t, later, updated.UpdatedAt)

	// An email patch must rescore.
	email := "sophie@example.co.uk"
	updated, err = svc.Update(context.Background(), "agent-1", lead.ID, &UpdateLeadRequest{
		Email: &email,
	})
	require.NoError(t, err)
	assert.Equal(t, 55, updated.Score.Value)
	assert.Equal(t, later, updated.Score.LastCalculated)
	assert.Equal(t, PriorityMedium, updated.Priority)
}

func TestService_Update_RejectsInvalidStatus(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123",
	})
	require.NoError(t, err)

	bad := "archived"
	_, err = svc.Update(context.Background(), "agent-1", lead.ID, &UpdateLeadRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_Update_CannotClearMandatoryFields(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123",
	})
	require.NoError(t, err)

	empty := ""
	_, err = svc.Update(context.Background(), "agent-1", lead.ID, &UpdateLeadRequest{Phone: &empty})
	assert.ErrorIs(t, err, ErrMissingPhone)
}

func TestService_Update_TenantScoped(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123",
	})
	require.NoError(t, err)

	name := "Eve"
	_, err = svc.Update(context.Background(), "agent-2", lead.ID, &UpdateLeadRequest{FirstName: &name})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestService_AddNote(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123",
	})
	require.NoError(t, err)
	scoreBefore := lead.Score.Value

	updated, err := svc.AddNote(context.Background(), "agent-1", lead.ID, "  Called back, wants a Saturday viewing  ")
	require.NoError(t, err)
	require.Len(t, updated.Notes, 1)
	assert.Equal(t, "Called back, wants a Saturday viewing", updated.Notes[0].Text)
	assert.Equal(t, scoreBefore, updated.Score.Value)

	_, err = svc.AddNote(context.Background(), "agent-1", lead.ID, "   ")
	assert.ErrorIs(t, err, ErrMissingNote)
}

func TestService_MarkViewingBooked(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, lead.Score.Value)

	updated, err := svc.MarkViewingBooked(context.Background(), "agent-1", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusViewingBooked, updated.Status)
	assert.Equal(t, 65, updated.Score.Value)

	// Idempotent: a second call changes nothing.
	again, err := svc.MarkViewingBooked(context.Background(), "agent-1", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Score.Value, again.Score.Value)
	assert.Equal(t, updated.UpdatedAt, again.UpdatedAt)
}

func TestService_MarkViewingBooked_LeavesConvertedAlone(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123",
	})
	require.NoError(t, err)

	converted := StatusConverted
	_, err = svc.Update(context.Background(), "agent-1", lead.ID, &UpdateLeadRequest{Status: &converted})
	require.NoError(t, err)

	got, err := svc.MarkViewingBooked(context.Background(), "agent-1", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, got.Status)
}

func TestService_Delete_HidesLeadFromReads(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), "agent-1", &CreateLeadRequest{
		FirstName: "Sophie", Phone: "07700900123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "agent-1", lead.ID))

	_, err = svc.Get(context.Background(), "agent-1", lead.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)

	all, err := svc.List(context.Background(), "agent-1", ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	err = svc.Delete(context.Background(), "agent-1", lead.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}
