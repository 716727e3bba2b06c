package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	conversations map[string]*Conversation
}

func newMemStore() *memStore {
	return &memStore{conversations: map[string]*Conversation{}}
}

func (m *memStore) Insert(_ context.Context, c *Conversation) error {
	cp := *c
	m.conversations[c.ID] = &cp
	return nil
}

func (m *memStore) GetForAgent(_ context.Context, agentID, id string) (*Conversation, error) {
	c, ok := m.conversations[id]
	if !ok || c.AgentID != agentID {
		return nil, ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) List(_ context.Context, agentID string, f ListFilter) ([]*Conversation, error) {
	out := []*Conversation{}
	for _, c := range m.conversations {
		if c.AgentID != agentID {
			continue
		}
		if f.Channel != "" && c.Channel != f.Channel {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

type fakeUsage struct {
	increments []string
	err        error
}

func (f *fakeUsage) IncrementUsage(_ context.Context, agentID string) error {
	if f.err != nil {
		return f.err
	}
	f.increments = append(f.increments, agentID)
	return nil
}

func transcript(started time.Time) []Message {
	return []Message{
		{Role: RoleSystem, Content: "greeting context", Timestamp: started},
		{Role: RoleAssistant, Content: "Hi, how can I help?", Timestamp: started.Add(time.Second)},
		{Role: RoleUser, Content: "Is 12 Oak Lane still available?", Timestamp: started.Add(10 * time.Second)},
		{Role: RoleAssistant, Content: "It is. Would you like a viewing?", Timestamp: started.Add(14 * time.Second)},
	}
}

func TestService_Log_DerivesStatsAndChargesUsage(t *testing.T) {
	store := newMemStore()
	usage := &fakeUsage{}
	svc := NewService(store, usage, nil)

	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	ended := started.Add(95 * time.Second)

	c, err := svc.Log(context.Background(), "agent-1", &LogConversationRequest{
		Channel:       "webchat",
		CustomerPhone: "07700900123",
		Messages:      transcript(started),
		StartedAt:     started,
		EndedAt:       &ended,
		Outcome:       OutcomeLeadCaptured,
	})
	require.NoError(t, err)

	assert.Equal(t, 95, c.DurationSeconds)
	assert.Equal(t, MessageCounts{Total: 4, User: 1, Assistant: 2, System: 1}, c.Counts)
	assert.Equal(t, []string{"agent-1"}, usage.increments)
	assert.Len(t, store.conversations, 1)
}

func TestService_Log_ValidatesChannelAndOutcome(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)

	_, err := svc.Log(context.Background(), "agent-1", &LogConversationRequest{Channel: "fax"})
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, err = svc.Log(context.Background(), "agent-1", &LogConversationRequest{
		Channel: "webchat", Outcome: "mystery",
	})
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestService_Log_UsageFailureDoesNotLoseTranscript(t *testing.T) {
	store := newMemStore()
	usage := &fakeUsage{err: context.DeadlineExceeded}
	svc := NewService(store, usage, nil)

	_, err := svc.Log(context.Background(), "agent-1", &LogConversationRequest{Channel: "phone"})
	require.NoError(t, err)
	assert.Len(t, store.conversations, 1)
}

func TestService_Log_EscalationBlock(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)

	c, err := svc.Log(context.Background(), "agent-1", &LogConversationRequest{
		Channel:        "whatsapp",
		Outcome:        OutcomeEscalated,
		Escalated:      true,
		EscalationNote: "customer asked for a human",
	})
	require.NoError(t, err)
	require.NotNil(t, c.Escalation)
	assert.True(t, c.Escalation.Escalated)
	assert.Equal(t, "customer asked for a human", c.Escalation.Reason)
}

func TestDerive_NoEndMeansZeroDuration(t *testing.T) {
	c := &Conversation{
		StartedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Messages:  transcript(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)),
	}
	c.Derive()
	assert.Zero(t, c.DurationSeconds)
	assert.Equal(t, 4, c.Counts.Total)
}
