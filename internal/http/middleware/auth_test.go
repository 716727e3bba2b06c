package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/royalresponse/platform/internal/agents"
	"github.com/royalresponse/platform/pkg/logging"
)

type fakeResolver struct {
	byKey   map[string]*agents.Agent
	byPhone map[string]*agents.Agent
	touched []string
}

func (f *fakeResolver) GetByAPIKey(_ context.Context, key string) (*agents.Agent, error) {
	if a, ok := f.byKey[key]; ok {
		return a, nil
	}
	return nil, agents.ErrAgentNotFound
}

func (f *fakeResolver) GetByChannelPhone(_ context.Context, phone string) (*agents.Agent, error) {
	if a, ok := f.byPhone[phone]; ok {
		return a, nil
	}
	return nil, agents.ErrAgentNotFound
}

func (f *fakeResolver) TouchLastActive(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

func trialAgent(id string) *agents.Agent {
	return &agents.Agent{
		ID: id,
		Subscription: agents.Subscription{
			Status:            agents.SubscriptionTrial,
			ConversationsUsed: 1,
			ConversationLimit: 100,
		},
		Status: agents.StatusActive,
	}
}

func authedEcho(t *testing.T, reached *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		if _, ok := AgentFromContext(r.Context()); !ok {
			t.Error("expected agent in context")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth_Success(t *testing.T) {
	agent := trialAgent("agent-1")
	resolver := &fakeResolver{byKey: map[string]*agents.Agent{"rr_key": agent}}

	reached := false
	handler := APIKeyAuth(resolver, logging.Default())(authedEcho(t, &reached))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	req.Header.Set("X-API-Key", "rr_key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !reached {
		t.Fatalf("expected pass-through, got %d reached=%v", w.Code, reached)
	}
	if len(resolver.touched) != 1 || resolver.touched[0] != "agent-1" {
		t.Errorf("expected last-active touch for agent-1, got %v", resolver.touched)
	}
}

func TestAPIKeyAuth_QueryParamFallback(t *testing.T) {
	resolver := &fakeResolver{byKey: map[string]*agents.Agent{"rr_key": trialAgent("agent-1")}}
	reached := false
	handler := APIKeyAuth(resolver, logging.Default())(authedEcho(t, &reached))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads?api_key=rr_key", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAPIKeyAuth_MissingAndInvalid(t *testing.T) {
	resolver := &fakeResolver{byKey: map[string]*agents.Agent{}}
	handler := APIKeyAuth(resolver, logging.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("business logic should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	req.Header.Set("X-API-Key", "rr_wrong")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("invalid key: expected 401, got %d", w.Code)
	}
}

func TestAPIKeyAuth_SubscriptionGate(t *testing.T) {
	agent := trialAgent("agent-1")
	agent.Subscription.Status = agents.SubscriptionCancelled
	resolver := &fakeResolver{byKey: map[string]*agents.Agent{"rr_key": agent}}

	handler := APIKeyAuth(resolver, logging.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("business logic should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	req.Header.Set("X-API-Key", "rr_key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestAPIKeyAuth_QuotaGate(t *testing.T) {
	agent := trialAgent("agent-1")
	agent.Subscription.ConversationsUsed = 100
	agent.Subscription.ConversationLimit = 100
	resolver := &fakeResolver{byKey: map[string]*agents.Agent{"rr_key": agent}}

	handler := APIKeyAuth(resolver, logging.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("business logic should not run when over quota")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	req.Header.Set("X-API-Key", "rr_key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestIdentifyByPhone(t *testing.T) {
	agent := trialAgent("agent-1")
	resolver := &fakeResolver{byPhone: map[string]*agents.Agent{"+442071234567": agent}}

	reached := false
	handler := IdentifyByPhone(resolver, logging.Default())(authedEcho(t, &reached))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/identify",
		strings.NewReader(`{"From":"+442071234567"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !reached {
		t.Fatalf("expected identification, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/identify",
		strings.NewReader(`{"from":"+440000000000"}`))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown number, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/identify", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing number, got %d", w.Code)
	}
}
