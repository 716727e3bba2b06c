package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/royalresponse/platform/internal/agents"
	"github.com/royalresponse/platform/internal/api/respond"
	"github.com/royalresponse/platform/internal/tenancy"
	"github.com/royalresponse/platform/pkg/logging"
)

type agentCtxKey string

const authedAgentKey agentCtxKey = "royalresponse.agent"

// AgentResolver is the slice of the agents repository auth needs.
type AgentResolver interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*agents.Agent, error)
	GetByChannelPhone(ctx context.Context, phone string) (*agents.Agent, error)
	TouchLastActive(ctx context.Context, id string) error
}

// AgentFromContext returns the authenticated tenant if present.
func AgentFromContext(ctx context.Context) (*agents.Agent, bool) {
	agent, ok := ctx.Value(authedAgentKey).(*agents.Agent)
	return agent, ok && agent != nil
}

// APIKeyAuth authenticates tenant-scoped requests via the X-API-Key header or
// api_key query parameter. Subscription and quota gates run before any
// business logic; successful auth touches last_active_at.
func APIKeyAuth(resolver AgentResolver, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				apiKey = r.URL.Query().Get("api_key")
			}
			if apiKey == "" {
				respond.Error(w, respond.Unauthorized("API key required"))
				return
			}

			agent, err := resolver.GetByAPIKey(r.Context(), apiKey)
			if err != nil {
				if errors.Is(err, agents.ErrAgentNotFound) {
					prefix := apiKey
					if len(prefix) > 10 {
						prefix = prefix[:10]
					}
					logger.Warn("invalid api key attempted", "key_prefix", prefix)
					respond.Error(w, respond.Unauthorized("Invalid API key"))
					return
				}
				logger.Error("authentication lookup failed", "error", err)
				respond.Error(w, err)
				return
			}

			if !agent.CanAccess() {
				respond.Error(w, respond.Forbidden("Subscription inactive"))
				return
			}
			if agent.OverQuota() {
				respond.Error(w, respond.QuotaExceeded("Monthly conversation limit reached"))
				return
			}

			if err := resolver.TouchLastActive(r.Context(), agent.ID); err != nil {
				logger.Warn("failed to touch last active", "agent_id", agent.ID, "error", err)
			}

			ctx := tenancy.WithAgentID(r.Context(), agent.ID)
			ctx = context.WithValue(ctx, authedAgentKey, agent)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentifyByPhone resolves a tenant from an inbound channel number. Used by
// telephony webhooks that cannot carry an API key.
func IdentifyByPhone(resolver AgentResolver, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			phone := r.URL.Query().Get("from")
			if phone == "" && r.Body != nil {
				var body struct {
					From      string `json:"From"`
					FromLower string `json:"from"`
				}
				_ = json.NewDecoder(r.Body).Decode(&body)
				phone = body.From
				if phone == "" {
					phone = body.FromLower
				}
			}
			if phone == "" {
				respond.Error(w, respond.Validation("Phone number required"))
				return
			}

			agent, err := resolver.GetByChannelPhone(r.Context(), phone)
			if err != nil {
				if errors.Is(err, agents.ErrAgentNotFound) {
					logger.Warn("no agent found for phone", "phone", phone)
					respond.Error(w, respond.NotFound("Agent not found"))
					return
				}
				respond.Error(w, err)
				return
			}

			ctx := tenancy.WithAgentID(r.Context(), agent.ID)
			ctx = context.WithValue(ctx, authedAgentKey, agent)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
