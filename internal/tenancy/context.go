package tenancy

import "context"

type ctxKey string

const agentKey ctxKey = "royalresponse.agent_id"

// WithAgentID stores the authenticated tenant id in context.
func WithAgentID(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, agentKey, agentID)
}

// AgentIDFromContext extracts the tenant id if present.
func AgentIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(agentKey)
	if val == nil {
		return "", false
	}
	agentID, ok := val.(string)
	return agentID, ok && agentID != ""
}
