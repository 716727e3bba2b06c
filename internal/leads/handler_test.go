package leads

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royalresponse/platform/internal/api/respond"
	"github.com/royalresponse/platform/internal/tenancy"
)

func serveAs(t *testing.T, h *Handler, agentID, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if agentID != "" {
		req = req.WithContext(tenancy.WithAgentID(req.Context(), agentID))
	}

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) respond.Envelope {
	t.Helper()
	var env respond.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestHandler_Create(t *testing.T) {
	h := NewHandler(newTestService(newMemStore()), nil)

	rec := serveAs(t, h, "agent-1", http.MethodPost, "/",
		`{"first_name":"Sophie","phone":"07700900123","email":"sophie@example.co.uk"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var lead Lead
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &lead))
	assert.Equal(t, 55, lead.Score.Value)
	assert.Equal(t, "agent-1", lead.AgentID)
}

func TestHandler_Create_ValidationError(t *testing.T) {
	h := NewHandler(newTestService(newMemStore()), nil)

	rec := serveAs(t, h, "agent-1", http.MethodPost, "/", `{"phone":"07700900123"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "first name")
}

func TestHandler_Get_NotFound(t *testing.T) {
	h := NewHandler(newTestService(newMemStore()), nil)

	rec := serveAs(t, h, "agent-1", http.MethodGet, "/no-such-lead", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestHandler_RequiresTenantContext(t *testing.T) {
	h := NewHandler(newTestService(newMemStore()), nil)

	rec := serveAs(t, h, "", http.MethodGet, "/", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ListAndStats(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	h := NewHandler(svc, nil)

	rec := serveAs(t, h, "agent-1", http.MethodPost, "/",
		`{"first_name":"Sophie","phone":"07700900123","email":"s@x.co.uk","timeline":"immediate","property_interest":{"property_id":"prop-1"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = serveAs(t, h, "agent-1", http.MethodPost, "/", `{"first_name":"Tom","phone":"07700900999"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serveAs(t, h, "agent-1", http.MethodGet, "/?min_score=70", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	rec = serveAs(t, h, "agent-1", http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestHandler_AddNote(t *testing.T) {
	h := NewHandler(newTestService(newMemStore()), nil)

	rec := serveAs(t, h, "agent-1", http.MethodPost, "/", `{"first_name":"Sophie","phone":"07700900123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	var lead Lead
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &lead))

	rec = serveAs(t, h, "agent-1", http.MethodPost, "/"+lead.ID+"/notes", `{"text":"Prefers evenings"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serveAs(t, h, "agent-1", http.MethodPost, "/"+lead.ID+"/notes", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
