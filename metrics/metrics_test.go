package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	RecordOutcome("success", 120*time.Millisecond)
	RecordOutcome("partial", 80*time.Millisecond)
	RecordOutcome("failed", 5*time.Millisecond)
	RecordAppLookup("valid")
	RecordAppLookup("invalid")
	RecordEngineSession(time.Second, true)
	RecordEngineSession(2*time.Second, false)

	families, err := Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["odag_provisioning_outcomes_total"])
	assert.True(t, names["odag_provisioning_duration_seconds"])
	assert.True(t, names["odag_provisioning_app_lookups_total"])
	assert.True(t, names["odag_engine_session_duration_seconds"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, err := New("odag_provisioning_backend", "127.0.0.1:0")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "odag_service_info")
}
