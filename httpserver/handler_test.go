package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/insightops/odag-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrchestrator struct {
	mock.Mock
}

func (m *mockOrchestrator) Provision(ctx context.Context, req interfaces.LinkRequest) interfaces.ProvisioningOutcome {
	args := m.Called(ctx, req)
	return args.Get(0).(interfaces.ProvisioningOutcome)
}

func (m *mockOrchestrator) TestConnection(ctx context.Context) interfaces.ConnectivityReport {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.ConnectivityReport)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func linkRequestBody(t *testing.T) io.Reader {
	body, err := json.Marshal(interfaces.LinkRequest{
		LinkName:                "Sales Details",
		SelectionAppID:          "sel-app",
		TemplateAppID:           "tpl-app",
		RowEstimationExpression: "Sum(Sales)",
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func postCreateLink(orchestrator Orchestrator, body io.Reader) *httptest.ResponseRecorder {
	handler := NewHandler(orchestrator, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/odaglinks", body)
	w := httptest.NewRecorder()
	handler.HandleCreateLink(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return decoded
}

func TestHandleCreateLink_Success(t *testing.T) {
	orchestrator := new(mockOrchestrator)
	orchestrator.On("Provision", mock.Anything, mock.Anything).
		Return(interfaces.SuccessOutcome("link-1", "Sales Selector", "Sales Template"))

	w := postCreateLink(orchestrator, linkRequestBody(t))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	decoded := decodeBody(t, w)
	assert.Equal(t, "success", decoded["status"])
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "link-1", decoded["odagLinkId"])
	assert.Equal(t, "Sales Selector", decoded["selectionAppName"])
	assert.Equal(t, "CreateObject", decoded["navigationLinkMethod"])
	orchestrator.AssertExpectations(t)
}

// A created link with failed navigation registration responds 207 and the
// body carries everything needed to finish by hand.
func TestHandleCreateLink_PartialSuccess(t *testing.T) {
	orchestrator := new(mockOrchestrator)
	navErr := &interfaces.PrematureCloseError{Code: 1001, Reason: "engine restarting"}
	orchestrator.On("Provision", mock.Anything, mock.Anything).
		Return(interfaces.PartialSuccessOutcome("link-2", "Sales Selector", "Sales Template", navErr))

	w := postCreateLink(orchestrator, linkRequestBody(t))

	assert.Equal(t, http.StatusMultiStatus, w.Code)

	decoded := decodeBody(t, w)
	assert.Equal(t, "partial", decoded["status"])
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "link-2", decoded["odagLinkId"])
	assert.Contains(t, decoded["navigationError"], "engine restarting")

	steps, ok := decoded["remediationSteps"].([]any)
	require.True(t, ok)
	assert.Len(t, steps, 4)
	assert.Contains(t, steps[2], "link-2")
}

func TestHandleCreateLink_FailureStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing field", &interfaces.MissingFieldError{Field: "linkName"}, http.StatusBadRequest},
		{"invalid configuration", interfaces.ErrInvalidLinkConfiguration, http.StatusBadRequest},
		{"authentication", &interfaces.AuthenticationError{Err: errors.New("handshake rejected")}, http.StatusUnauthorized},
		{"unauthorized", interfaces.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", interfaces.ErrForbidden, http.StatusForbidden},
		{"app not found", &interfaces.AppNotFoundError{Role: interfaces.RoleSelection, ID: "sel-app"}, http.StatusNotFound},
		{"link service unavailable", interfaces.ErrLinkServiceUnavailable, http.StatusServiceUnavailable},
		{"endpoint misconfigured", interfaces.ErrEndpointMisconfigured, http.StatusBadGateway},
		{"remote server error", interfaces.ErrRemoteServerError, http.StatusBadGateway},
		{"lookup failure", &interfaces.LookupError{ID: "sel-app", StatusCode: 500, Err: errors.New("boom")}, http.StatusBadGateway},
		{"unexpected status", &interfaces.UnexpectedStatusError{Code: 418, Body: "teapot"}, http.StatusBadGateway},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orchestrator := new(mockOrchestrator)
			orchestrator.On("Provision", mock.Anything, mock.Anything).
				Return(interfaces.FailureOutcome(tt.err))

			w := postCreateLink(orchestrator, linkRequestBody(t))

			assert.Equal(t, tt.wantStatus, w.Code)

			decoded := decodeBody(t, w)
			assert.Equal(t, "failed", decoded["status"])
			assert.Equal(t, false, decoded["success"])
			assert.Equal(t, tt.err.Error(), decoded["error"])
			_, hasLink := decoded["odagLinkId"]
			assert.False(t, hasLink)
		})
	}
}

// Wrapped failure causes still map onto their status.
func TestHandleCreateLink_WrappedFailure(t *testing.T) {
	orchestrator := new(mockOrchestrator)
	wrapped := interfaces.FailureOutcome(
		errors.Join(errors.New("creating link"), interfaces.ErrForbidden),
	)
	orchestrator.On("Provision", mock.Anything, mock.Anything).Return(wrapped)

	w := postCreateLink(orchestrator, linkRequestBody(t))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleCreateLink_MalformedBody(t *testing.T) {
	orchestrator := new(mockOrchestrator)

	w := postCreateLink(orchestrator, bytes.NewReader([]byte(`{"linkName": `)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
	orchestrator.AssertNumberOfCalls(t, "Provision", 0)
}

// Bodies above the size cap are rejected before the orchestrator runs,
// with the status code the parse error carries.
func TestHandleCreateLink_OversizedBody(t *testing.T) {
	orchestrator := new(mockOrchestrator)

	oversized, err := json.Marshal(interfaces.LinkRequest{
		LinkName:                "Sales Details",
		SelectionAppID:          "sel-app",
		TemplateAppID:           "tpl-app",
		RowEstimationExpression: "Sum(Sales)",
		Description:             strings.Repeat("d", maxBodySize),
	})
	require.NoError(t, err)

	w := postCreateLink(orchestrator, bytes.NewReader(oversized))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
	orchestrator.AssertNumberOfCalls(t, "Provision", 0)
}

func TestHandleCreateLink_PassesDecodedRequest(t *testing.T) {
	orchestrator := new(mockOrchestrator)
	var got interfaces.LinkRequest
	orchestrator.On("Provision", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			got = args.Get(1).(interfaces.LinkRequest)
		}).
		Return(interfaces.SuccessOutcome("link-1", "a", "b"))

	body := bytes.NewReader([]byte(`{
		"linkName": "Sales Details",
		"selectionAppId": "sel-app",
		"templateAppId": "tpl-app",
		"rowEstExpr": "Sum(Sales)",
		"rowEstLowBound": 10,
		"rowEstHighBound": 1000,
		"retentionMinutes": 60,
		"genAppNameFormat": "gen_%u",
		"description": "quarterly drill-down"
	}`))
	postCreateLink(orchestrator, body)

	assert.Equal(t, "Sales Details", got.LinkName)
	assert.Equal(t, interfaces.AppID("sel-app"), got.SelectionAppID)
	assert.Equal(t, interfaces.AppID("tpl-app"), got.TemplateAppID)
	assert.Equal(t, "Sum(Sales)", got.RowEstimationExpression)
	assert.Equal(t, 10, got.RowEstLowBound)
	assert.Equal(t, 1000, got.RowEstHighBound)
	assert.Equal(t, 60, got.RetentionMinutes)
	assert.Equal(t, "gen_%u", got.GeneratedAppNameFormat)
	assert.Equal(t, "quarterly drill-down", got.Description)
}

// Connectivity reporting always responds 200; failures live in the body.
func TestHandleTestConnection(t *testing.T) {
	orchestrator := new(mockOrchestrator)
	orchestrator.On("TestConnection", mock.Anything).Return(interfaces.ConnectivityReport{
		Authenticated: true,
		ResourceAPI:   interfaces.SubsystemStatus{Reachable: true},
		LinkService:   interfaces.SubsystemStatus{Reachable: false, Error: "link service unavailable"},
		Engine:        interfaces.SubsystemStatus{Reachable: true},
	})

	handler := NewHandler(orchestrator, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/connectivity", nil)
	w := httptest.NewRecorder()
	handler.HandleTestConnection(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var report interfaces.ConnectivityReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Authenticated)
	assert.True(t, report.ResourceAPI.Reachable)
	assert.False(t, report.LinkService.Reachable)
	assert.Equal(t, "link service unavailable", report.LinkService.Error)
}

func TestServerLifecycleEndpoints(t *testing.T) {
	logger := testLogger()
	srv, err := New(&HTTPServerConfig{
		ListenAddr:    ":0",
		Log:           logger,
		DrainDuration: time.Millisecond,
	}, NewHandler(new(mockOrchestrator), logger))
	require.NoError(t, err)

	router := srv.getRouter()
	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get("/livez").Code)
	assert.Equal(t, http.StatusOK, get("/readyz").Code)

	assert.Equal(t, http.StatusOK, get("/drain").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)
	assert.Contains(t, get("/drain").Body.String(), "already draining")

	assert.Equal(t, http.StatusOK, get("/undrain").Code)
	assert.Equal(t, http.StatusOK, get("/readyz").Code)
}

func TestRouterRoutesProvisioning(t *testing.T) {
	logger := testLogger()
	orchestrator := new(mockOrchestrator)
	orchestrator.On("Provision", mock.Anything, mock.Anything).
		Return(interfaces.SuccessOutcome("link-9", "a", "b"))

	srv, err := New(&HTTPServerConfig{ListenAddr: ":0", Log: logger},
		NewHandler(orchestrator, logger))
	require.NoError(t, err)

	body, err := json.Marshal(interfaces.LinkRequest{
		LinkName:                "Sales Details",
		SelectionAppID:          "sel-app",
		TemplateAppID:           "tpl-app",
		RowEstimationExpression: "Sum(Sales)",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.getRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/odaglinks", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "link-9")
}
