package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/insightops/odag-provisioning-backend/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// RequestError couples a request-processing failure with the HTTP status
// that reports it. Handlers return it from their parsing stage and write
// its StatusCode verbatim.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the message of the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

// Orchestrator is the provisioning core the HTTP surface fronts.
type Orchestrator interface {
	Provision(ctx context.Context, req interfaces.LinkRequest) interfaces.ProvisioningOutcome
	TestConnection(ctx context.Context) interfaces.ConnectivityReport
}

// Handler translates between the HTTP surface and the orchestrator: request
// bodies into link requests, outcomes into status codes and JSON bodies.
type Handler struct {
	orchestrator Orchestrator
	log          *slog.Logger
}

// NewHandler creates the HTTP request handler.
func NewHandler(orchestrator Orchestrator, log *slog.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, log: log}
}

// HandleCreateLink processes link provisioning requests.
//
// URL format: POST /api/v1/odaglinks
//
// Request body: JSON-encoded link request (linkName, selectionAppId,
// templateAppId, rowEstExpr, plus optional policy overrides).
//
// Response: the provisioning outcome as JSON. 200 for full success, 207
// when the link exists but navigation registration failed, and an error
// status derived from the failure type otherwise. The 207 body carries the
// created link id and the manual remediation steps.
func (h *Handler) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	log := h.log.With("requestID", uuid.Must(uuid.NewRandom()).String())

	req, reqErr := parseLinkRequest(w, r)
	if reqErr != nil {
		log.Error("Failed to parse link request body", "err", reqErr)
		http.Error(w, reqErr.Error(), reqErr.StatusCode)
		return
	}

	outcome := h.orchestrator.Provision(r.Context(), req)
	writeJSON(w, log, statusForOutcome(outcome), outcome)
}

// parseLinkRequest decodes the body into a link request, bounding it at
// maxBodySize. Oversized and malformed bodies both surface as a 400.
func parseLinkRequest(w http.ResponseWriter, r *http.Request) (interfaces.LinkRequest, *RequestError) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req interfaces.LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return interfaces.LinkRequest{}, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid request body: %w", err)}
	}
	return req, nil
}

// HandleTestConnection reports per-subsystem reachability.
//
// URL format: GET /api/v1/connectivity
//
// Always responds 200; unreachable subsystems are reported in the body.
func (h *Handler) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	report := h.orchestrator.TestConnection(r.Context())
	writeJSON(w, h.log, http.StatusOK, report)
}

// statusForOutcome maps a terminal outcome onto an HTTP status code.
func statusForOutcome(outcome interfaces.ProvisioningOutcome) int {
	switch outcome.Status {
	case interfaces.StatusSuccess:
		return http.StatusOK
	case interfaces.StatusPartial:
		return http.StatusMultiStatus
	}

	err := outcome.Err
	var (
		missingErr  *interfaces.MissingFieldError
		authErr     *interfaces.AuthenticationError
		notFoundErr *interfaces.AppNotFoundError
		lookupErr   *interfaces.LookupError
		statusErr   *interfaces.UnexpectedStatusError
	)
	switch {
	case errors.As(err, &missingErr), errors.Is(err, interfaces.ErrInvalidLinkConfiguration):
		return http.StatusBadRequest
	case errors.As(err, &authErr), errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, interfaces.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrLinkServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, interfaces.ErrEndpointMisconfigured),
		errors.Is(err, interfaces.ErrRemoteServerError),
		errors.As(err, &lookupErr),
		errors.As(err, &statusErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "err", err)
	}
}
