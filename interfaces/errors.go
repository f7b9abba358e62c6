package interfaces

import (
	"errors"
	"fmt"
)

// Link-creation failures, keyed by the HTTP status the link service
// returned. All are terminal for the request; none is retried here.
var (
	// ErrInvalidLinkConfiguration is returned for HTTP 400: the link
	// service rejected the canonical link payload.
	ErrInvalidLinkConfiguration = errors.New("link service rejected the link configuration")

	// ErrUnauthorized is returned for HTTP 401: the platform did not
	// accept the presented credentials.
	ErrUnauthorized = errors.New("credentials were not accepted")

	// ErrForbidden is returned for HTTP 403: the impersonated principal
	// lacks access to the link service.
	ErrForbidden = errors.New("principal lacks access to the link service")

	// ErrLinkServiceUnavailable is returned for HTTP 404: the remote ODAG
	// subsystem itself is not running or not exposed at the expected path.
	ErrLinkServiceUnavailable = errors.New("link service unavailable")

	// ErrEndpointMisconfigured is returned for HTTP 405: the creation
	// endpoint exists but does not accept the creation method, which
	// indicates a proxy or routing misconfiguration.
	ErrEndpointMisconfigured = errors.New("link service endpoint misconfigured")

	// ErrRemoteServerError is returned for HTTP 500.
	ErrRemoteServerError = errors.New("link service internal error")
)

// Engine protocol failures. These downgrade an otherwise successful request
// to a partial success because the link resource already exists remotely.
var (
	// ErrConnectionTimeout is returned when the engine WebSocket handshake
	// does not complete within the configured interval.
	ErrConnectionTimeout = errors.New("engine connection timed out")

	// ErrProtocolDecode is returned when an inbound engine payload cannot
	// be parsed. The session is aborted and the socket closed.
	ErrProtocolDecode = errors.New("malformed engine payload")
)

// ConfigurationError reports that startup configuration material could not
// be loaded: certificate files missing, unreadable or malformed. It is
// fatal and non-retryable, surfaced at construction time rather than per
// request.
type ConfigurationError struct {
	// Path is the file or directory that failed to load.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error at %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// AuthenticationError reports that identity establishment against the
// platform failed. Fatal for the whole request.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports a required LinkRequest field that was absent.
// Raised before any remote call is issued.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// AppNotFoundError reports that one of the two referenced applications did
// not resolve. This is an expected outcome, reported and not retried.
type AppNotFoundError struct {
	Role AppRole
	ID   AppID
}

func (e *AppNotFoundError) Error() string {
	return fmt.Sprintf("%s application %q not found", e.Role, e.ID)
}

// LookupError reports a non-404 failure of an application metadata lookup,
// either an unexpected status or a transport failure.
type LookupError struct {
	ID         AppID
	StatusCode int // zero on transport failures
	Err        error
}

func (e *LookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("application lookup for %q failed with status %d: %v", e.ID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("application lookup for %q failed: %v", e.ID, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError reports a link-creation response status outside the
// mapped taxonomy.
type UnexpectedStatusError struct {
	Code int
	Body string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("link service returned unexpected status %d: %s", e.Code, e.Body)
}

// PrematureCloseError reports that the engine socket closed with a
// non-normal code before the session completed.
type PrematureCloseError struct {
	Code   int
	Reason string
}

func (e *PrematureCloseError) Error() string {
	return fmt.Sprintf("engine connection closed prematurely (code %d): %s", e.Code, e.Reason)
}

// EngineRemoteError carries an error frame signaled by the engine itself.
// The message text is preserved verbatim.
type EngineRemoteError struct {
	Code    int
	Message string
}

func (e *EngineRemoteError) Error() string {
	return e.Message
}
