package interfaces

import (
	"context"
	"strings"
)

// AppID is an opaque identifier of an application resource on the remote
// platform. The orchestrator never interprets it beyond emptiness checks.
type AppID string

// String returns the identifier as a string.
func (id AppID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty or whitespace-only.
func (id AppID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// LinkID is the server-issued identifier of a created ODAG link resource.
type LinkID string

// String returns the identifier as a string.
func (id LinkID) String() string {
	return string(id)
}

// AppRole names which of the two referenced applications an operation or
// error concerns.
type AppRole string

const (
	// RoleSelection is the application users interact with; it receives the
	// navigation object.
	RoleSelection AppRole = "selection"

	// RoleTemplate is the application cloned when generation is triggered.
	RoleTemplate AppRole = "template"
)

// NavigationLinkMethod is the engine operation used to attach a link
// navigation object to the selection application. Reported in successful
// outcomes so callers can tell how the navigation handle was registered.
const NavigationLinkMethod = "CreateObject"

// Row-estimation, retention and generated-name defaults applied when a
// LinkRequest leaves the corresponding override unset. The context pattern
// scopes a policy block to matching users on the remote platform.
const (
	DefaultPolicyContext    = "User_*"
	DefaultRowEstLowBound   = 1
	DefaultRowEstHighBound  = 500000
	DefaultRetentionMinutes = 10080 // 7 days
)

// LinkRequest is the validated input record for one provisioning run.
// The front end (or any other caller) produces it; the orchestrator
// validates it before any remote call is issued.
type LinkRequest struct {
	// LinkName is the display name of the ODAG link. Required.
	LinkName string `json:"linkName"`

	// SelectionAppID identifies the application that receives the
	// navigation object. Required.
	SelectionAppID AppID `json:"selectionAppId"`

	// TemplateAppID identifies the application cloned on generation.
	// Required.
	TemplateAppID AppID `json:"templateAppId"`

	// RowEstimationExpression is the platform expression bounding the
	// number of rows a generated app may select. Required.
	RowEstimationExpression string `json:"rowEstExpr"`

	// RowEstLowBound and RowEstHighBound override the inclusive row
	// estimation range. A zero bound takes its platform default, each
	// independently of the other.
	RowEstLowBound  int `json:"rowEstLowBound,omitempty"`
	RowEstHighBound int `json:"rowEstHighBound,omitempty"`

	// RetentionMinutes overrides how long generated applications are
	// retained. Zero means the default retention applies.
	RetentionMinutes int `json:"retentionMinutes,omitempty"`

	// GeneratedAppNameFormat overrides the naming template for generated
	// applications. Supports %u (requesting user) and %t (timestamp).
	GeneratedAppNameFormat string `json:"genAppNameFormat,omitempty"`

	// Description is attached to the link resource verbatim.
	Description string `json:"description,omitempty"`
}

// Validate checks the required fields and returns a *MissingFieldError
// naming the first absent one. It issues no remote calls.
func (r LinkRequest) Validate() error {
	if strings.TrimSpace(r.LinkName) == "" {
		return &MissingFieldError{Field: "linkName"}
	}
	if r.SelectionAppID.IsZero() {
		return &MissingFieldError{Field: "selectionAppId"}
	}
	if r.TemplateAppID.IsZero() {
		return &MissingFieldError{Field: "templateAppId"}
	}
	if strings.TrimSpace(r.RowEstimationExpression) == "" {
		return &MissingFieldError{Field: "rowEstExpr"}
	}
	return nil
}

// AppValidationResult is the outcome of a single application lookup.
// It is produced per application id, consumed immediately and not retained.
type AppValidationResult struct {
	// Valid reports whether the application exists on the platform.
	Valid bool `json:"valid"`

	// ID is the identifier that was looked up.
	ID AppID `json:"id"`

	// Name is the resolved application name. Only set when Valid.
	Name string `json:"name,omitempty"`

	// Published reports whether the application is published into a
	// stream. Only meaningful when Valid.
	Published bool `json:"published,omitempty"`

	// Reason explains why the lookup failed. Only set when not Valid.
	Reason string `json:"reason,omitempty"`
}

// LinkResource is the remote ODAG link created by the resource API. Once
// created it is owned by the remote system: this system never deletes it,
// including when the navigation leg subsequently fails.
type LinkResource struct {
	// ID is the server-issued link identifier.
	ID LinkID `json:"id"`

	// Name is the link's display name as accepted by the server.
	Name string `json:"name"`
}

// SubsystemStatus reports reachability of one remote subsystem. The
// diagnostic operation converts every internal error into this shape
// instead of propagating it.
type SubsystemStatus struct {
	Reachable bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// ConnectivityReport is the result of the diagnostic operation: per
// subsystem reachability after exercising authentication. It is always
// returned, never an error.
type ConnectivityReport struct {
	Authenticated bool            `json:"authenticated"`
	ResourceAPI   SubsystemStatus `json:"resourceApi"`
	LinkService   SubsystemStatus `json:"linkService"`
	Engine        SubsystemStatus `json:"engine"`
}

// ResourceAPI is the REST surface of the analytics platform consumed during
// provisioning.
type ResourceAPI interface {
	// ValidateApplication looks up application metadata by id. A remote
	// "not found" maps to an invalid result, not an error; any other
	// failure is returned as *LookupError.
	ValidateApplication(ctx context.Context, id AppID) (AppValidationResult, error)

	// CreateLink creates the ODAG link resource and returns it. Failures
	// are typed by HTTP status; no retries happen at this layer.
	CreateLink(ctx context.Context, req LinkRequest) (LinkResource, error)

	// About performs a read-only authenticated call against the resource
	// API. Used to establish identity and by diagnostics.
	About(ctx context.Context) error

	// ProbeLinkService performs a read-only reachability check of the
	// link service. Used by diagnostics only.
	ProbeLinkService(ctx context.Context) error
}

// NavigationRegistrar drives one engine protocol session that registers the
// navigation object for a created link inside the selection application and
// persists the application.
type NavigationRegistrar interface {
	// RegisterNavigation opens the selection application, creates the
	// link-navigation object referencing link, and saves the application.
	// Each call runs its own session with its own correlation-id space.
	RegisterNavigation(ctx context.Context, selectionApp AppID, link LinkResource) error

	// ProbeEngine opens and immediately closes an app-less engine session.
	// Used by diagnostics only.
	ProbeEngine(ctx context.Context) error
}
