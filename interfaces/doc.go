// Package interfaces defines the core types and contracts for the ODAG link
// provisioning system, separating component contracts from implementations.
//
// The provisioning flow couples two independent remote subsystems: the
// platform's REST resource API (application lookup, link-resource creation)
// and its engine protocol (a correlated JSON-RPC exchange over a persistent
// WebSocket that attaches the navigation object and persists the app). The
// contracts here let the orchestrator sequence both without depending on
// either implementation.
//
// # Component Contracts
//
// ResourceAPI: the REST surface used during provisioning. It covers
// application validation, link-resource creation, and the read-only probes
// used by identity establishment and diagnostics.
//
// NavigationRegistrar: drives one engine session that opens the selection
// application, creates the link-navigation object, and saves the app.
//
// # Core Types
//
//   - AppID / LinkID: opaque remote identifiers
//   - LinkRequest: the validated caller input for one provisioning run
//   - AppValidationResult: per-application lookup outcome
//   - LinkResource: the durably created remote link
//   - ProvisioningOutcome: the terminal result, including the
//     partial-success shape produced when the navigation leg fails after
//     the link resource has already been committed remotely
//   - PlatformConfig: resolved connection settings for the remote platform
//
// # Error Types
//
// The full error taxonomy of the system lives in this package so every
// component reports failures callers can discriminate with errors.Is and
// errors.As. See errors.go.
package interfaces
