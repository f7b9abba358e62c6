// Package provisioner coordinates ODAG link provisioning against the remote
// analytics platform.
//
// A provisioning run couples two independent remote systems: the REST link
// service, which owns the link resource, and the engine, which owns the
// selection application's navigation state. The orchestrator sequences the
// calls so that the mutating creation call is never issued against
// unresolved applications, and so that a navigation failure after creation
// is reported as a partial success rather than swallowed.
//
// # Request Lifecycle
//
// For each request the orchestrator:
//
//  1. Validates the input record locally; a missing required field fails
//     the run before any remote call.
//  2. Establishes identity against the resource API. A prior successful
//     authentication is reused for the instance's lifetime.
//  3. Resolves both application identifiers, selection first. Either
//     missing application aborts the run before anything is mutated.
//  4. Creates the link resource. A failure here is total: nothing has been
//     written to the selection application.
//  5. Registers the navigation object through an engine session. A failure
//     here yields a partial success carrying the created link id, both
//     resolved application names, the navigation error, and the manual
//     remediation steps.
//
// The partial-success contract is the load-bearing piece: once the link
// service has committed the resource, the caller must learn its id even
// when the second leg fails, because the resource is owned by the remote
// system and will not be rolled back.
//
// # Diagnostics
//
// TestConnection exercises authentication and probes each remote subsystem,
// returning a per-subsystem reachability report. It never returns an error;
// unreachable subsystems are reported inside the result.
package provisioner
