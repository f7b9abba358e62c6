/*
Package httpserver implements the HTTP surface of the ODAG provisioning
backend.

It exposes the provisioning orchestrator over a small JSON API: one endpoint
that provisions an on-demand app generation link end to end, and one that
reports per-subsystem connectivity. The server also carries the operational
endpoints every deployment needs (health, drain, metrics via a companion
listener, optional pprof).

# API Endpoints

  - POST /api/v1/odaglinks - Provision a link and register its navigation object
  - GET /api/v1/connectivity - Probe the resource API, link service and engine
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

# Status Codes

Provisioning outcomes map onto HTTP statuses by failure type. Full success is
200 and partial success (link created, navigation registration failed) is 207
with the remediation steps in the body. Validation failures are 400,
authentication and authorization failures 401 and 403, unknown applications
404, an unreachable link service 503, and upstream misbehavior 502. The
response body is always the JSON-encoded outcome, so callers can distinguish
cases the status code alone does not.

# Example Usage

	handler := httpserver.NewHandler(orchestrator, logger)

	server, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               ":8080",
		MetricsAddr:              ":9090",
		Log:                      logger,
		DrainDuration:            30 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              5 * time.Second,
		WriteTimeout:             60 * time.Second,
	}, handler)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	server.RunInBackground()
	defer server.Shutdown()
*/
package httpserver
