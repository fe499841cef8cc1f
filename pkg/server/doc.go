// Package server exposes the governance engine over HTTP for
// administrative tooling and dashboards.
//
// # Routes
//
//   - POST /api/v1/actions - submit an action to the governance pipeline
//   - GET /api/v1/approvals - list pending approval requests
//   - POST /api/v1/approvals/{id}/decision - approve or reject a request
//   - GET /api/v1/escalations - list pending escalations with statistics
//   - POST /api/v1/escalations/{id}/resolve - mark an escalation resolved
//   - GET /api/v1/audit/statistics - aggregate audit trail statistics
//   - GET /api/v1/dashboard - combined oversight view
//   - GET /api/v1/config - current runtime configuration
//   - PUT /api/v1/config - replace runtime configuration
//   - GET /health - liveness probe
//   - GET /ready - readiness probe
//   - GET /metrics - Prometheus exposition (when enabled)
//
// # Basic Usage
//
//	srv, err := server.New(server.Config{ListenAddress: ":8080"}, engine, checker, promHandler, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled, then shuts down
// gracefully. Shutdown may also be called directly and is safe to call
// more than once.
package server
