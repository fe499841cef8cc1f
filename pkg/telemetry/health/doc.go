// Package health provides liveness and readiness probes for the
// governance service, plus a version information endpoint.
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//
//	checker.RegisterCheck("audit_store", func(ctx context.Context) error {
//	    return auditStore.Ping(ctx)
//	})
//	checker.RegisterCheck("bias_store", func(ctx context.Context) error {
//	    return biasStore.Ping(ctx)
//	})
//
//	http.HandleFunc("/health", checker.LivenessHandler())
//	http.HandleFunc("/ready", checker.ReadinessHandler())
//	http.HandleFunc("/version", health.VersionHandler("1.0.0", "abc123", "2026-08-31"))
//
// The liveness probe only confirms the process is responding. The
// readiness probe runs every registered check concurrently, each
// bounded by the checker's timeout, and reports 503 when any component
// is unhealthy.
package health
