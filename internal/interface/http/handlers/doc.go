// Package handlers contains HTTP building blocks shared by the college API:
// health checks and middleware.
//
// # Health Checks
//
// Checks run in parallel. The document store is required; the subject cache
// is optional and only degrades the status when it fails:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("mongo", handlers.NewPingCheck(conn))
//	checker.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
//
// # Authentication
//
// Mutation endpoints accept an API key in X-API-Key or as a Bearer token.
// Only bcrypt hashes of the keys are configured:
//
//	hash, _ := handlers.HashKey("secret")
//	auth := handlers.NewAPIKeyAuth("X-API-Key", []string{hash})
//	router.With(auth.Middleware).Post("/students", addStudent)
package handlers
