// Package db is the storage collaborator of the API.
//
// A Store wraps a long-lived *bun.DB for one of the supported engines
// (MySQL in production, PostgreSQL, SQLite for tests and local runs) and
// exposes the three startup hooks the process needs before it can serve:
//
//   - TestConnection probes reachability and credentials.
//   - SyncAllModels creates missing tables; with force it drops them first.
//   - CreateInitialData inserts the baseline categories that are missing.
//
// The remaining methods are the small set of queries the route groups use.
//
// Testing notes
//   - Prefer `Open(ctx, "sqlite", "file:test_<name>?mode=memory&cache=shared", PoolOptions{})`
//     in tests that need real SQL semantics.
package db
