// Package manager checks for and creates the target database before an
// ingestion run when --create-database is given.
//
// Database names are quoted with pgx.Identifier.Sanitize(). Both operations
// run on a connection to the maintenance database, outside any transaction.
//
//	mgr := manager.New()
//	created, err := manager.EnsureDatabase(ctx, mgr, conn, "lake")
package manager
