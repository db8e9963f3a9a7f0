// Package retry provides retry with exponential backoff for transient
// database connection failures.
//
// It is used only while establishing connections. Load jobs are never
// retried: a failed job is recorded and the run moves on.
//
// # Example Usage
//
//	executor := retry.NewConnectExecutor(logger)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return connectToDatabase(ctx)
//	})
//
// # Error Classification
//
// PostgreSQLErrorClassifier treats SQLSTATE classes 08, 53 and 57, a few
// lock/serialization codes, and network-level failures as transient. It
// understands both pgx (*pgconn.PgError) and lib/pq (*pq.Error) errors.
package retry
