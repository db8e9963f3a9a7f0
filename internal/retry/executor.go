package retry

import (
	"context"
	"time"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Executor orchestrates retry attempts with backoff and error classification.
// Safe for concurrent use; WithOnRetry returns a copy instead of mutating.
type Executor struct {
	classifier pgingest.ErrorClassifier
	strategy   pgingest.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor with the given configuration.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier pgingest.ErrorClassifier, strategy pgingest.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// NewConnectExecutor returns the executor used for establishing database
// connections: PostgreSQL classification, the default backoff and a log line
// per retry. Ingestion jobs themselves are never retried.
func NewConnectExecutor(logger pgingest.Logger) *Executor {
	strategy := NewExponentialBackoff(pgingest.DefaultRetryMaxAttempts,
		WithInitialDelay(pgingest.DefaultRetryInitialDelay),
		WithMaxDelay(pgingest.DefaultRetryMaxDelay),
	)
	e := NewExecutor(NewPostgreSQLErrorClassifier(), strategy)
	if logger == nil {
		return e
	}
	return e.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("Connection attempt %d failed (%v), retrying in %v", attempt+1, err, delay.Round(time.Millisecond))
	})
}

// WithOnRetry returns a new Executor with the specified retry callback.
// The receiver is left unchanged.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs the operation, retrying transient failures until the
// strategy's attempt budget is spent. Returns the last error.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
