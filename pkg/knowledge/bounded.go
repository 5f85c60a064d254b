package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-helpdesk-be/internal/pkg/logger"
)

const DefaultTimeout = 2 * time.Second

// BoundedRetriever caps the time spent in an inner retriever. Timeouts and inner failures
// degrade to "no records"; only the caller's own cancellation is returned as an error.
type BoundedRetriever struct {
	inner   Retriever
	timeout time.Duration
	logger  logger.ILogger
}

func NewBoundedRetriever(inner Retriever, timeout time.Duration, log logger.ILogger) *BoundedRetriever {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BoundedRetriever{inner: inner, timeout: timeout, logger: log}
}

func (b *BoundedRetriever) Search(ctx context.Context, query string) ([]Record, error) {
	searchCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type result struct {
		records []Record
		err     error
	}
	done := make(chan result, 1)
	go func() {
		records, err := b.inner.Search(searchCtx, query)
		done <- result{records: records, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-searchCtx.Done():
		res = result{err: searchCtx.Err()}
	}

	if res.err == nil {
		if res.records == nil {
			res.records = []Record{}
		}
		return res.records, nil
	}

	// The caller gave up: that is a cancellation, not an empty result.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	degraded := fmt.Errorf("%w: %v", ErrRetrievalUnavailable, res.err)
	if errors.Is(res.err, context.DeadlineExceeded) {
		degraded = fmt.Errorf("%w after %s", ErrRetrievalTimeout, b.timeout)
	}
	b.logger.Warn("Retrieval", "Retrieval degraded to empty context", map[string]interface{}{
		"error": degraded,
		"query": query,
	})
	return []Record{}, nil
}
