package scorable

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds in-flight executions of ExecuteBatch.
const DefaultBatchConcurrency = 5

// BatchItem is one evaluation of a batch. Exactly one of EvaluatorID and
// EvaluatorName must be set.
type BatchItem struct {
	Key           string // caller's correlation key, copied to the result
	EvaluatorID   string
	EvaluatorName string
	Payload       ExecutionPayload
}

// BatchResult is the outcome of one BatchItem.
type BatchResult struct {
	Key    string
	Result *ExecutionResult
	Err    error
}

// ExecuteBatch runs every item through WithRetryAndRateLimit with at most
// concurrency executions in flight. Results are in input order. A failed
// item does not stop the others; cancel ctx to abandon the batch.
func (c *Client) ExecuteBatch(ctx context.Context, items []BatchItem, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	results := make([]BatchResult, len(items))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, item := range items {
		results[i].Key = item.Key
		g.Go(func() error {
			results[i].Result, results[i].Err = Call(ctx, c, func(ctx context.Context) (*ExecutionResult, error) {
				return c.executeItem(ctx, item)
			})
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) executeItem(ctx context.Context, item BatchItem) (*ExecutionResult, error) {
	switch {
	case item.EvaluatorID != "" && item.EvaluatorName != "":
		return nil, fmt.Errorf("%w: item %q sets both evaluator id and name", ErrInvalidParams, item.Key)
	case item.EvaluatorID != "":
		return c.Evaluators.Execute(ctx, item.EvaluatorID, item.Payload)
	case item.EvaluatorName != "":
		return c.Evaluators.ExecuteByName(ctx, item.EvaluatorName, item.Payload)
	}
	return nil, fmt.Errorf("%w: item %q has no evaluator", ErrInvalidParams, item.Key)
}
