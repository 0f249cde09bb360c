package posting

import (
	"context"
)

// Outcome summarizes a bulk posting run.
type Outcome string

const (
	OutcomeNone           Outcome = "none"
	OutcomeAllSucceeded   Outcome = "all_succeeded"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeAllFailed      Outcome = "all_failed"
)

// ItemResult is the outcome of posting one transaction in a batch.
type ItemResult struct {
	ID          string
	Success     bool
	EntryNumber string
	Err         error
}

// BulkResult holds one ItemResult per requested id, in request order.
type BulkResult struct {
	Results   []ItemResult
	Succeeded int
	Failed    int
}

// Outcome classifies the run.
func (r BulkResult) Outcome() Outcome {
	switch {
	case r.Succeeded == 0 && r.Failed == 0:
		return OutcomeNone
	case r.Failed == 0:
		return OutcomeAllSucceeded
	case r.Succeeded == 0:
		return OutcomeAllFailed
	default:
		return OutcomePartialSuccess
	}
}

// BulkPost posts each id in turn, strictly sequentially, and keeps going
// past failures. Each posting is its own unit of work, so a failed item
// leaves the earlier successes committed.
func (e *Engine) BulkPost(ctx context.Context, ids []string) BulkResult {
	result := BulkResult{Results: make([]ItemResult, 0, len(ids))}

	for _, id := range ids {
		item := ItemResult{ID: id}

		posted, err := e.Post(ctx, id)
		if err != nil {
			item.Err = err
			result.Failed++
		} else {
			item.Success = true
			item.EntryNumber = posted.Entry.EntryNumber
			result.Succeeded++
		}

		result.Results = append(result.Results, item)
	}

	e.log.Info("bulk posting finished",
		"requested", len(ids),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"outcome", string(result.Outcome()),
	)

	return result
}
