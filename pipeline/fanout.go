package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// ConsumerResult records the outcome of one notification consumer.
type ConsumerResult struct {
	Consumer string
	Duration time.Duration
	Err      error
}

// FanOutResult aggregates the outcomes of one notification fan-out. It is
// the terminal result of a notification chain, so post-processing middleware
// can observe it via FanOutFrom.
type FanOutResult struct {
	Results []ConsumerResult
}

// Succeeded returns how many consumers completed without error.
func (r *FanOutResult) Succeeded() int {
	count := 0
	for _, res := range r.Results {
		if res.Err == nil {
			count++
		}
	}
	return count
}

// Failed returns how many consumers returned an error or panicked.
func (r *FanOutResult) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Failures returns the results of the consumers that failed.
func (r *FanOutResult) Failures() []ConsumerResult {
	var failed []ConsumerResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err folds all consumer failures into a single error, or nil if every
// consumer succeeded. Publishing never fails because consumers failed;
// callers wanting fail-fast semantics opt in by checking Err.
func (r *FanOutResult) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}

	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Consumer, f.Err))
	}
	return fmt.Errorf("%d of %d consumers failed: %w", len(failures), len(r.Results), errors.Join(errs...))
}

// FanOutFrom extracts the fan-out result from a chain result. It returns
// false when the chain was short-circuited before the fan-out ran.
func FanOutFrom(result any) (*FanOutResult, bool) {
	r, ok := result.(*FanOutResult)
	return r, ok
}
