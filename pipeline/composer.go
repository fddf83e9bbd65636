package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/glimte/mediate-go/contracts"
)

// Sort returns a copy of middleware ordered by ascending Order, ties broken
// by input position. Input order is registration sequence, so the result is
// deterministic for any permutation of the same ordered set.
func Sort(middleware []Middleware) []Middleware {
	sorted := make([]Middleware, len(middleware))
	copy(sorted, middleware)
	sort.SliceStable(sorted, func(i, j int) bool {
		return OrderOf(sorted[i]) < OrderOf(sorted[j])
	})
	return sorted
}

// Compose builds the onion chain: the first middleware is outermost, running
// its pre-logic first and its post-logic last, with the terminal innermost.
// Conditional middleware is checked per dispatch right before it would run;
// a false predicate skips it as if absent. A predicate error aborts the
// dispatch, since middleware is trusted infrastructure.
func Compose(middleware []Middleware, terminal Handler) Handler {
	if len(middleware) == 0 {
		return terminal
	}

	handler := terminal
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := handler
		handler = HandlerFunc(func(ctx context.Context, msg contracts.Message) (any, error) {
			if c, ok := mw.(Conditional); ok {
				applies, err := c.Applies(ctx, msg)
				if err != nil {
					return nil, fmt.Errorf("middleware %s predicate failed: %w", mw.Name(), err)
				}
				if !applies {
					return next.Handle(ctx, msg)
				}
			}
			return mw.Intercept(ctx, msg, next)
		})
	}

	return handler
}
