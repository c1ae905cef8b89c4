package sources

import "context"

// race issues the same logical query against every mirror concurrently and
// returns the first result that both completed and validated. Losing
// branches are not cancelled; they run to completion against their own
// timeouts and their results are discarded. When every mirror fails or
// fails validation, ok is false and the caller substitutes an explicit
// empty result, never a nil.
func race[T any](ctx context.Context, mirrors []string, fetch func(ctx context.Context, mirror string) (T, error), valid func(T) bool) (T, bool) {
	var zero T
	if len(mirrors) == 0 {
		return zero, false
	}

	type settled struct {
		val T
		ok  bool
	}
	results := make(chan settled, len(mirrors))

	for _, m := range mirrors {
		go func(mirror string) {
			val, err := fetch(ctx, mirror)
			if err != nil || !valid(val) {
				results <- settled{}
				return
			}
			results <- settled{val: val, ok: true}
		}(m)
	}

	for range mirrors {
		select {
		case r := <-results:
			if r.ok {
				return r.val, true
			}
		case <-ctx.Done():
			return zero, false
		}
	}
	return zero, false
}
