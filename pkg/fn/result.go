// Package fn provides the small functional toolkit the pipeline is built
// from: a Result type, composable context-aware stages, retry with
// backoff, and bounded parallel mapping.
package fn

// Result[T] carries either a value or an error through a pipeline stage.
type Result[T any] struct {
	val T
	err error
	ok  bool
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] { return Result[T]{val: v, ok: true} }

// Err creates a failed Result.
func Err[T any](err error) Result[T] { return Result[T]{err: err} }

// IsOk reports success.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports failure.
func (r Result[T]) IsErr() bool { return !r.ok }

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// UnwrapOr returns the value, or fallback on error.
func (r Result[T]) UnwrapOr(fallback T) T {
	if !r.ok {
		return fallback
	}
	return r.val
}

// FromPair lifts a conventional (value, error) return into a Result.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// Collect returns all values if every result is ok, or the first error.
func Collect[T any](results []Result[T]) Result[[]T] {
	out := make([]T, len(results))
	for i, r := range results {
		if !r.ok {
			return Err[[]T](r.err)
		}
		out[i] = r.val
	}
	return Ok(out)
}

// Errors returns every error contained in results, in order.
func Errors[T any](results []Result[T]) []error {
	var errs []error
	for _, r := range results {
		if !r.ok {
			errs = append(errs, r.err)
		}
	}
	return errs
}
