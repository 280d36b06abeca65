package pairs

/* parallel.go contains the batch driver: per-batch output replicas, a
fork-join worker pool, and a deterministic left-fold reduction. */

import (
	"fmt"
	"sync"
)

// reduceBatches runs body over nb batches, each with a deep copy of out, and
// folds the batch outputs together in batch order. Faults in any batch are
// collected and the first is returned once every batch has drained.
func reduceBatches[T any](out T, o *Options[T], nb int, body func(b int, acc T) T) (T, error) {
	cp, red, err := o.replica()
	if err != nil {
		var zero T
		return zero, err
	}

	results := make([]T, nb)
	errs := make([]error, nb)
	wg := &sync.WaitGroup{}
	for b := 0; b < nb; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			errs[b] = runGuarded(b, nb, func() {
				results[b] = body(b, cp(out))
			})
		}(b)
	}
	wg.Wait()

	for b := 0; b < nb; b++ {
		if errs[b] != nil {
			var zero T
			return zero, errs[b]
		}
	}

	acc := results[0]
	for b := 1; b < nb; b++ {
		acc = red(acc, results[b])
	}
	return acc, nil
}

// replica resolves the copy and reduce functions, falling back to the
// defaults for the common accumulator types.
func (o *Options[T]) replica() (cp func(T) T, red func(a, b T) T, err error) {
	cp, red = o.Copy, o.Reduce
	if cp != nil && red != nil {
		return cp, red, nil
	}

	var zero T
	dcp, dred, _ := defaultReplica[T](zero)
	if cp == nil { cp = dcp }
	if red == nil { red = dred }
	if cp == nil || red == nil {
		return nil, nil, fmt.Errorf("%w: accumulator type %T has no default "+
			"copy/reduce, so parallel traversal needs both in Options.",
			ErrInvalidReducer, zero)
	}
	return cp, red, nil
}

// defaultReplica returns elementwise-sum copy and reduce functions for the
// accumulator types that support them.
func defaultReplica[T any](zero T) (cp func(T) T, red func(a, b T) T, ok bool) {
	switch any(zero).(type) {
	case float64:
		cp = func(x T) T { return x }
		red = func(a, b T) T {
			return any(any(a).(float64) + any(b).(float64)).(T)
		}
	case float32:
		cp = func(x T) T { return x }
		red = func(a, b T) T {
			return any(any(a).(float32) + any(b).(float32)).(T)
		}
	case int:
		cp = func(x T) T { return x }
		red = func(a, b T) T {
			return any(any(a).(int) + any(b).(int)).(T)
		}
	case []float64:
		cp = func(x T) T {
			xx := any(x).([]float64)
			c := make([]float64, len(xx))
			copy(c, xx)
			return any(c).(T)
		}
		red = func(a, b T) T {
			aa, bb := any(a).([]float64), any(b).([]float64)
			for i := range aa {
				aa[i] += bb[i]
			}
			return a
		}
	case [][3]float64:
		cp = func(x T) T {
			xx := any(x).([][3]float64)
			c := make([][3]float64, len(xx))
			copy(c, xx)
			return any(c).(T)
		}
		red = func(a, b T) T {
			aa, bb := any(a).([][3]float64), any(b).([][3]float64)
			for i := range aa {
				aa[i][0] += bb[i][0]
				aa[i][1] += bb[i][1]
				aa[i][2] += bb[i][2]
			}
			return a
		}
	case [][]float64:
		cp = func(x T) T {
			xx := any(x).([][]float64)
			c := make([][]float64, len(xx))
			for i := range xx {
				c[i] = make([]float64, len(xx[i]))
				copy(c[i], xx[i])
			}
			return any(c).(T)
		}
		red = func(a, b T) T {
			aa, bb := any(a).([][]float64), any(b).([][]float64)
			for i := range aa {
				for j := range aa[i] {
					aa[i][j] += bb[i][j]
				}
			}
			return a
		}
	default:
		return nil, nil, false
	}
	return cp, red, true
}
