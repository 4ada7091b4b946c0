package gacha

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfiguration is returned before any trial runs when a run parameter is unusable.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrMalformedTable is returned for empty, unsorted or non-monotonic probability tables.
	ErrMalformedTable = errors.New("malformed probability table")
)

// weightTolerance is how far the weight total may drift from 100.
const weightTolerance = 0.01

func validatePositive(name string, v int) error {
	if v < 1 {
		return fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidConfiguration, name, v)
	}
	return nil
}

func validateWeight(w float64) bool {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return false
	}
	return w > 0 && w <= 100
}

// Validate reports ErrMalformedTable when the table breaks the sorted/cumulative layout.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: table is empty", ErrMalformedTable)
	}
	sum := 0.0
	for i, e := range t {
		if e.Grade == "" {
			return fmt.Errorf("%w: entry %d has no grade", ErrMalformedTable, i)
		}
		if !validateWeight(e.Weight) {
			return fmt.Errorf("%w: entry %d weight %v out of (0,100]", ErrMalformedTable, i, e.Weight)
		}
		if i > 0 && e.Weight > t[i-1].Weight {
			return fmt.Errorf("%w: entry %d not sorted by descending weight", ErrMalformedTable, i)
		}
		if i > 0 && e.Cumulative < t[i-1].Cumulative {
			return fmt.Errorf("%w: cumulative decreases at entry %d", ErrMalformedTable, i)
		}
		sum += e.Weight
		if math.Abs(e.Cumulative-sum) > weightTolerance {
			return fmt.Errorf("%w: entry %d cumulative %v, want %v", ErrMalformedTable, i, e.Cumulative, sum)
		}
	}
	if math.Abs(sum-100) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 100", ErrMalformedTable, sum)
	}
	return nil
}
