package records

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	ErrInvalidInput           = errors.New("invalid record")
	ErrBackendUnavailable     = errors.New("records backend unavailable")
	ErrBackendOperationFailed = errors.New("records backend operation failed")
)

// Record is one leaderboard entry. Time is the completion time in seconds.
type Record struct {
	ID   int64   `json:"id" db:"id"`
	Name string  `json:"name" db:"name"`
	Time float64 `json:"time" db:"time"`
}

func validate(name string, t float64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrInvalidInput)
	}
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return fmt.Errorf("%w: time must be a positive number, got %v", ErrInvalidInput, t)
	}
	return nil
}

// sortByTime orders records by time, keeping insertion order on ties.
func sortByTime(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return cmp.Compare(a.Time, b.Time)
	})
}

// Qualifies reports whether t would make it into the best top times of an
// already sorted list.
func Qualifies(sorted []Record, t float64, top int) bool {
	if top <= 0 {
		return false
	}
	if len(sorted) < top {
		return true
	}
	return t < sorted[top-1].Time
}
