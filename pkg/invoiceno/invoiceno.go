// Package invoiceno issues date-scoped invoice numbers of the form
// YYYYMMDD-NNN. The sequence restarts at 001 on every calendar day.
package invoiceno

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	// DateLayout is the time layout of the date prefix.
	DateLayout = "20060102"
	// Length is the exact length of a formatted invoice number.
	Length = 12
	// MaxSequence is the largest sequence a three digit suffix can hold.
	MaxSequence = 999
)

var (
	// ErrSequenceExhausted is returned once a day has used every suffix.
	ErrSequenceExhausted = errors.New("invoiceno: daily sequence exhausted")
	// ErrMalformed is returned by Parse for anything that is not YYYYMMDD-NNN.
	ErrMalformed = errors.New("invoiceno: malformed invoice number")
)

// CounterStore atomically increments the counter for a date key and returns
// the new value. The first increment of a key returns 1. Implementations
// must be safe for concurrent use.
type CounterStore interface {
	Increment(ctx context.Context, dateKey string) (int64, error)
}

// Allocator hands out invoice numbers in the restaurant's local time zone.
type Allocator struct {
	store    CounterStore
	location *time.Location
}

// NewAllocator creates an allocator. A nil location means UTC.
func NewAllocator(store CounterStore, location *time.Location) *Allocator {
	if location == nil {
		location = time.UTC
	}
	return &Allocator{store: store, location: location}
}

// Next allocates the next number for the calendar day containing today.
// If the store fails, no number is returned.
func (a *Allocator) Next(ctx context.Context, today time.Time) (string, error) {
	dateKey := today.In(a.location).Format(DateLayout)

	seq, err := a.store.Increment(ctx, dateKey)
	if err != nil {
		return "", fmt.Errorf("invoiceno: increment counter %s: %w", dateKey, err)
	}
	if seq < 1 {
		return "", fmt.Errorf("invoiceno: counter %s returned invalid sequence %d", dateKey, seq)
	}
	if seq > MaxSequence {
		return "", ErrSequenceExhausted
	}
	return Format(dateKey, int(seq)), nil
}

// Location returns the time zone used for the date prefix.
func (a *Allocator) Location() *time.Location {
	return a.location
}

// Format joins a YYYYMMDD key and a sequence.
func Format(dateKey string, seq int) string {
	return fmt.Sprintf("%s-%03d", dateKey, seq)
}

// Parse splits an invoice number into its date key and sequence.
func Parse(number string) (dateKey string, seq int, err error) {
	if len(number) != Length || number[8] != '-' {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, number)
	}
	dateKey = number[:8]
	if _, err := time.Parse(DateLayout, dateKey); err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, number)
	}
	for _, c := range number[9:] {
		if c < '0' || c > '9' {
			return "", 0, fmt.Errorf("%w: %q", ErrMalformed, number)
		}
	}
	seq, _ = strconv.Atoi(number[9:])
	if seq < 1 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, number)
	}
	return dateKey, seq, nil
}
