package curve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmpty indicates that a curve string contained no entries.
	ErrEmpty = errors.New("curve contains no entries")
	// ErrInvalidFormat indicates an entry that does not match "temperature:speed".
	ErrInvalidFormat = errors.New("invalid curve entry format")
	// ErrNonMonotonic indicates that a threshold is not strictly greater than its predecessor.
	ErrNonMonotonic = errors.New("curve thresholds must be strictly increasing")
	// ErrSpeedOutOfRange indicates a speed value outside of [0, 100].
	ErrSpeedOutOfRange = errors.New("curve speed out of range [0, 100]")
)

// Entry is a single breakpoint of a fan curve: at and above Threshold (°C)
// the fan should run at Speed (percent).
type Entry struct {
	Threshold int
	Speed     int
}

// Table is an ordered, validated fan curve. Immutable once constructed.
type Table struct {
	entries []Entry
}

// Parse parses a comma separated list of "temperature:speed" entries,
// e.g. "40:30,50:40,60:55,70:70,80:85,85:100".
func Parse(spec string) (Table, error) {
	if len(strings.TrimSpace(spec)) == 0 {
		return Table{}, ErrEmpty
	}

	tokens := strings.Split(spec, ",")
	entries := make([]Entry, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		parts := strings.Split(token, ":")
		if len(parts) != 2 {
			return Table{}, fmt.Errorf("%w: '%s'", ErrInvalidFormat, token)
		}
		threshold, err := strconv.Atoi(parts[0])
		if err != nil {
			return Table{}, fmt.Errorf("%w: '%s'", ErrInvalidFormat, token)
		}
		speed, err := strconv.Atoi(parts[1])
		if err != nil {
			return Table{}, fmt.Errorf("%w: '%s'", ErrInvalidFormat, token)
		}
		if speed < 0 || speed > 100 {
			return Table{}, fmt.Errorf("%w: '%s'", ErrSpeedOutOfRange, token)
		}
		if len(entries) > 0 && threshold <= entries[len(entries)-1].Threshold {
			return Table{}, fmt.Errorf("%w: '%s'", ErrNonMonotonic, token)
		}
		entries = append(entries, Entry{Threshold: threshold, Speed: speed})
	}

	if len(entries) == 0 {
		return Table{}, ErrEmpty
	}

	return Table{entries: entries}, nil
}

// SelectSpeed returns the speed of the entry with the greatest threshold that
// is <= temperature. Below the first threshold the first entry's speed is
// returned, so the fan is never left unmanaged.
func (t Table) SelectSpeed(temperature int) int {
	selected := t.entries[0].Speed
	for _, entry := range t.entries {
		if temperature >= entry.Threshold {
			selected = entry.Speed
		} else {
			break
		}
	}
	return selected
}

// Entries returns a copy of the curve breakpoints in ascending threshold order.
func (t Table) Entries() []Entry {
	result := make([]Entry, len(t.entries))
	copy(result, t.entries)
	return result
}

func (t Table) String() string {
	tokens := make([]string, 0, len(t.entries))
	for _, entry := range t.entries {
		tokens = append(tokens, fmt.Sprintf("%d:%d", entry.Threshold, entry.Speed))
	}
	return strings.Join(tokens, ",")
}
