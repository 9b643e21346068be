package navigation

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/dftlog/internal/domain"
)

// MaxBufferDigits caps the staging buffer of the numeric pad.
const MaxBufferDigits = 4

// Entry is the transient reading buffer for the point being measured. It is
// owned by the Machine and reset whenever the active point changes.
type Entry struct {
	pointID string
	buffer  string
	values  []int
	memo    string
}

func (e *Entry) reset(pointID string) {
	e.pointID = pointID
	e.buffer = ""
	e.values = nil
	e.memo = ""
}

// PointID is the point the buffer belongs to, empty when no point is active.
func (e *Entry) PointID() string { return e.pointID }

// Digit appends one digit to the staging buffer. It returns false when the
// rune is not a digit or the buffer is full.
func (e *Entry) Digit(r rune) bool {
	if r < '0' || r > '9' || len(e.buffer) >= MaxBufferDigits {
		return false
	}
	e.buffer += string(r)
	return true
}

// Backspace drops the last buffered digit.
func (e *Entry) Backspace() {
	if e.buffer != "" {
		e.buffer = e.buffer[:len(e.buffer)-1]
	}
}

// ClearBuffer empties the staging buffer without touching the readings.
func (e *Entry) ClearBuffer() { e.buffer = "" }

// Buffer returns the digits typed so far.
func (e *Entry) Buffer() string { return e.buffer }

// Confirm parses the buffer into a reading. Nothing happens when the buffer
// is empty, the value is not positive, or the reading list is full; in those
// cases the buffer is left as typed.
func (e *Entry) Confirm() bool {
	if e.buffer == "" || len(e.values) >= domain.MaxValues {
		return false
	}
	v, err := strconv.Atoi(e.buffer)
	if err != nil || v <= 0 {
		return false
	}
	e.values = append(e.values, v)
	e.buffer = ""
	return true
}

// Add appends a reading directly, for non-interactive callers.
func (e *Entry) Add(v int) error {
	if v <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrNonPositiveValue, v)
	}
	if len(e.values) >= domain.MaxValues {
		return fmt.Errorf("%w: at most %d allowed", domain.ErrTooManyValues, domain.MaxValues)
	}
	e.values = append(e.values, v)
	return nil
}

// DeleteValue removes the reading at index i.
func (e *Entry) DeleteValue(i int) error {
	if i < 0 || i >= len(e.values) {
		return fmt.Errorf("reading %d: %w", i+1, ErrNoSuchValue)
	}
	e.values = append(e.values[:i:i], e.values[i+1:]...)
	return nil
}

// Values returns a copy of the confirmed readings.
func (e *Entry) Values() []int {
	out := make([]int, len(e.values))
	copy(out, e.values)
	return out
}

// Count is the number of confirmed readings.
func (e *Entry) Count() int { return len(e.values) }

// Full reports whether no more readings can be added.
func (e *Entry) Full() bool { return len(e.values) >= domain.MaxValues }

// CanRegister reports whether enough readings exist to register.
func (e *Entry) CanRegister() bool { return len(e.values) >= domain.MinValues }

// Remaining is how many more readings are needed before registering.
func (e *Entry) Remaining() int {
	if n := domain.MinValues - len(e.values); n > 0 {
		return n
	}
	return 0
}

// InProgress reports readings that would be lost by leaving the point:
// at least one, but fewer than the minimum.
func (e *Entry) InProgress() bool {
	return len(e.values) > 0 && len(e.values) < domain.MinValues
}

// Average is the live mean of the confirmed readings.
func (e *Entry) Average() float64 { return domain.Mean(e.values) }

// SetMemo attaches free text to the next registered record.
func (e *Entry) SetMemo(memo string) { e.memo = memo }

// Memo returns the pending memo.
func (e *Entry) Memo() string { return e.memo }
