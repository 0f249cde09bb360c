package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxEntrySequence is the highest per-day sequence that fits the 3-digit suffix.
const MaxEntrySequence = 999

// EntryPrefix returns "JE" followed by the day as YYYYMMDD.
func EntryPrefix(day time.Time) string {
	return "JE" + day.Format("20060102")
}

// FormatEntryNumber builds an entry number such as JE20250115007.
func FormatEntryNumber(day time.Time, seq int) (string, error) {
	if seq < 1 || seq > MaxEntrySequence {
		return "", fmt.Errorf("%w: sequence %d", ErrEntrySequenceExhausted, seq)
	}
	return fmt.Sprintf("%s%03d", EntryPrefix(day), seq), nil
}

// ParseEntrySequence extracts the numeric suffix of an entry number with the given prefix.
func ParseEntrySequence(number, prefix string) (int, error) {
	if !strings.HasPrefix(number, prefix) {
		return 0, fmt.Errorf("entry number %q does not start with %q", number, prefix)
	}
	seq, err := strconv.Atoi(number[len(prefix):])
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("entry number %q has no numeric sequence", number)
	}
	return seq, nil
}
