package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NewRecordID returns a fresh globally-unique record id.
func NewRecordID() string {
	return uuid.NewString()
}

// FormatDocumentNumber returns a human-facing document number like
// "INV-2025-001".
func FormatDocumentNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%03d", strings.ToUpper(prefix), year, seq)
}

// ParseDocumentNumber parses "INV-2025-001" into prefix, year, seq.
func ParseDocumentNumber(number string) (prefix string, year, seq int, err error) {
	parts := strings.SplitN(number, "-", 3)
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("invalid document number format: %q", number)
	}

	prefix = parts[0]
	if prefix == "" {
		return "", 0, 0, fmt.Errorf("empty prefix in document number %q", number)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid year in document number %q: %w", number, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid sequence in document number %q: %w", number, err)
	}

	return prefix, year, seq, nil
}

// NextDocumentNumber returns the next number in sequence for a prefix and
// year, given the numbers already issued. Numbers with other prefixes or
// years are ignored.
func NextDocumentNumber(existing []string, prefix string, year int) string {
	maxSeq := 0
	for _, number := range existing {
		p, y, seq, err := ParseDocumentNumber(number)
		if err != nil {
			continue
		}
		if !strings.EqualFold(p, prefix) || y != year {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return FormatDocumentNumber(prefix, year, maxSeq+1)
}
