package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		rid := NewRecordID()
		require.NotEmpty(t, rid)
		require.False(t, seen[rid], "duplicate id %s", rid)
		seen[rid] = true
	}
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "INV-2025-001", FormatDocumentNumber("inv", 2025, 1))
	assert.Equal(t, "QUO-2025-042", FormatDocumentNumber("QUO", 2025, 42))
}

func TestParseDocumentNumber(t *testing.T) {
	prefix, year, seq, err := ParseDocumentNumber("INV-2025-007")
	require.NoError(t, err)
	assert.Equal(t, "INV", prefix)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 7, seq)
}

func TestParseDocumentNumber_Invalid(t *testing.T) {
	cases := []string{"", "INV", "INV-2025", "-2025-001", "INV-abcd-001", "INV-2025-xyz"}
	for _, c := range cases {
		_, _, _, err := ParseDocumentNumber(c)
		assert.Error(t, err, "input %q", c)
	}
}

func TestNextDocumentNumber(t *testing.T) {
	existing := []string{"INV-2025-001", "INV-2025-003", "INV-2024-009", "QUO-2025-010", "garbage"}
	assert.Equal(t, "INV-2025-004", NextDocumentNumber(existing, "INV", 2025))
	assert.Equal(t, "INV-2026-001", NextDocumentNumber(existing, "INV", 2026))
	assert.Equal(t, "SUB-2025-001", NextDocumentNumber(nil, "SUB", 2025))
}
