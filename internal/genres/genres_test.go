package genres

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/mkorpi/alexandria/internal/catalog"
	"github.com/stretchr/testify/require"
)

func TestLoadBundledTable(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Uncategorized", table.Default().Name)
}

func TestCanonicalResolvesAliases(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	testCases := []struct {
		name     string
		input    catalog.Genre
		expected string
	}{
		{
			name:     "exact name",
			input:    catalog.Genre{Name: "Romance"},
			expected: "Romance",
		},
		{
			name:     "alias",
			input:    catalog.Genre{Name: "Novel of Manners"},
			expected: "Romance",
		},
		{
			name:     "case insensitive",
			input:    catalog.Genre{Name: "sci-fi"},
			expected: "Science Fiction",
		},
		{
			name:     "unknown passes through",
			input:    catalog.Genre{Name: "Basket Weaving"},
			expected: "Basket Weaving",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, table.Canonical(tc.input).Name)
		})
	}
}

func TestParseRejectsMissingDefault(t *testing.T) {
	_, err := parse([]byte("default: Nope\ngenres:\n  - id: \"1\"\n    name: Fiction\n"))
	assert.Error(t, err)
}
