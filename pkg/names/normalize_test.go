package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "LeBron James", "lebron james"},
		{"diacritics", "Luka Dončić", "luka doncic"},
		{"nikola", "Nikola Jokić", "nikola jokic"},
		{"junior suffix", "Jaren Jackson Jr.", "jaren jackson"},
		{"roman suffix", "Gary Payton II", "gary payton"},
		{"initials", "T.J. McConnell", "tj mcconnell"},
		{"apostrophe", "De'Aaron Fox", "deaaron fox"},
		{"hyphen", "Shai Gilgeous-Alexander", "shai gilgeous alexander"},
		{"extra whitespace", "  Stephen   Curry ", "stephen curry"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Luka Doncic", "Luka Dončić"))
	assert.True(t, Equal("Kelly Oubre Jr.", "kelly oubre"))
	assert.False(t, Equal("Jalen Green", "Jalen Williams"))
}
