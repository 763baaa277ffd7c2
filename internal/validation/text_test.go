package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsagePercentage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		max  int
		want int
	}{
		{"Empty", "", 100, 0},
		{"At Max", strings.Repeat("a", 100), 100, 100},
		{"Over Max", strings.Repeat("a", 150), 100, 100},
		{"Half", strings.Repeat("a", 50), 100, 50},
		{"Proportional", "abc", 10, 30},
		{"Multibyte Counts Runes", "ñandú", 10, 50},
		{"Zero Max", "abc", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UsagePercentage(tt.text, tt.max))
		})
	}
}

func TestIsNearLimit(t *testing.T) {
	t.Parallel()
	assert.True(t, IsNearLimit(strings.Repeat("a", 80), 100))
	assert.True(t, IsNearLimit(strings.Repeat("a", 100), 100))
	assert.False(t, IsNearLimit(strings.Repeat("a", 79), 100))
	assert.False(t, IsNearLimit("", 100))
	assert.False(t, IsNearLimit("abc", 0))
}

func TestCountNonBlankLines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, CountNonBlankLines(""))
	assert.Equal(t, 1, CountNonBlankLines("one"))
	assert.Equal(t, 2, CountNonBlankLines("one\n\n   \n\ttwo\n"))
	assert.Equal(t, 0, CountNonBlankLines("\n \n\t\n"))
	assert.Equal(t, []string{"2 eggs", "flour"}, NonBlankLines(" 2 eggs \n\n flour"))
}
