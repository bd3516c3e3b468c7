package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClock(t *testing.T) {
	for _, raw := range []string{"09:30:00", "9:30", "09:30", " 09:30 "} {
		got, ok := NormalizeClock(raw)
		assert.True(t, ok, "input %q", raw)
		assert.Equal(t, "09:30", got, "input %q", raw)
	}
}

func TestNormalizeClockRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "nine thirty", "09", "25:00", "09:75", "xx:yy"} {
		_, ok := NormalizeClock(raw)
		assert.False(t, ok, "input %q must be dropped", raw)
	}
}
