package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimesEvenWindow(t *testing.T) {
	times := Times("09:00", "17:00", 30)

	require.Len(t, times, 16) // 8 hours / 30 min
	assert.Equal(t, "09:00", times[0])
	assert.Equal(t, "16:30", times[len(times)-1])
	assert.NotContains(t, times, "17:00", "end bound is exclusive")
}

func TestTimesUnevenInterval(t *testing.T) {
	// 45 does not divide the 2h window; the loop condition still emits the
	// last slot strictly before end.
	times := Times("09:00", "11:00", 45)
	assert.Equal(t, []string{"09:00", "09:45", "10:30"}, times)
}

func TestTimesZeroPadding(t *testing.T) {
	times := Times("08:00", "10:00", 60)
	assert.Equal(t, []string{"08:00", "09:00"}, times)
}

func TestTimesDegenerateInputs(t *testing.T) {
	assert.Nil(t, Times("10:00", "09:00", 30), "inverted window yields nothing")
	assert.Nil(t, Times("09:00", "17:00", 0))
	assert.Nil(t, Times("bogus", "17:00", 30))
	assert.Nil(t, Times("09:00", "", 30))
}
