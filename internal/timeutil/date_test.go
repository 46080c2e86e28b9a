package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-08")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", d.String())
	assert.Equal(t, time.Monday, d.Weekday())
}

func TestParseDateRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "2024-13-01", "2024-01-32", "01/08/2024", "2024-1-8"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDate(in)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}

func TestInRangeInclusive(t *testing.T) {
	start := MustDate("2024-01-10")
	end := MustDate("2024-01-12")

	assert.True(t, MustDate("2024-01-10").InRange(start, end))
	assert.True(t, MustDate("2024-01-11").InRange(start, end))
	assert.True(t, MustDate("2024-01-12").InRange(start, end))
	assert.False(t, MustDate("2024-01-09").InRange(start, end))
	assert.False(t, MustDate("2024-01-13").InRange(start, end))
}

func TestWeekDaysStartsMonday(t *testing.T) {
	for _, in := range []string{"2024-01-08", "2024-01-10", "2024-01-14"} {
		days := WeekDays(MustDate(in))
		require.Len(t, days, 7)
		assert.Equal(t, "2024-01-08", days[0].String())
		assert.Equal(t, "2024-01-14", days[6].String())
	}
}

func TestDateOfTruncates(t *testing.T) {
	ts := time.Date(2024, 3, 5, 17, 42, 1, 0, time.UTC)
	assert.Equal(t, "2024-03-05", DateOf(ts).String())
}
