package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt(t *testing.T) {
	birth := date(2010, time.July, 15)

	t.Run("day before birthday", func(t *testing.T) {
		assert.Equal(t, 12, AgeAt(birth, date(2023, time.July, 14)))
	})

	t.Run("on birthday", func(t *testing.T) {
		assert.Equal(t, 13, AgeAt(birth, date(2023, time.July, 15)))
	})

	t.Run("earlier month", func(t *testing.T) {
		assert.Equal(t, 12, AgeAt(birth, date(2023, time.June, 30)))
	})

	t.Run("later month", func(t *testing.T) {
		assert.Equal(t, 13, AgeAt(birth, date(2023, time.August, 1)))
	})

	t.Run("infant", func(t *testing.T) {
		assert.Equal(t, 0, AgeAt(date(2023, time.January, 10), date(2023, time.December, 31)))
	})
}

func TestWithinWindow(t *testing.T) {
	start := date(2024, time.January, 1)
	end := date(2024, time.March, 31)

	assert.True(t, WithinWindow(start, start, end), "start bound is inclusive")
	assert.True(t, WithinWindow(end, start, end), "end bound is inclusive")
	assert.True(t, WithinWindow(date(2024, time.February, 15), start, end))
	assert.False(t, WithinWindow(date(2024, time.April, 1), start, end))
	assert.False(t, WithinWindow(date(2023, time.December, 31), start, end))

	t.Run("ignores time of day", func(t *testing.T) {
		noon := time.Date(2024, time.March, 31, 12, 30, 0, 0, time.UTC)
		assert.True(t, WithinWindow(noon, start, end))
	})
}
