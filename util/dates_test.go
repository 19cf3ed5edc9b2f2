package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDatePolicyParse(t *testing.T) {
	dayFirst := DatePolicy{Order: DayFirst}
	monthFirst := DatePolicy{Order: MonthFirst}
	strict := DatePolicy{Order: DayFirst, Strict: true}

	tests := []struct {
		name     string
		policy   DatePolicy
		raw      string
		want     time.Time
		wantHour int
		hasTime  bool
	}{
		{"day first slash", dayFirst, "25/12/2023", day(2023, 12, 25), 0, false},
		{"impossible day first falls back", dayFirst, "12/25/2023", day(2023, 12, 25), 0, false},
		{"ambiguous day first", dayFirst, "03/04/2023", day(2023, 4, 3), 0, false},
		{"ambiguous month first", monthFirst, "03/04/2023", day(2023, 3, 4), 0, false},
		{"dash separators", dayFirst, "07-11-2022", day(2022, 11, 7), 0, false},
		{"dot separators two digit year", dayFirst, "15.07.23", day(2023, 7, 15), 0, false},
		{"two digit year pivot", dayFirst, "15-07-70", day(1970, 7, 15), 0, false},
		{"iso order", dayFirst, "2023-07-15", day(2023, 7, 15), 0, false},
		{"iso with slashes", monthFirst, "2023/07/15", day(2023, 7, 15), 0, false},
		{"time suffix", dayFirst, "2023-07-15 14:30", day(2023, 7, 15), 14, true},
		{"iso T separator", dayFirst, "2023-07-15T09:05:00", day(2023, 7, 15), 9, true},
		{"utc zone suffix", dayFirst, "2023-01-01T10:00:00Z", day(2023, 1, 1), 10, true},
		{"fractional seconds utc", dayFirst, "2023-01-01T10:00:00.250Z", day(2023, 1, 1), 10, true},
		{"colon offset keeps wall clock", dayFirst, "2023-01-01T23:15:00+05:30", day(2023, 1, 1), 23, true},
		{"compact negative offset", dayFirst, "2023-01-01T08:00:00-0500", day(2023, 1, 1), 8, true},
		{"spaced offset", dayFirst, "2023-01-01 08:00 +02:00", day(2023, 1, 1), 8, true},
		{"twelve hour clock", dayFirst, "15/07/2023 2:30 PM", day(2023, 7, 15), 14, true},
		{"strict accepts unambiguous", strict, "13/04/2023", day(2023, 4, 13), 0, false},
		{"strict accepts equal tokens", strict, "04/04/2023", day(2023, 4, 4), 0, false},
		{"surrounding whitespace", dayFirst, "  01/02/2021 ", day(2021, 2, 1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, ok := tt.policy.Parse(tt.raw)

			// Assert
			require.True(t, ok, "expected %q to parse", tt.raw)
			assert.Equal(t, tt.want, got.Date)
			assert.Equal(t, tt.hasTime, got.HasTime)
			assert.Equal(t, tt.wantHour, got.Hour)
		})
	}
}

func TestDatePolicyParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		policy DatePolicy
		raw    string
	}{
		{"empty", DatePolicy{}, ""},
		{"null token", DatePolicy{}, "NaN"},
		{"garbage", DatePolicy{}, "yesterday"},
		{"two tokens", DatePolicy{}, "12/2023"},
		{"impossible both ways", DatePolicy{}, "31/13/2023"},
		{"february 31", DatePolicy{}, "31/02/2023"},
		{"iso bad month", DatePolicy{}, "2023-13-01"},
		{"three digit year", DatePolicy{}, "01/02/202"},
		{"bad time", DatePolicy{}, "01/02/2023 25:99"},
		{"strict ambiguous", DatePolicy{Strict: true}, "03/04/2023"},
		{"strict ambiguous month first", DatePolicy{Order: MonthFirst, Strict: true}, "11/12/2022"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.policy.Parse(tt.raw)
			assert.False(t, ok)
		})
	}
}

func TestNewDatePolicy(t *testing.T) {
	p, err := NewDatePolicy("Month-First", true)
	require.NoError(t, err)
	assert.Equal(t, MonthFirst, p.Order)
	assert.True(t, p.Strict)

	p, err = NewDatePolicy("", false)
	require.NoError(t, err)
	assert.Equal(t, DayFirst, p.Order)
	assert.Equal(t, "day-first", p.Order.String())

	_, err = NewDatePolicy("year-first", false)
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2023-01-05", FormatDate(day(2023, 1, 5)))
}
