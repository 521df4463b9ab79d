package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Month
		wantErr bool
	}{
		{name: "valid month", input: "2026-03", want: Month{Year: 2026, Mon: 3}},
		{name: "december", input: "2025-12", want: Month{Year: 2025, Mon: 12}},
		{name: "month out of range", input: "2026-13", wantErr: true},
		{name: "zero month", input: "2026-00", wantErr: true},
		{name: "missing dash", input: "202603", wantErr: true},
		{name: "short year", input: "26-03", wantErr: true},
		{name: "single digit month", input: "2026-3", wantErr: true},
		{name: "garbage", input: "march 2026", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonthRoundTrip(t *testing.T) {
	m, err := ParseMonth("2026-08")
	require.NoError(t, err)
	assert.Equal(t, "2026-08", m.String())
}

func TestAddMonths(t *testing.T) {
	start := Month{Year: 2025, Mon: 11}
	assert.Equal(t, Month{Year: 2025, Mon: 12}, start.AddMonths(1))
	assert.Equal(t, Month{Year: 2026, Mon: 1}, start.AddMonths(2))
	assert.Equal(t, Month{Year: 2027, Mon: 11}, start.AddMonths(24))
	assert.Equal(t, Month{Year: 2025, Mon: 10}, start.AddMonths(-1))
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, MonthsBetween(Month{2026, 1}, Month{2026, 1}))
	assert.Equal(t, 5, MonthsBetween(Month{2026, 1}, Month{2026, 6}))
	assert.Equal(t, 12, MonthsBetween(Month{2025, 6}, Month{2026, 6}))
	assert.Equal(t, -3, MonthsBetween(Month{2026, 6}, Month{2026, 3}))
}

func TestMonthIndexOf(t *testing.T) {
	start := Month{Year: 2026, Mon: 1}

	t.Run("first repayment month without deferment", func(t *testing.T) {
		assert.Equal(t, 1, MonthIndexOf(Month{2026, 1}, &start, 0))
	})

	t.Run("later month without deferment", func(t *testing.T) {
		assert.Equal(t, 13, MonthIndexOf(Month{2027, 1}, &start, 0))
	})

	t.Run("deferment shifts the index", func(t *testing.T) {
		assert.Equal(t, 10, MonthIndexOf(Month{2027, 1}, &start, 3))
	})

	t.Run("month inside deferment resolves to zero", func(t *testing.T) {
		assert.Equal(t, 0, MonthIndexOf(Month{2026, 2}, &start, 3))
	})

	t.Run("month before loan start resolves to zero", func(t *testing.T) {
		assert.Equal(t, 0, MonthIndexOf(Month{2025, 6}, &start, 0))
	})

	t.Run("unknown loan start resolves to zero", func(t *testing.T) {
		assert.Equal(t, 0, MonthIndexOf(Month{2026, 6}, nil, 0))
	})
}
