package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrade(t *testing.T) {
	tests := []struct {
		input   string
		want    Grade
		wantErr bool
	}{
		{"8", 8, false},
		{"Grade 8", 8, false},
		{"grade 12", 12, false},
		{" 7 ", 7, false},
		{"Grade 13", 0, true},
		{"0", 0, true},
		{"", 0, true},
		{"eight", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGrade(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrade_String(t *testing.T) {
	assert.Equal(t, "Grade 8", Grade(8).String())
}

func TestParseClassCode(t *testing.T) {
	got, err := ParseClassCode("8a")
	require.NoError(t, err)
	assert.Equal(t, ClassCode("8A"), got)
	assert.Equal(t, Grade(8), got.Grade())

	got, err = ParseClassCode("12B")
	require.NoError(t, err)
	assert.Equal(t, Grade(12), got.Grade())

	for _, bad := range []string{"", "A", "8", "8AA", "123A"} {
		_, err := ParseClassCode(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseRegion(t *testing.T) {
	for _, spelling := range []string{"east", "EAST", "East", " east "} {
		got, err := ParseRegion(spelling)
		require.NoError(t, err)
		assert.Equal(t, RegionEast, got)
	}

	_, err := ParseRegion("central")
	assert.Error(t, err)
	_, err = ParseRegion("")
	assert.ErrorIs(t, err, ErrEmptyValue)
}

func TestRegion_Equal(t *testing.T) {
	assert.True(t, RegionEast.Equal("east"))
	assert.True(t, Region("WEST").Equal(RegionWest))
	assert.False(t, RegionEast.Equal(RegionWest))
}

func TestParseScore(t *testing.T) {
	got, err := ParseScore("82.5")
	require.NoError(t, err)
	assert.Equal(t, Score(82.5), got)
	assert.Equal(t, "82.5", got.String())

	_, err = ParseScore("101")
	assert.ErrorIs(t, err, ErrValueOutOfRange)
	_, err = ParseScore("-1")
	assert.ErrorIs(t, err, ErrValueOutOfRange)
	_, err = ParseScore("high")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseYesNo(t *testing.T) {
	for _, yes := range []string{"yes", "YES", "y", "true", "1"} {
		got, err := ParseYesNo(yes)
		require.NoError(t, err)
		assert.True(t, got, "input %q", yes)
	}
	for _, no := range []string{"no", "No", "n", "false", "0"} {
		got, err := ParseYesNo(no)
		require.NoError(t, err)
		assert.False(t, got, "input %q", no)
	}

	_, err := ParseYesNo("maybe")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = ParseYesNo("")
	assert.ErrorIs(t, err, ErrEmptyValue)

	assert.Equal(t, "yes", FormatYesNo(true))
	assert.Equal(t, "no", FormatYesNo(false))
}
