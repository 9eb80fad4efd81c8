package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountRange_LessThan(t *testing.T) {
	r, err := ParseCountRange("<13")
	require.NoError(t, err)

	require.NotNil(t, r.Min)
	require.NotNil(t, r.Max)
	assert.Equal(t, 0, *r.Min)
	assert.Equal(t, 13, *r.Max)
	assert.True(t, r.MinInclusive)
	assert.False(t, r.MaxInclusive)
}

func TestParseCountRange_GreaterThan(t *testing.T) {
	r, err := ParseCountRange("> 10")
	require.NoError(t, err)

	require.NotNil(t, r.Min)
	assert.Equal(t, 10, *r.Min)
	assert.False(t, r.MinInclusive)
	assert.Nil(t, r.Max)
}

func TestParseCountRange_Interval(t *testing.T) {
	r, err := ParseCountRange("0-10")
	require.NoError(t, err)

	require.NotNil(t, r.Min)
	require.NotNil(t, r.Max)
	assert.Equal(t, 0, *r.Min)
	assert.Equal(t, 10, *r.Max)
	assert.True(t, r.MinInclusive)
	assert.True(t, r.MaxInclusive)
}

func TestParseCountRange_Exact(t *testing.T) {
	r, err := ParseCountRange("1200")
	require.NoError(t, err)

	require.NotNil(t, r.Min)
	require.NotNil(t, r.Max)
	assert.Equal(t, 1200, *r.Min)
	assert.Equal(t, 1200, *r.Max)
	assert.True(t, r.MinInclusive)
	assert.True(t, r.MaxInclusive)
}

func TestParseCountRange_ThousandsSeparators(t *testing.T) {
	r, err := ParseCountRange("1,000-2,000")
	require.NoError(t, err)
	assert.Equal(t, 1000, *r.Min)
	assert.Equal(t, 2000, *r.Max)

	r, err = ParseCountRange("< 1,000")
	require.NoError(t, err)
	assert.Equal(t, 1000, *r.Max)
	assert.False(t, r.MaxInclusive)

	// Separated and unseparated forms parse identically.
	plain, err := ParseCountRange("1000-2000")
	require.NoError(t, err)
	assert.Equal(t, *plain.Min, 1000)
	assert.Equal(t, *plain.Max, 2000)
}

func TestParseCountRange_Whitespace(t *testing.T) {
	r, err := ParseCountRange("  >  9 ")
	require.NoError(t, err)
	assert.Equal(t, 9, *r.Min)
	assert.False(t, r.MinInclusive)
}

func TestParseCountRange_Malformed(t *testing.T) {
	for _, expr := range []string{
		"",
		"   ",
		"abc",
		"<",
		">",
		"<ten",
		"10-",
		"-10", // bare negative, not a range
		"a-b",
		"10-20-30",
	} {
		_, err := ParseCountRange(expr)
		assert.ErrorIs(t, err, ErrMalformedRange, "expr %q should be malformed", expr)
	}
}
