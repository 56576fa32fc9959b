package sequence

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDelays_Range(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, ParseDelays("0:1:5"))
}

func TestParseDelays_MixedLiteralAndRange(t *testing.T) {
	assert.Equal(t, []float64{1.5, 3.25, 3.5, 3.75}, ParseDelays("1.5,3.25:0.25:4.0"))
}

func TestParseDelays_NegativeStep(t *testing.T) {
	// A descending range expands the same values; the result is sorted.
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, ParseDelays("5:-1:0"))
}

func TestParseDelays_Sorted(t *testing.T) {
	got := ParseDelays("10,-5,0:1:3")
	assert.True(t, sort.Float64sAreSorted(got))
	assert.Equal(t, []float64{-5, 0, 1, 2, 10}, got)
}

func TestParseDelays_DuplicatesKept(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2, 2}, ParseDelays("0:1:3,2"))
}

func TestParseDelays_Rounding(t *testing.T) {
	assert.Equal(t, []float64{1.235}, ParseDelays("1.23456"))
}

func TestParseDelays_Invalid(t *testing.T) {
	cases := []string{"", "   ", "abc", "1,abc", "1:2", "1:0:5", "1:a:5"}
	for _, spec := range cases {
		assert.Empty(t, ParseDelays(spec), "spec %q", spec)
	}
}

func TestShuffledDelays(t *testing.T) {
	delays := ParseDelays("0:1:20")
	require.Len(t, delays, 20)

	rng := rand.New(rand.NewSource(7))
	first := ShuffledDelays(rng, delays)
	second := ShuffledDelays(rng, delays)

	// Input stays untouched, each result is a permutation of it.
	assert.True(t, sort.Float64sAreSorted(delays))
	assert.ElementsMatch(t, delays, first)
	assert.ElementsMatch(t, delays, second)

	// Consecutive shuffles produce distinct orderings.
	assert.NotEqual(t, first, second)
}
