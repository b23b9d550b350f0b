package lcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eqStrings(a, b string) func(i, j int) bool {
	return func(i, j int) bool { return a[i] == b[j] }
}

func TestComputeIdenticalSequences(t *testing.T) {
	e := NewEngine()
	a, b := "abc", "abc"
	matches, d := e.Compute(len(a), len(b), eqStrings(a, b))
	assert.Equal(t, 0, d)
	require.Len(t, matches, 3)
	assert.Equal(t, []Match{{0, 0}, {1, 1}, {2, 2}}, matches)
}

func TestComputeSingleSubstitution(t *testing.T) {
	e := NewEngine()
	a, b := "abc", "axc"
	matches, d := e.Compute(len(a), len(b), eqStrings(a, b))
	assert.Equal(t, 2, d)
	assert.Equal(t, []Match{{0, 0}, {2, 2}}, matches)
}

func TestComputeEmptySides(t *testing.T) {
	e := NewEngine()
	matches, d := e.Compute(0, 3, func(i, j int) bool { return false })
	assert.Nil(t, matches)
	assert.Equal(t, 3, d)

	matches, d = e.Compute(3, 0, func(i, j int) bool { return false })
	assert.Nil(t, matches)
	assert.Equal(t, 3, d)
}

func TestComputeMatchesAreValidAndOrdered(t *testing.T) {
	cases := []struct{ a, b string }{
		{"ab", "ba"},
		{"ABCABBA", "CBABAC"},
		{"the quick brown fox", "the quick brown fox jumps"},
		{"aaaa", "aaaa"},
		{"abcdef", "ghijkl"},
	}

	for _, c := range cases {
		e := NewEngine()
		matches, d := e.Compute(len(c.a), len(c.b), eqStrings(c.a, c.b))

		assert.Equal(t, (len(c.a)+len(c.b)-d)%2, 0, "N+M-D must be even")
		assert.Len(t, matches, (len(c.a)+len(c.b)-d)/2)

		lastI, lastJ := -1, -1
		for _, m := range matches {
			assert.True(t, c.a[m.I] == c.b[m.J], "match %v must be a real equality", m)
			assert.Greater(t, m.I, lastI)
			assert.Greater(t, m.J, lastJ)
			lastI, lastJ = m.I, m.J
		}
	}
}

func TestEngineReusedAcrossCalls(t *testing.T) {
	e := NewEngine()
	_, _ = e.Compute(3, 3, eqStrings("abc", "abc"))
	firstCap := cap(e.v)

	matches, d := e.Compute(3, 3, eqStrings("xyz", "xyz"))
	assert.Equal(t, 0, d)
	require.Len(t, matches, 3)
	assert.Equal(t, firstCap, cap(e.v))
}
