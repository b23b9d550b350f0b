package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xerus2000/diffr/internal/classify"
	"github.com/xerus2000/diffr/internal/hunkbuf"
)

func buildGroup(t *testing.T, removed, added []string) hunkbuf.Group {
	t.Helper()
	b := hunkbuf.New()
	for _, l := range removed {
		b.Feed(classify.Line{Kind: classify.Removed, Bytes: []byte("-" + l + "\n")})
	}
	for _, l := range added {
		b.Feed(classify.Line{Kind: classify.Added, Bytes: []byte("+" + l + "\n")})
	}
	ev, ok := b.FlushAtEOF()
	require.True(t, ok)
	return ev.Group
}

func lineText(arena []byte, lr hunkbuf.LineRecord, sp Span) string {
	payloadStart := lr.Start
	return string(arena[payloadStart+sp.Start : payloadStart+sp.End])
}

func TestRefineIdenticalSidesAreFullyShared(t *testing.T) {
	g := buildGroup(t, []string{"hello world"}, []string{"hello world"})
	e := NewEngine(Options{})
	res, degraded := e.Refine(g)
	require.False(t, degraded)

	require.Len(t, res.Removed[0].Spans, 1)
	assert.Equal(t, Shared, res.Removed[0].Spans[0].Kind)
	require.Len(t, res.Added[0].Spans, 1)
	assert.Equal(t, Shared, res.Added[0].Spans[0].Kind)
}

func TestRefineHighlightsChangedWord(t *testing.T) {
	g := buildGroup(t, []string{"foo bar baz"}, []string{"foo qux baz"})
	e := NewEngine(Options{})
	res, degraded := e.Refine(g)
	require.False(t, degraded)

	var uniqueRemoved, uniqueAdded []string
	for _, sp := range res.Removed[0].Spans {
		if sp.Kind == Unique {
			uniqueRemoved = append(uniqueRemoved, lineText(g.RemovedArena, g.RemovedLines[0], sp))
		}
	}
	for _, sp := range res.Added[0].Spans {
		if sp.Kind == Unique {
			uniqueAdded = append(uniqueAdded, lineText(g.AddedArena, g.AddedLines[0], sp))
		}
	}

	assert.Equal(t, []string{"bar"}, uniqueRemoved)
	assert.Equal(t, []string{"qux"}, uniqueAdded)
}

func TestRefineWhitespaceOnlyChangeIsFullyShared(t *testing.T) {
	g := buildGroup(t, []string{"foo bar"}, []string{"foo  bar"})
	e := NewEngine(Options{})
	res, degraded := e.Refine(g)
	require.False(t, degraded)

	for _, sp := range res.Removed[0].Spans {
		assert.Equal(t, Shared, sp.Kind)
	}
	for _, sp := range res.Added[0].Spans {
		assert.Equal(t, Shared, sp.Kind)
	}
}

func TestRefineEmptySideIsVerbatim(t *testing.T) {
	g := buildGroup(t, []string{}, []string{"brand new line"})
	e := NewEngine(Options{})
	res, degraded := e.Refine(g)
	require.False(t, degraded)

	assert.Empty(t, res.Removed)
	require.Len(t, res.Added, 1)
	require.Len(t, res.Added[0].Spans, 1)
	assert.Equal(t, Shared, res.Added[0].Spans[0].Kind)
	assert.Equal(t, "brand new line", lineText(g.AddedArena, g.AddedLines[0], res.Added[0].Spans[0]))
}

func TestRefineDegradesUnderComparisonBudget(t *testing.T) {
	g := buildGroup(t, []string{"foo bar baz"}, []string{"foo qux baz"})
	e := NewEngine(Options{MaxComparisons: 1})
	res, degraded := e.Refine(g)
	require.True(t, degraded)

	for _, sp := range res.Removed[0].Spans {
		if sp.Kind == Shared {
			assert.Equal(t, " ", lineText(g.RemovedArena, g.RemovedLines[0], sp))
		}
	}
}

func TestRefinePreservesLeadingWhitespaceOnContinuationLine(t *testing.T) {
	g := buildGroup(t, []string{"X", " Y"}, []string{"Z"})
	e := NewEngine(Options{})
	res, degraded := e.Refine(g)
	require.False(t, degraded)

	require.Len(t, res.Removed, 2)
	line2 := res.Removed[1]
	require.NotEmpty(t, line2.Spans, "line 2's leading space must not be dropped")

	var rebuilt string
	for _, sp := range line2.Spans {
		rebuilt += lineText(g.RemovedArena, g.RemovedLines[1], sp)
	}
	assert.Equal(t, " Y", rebuilt)
	assert.Equal(t, " ", lineText(g.RemovedArena, g.RemovedLines[1], line2.Spans[0]))
}

func TestFallbackMarksEverythingUnique(t *testing.T) {
	g := buildGroup(t, []string{"a"}, []string{"b"})
	res := Fallback(g)
	require.Len(t, res.Removed[0].Spans, 1)
	assert.Equal(t, Unique, res.Removed[0].Spans[0].Kind)
	require.Len(t, res.Added[0].Spans, 1)
	assert.Equal(t, Unique, res.Added[0].Spans[0].Kind)
}
