package hunkbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xerus2000/diffr/internal/classify"
)

func line(kind classify.Kind, raw string) classify.Line {
	return classify.Line{Kind: kind, Bytes: []byte(raw)}
}

func TestFeedMixedGroupFlushesOnContext(t *testing.T) {
	b := New()

	assert.Empty(t, b.Feed(line(classify.Removed, "-foo\n")))
	assert.Empty(t, b.Feed(line(classify.Added, "+bar\n")))

	events := b.Feed(line(classify.Context, " baz\n"))
	require.Len(t, events, 2)

	require.Equal(t, GroupReady, events[0].Kind)
	g := events[0].Group
	require.Len(t, g.RemovedLines, 1)
	require.Len(t, g.AddedLines, 1)
	assert.Equal(t, "foo\n", string(g.RemovedArena))
	assert.Equal(t, "bar\n", string(g.AddedArena))
	assert.Equal(t, 1, g.RemovedLines[0].TermLen)

	assert.Equal(t, PassThrough, events[1].Kind)
	assert.Equal(t, " baz\n", string(events[1].Line.Bytes))
}

func TestFeedAddedThenRemovedStartsNewGroup(t *testing.T) {
	b := New()
	b.Feed(line(classify.Removed, "-a\n"))
	b.Feed(line(classify.Added, "+b\n"))

	events := b.Feed(line(classify.Removed, "-c\n"))
	require.Len(t, events, 1)
	require.Equal(t, GroupReady, events[0].Kind)
	g := events[0].Group
	assert.Equal(t, "a\n", string(g.RemovedArena))
	assert.Equal(t, "b\n", string(g.AddedArena))

	b.Clear()
	flushed, ok := b.FlushAtEOF()
	require.True(t, ok)
	assert.Equal(t, "c\n", string(flushed.Group.RemovedArena))
	assert.Empty(t, flushed.Group.AddedArena)
}

func TestFlushAtEOFNoPendingGroup(t *testing.T) {
	b := New()
	_, ok := b.FlushAtEOF()
	assert.False(t, ok)
}

func TestClearRetainsCapacityAcrossGroups(t *testing.T) {
	b := New()
	b.Feed(line(classify.Removed, "-first\n"))
	b.Feed(line(classify.Added, "+first\n"))
	ev := b.Feed(line(classify.Context, " ctx\n"))
	firstArenaCap := cap(ev[0].Group.RemovedArena)
	b.Clear()

	b.Feed(line(classify.Removed, "-x\n"))
	ev2 := b.Feed(line(classify.Context, " ctx\n"))
	require.Equal(t, GroupReady, ev2[0].Kind)
	assert.Equal(t, firstArenaCap, cap(ev2[0].Group.RemovedArena))
}

func TestNoNewlineMarkerDoesNotFlushGroup(t *testing.T) {
	b := New()
	assert.Empty(t, b.Feed(line(classify.Removed, "-old\n")))
	assert.Empty(t, b.Feed(line(classify.NoNewline, "\\ No newline at end of file\n")))
	assert.Empty(t, b.Feed(line(classify.Added, "+new\n")))

	ev, ok := b.FlushAtEOF()
	require.True(t, ok)
	g := ev.Group
	require.Len(t, g.RemovedLines, 1)
	require.Len(t, g.AddedLines, 1)
	assert.Equal(t, "\\ No newline at end of file\n", string(g.RemovedLines[0].NoNewline))
	assert.Nil(t, g.AddedLines[0].NoNewline)
}

func TestNoNewlineMarkerAttachesToAddedLine(t *testing.T) {
	b := New()
	assert.Empty(t, b.Feed(line(classify.Removed, "-old\n")))
	assert.Empty(t, b.Feed(line(classify.Added, "+new\n")))
	assert.Empty(t, b.Feed(line(classify.NoNewline, "\\ No newline at end of file\n")))

	ev, ok := b.FlushAtEOF()
	require.True(t, ok)
	g := ev.Group
	assert.Nil(t, g.RemovedLines[0].NoNewline)
	assert.Equal(t, "\\ No newline at end of file\n", string(g.AddedLines[0].NoNewline))
}

func TestNoNewlineMarkerOutsideGroupPassesThrough(t *testing.T) {
	b := New()
	events := b.Feed(line(classify.NoNewline, "\\ No newline at end of file\n"))
	require.Len(t, events, 1)
	assert.Equal(t, PassThrough, events[0].Kind)
}

func TestNoNewlineTerminator(t *testing.T) {
	b := New()
	b.Feed(line(classify.Removed, "-no newline"))
	b.Feed(line(classify.Added, "+has newline\n"))
	ev, ok := b.FlushAtEOF()
	require.True(t, ok)
	assert.Equal(t, 0, ev.Group.RemovedLines[0].TermLen)
	assert.Equal(t, 1, ev.Group.AddedLines[0].TermLen)
}
