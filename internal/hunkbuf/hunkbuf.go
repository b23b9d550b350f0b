// Package hunkbuf accumulates the removed/added lines of one
// refinement unit, a maximal contiguous run of '-' lines followed by
// '+' lines, into a pair of reusable byte arenas, and decides when
// that unit is complete.
package hunkbuf

import "github.com/xerus2000/diffr/internal/classify"

// LineRecord locates one source line's bytes within a group's arena.
// [Start, End) covers the line's payload plus its trailing terminator;
// TermLen (0, 1, or 2) gives the terminator's length within that
// range.
type LineRecord struct {
	Start, End int
	TermLen    int
	Raw        []byte // sign byte + payload + terminator, exactly as read

	// NoNewline holds the raw bytes of a "\ No newline at end of
	// file" marker that followed this line in the input, or nil if
	// none did. It is re-emitted verbatim immediately after this
	// line's own bytes, rather than ending the group early.
	NoNewline []byte
}

// Group is a snapshot of one completed refinement unit. It is valid
// only until the Buffer it came from is next mutated (Feed or Clear).
type Group struct {
	RemovedArena []byte
	AddedArena   []byte
	RemovedLines []LineRecord
	AddedLines   []LineRecord
}

// EventKind distinguishes what Feed hands back to its driver.
type EventKind int

const (
	PassThrough EventKind = iota
	GroupReady
)

// Event is one unit of driver work: either a line to emit unchanged,
// or a completed group ready for refinement.
type Event struct {
	Kind  EventKind
	Line  classify.Line
	Group Group
}

// Buffer accumulates one group at a time. Its arenas and line-record
// slices are reused across groups: Clear truncates their length but
// keeps their capacity, so steady-state operation allocates only when
// a group is larger than any seen before.
type Buffer struct {
	removedArena []byte
	addedArena   []byte
	removedLines []LineRecord
	addedLines   []LineRecord

	inGroup  bool
	sawAdded bool
	lastSide side
}

// side names which arena a line was most recently appended to, so a
// following NoNewline marker knows which LineRecord to attach to.
type side int

const (
	sideNone side = iota
	sideRemoved
	sideAdded
)

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Feed classifies one input line against the buffer's state. It
// returns zero, one, or two events: flushing a just-completed group is
// always followed, in the same call, by either a pass-through of the
// current line or the line being absorbed into a new group.
func (b *Buffer) Feed(line classify.Line) []Event {
	switch line.Kind {
	case classify.Removed:
		var events []Event
		if b.sawAdded {
			events = append(events, b.flushEvent())
		}
		b.appendRemoved(line.Bytes)
		return events
	case classify.Added:
		b.appendAdded(line.Bytes)
		return nil
	case classify.NoNewline:
		// A "\ No newline at end of file" marker commonly sits between
		// a group's removed and added runs (or after its last line);
		// it describes the line just written, not a new diff element,
		// so it must not end the group early. Buffer it against that
		// line and let it re-emit in place when the group flushes.
		if b.inGroup {
			b.attachNoNewline(line.Bytes)
			return nil
		}
		return []Event{{Kind: PassThrough, Line: line}}
	default:
		var events []Event
		if b.inGroup {
			events = append(events, b.flushEvent())
		}
		events = append(events, Event{Kind: PassThrough, Line: line})
		return events
	}
}

// attachNoNewline records raw against whichever side's line was most
// recently appended.
func (b *Buffer) attachNoNewline(raw []byte) {
	switch b.lastSide {
	case sideRemoved:
		if n := len(b.removedLines); n > 0 {
			b.removedLines[n-1].NoNewline = raw
		}
	case sideAdded:
		if n := len(b.addedLines); n > 0 {
			b.addedLines[n-1].NoNewline = raw
		}
	}
}

// FlushAtEOF flushes any group still pending once the input is
// exhausted; there is no further line to trigger Feed's default-branch
// flush in that case.
func (b *Buffer) FlushAtEOF() (Event, bool) {
	if !b.inGroup {
		return Event{}, false
	}
	return b.flushEvent(), true
}

// Clear truncates the buffer back to empty, retaining arena and
// line-record capacity for the next group. Callers must finish
// consuming a GroupReady event's Group before calling Clear, since the
// Group's slices alias the buffer's backing arrays. A removed line that
// Feed already absorbed into the next group (the line whose arrival
// flushed the previous one) is kept as that group's first line.
func (b *Buffer) Clear() {
	var carry []byte
	if b.inGroup && len(b.removedLines) > 0 {
		carry = b.removedLines[len(b.removedLines)-1].Raw
	}
	b.removedArena = b.removedArena[:0]
	b.addedArena = b.addedArena[:0]
	b.removedLines = b.removedLines[:0]
	b.addedLines = b.addedLines[:0]
	if carry != nil {
		b.appendRemoved(carry)
	}
}

func (b *Buffer) flushEvent() Event {
	g := Group{
		RemovedArena: b.removedArena,
		AddedArena:   b.addedArena,
		RemovedLines: b.removedLines,
		AddedLines:   b.addedLines,
	}
	b.inGroup = false
	b.sawAdded = false
	b.lastSide = sideNone
	return Event{Kind: GroupReady, Group: g}
}

func (b *Buffer) appendRemoved(raw []byte) {
	body := raw[1:]
	term := terminatorLen(body)
	start := len(b.removedArena)
	b.removedArena = append(b.removedArena, body...)
	b.removedLines = append(b.removedLines, LineRecord{
		Start: start, End: len(b.removedArena), TermLen: term, Raw: raw,
	})
	b.inGroup = true
	b.lastSide = sideRemoved
}

func (b *Buffer) appendAdded(raw []byte) {
	body := raw[1:]
	term := terminatorLen(body)
	start := len(b.addedArena)
	b.addedArena = append(b.addedArena, body...)
	b.addedLines = append(b.addedLines, LineRecord{
		Start: start, End: len(b.addedArena), TermLen: term, Raw: raw,
	})
	b.inGroup = true
	b.sawAdded = true
	b.lastSide = sideAdded
}

func terminatorLen(s []byte) int {
	n := len(s)
	if n >= 2 && s[n-2] == '\r' && s[n-1] == '\n' {
		return 2
	}
	if n >= 1 && s[n-1] == '\n' {
		return 1
	}
	return 0
}
