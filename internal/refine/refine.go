// Package refine computes, for one hunkbuf.Group, which bytes on each
// side are shared with the other side and which are unique to it:
// the projection step behind intra-line highlighting.
package refine

import (
	"bytes"

	"github.com/xerus2000/diffr/internal/hunkbuf"
	"github.com/xerus2000/diffr/internal/lcs"
	"github.com/xerus2000/diffr/internal/token"
)

// SpanKind marks a byte range as present on both sides of a group
// (Shared) or only on this side (Unique).
type SpanKind int

const (
	Shared SpanKind = iota
	Unique
)

// Span is a coalesced byte range within one line's payload (offsets
// are relative to the payload's own start, not the arena).
type Span struct {
	Start, End int
	Kind       SpanKind
}

// LineResult is the span list for one line.
type LineResult struct {
	Spans []Span
}

// Result holds the per-line spans for both sides of a refined group.
type Result struct {
	Removed []LineResult
	Added   []LineResult
}

// Options configures an Engine.
type Options struct {
	// MaxComparisons bounds the product (N*M) of the two sides' token
	// counts, all token classes included, that the LCS engine will
	// attempt; groups exceeding it skip the LCS engine and mark every
	// non-whitespace token unique. Zero uses lcs.DefaultMaxComparisons.
	MaxComparisons int
}

// Engine computes per-line spans for a group, reusing its tokenizers
// and LCS scratch state across calls.
type Engine struct {
	removedTok *token.Tokenizer
	addedTok   *token.Tokenizer
	lcsEngine  *lcs.Engine
	opts       Options
}

// NewEngine returns an Engine configured with opts.
func NewEngine(opts Options) *Engine {
	return &Engine{
		removedTok: token.NewTokenizer(),
		addedTok:   token.NewTokenizer(),
		lcsEngine:  lcs.NewEngine(),
		opts:       opts,
	}
}

// Refine computes spans for every line in g. If either side has no
// lines at all, no comparison is possible and every payload byte is
// marked shared: the group is emitted with only its base removed/added
// color, not intra-line highlighting. The second return value reports
// whether the group exceeded the comparison budget and was degraded to
// "mark every non-whitespace token unique" rather than actually run
// through the LCS engine.
func (e *Engine) Refine(g hunkbuf.Group) (Result, bool) {
	if len(g.RemovedLines) == 0 || len(g.AddedLines) == 0 {
		return Result{
			Removed: wholeLineKind(g.RemovedLines, Shared),
			Added:   wholeLineKind(g.AddedLines, Shared),
		}, false
	}

	removedTokens := e.removedTok.Tokenize(g.RemovedArena)
	addedTokens := e.addedTok.Tokenize(g.AddedArena)
	n, m := len(removedTokens), len(addedTokens)

	maxCmp := e.opts.MaxComparisons
	if maxCmp <= 0 {
		maxCmp = lcs.DefaultMaxComparisons
	}

	sharedRemoved := make([]bool, n)
	sharedAdded := make([]bool, m)
	degraded := n > 0 && m > 0 && n*m > maxCmp

	if !degraded && n > 0 && m > 0 {
		eq := func(i, j int) bool {
			rt, at := removedTokens[i], addedTokens[j]
			if rt.Hash != at.Hash || rt.End-rt.Start != at.End-at.Start {
				return false
			}
			return bytes.Equal(g.RemovedArena[rt.Start:rt.End], g.AddedArena[at.Start:at.End])
		}
		matches, _ := e.lcsEngine.Compute(n, m, eq)
		for _, mt := range matches {
			sharedRemoved[mt.I] = true
			sharedAdded[mt.J] = true
		}
	}

	// Whitespace is always shared, regardless of the LCS result: a
	// reflow of spacing alone should never read as a content change.
	for i, t := range removedTokens {
		if t.Class == token.Whitespace {
			sharedRemoved[i] = true
		}
	}
	for j, t := range addedTokens {
		if t.Class == token.Whitespace {
			sharedAdded[j] = true
		}
	}

	return Result{
		Removed: project(g.RemovedLines, removedTokens, sharedRemoved),
		Added:   project(g.AddedLines, addedTokens, sharedAdded),
	}, degraded
}

// Fallback marks every payload byte of g as unique, without running
// the tokenizer or LCS engine. It backs panic recovery around a group
// in internal/pipeline.
func Fallback(g hunkbuf.Group) Result {
	return Result{
		Removed: wholeLineKind(g.RemovedLines, Unique),
		Added:   wholeLineKind(g.AddedLines, Unique),
	}
}

func wholeLineKind(lines []hunkbuf.LineRecord, kind SpanKind) []LineResult {
	res := make([]LineResult, len(lines))
	for i, l := range lines {
		payloadLen := l.End - l.Start - l.TermLen
		if payloadLen > 0 {
			res[i] = LineResult{Spans: []Span{{Start: 0, End: payloadLen, Kind: kind}}}
		}
	}
	return res
}

// project walks tokens in arena order against each line's byte range,
// coalescing contiguous same-kind tokens into spans relative to that
// line's payload start. Terminator bytes are never included in a span.
//
// A whitespace token can straddle a line boundary: the tokenizer's
// maximal-run rule merges one line's trailing terminator with the
// next line's leading whitespace into a single token, since both are
// Whitespace-class bytes contiguous in the arena. ti only advances
// past such a token once it has been fully consumed (t.End <=
// line.End); otherwise the current line gets its clipped span and the
// same token is revisited for the next line, with its start clamped
// to that line's own start.
func project(lines []hunkbuf.LineRecord, tokens []token.Token, shared []bool) []LineResult {
	results := make([]LineResult, len(lines))
	ti := 0
	for li, line := range lines {
		payloadEnd := line.End - line.TermLen
		var spans []Span
		for ti < len(tokens) && tokens[ti].Start < line.End {
			t := tokens[ti]
			if t.Start >= payloadEnd {
				if t.End > line.End {
					break
				}
				ti++
				continue
			}

			start := t.Start
			if start < line.Start {
				start = line.Start
			}
			end := t.End
			if end > payloadEnd {
				end = payloadEnd
			}
			kind := Unique
			if shared[ti] {
				kind = Shared
			}
			relStart, relEnd := start-line.Start, end-line.Start
			if n := len(spans); n > 0 && spans[n-1].Kind == kind && spans[n-1].End == relStart {
				spans[n-1].End = relEnd
			} else {
				spans = append(spans, Span{Start: relStart, End: relEnd, Kind: kind})
			}

			if t.End > line.End {
				break
			}
			ti++
		}
		results[li] = LineResult{Spans: spans}
	}
	return results
}
