// Package ansi renders classified diff lines and their refined spans
// as ANSI/SGR-colored output: whole-line colors for base removed/added
// text, a second, bolder color for the spans that actually changed.
package ansi

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/xerus2000/diffr/internal/classify"
	"github.com/xerus2000/diffr/internal/hunkbuf"
	"github.com/xerus2000/diffr/internal/hunkheader"
	"github.com/xerus2000/diffr/internal/refine"
)

// Class names one of the four faces diffr colors.
type Class string

const (
	ClassRemoved       Class = "removed"
	ClassRefineRemoved Class = "refine-removed"
	ClassAdded         Class = "added"
	ClassRefineAdded   Class = "refine-added"
)

// Config maps each Class to the *color.Color that renders it.
type Config struct {
	Faces map[Class]*color.Color
}

// DefaultConfig matches the classic colordiff palette: plain red/green
// for the base removed/added lines, bold red/green for the refined
// spans that actually changed within them.
func DefaultConfig() Config {
	return NewBuilder().Build()
}

// NoColor returns a copy of cfg with color rendering disabled on every
// face.
func (cfg Config) NoColor() Config {
	out := Config{Faces: make(map[Class]*color.Color, len(cfg.Faces))}
	for k, v := range cfg.Faces {
		c := *v
		c.DisableColor()
		out.Faces[k] = &c
	}
	return out
}

// Emitter writes classified lines and refined groups to w, applying
// cfg's faces to each span. When LineNumbers is set it also tracks the
// old/new line counters across hunk headers and prefixes every
// context/removed/added line with its reconstructed position.
type Emitter struct {
	w           io.Writer
	cfg         Config
	lineNumbers bool
	oldLine     int
	newLine     int
}

// NewEmitter returns an Emitter writing to w with the given Config. A
// zero Config falls back to DefaultConfig.
func NewEmitter(w io.Writer, cfg Config) *Emitter {
	if cfg.Faces == nil {
		cfg = DefaultConfig()
	}
	return &Emitter{w: w, cfg: cfg}
}

// WithLineNumbers enables --line-numbers prefixing and returns e.
func (e *Emitter) WithLineNumbers(enabled bool) *Emitter {
	e.lineNumbers = enabled
	return e
}

// WritePassThrough writes a classified line verbatim, except that a
// hunk header resyncs the line counters, and a Context line is
// prefixed with both counters when numbering is enabled.
func (e *Emitter) WritePassThrough(line classify.Line) error {
	if line.Kind == classify.HunkHeader {
		if rng, ok := hunkheader.Parse(line.Bytes); ok {
			e.oldLine, e.newLine = rng.OldStart, rng.NewStart
		}
		_, err := e.w.Write(line.Bytes)
		return err
	}

	if e.lineNumbers && line.Kind == classify.Context {
		if _, err := fmt.Fprintf(e.w, "%d,%d: ", e.oldLine, e.newLine); err != nil {
			return err
		}
		e.oldLine++
		e.newLine++
	}
	_, err := e.w.Write(line.Bytes)
	return err
}

// WriteGroup writes one refined group: every removed line followed by
// every added line, each span colored by its side and whether it's
// part of the intra-line refinement.
func (e *Emitter) WriteGroup(g hunkbuf.Group, res refine.Result) error {
	if err := e.writeSide(&e.oldLine, '-', g.RemovedArena, g.RemovedLines, res.Removed, ClassRemoved, ClassRefineRemoved); err != nil {
		return err
	}
	return e.writeSide(&e.newLine, '+', g.AddedArena, g.AddedLines, res.Added, ClassAdded, ClassRefineAdded)
}

func (e *Emitter) writeSide(counter *int, prefix byte, arena []byte, lines []hunkbuf.LineRecord, results []refine.LineResult, base, refineClass Class) error {
	baseColor := e.cfg.Faces[base]
	refineColor := e.cfg.Faces[refineClass]

	for i, lr := range lines {
		if e.lineNumbers {
			if _, err := fmt.Fprintf(e.w, "%d: ", *counter); err != nil {
				return err
			}
			*counter++
		}
		if _, err := baseColor.Fprint(e.w, string(prefix)); err != nil {
			return err
		}
		payload := arena[lr.Start : lr.End-lr.TermLen]
		var spans []refine.Span
		if i < len(results) {
			spans = results[i].Spans
		}
		if len(spans) == 0 && len(payload) > 0 {
			spans = []refine.Span{{Start: 0, End: len(payload), Kind: refine.Shared}}
		}
		for _, sp := range spans {
			c := baseColor
			if sp.Kind == refine.Unique {
				c = refineColor
			}
			if _, err := c.Fprint(e.w, string(payload[sp.Start:sp.End])); err != nil {
				return err
			}
		}
		term := arena[lr.End-lr.TermLen : lr.End]
		if _, err := e.w.Write(term); err != nil {
			return err
		}
		if lr.NoNewline != nil {
			if _, err := e.w.Write(lr.NoNewline); err != nil {
				return err
			}
		}
	}
	return nil
}
