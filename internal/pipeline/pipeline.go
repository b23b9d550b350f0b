// Package pipeline drives the classify -> hunkbuf -> refine -> ansi
// loop that turns a raw unified diff into a highlighted one, wrapping
// each group's refinement in middleware-style stages borrowed from the
// same Chain pattern an HTTP handler stack would use.
package pipeline

import (
	"bufio"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/xerus2000/diffr/internal/ansi"
	"github.com/xerus2000/diffr/internal/classify"
	"github.com/xerus2000/diffr/internal/hunkbuf"
	"github.com/xerus2000/diffr/internal/logging"
	"github.com/xerus2000/diffr/internal/refine"
)

// GroupHandler refines one completed group and writes its output.
type GroupHandler func(g hunkbuf.Group) error

// Stage wraps a GroupHandler with cross-cutting behavior.
type Stage func(GroupHandler) GroupHandler

// Chain applies stages to h, with the first stage listed becoming the
// outermost wrapper (it runs first on the way in, last on the way out).
func Chain(h GroupHandler, stages ...Stage) GroupHandler {
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}
	return h
}

// Recover turns a panic inside the next handler into refine.Fallback
// output instead of crashing the whole run.
func Recover(logger *logging.Logger, emit func(hunkbuf.Group, refine.Result) error) Stage {
	return func(next GroupHandler) GroupHandler {
		return func(g hunkbuf.Group) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered during refinement",
						zap.Any("error", r),
						zap.Int("removed_len", len(g.RemovedArena)),
						zap.Int("added_len", len(g.AddedArena)),
					)
					err = emit(g, refine.Fallback(g))
				}
			}()
			return next(g)
		}
	}
}

// Logging reports per-group timing and line counts at debug level.
// Degraded groups are not logged here; Run counts them in
// Stats.Degraded.
func Logging(logger *logging.Logger) Stage {
	return func(next GroupHandler) GroupHandler {
		return func(g hunkbuf.Group) error {
			start := time.Now()
			err := next(g)
			logger.Debug("group refined",
				zap.Int("removed_lines", len(g.RemovedLines)),
				zap.Int("added_lines", len(g.AddedLines)),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

// Stats summarizes one run of Run.
type Stats struct {
	Groups    int
	Degraded  int
	LinesRead int
}

// Config controls one Run.
type Config struct {
	Colors         ansi.Config
	LineNumbers    bool
	MaxComparisons int
	Logger         *logging.Logger
	// Refine, if set, replaces the default refine.Engine, used by
	// callers that wrap refinement with a cache lookup.
	Refine func(hunkbuf.Group) (refine.Result, bool)
}

// Run reads a unified diff from r, refines each hunk's changed lines,
// and writes the highlighted diff to w.
func Run(r io.Reader, w io.Writer, cfg Config) (Stats, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	reader := classify.NewReader(r)
	bufW := bufio.NewWriterSize(w, 64*1024)
	emitter := ansi.NewEmitter(bufW, cfg.Colors).WithLineNumbers(cfg.LineNumbers)
	buf := hunkbuf.New()

	refineFn := cfg.Refine
	if refineFn == nil {
		eng := refine.NewEngine(refine.Options{MaxComparisons: cfg.MaxComparisons})
		refineFn = eng.Refine
	}

	var stats Stats

	handle := Chain(
		func(g hunkbuf.Group) error {
			res, degraded := refineFn(g)
			if degraded {
				stats.Degraded++
			}
			stats.Groups++
			return emitter.WriteGroup(g, res)
		},
		Logging(logger),
		Recover(logger, func(g hunkbuf.Group, res refine.Result) error {
			return emitter.WriteGroup(g, res)
		}),
	)

	process := func(ev hunkbuf.Event) error {
		switch ev.Kind {
		case hunkbuf.GroupReady:
			err := handle(ev.Group)
			buf.Clear()
			return err
		default:
			return emitter.WritePassThrough(ev.Line)
		}
	}

	for {
		line, err := reader.ReadLine()
		if err != nil && len(line.Bytes) == 0 {
			if err == io.EOF {
				break
			}
			return stats, err
		}
		stats.LinesRead++
		for _, ev := range buf.Feed(line) {
			if err := process(ev); err != nil {
				return stats, err
			}
		}
		if err == io.EOF {
			break
		}
	}

	if ev, ok := buf.FlushAtEOF(); ok {
		if err := process(ev); err != nil {
			return stats, err
		}
	}

	return stats, bufW.Flush()
}
