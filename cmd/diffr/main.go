// cmd/diffr/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xerus2000/diffr/internal/ansi"
	"github.com/xerus2000/diffr/internal/cache"
	cliErrors "github.com/xerus2000/diffr/internal/errors"
	"github.com/xerus2000/diffr/internal/hunkbuf"
	"github.com/xerus2000/diffr/internal/logging"
	"github.com/xerus2000/diffr/internal/pipeline"
	"github.com/xerus2000/diffr/internal/refine"
	"github.com/xerus2000/diffr/internal/watch"
)

var (
	colorSpecs   []string
	lineNumbers  bool
	watchDir     string
	cacheDir     string
	noCache      bool
	cacheLRUSize int
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:     "diffr",
	Short:   "Highlight intra-line changes in a unified diff",
	Long:    "diffr reads a unified diff on stdin and re-emits it on stdout with word-level intra-line highlighting computed per hunk.",
	Version: "0.1.0",
	RunE:    run,
}

func init() {
	flags := rootCmd.Flags()
	// Registered before cobra adds its own: InitDefaultVersionFlag skips
	// "version" if a flag by that name already exists, so this is the
	// only binding, giving "-V" instead of cobra's default "-v" shorthand.
	flags.BoolP("version", "V", false, "print version and exit")
	flags.StringArrayVar(&colorSpecs, "colors", nil, "override one color class, repeatable (SPEC is CLASS:FACE[:FACE...])")
	flags.BoolVar(&lineNumbers, "line-numbers", boolEnv("DIFFR_LINE_NUMBERS", false), "prefix emitted lines with their reconstructed line number")
	flags.StringVar(&watchDir, "watch", stringEnv("DIFFR_WATCH", ""), "watch DIR for *.diff/*.patch files instead of reading stdin")
	flags.StringVar(&cacheDir, "cache-dir", stringEnv("DIFFR_CACHE_DIR", defaultCacheDir()), "directory for the on-disk refinement cache")
	flags.BoolVar(&noCache, "no-cache", boolEnv("DIFFR_NO_CACHE", false), "disable both cache tiers")
	flags.IntVar(&cacheLRUSize, "cache-lru-size", intEnv("DIFFR_CACHE_LRU_SIZE", 512), "number of refinement results kept in the in-process cache")
	flags.StringVar(&logLevel, "log-level", stringEnv("DIFFR_LOG_LEVEL", "warn"), "zap log level for structured logs on stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cliErrors.ExitCode(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(logLevel)
	if err != nil {
		return cliErrors.New(cliErrors.KindCLIParse, "invalid --log-level", err)
	}
	defer logger.Sync() //nolint:errcheck

	colors, err := buildColors(colorSpecs)
	if err != nil {
		return cliErrors.New(cliErrors.KindCLIParse, "invalid --colors", err)
	}

	var c *cache.Cache
	if !noCache {
		c, err = cache.Open(cache.Options{Dir: cacheDir, LRUSize: cacheLRUSize})
		if err != nil {
			// Cache failures are never fatal: the engine runs uncached.
			logger.Warn("opening refinement cache, continuing without it", zap.Error(err))
			c = nil
		}
	}

	refineFn := cachedRefine(c, refine.NewEngine(refine.Options{}), logger)

	cfg := pipeline.Config{
		Colors:      colors,
		LineNumbers: lineNumbers,
		Logger:      logger,
		Refine:      refineFn,
	}

	var runErr error
	if watchDir != "" {
		if stat, statErr := os.Stdin.Stat(); statErr == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			logger.Warn("--watch is set; ignoring piped stdin input")
		}
		runErr = runWatch(cfg, logger)
	} else {
		_, runErr = pipeline.Run(os.Stdin, os.Stdout, cfg)
	}

	var closeErr error
	if c != nil {
		closeErr = c.Close()
	}

	if runErr != nil {
		runErr = cliErrors.New(cliErrors.KindIO, "refining diff", runErr)
	}
	return multierr.Combine(runErr, closeErr)
}

func runWatch(cfg pipeline.Config, logger *logging.Logger) error {
	w, err := watch.New(watchDir, logger.Logger)
	if err != nil {
		return fmt.Errorf("watching %s: %w", watchDir, err)
	}
	defer w.Close()

	for path := range w.Ready {
		f, err := os.Open(path)
		if err != nil {
			logger.Error("opening watched file", zap.Error(err))
			continue
		}
		_, err = pipeline.Run(f, os.Stdout, cfg)
		f.Close()
		if err != nil {
			logger.Error("refining watched file", zap.Error(err))
			continue
		}
		fmt.Fprint(os.Stdout, "\f")
	}
	return nil
}

// cachedRefine wraps eng.Refine with a content-addressed cache lookup,
// so a group whose arenas exactly match a previously refined group
// skips the LCS engine. Cache errors are logged and otherwise treated
// as a miss; they never fail the refinement itself.
func cachedRefine(c *cache.Cache, eng *refine.Engine, logger *logging.Logger) func(hunkbuf.Group) (refine.Result, bool) {
	return func(g hunkbuf.Group) (refine.Result, bool) {
		if c == nil {
			return eng.Refine(g)
		}
		key := cache.Key(g.RemovedArena, g.AddedArena)
		if res, ok := c.Get(key); ok {
			return res, false
		}
		res, degraded := eng.Refine(g)
		if err := c.Put(key, res); err != nil {
			logger.Warn("writing refinement cache entry", zap.Error(err))
		}
		return res, degraded
	}
}

func buildColors(specs []string) (ansi.Config, error) {
	b := ansi.NewBuilder()
	noColorEnv := os.Getenv("NO_COLOR") != ""
	if len(specs) == 0 && noColorEnv {
		for _, class := range []ansi.Class{ansi.ClassAdded, ansi.ClassRefineAdded, ansi.ClassRemoved, ansi.ClassRefineRemoved} {
			if err := b.Apply(string(class) + ":none"); err != nil {
				return ansi.Config{}, err
			}
		}
		return b.Build(), nil
	}
	for _, spec := range specs {
		if err := b.Apply(spec); err != nil {
			return ansi.Config{}, err
		}
	}
	return b.Build(), nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "diffr", "cache")
}

func stringEnv(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

func boolEnv(name string, fallback bool) bool {
	if v, ok := os.LookupEnv(name); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func intEnv(name string, fallback int) int {
	if v, ok := os.LookupEnv(name); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return fallback
}
