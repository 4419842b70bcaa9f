// Package engine orchestrates a scan: walking the tree, matching patterns,
// validating and scoring hits, and assembling the final findings.
package engine

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/phiguard/phiguard/internal/aggregate"
	"github.com/phiguard/phiguard/internal/analyze"
	"github.com/phiguard/phiguard/internal/cache"
	"github.com/phiguard/phiguard/internal/classify"
	"github.com/phiguard/phiguard/internal/confidence"
	"github.com/phiguard/phiguard/internal/emit"
	"github.com/phiguard/phiguard/internal/extract"
	"github.com/phiguard/phiguard/internal/gitscan"
	"github.com/phiguard/phiguard/internal/ignore"
	"github.com/phiguard/phiguard/internal/match"
	"github.com/phiguard/phiguard/internal/registry"
	"github.com/phiguard/phiguard/internal/risk"
	"github.com/phiguard/phiguard/internal/types"
	"github.com/phiguard/phiguard/internal/validate"
)

// DefaultMinConfidence is the reporting floor applied when Config leaves
// MinConfidence at zero. It sits just above the near-miss floor so
// validator-rejected values stay out of default output; set MinConfidence
// negative to see them.
const DefaultMinConfidence = 0.02

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Root         string
	IncludeGlobs []string
	ExcludeGlobs []string
	MaxFileSize  int64
	Workers      int

	// MinConfidence filters findings below the threshold. Zero means
	// DefaultMinConfidence; a negative value disables the filter.
	MinConfidence   float64
	MinSeverity     types.Severity
	EnableTypes     []string
	DisableTypes    []string
	DefaultExcludes bool
	NoCache         bool

	// ContextWindow overrides the byte window the context analyzer reads
	// around a match; zero keeps the analyzer default.
	ContextWindow int

	// HistoryCommits > 0 also scans blobs from the last N commits.
	HistoryCommits int

	// Budget bounds the whole scan; zero means unbounded.
	Budget time.Duration

	Registry *registry.Registry
	Logger   *logrus.Logger
	Progress func()
}

// Result is the outcome of one scan.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	Skipped      []types.SkippedFile
	Warnings     []types.ScanWarning
	Duration     time.Duration
	// Truncated means the budget or the caller's context expired before the
	// walk finished; findings cover only what was scanned.
	Truncated bool
}

// Scan runs a full scan under the given configuration.
func Scan(ctx context.Context, cfg Config) (Result, error) {
	var res Result
	started := time.Now()

	if cfg.Registry == nil {
		reg, err := registry.Default()
		if err != nil {
			return res, err
		}
		cfg.Registry = reg
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Budget)
		defer cancel()
	}

	var db cache.DB
	if !cfg.NoCache {
		db, _ = cache.Load(cfg.Root)
	}
	updated := map[string]string{}

	ign, err := ignore.Load(filepath.Join(cfg.Root, ignore.DefaultName))
	if err != nil {
		cfg.Logger.WithField("path", ignore.DefaultName).Warn("ignore file unreadable, proceeding without it")
	}

	validators := validate.NewSet()
	enabled := typeFilter(cfg.EnableTypes, cfg.DisableTypes)
	var analyzerOpts []analyze.Option
	if cfg.ContextWindow > 0 {
		analyzerOpts = append(analyzerOpts, analyze.WithWindow(cfg.ContextWindow))
	}
	analyzer := analyze.New(analyzerOpts...)

	var (
		mu          sync.Mutex
		scored      []confidence.Scored
		fromHistory = map[string]bool{}
	)
	collect := func(ss []confidence.Scored, history bool) {
		mu.Lock()
		defer mu.Unlock()
		scored = append(scored, ss...)
		if history {
			for _, s := range ss {
				fromHistory[s.Path] = true
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	walkErr := extract.Walk(gctx, extract.Options{
		Root:            cfg.Root,
		IncludeGlobs:    cfg.IncludeGlobs,
		ExcludeGlobs:    cfg.ExcludeGlobs,
		MaxFileSize:     cfg.MaxFileSize,
		DefaultExcludes: cfg.DefaultExcludes,
		Ignore:          ign,
	}, extract.Sink{
		OnWindow: func(win extract.ContentWindow) {
			h := fastHash(win.Data)
			if !cfg.NoCache && db.Entries[win.Path] == h {
				mu.Lock()
				res.FilesScanned++
				mu.Unlock()
				if cfg.Progress != nil {
					cfg.Progress()
				}
				return
			}
			g.Go(func() error {
				ss, serr := scanWindow(gctx, cfg.Registry, validators, analyzer, enabled, win)
				if serr != nil {
					return serr
				}
				collect(ss, false)
				mu.Lock()
				res.FilesScanned++
				// Only clean files are cached: a cache hit means "skip, it
				// had nothing", so files with candidates must rescan.
				if !cfg.NoCache && len(ss) == 0 {
					updated[win.Path] = h
				}
				mu.Unlock()
				if cfg.Progress != nil {
					cfg.Progress()
				}
				return nil
			})
		},
		OnSkip: func(s types.SkippedFile) {
			mu.Lock()
			res.Skipped = append(res.Skipped, s)
			mu.Unlock()
		},
		OnWarn: func(w types.ScanWarning) {
			cfg.Logger.WithFields(logrus.Fields{"path": w.Path, "reason": w.Reason}).Warn("file skipped with error")
			mu.Lock()
			res.Warnings = append(res.Warnings, w)
			mu.Unlock()
		},
	})

	if cfg.HistoryCommits > 0 && walkErr == nil {
		hwins, herr := gitscan.History(gctx, cfg.Root, cfg.HistoryCommits)
		if herr != nil {
			cfg.Logger.WithError(herr).Warn("git history scan unavailable")
			mu.Lock()
			res.Warnings = append(res.Warnings, types.ScanWarning{Path: cfg.Root, Reason: "git history: " + herr.Error()})
			mu.Unlock()
		}
		for _, win := range hwins {
			win := win
			if cfg.MaxFileSize > 0 && int64(len(win.Data)) > cfg.MaxFileSize {
				continue
			}
			g.Go(func() error {
				ss, serr := scanWindow(gctx, cfg.Registry, validators, analyzer, enabled, win)
				if serr != nil {
					return serr
				}
				collect(ss, true)
				return nil
			})
		}
	}

	gErr := g.Wait()

	truncated := isCancel(walkErr) || isCancel(gErr) || ctx.Err() != nil
	switch {
	case truncated:
		res.Truncated = true
	case walkErr != nil:
		return res, walkErr
	case gErr != nil:
		return res, gErr
	}

	res.Findings = finish(scored, fromHistory, cfg)
	res.Duration = time.Since(started)

	if !cfg.NoCache && len(updated) > 0 && !res.Truncated {
		if db.Entries == nil {
			db.Entries = map[string]string{}
		}
		for k, v := range updated {
			db.Entries[k] = v
		}
		if err := cache.Save(cfg.Root, db); err != nil {
			cfg.Logger.WithError(err).Warn("cache not saved")
		}
	}
	return res, nil
}

func isCancel(err error) bool {
	return err == context.Canceled || err == context.DeadlineExceeded
}

// scanWindow runs the per-file stages: match, validate, context, confidence.
// Raw matched text does not escape this function.
func scanWindow(ctx context.Context, reg *registry.Registry, vs *validate.Set, an *analyze.Analyzer, enabled func(string) bool, win extract.ContentWindow) ([]confidence.Scored, error) {
	cands, err := match.Scan(ctx, reg, win)
	if err != nil {
		return nil, err
	}
	out := make([]confidence.Scored, 0, len(cands))
	for _, c := range cands {
		if !enabled(c.Definition.TypeID) {
			continue
		}
		v := vs.Apply(c.Definition.ValidatorRef, c.Raw)
		sig := an.Inspect(c)
		out = append(out, confidence.Score(c, v, sig))
	}
	return out, nil
}

// finish runs the aggregation, risk, and emission stages over everything
// the workers produced.
func finish(scored []confidence.Scored, fromHistory map[string]bool, cfg Config) []types.Finding {
	deduped := aggregate.Reduce(scored)
	findings := make([]types.Finding, 0, len(deduped))
	for _, d := range deduped {
		a := risk.Score(d, risk.Options{GitHistory: fromHistory[d.Path]})
		o := classify.Resolve(d.Definition, a.Severity)
		findings = append(findings, emit.Build(d, a, o))
	}
	findings = emit.Finalize(findings)

	minSev := cfg.MinSeverity
	if minSev == "" {
		minSev = types.SevLow
	}
	minConf := cfg.MinConfidence
	if minConf == 0 {
		minConf = DefaultMinConfidence
	}
	out := findings[:0]
	for _, f := range findings {
		if minConf > 0 && f.Confidence < minConf {
			continue
		}
		if f.Severity.Rank() < minSev.Rank() {
			continue
		}
		out = append(out, f)
	}
	return out
}

func typeFilter(enable, disable []string) func(string) bool {
	if len(enable) == 0 && len(disable) == 0 {
		return func(string) bool { return true }
	}
	allowed := map[string]bool{}
	for _, id := range enable {
		allowed[id] = true
	}
	blocked := map[string]bool{}
	for _, id := range disable {
		blocked[id] = true
	}
	return func(id string) bool {
		if len(enable) > 0 && !allowed[id] {
			return false
		}
		return !blocked[id]
	}
}

func fastHash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
