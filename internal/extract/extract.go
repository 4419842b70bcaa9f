// Package extract walks a file tree and yields the content windows the
// scanning pipeline operates on. Per-file failures become warnings, never
// scan aborts.
package extract

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"github.com/phiguard/phiguard/internal/ignore"
	"github.com/phiguard/phiguard/internal/types"
)

// ContentWindow is one unit of scannable content: a file's text plus the
// path it came from. Paths are slash-separated and relative to the scan root.
type ContentWindow struct {
	Path string
	Data []byte
}

// FileAccessError wraps a per-file read failure. It is recorded as a
// ScanWarning by the caller; it never aborts the walk.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// Options controls tree traversal and file eligibility.
type Options struct {
	Root            string
	IncludeGlobs    []string
	ExcludeGlobs    []string
	MaxFileSize     int64
	DefaultExcludes bool
	Ignore          ignore.Matcher
}

// Sink receives extraction events. OnWindow is called for each readable
// text file; OnSkip and OnWarn record files that were not scanned.
type Sink struct {
	OnWindow func(ContentWindow)
	OnSkip   func(types.SkippedFile)
	OnWarn   func(types.ScanWarning)
}

// Walk traverses the tree under opts.Root and feeds the sink. The walk is
// cooperative: it stops early when ctx is cancelled, and the error returned
// is ctx.Err() in that case. Individual unreadable files never surface as
// errors here.
func Walk(ctx context.Context, opts Options, sink Sink) error {
	return filepath.WalkDir(opts.Root, func(p string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Unreadable directory entry: warn and move on.
			if rel, rerr := filepath.Rel(opts.Root, p); rerr == nil {
				warn(sink, rel, err.Error())
			}
			return nil
		}
		if d.IsDir() {
			if opts.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(opts.Root, p)
		rel = filepath.ToSlash(rel)
		if ownArtifacts[filepath.Base(rel)] {
			skip(sink, rel, "scanner artifact")
			return nil
		}
		if !Allowed(rel, opts.IncludeGlobs, opts.ExcludeGlobs) {
			skip(sink, rel, "excluded by glob")
			return nil
		}
		if opts.Ignore.Match(rel) {
			skip(sink, rel, "ignore file")
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			warn(sink, rel, ierr.Error())
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			skip(sink, rel, fmt.Sprintf("exceeds max size (%d bytes)", info.Size()))
			return nil
		}
		if opts.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
			skip(sink, rel, "default exclude")
			return nil
		}
		b, rerr := os.ReadFile(p)
		if rerr != nil {
			warn(sink, rel, (&FileAccessError{Path: rel, Err: rerr}).Error())
			return nil
		}
		if looksBinary(b) || looksNonTextMIME(rel, b) {
			skip(sink, rel, "binary content")
			return nil
		}
		if strings.Contains(string(b), "phiguard:ignore-file") {
			skip(sink, rel, "inline ignore directive")
			return nil
		}
		if sink.OnWindow != nil {
			sink.OnWindow(ContentWindow{Path: rel, Data: b})
		}
		return nil
	})
}

// Files the scanner itself writes next to the tree. Scanning them would
// re-report hashed copies of earlier findings.
var ownArtifacts = map[string]bool{
	".phiguardcache.json":      true,
	".phiguard_audit.jsonl":    true,
	"phiguard.baseline.json":   true,
	".phiguard_last_scan.json": true,
}

func skip(sink Sink, path, reason string) {
	if sink.OnSkip != nil {
		sink.OnSkip(types.SkippedFile{Path: path, Reason: reason})
	}
}

func warn(sink Sink, path, reason string) {
	if sink.OnWarn != nil {
		sink.OnWarn(types.ScanWarning{Path: path, Reason: reason})
	}
}

// Allowed applies include globs (positive filter when present) then exclude
// globs, using doublestar semantics against both the full relative path and
// its basename.
func Allowed(relPath string, includes, excludes []string) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
		if t := trimGlobPrefix(g); t != g {
			if ok, _ := doublestar.Match(t, pathToMatch); ok {
				return true
			}
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := sniff
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

// looksNonTextMIME uses the file extension and a tiny content sniff to skip
// clearly non-text content in addition to NUL-byte detection.
func looksNonTextMIME(path string, b []byte) bool {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
		return true
	}
	if len(b) >= 2 && b[0] == 'P' && b[1] == 'K' {
		return true
	}
	return false
}
