// Package ignore loads .phiguardignore files: gitignore-flavoured path
// patterns excluding files from scans.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// DefaultName is the ignore file looked up at the scan root.
const DefaultName = ".phiguardignore"

// Matcher reports whether a relative path is excluded. The zero value
// matches nothing.
type Matcher struct {
	patterns []string
}

// Load reads an ignore file. A missing file yields an empty matcher and
// no error.
func Load(path string) (Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Matcher{}, nil
		}
		return Matcher{}, err
	}
	defer f.Close()

	var m Matcher
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, line)
	}
	if err := sc.Err(); err != nil {
		return Matcher{}, err
	}
	return m, nil
}

// Match reports whether relPath (slash-separated) is covered by any pattern.
// Directory patterns ("dir/") match everything beneath the directory; bare
// patterns match both the full path and the basename.
func (m Matcher) Match(relPath string) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	base := filepath.Base(rp)
	for _, p := range m.patterns {
		if strings.HasSuffix(p, "/") {
			dir := strings.TrimSuffix(p, "/")
			if rp == dir || strings.HasPrefix(rp, dir+"/") || strings.Contains(rp, "/"+dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(p, rp); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

// Empty reports whether the matcher holds no patterns.
func (m Matcher) Empty() bool { return len(m.patterns) == 0 }
