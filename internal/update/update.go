// Package update checks GitHub releases for a newer build. Lookups are
// cached on disk so repeated scans stay fast and work offline.
package update

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
)

// Checker resolves the latest released version, consulting a disk cache
// before the network. The zero value is not usable; call NewChecker.
type Checker struct {
	// Endpoint is the releases/latest API URL to query.
	Endpoint string
	// TTL is how long a cached answer stays fresh.
	TTL time.Duration
	// Timeout bounds the network lookup so scans never hang on it.
	Timeout time.Duration
	// CacheDir holds the cache file; empty disables caching.
	CacheDir string
}

// NewChecker returns a Checker with the release endpoint for this tool,
// a day of cache freshness, and a short network timeout.
func NewChecker() *Checker {
	return &Checker{
		Endpoint: "https://api.github.com/repos/phiguard/phiguard/releases/latest",
		TTL:      24 * time.Hour,
		Timeout:  2 * time.Second,
		CacheDir: defaultCacheDir(),
	}
}

func defaultCacheDir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "phiguard")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "phiguard")
}

type cachedAnswer struct {
	CheckedAt time.Time `json:"checked_at"`
	Latest    string    `json:"latest"`
}

func (c *Checker) cachePath() string {
	if c.CacheDir == "" {
		return ""
	}
	return filepath.Join(c.CacheDir, "update.json")
}

func (c *Checker) readCache() (cachedAnswer, error) {
	var a cachedAnswer
	p := c.cachePath()
	if p == "" {
		return a, errors.New("cache disabled")
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return cachedAnswer{}, err
	}
	return a, nil
}

func (c *Checker) writeCache(a cachedAnswer) {
	p := c.cachePath()
	if p == "" {
		return
	}
	_ = os.MkdirAll(c.CacheDir, 0755)
	b, _ := json.MarshalIndent(a, "", "  ")
	_ = os.WriteFile(p, b, 0644)
}

// Latest resolves the newest release tag, serving from cache while fresh.
// On a network failure a stale cached answer is returned rather than an
// error; the empty string means no answer is available at all.
func (c *Checker) Latest() string {
	cached, cerr := c.readCache()
	if cerr == nil && cached.Latest != "" && time.Since(cached.CheckedAt) < c.TTL {
		return cached.Latest
	}
	tag, err := c.fetchLatestTag()
	if err != nil {
		return cached.Latest // possibly stale, possibly empty
	}
	c.writeCache(cachedAnswer{CheckedAt: time.Now(), Latest: tag})
	return tag
}

func (c *Checker) fetchLatestTag() (string, error) {
	client := &http.Client{Timeout: c.Timeout}
	req, err := http.NewRequest(http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "phiguard-updater")
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New("release lookup: " + resp.Status)
	}
	var rel struct {
		TagName string `json:"tag_name"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", err
	}
	if rel.TagName != "" {
		return normalize(rel.TagName), nil
	}
	return normalize(rel.Name), nil
}

// Check returns (latest, isNewer, error). It is a no-op in CI and when the
// caller forbids network use.
func Check(current string, noNetwork bool) (string, bool, error) {
	if os.Getenv("CI") != "" || noNetwork {
		return "", false, nil
	}
	latest := NewChecker().Latest()
	current = normalize(current)
	if latest == "" || current == "" {
		return latest, false, nil
	}
	return latest, compare(latest, current) > 0, nil
}

func normalize(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// compare prefers semver ordering and falls back to dot-separated ints for
// malformed tags.
func compare(a, b string) int {
	av, aerr := semver.ParseTolerant(a)
	bv, berr := semver.ParseTolerant(b)
	if aerr == nil && berr == nil {
		return av.Compare(bv)
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var ai, bi int
		if i < len(as) {
			ai = leadingInt(as[i])
		}
		if i < len(bs) {
			bi = leadingInt(bs[i])
		}
		if ai != bi {
			if ai > bi {
				return 1
			}
			return -1
		}
	}
	return 0
}

// leadingInt parses the numeric prefix of a tag segment ("3-rc1" -> 3).
func leadingInt(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		v = v*10 + int(s[i]-'0')
	}
	return v
}
