package update

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCacheFile(t *testing.T, dir, latest string, checkedAt time.Time) {
	t.Helper()
	b, err := json.Marshal(cachedAnswer{CheckedAt: checkedAt, Latest: latest})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "update.json"), b, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckerPrefersFreshCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"tag_name":"v9.9.9"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeCacheFile(t, dir, "1.2.3", time.Now())

	c := &Checker{Endpoint: srv.URL, TTL: time.Hour, Timeout: time.Second, CacheDir: dir}
	if got := c.Latest(); got != "1.2.3" {
		t.Errorf("latest %q, want the cached answer", got)
	}
	if hits != 0 {
		t.Errorf("fresh cache should skip the network, got %d requests", hits)
	}
}

func TestCheckerFetchesAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"v1.2.3"}`))
	}))

	dir := t.TempDir()
	c := &Checker{Endpoint: srv.URL, TTL: time.Hour, Timeout: time.Second, CacheDir: dir}
	if got := c.Latest(); got != "1.2.3" {
		t.Fatalf("latest %q", got)
	}

	// The answer survives the endpoint going away.
	srv.Close()
	if got := c.Latest(); got != "1.2.3" {
		t.Errorf("cached latest %q", got)
	}
}

func TestCheckerServesStaleCacheWhenOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	dir := t.TempDir()
	writeCacheFile(t, dir, "0.9.0", time.Now().Add(-48*time.Hour))

	c := &Checker{Endpoint: srv.URL, TTL: time.Hour, Timeout: time.Second, CacheDir: dir}
	if got := c.Latest(); got != "0.9.0" {
		t.Errorf("latest %q, want the stale cached answer over nothing", got)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.2", 1},
		{"1.2.3", "1.2.3", 0},
		{"0.9.0", "1.0.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"2", "1.9", 1},           // tolerant parse
		{"1.2.x", "1.1.y", 1},     // fallback on malformed tags
		{"3-rc1.0.0", "2.0.0", 1}, // numeric prefix wins
	}
	for _, tt := range tests {
		if got := compare(tt.a, tt.b); got != tt.want {
			t.Errorf("compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize(" v1.2.3 "); got != "1.2.3" {
		t.Errorf("normalize %q", got)
	}
}
