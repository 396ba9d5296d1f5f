package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPageKey_Stable(t *testing.T) {
	a := PageKey("https://www.ycombinator.com/companies/acme")
	b := PageKey("https://www.ycombinator.com/companies/acme")
	c := PageKey("https://www.ycombinator.com/companies/other")

	if a != b {
		t.Errorf("expected identical keys, got %s and %s", a, b)
	}
	if a == c {
		t.Errorf("expected different keys for different URLs")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := PageKey("https://example.com")

	if err := c.Set(key, []byte("<html>ok</html>"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "<html>ok</html>" {
		t.Errorf("unexpected value: %q", got)
	}

}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := PageKey("https://example.com/old")

	if err := c.Set(key, []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := PageKey("https://example.com/promote")

	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set(key, []byte("from disk"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mem := NewMemoryCache(time.Hour, time.Minute)
	layered := &LayeredCache{memory: mem, disk: disk}

	got, ok := layered.Get(key)
	if !ok || string(got) != "from disk" {
		t.Fatalf("expected disk hit, got %q (%v)", got, ok)
	}
	if got, ok := mem.Get(key); !ok || string(got) != "from disk" {
		t.Errorf("expected entry promoted to memory, got %q (%v)", got, ok)
	}
}

func TestLayeredCache_ClearEmptiesBothLayers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pages")
	c := NewLayeredCache(time.Hour, dir, time.Hour)
	key := PageKey("https://www.linkedin.com/company/acme")

	if err := c.Set(key, []byte("profile"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("expected miss after Clear")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected cache dir removed, stat err = %v", err)
	}
}
