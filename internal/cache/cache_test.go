package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/symptia/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("net", "kb", "fever|cough")
	b := CacheKey("net", "kb", "fever|cough")
	if a != b {
		t.Error("expected identical parts to give identical keys")
	}
	if CacheKey("ab", "c") == CacheKey("a", "bc") {
		t.Error("expected part boundaries to matter")
	}
	if len(a) != len(keyPrefix)+64 || a[:len(keyPrefix)] != keyPrefix {
		t.Errorf("unexpected key format: %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}

	value := []byte(`{"a":1}`)
	if err := c.Set("k", value, 0); err != nil {
		t.Fatal(err)
	}
	value[0] = 'x'

	got, ok := c.Get("k")
	if !ok || string(got) != `{"a":1}` {
		t.Errorf("expected stored copy, got %q", got)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := CacheKey("x")
	if err := c.Set(key, []byte(`{"urgency":"low"}`), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != `{"urgency":"low"}` {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(fileName(dir, key)); !os.IsNotExist(err) {
		t.Error("expected expired entry to be removed")
	}
}

func TestDiskCache_RejectsNonJSON(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Set("k", []byte("not json"), 0); err == nil {
		t.Error("expected error for non-JSON value")
	}
}

func TestDiskCache_Prune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }

	_ = c.Set("short", []byte(`1`), time.Minute)
	_ = c.Set("long", []byte(`2`), 3*time.Hour)
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour)
	removed, err := c.Prune()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("expected live entry to survive")
	}

	missing := NewDiskCache(filepath.Join(dir, "nope"), time.Hour)
	if n, err := missing.Prune(); n != 0 || err != nil {
		t.Errorf("expected no-op on missing dir, got %d %v", n, err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	memory := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayeredCache(memory, disk, time.Minute)

	if err := disk.Set("k", []byte(`"v"`), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok := memory.Get("k"); ok {
		t.Fatal("memory should start empty")
	}

	if got, ok := c.Get("k"); !ok || string(got) != `"v"` {
		t.Fatalf("expected disk hit, got %q", got)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("expected promotion into memory")
	}

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	in := model.AnalysisResult{Urgency: model.UrgencyMedium, Confidence: 71}
	if err := SetJSON(c, "r", in, 0); err != nil {
		t.Fatal(err)
	}

	var out model.AnalysisResult
	if !GetJSON(c, "r", &out) {
		t.Fatal("expected hit")
	}
	if out.Urgency != model.UrgencyMedium || out.Confidence != 71 {
		t.Errorf("unexpected value: %+v", out)
	}

	_ = c.Set("bad", []byte("{"), 0)
	if GetJSON(c, "bad", &out) {
		t.Error("expected undecodable entry to miss")
	}
}

func TestNew(t *testing.T) {
	cfg := model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour}

	if _, ok := New(cfg, false).(*MemoryCache); !ok {
		t.Error("expected memory cache for non-persistent results")
	}
	if _, ok := New(cfg, true).(*LayeredCache); !ok {
		t.Error("expected layered cache for persistent results")
	}

	cfg.Enabled = false
	if _, ok := New(cfg, true).(Noop); !ok {
		t.Error("expected noop cache when disabled")
	}
}
