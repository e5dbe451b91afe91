package main

import (
	"os"
	"path/filepath"
	"testing"

	"ilo/internal/cache"
	"ilo/internal/validate"
)

const checkFixture = `resources:
- id: db
  name: Postgres
- id: api
  name: API
perspectives:
- id: deps
  relations:
  - from: api
    to: db
`

func TestCheckOne_UsesCachedCleanResult(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	diskCache, err := cache.Open("ilo")
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}

	path := filepath.Join(t.TempDir(), "diagram.ilograph")
	if err := os.WriteFile(path, []byte(checkFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	report, err := checkOne(path, validate.ModeStrict, diskCache)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if len(report.Findings) != 0 {
		t.Fatalf("fixture should be clean, got %v", report.Findings)
	}

	broken := "perspectives:\n- id: deps\n  relations:\n  - from: ghost\n    to: nowhere\n"
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}
	direct, err := checkOne(path, validate.ModeStrict, nil)
	if err != nil {
		t.Fatalf("uncached check: %v", err)
	}
	if direct.Errors == 0 {
		t.Fatal("broken fixture should report errors without a cache")
	}

	// A seeded clean entry for the same bytes must short-circuit the
	// parse and validation entirely.
	if err := diskCache.Put(cache.DigestOf([]byte(broken)), &cache.IndexPayload{Clean: true}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	report, err = checkOne(path, validate.ModeStrict, diskCache)
	if err != nil {
		t.Fatalf("cached check: %v", err)
	}
	if report.Errors != 0 || len(report.Findings) != 0 {
		t.Fatalf("cached clean entry should skip revalidation, got %+v", report)
	}
}
