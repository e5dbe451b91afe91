package txn

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
	"ilo/internal/validate"
)

const diagramSrc = `resources:
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

func writeDiagram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diagram.ilograph")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(raw)
}

func TestCommit_WritesAtomically(t *testing.T) {
	path := writeDiagram(t, diagramSrc)
	tx, err := Begin(path, validate.ModeStrict)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	err = tx.Do(func(doc *ilodoc.Document) error {
		return ops.RenameResource(doc, "db", "PostgreSQL")
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	res, err := tx.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !res.Changed {
		t.Fatal("rename should report a change")
	}
	if tx.State() != StateCommitted {
		t.Fatalf("state = %s, want committed", tx.State())
	}
	after := readFile(t, path)
	if !strings.Contains(after, "PostgreSQL") {
		t.Fatalf("file not rewritten:\n%s", after)
	}
	if after != res.After {
		t.Fatal("file content does not match the rendered result")
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".ilo-") {
			t.Fatalf("stale temp file: %s", entry.Name())
		}
	}
}

func TestDo_FailingStepAborts(t *testing.T) {
	path := writeDiagram(t, diagramSrc)
	tx, err := Begin(path, validate.ModeStrict)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Do(func(doc *ilodoc.Document) error {
		return ops.RenameResource(doc, "db", "PostgreSQL")
	}); err != nil {
		t.Fatalf("first step: %v", err)
	}
	stepErr := tx.Do(func(doc *ilodoc.Document) error {
		return ops.DeleteResource(doc, "ghost", false)
	})
	if stepErr == nil {
		t.Fatal("step against a missing resource should fail")
	}
	if tx.State() != StateAborted {
		t.Fatalf("state = %s, want aborted", tx.State())
	}

	if _, err := tx.Commit(); err == nil {
		t.Fatal("commit after abort should fail")
	}
	if got := readFile(t, path); got != diagramSrc {
		t.Fatalf("aborted transaction touched the file:\n%s", got)
	}
}

func TestCommit_UnchangedDoesNotRewrite(t *testing.T) {
	path := writeDiagram(t, diagramSrc)
	fiBefore, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	tx, err := Begin(path, validate.ModeStrict)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	res, err := tx.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Changed {
		t.Fatal("no-op transaction reported a change")
	}
	fiAfter, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !fiAfter.ModTime().Equal(fiBefore.ModTime()) {
		t.Fatal("unchanged commit rewrote the file")
	}
}

func TestDryRun_NeverWrites(t *testing.T) {
	path := writeDiagram(t, diagramSrc)
	tx, err := Begin(path, validate.ModeStrict)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Do(func(doc *ilodoc.Document) error {
		return ops.DeleteResource(doc, "api", false)
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	res, err := tx.DryRun()
	if err != nil {
		t.Fatalf("DryRun: %v", err)
	}
	if !res.Changed {
		t.Fatal("dry run should report the pending change")
	}
	if strings.Contains(res.After, "id: api") {
		t.Fatalf("deleted resource still present in render:\n%s", res.After)
	}
	if got := readFile(t, path); got != diagramSrc {
		t.Fatal("dry run wrote the file")
	}
	if tx.State() != StateAborted {
		t.Fatalf("state = %s, want aborted after dry run", tx.State())
	}
	if _, err := tx.Commit(); err == nil {
		t.Fatal("commit after dry run should fail")
	}
}

func TestCommit_ValidationBlocks(t *testing.T) {
	path := writeDiagram(t, diagramSrc)
	tx, err := Begin(path, validate.ModeStrict)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	// Renaming the id in resources only leaves the relation pointing
	// at a resource that no longer exists.
	if err := tx.Do(func(doc *ilodoc.Document) error {
		res := doc.Resources()
		ilodoc.MapSet(res.Content[0], ilodoc.KeyID, ilodoc.Str("postgres"))
		return nil
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	_, err = tx.Commit()
	if err == nil {
		t.Fatal("commit of a document with broken references should fail")
	}
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("want *ValidationError, got %T: %v", err, err)
	}
	if ve.Bag.Len() == 0 {
		t.Fatal("validation error carries no findings")
	}
	if got := readFile(t, path); got != diagramSrc {
		t.Fatal("failed validation still wrote the file")
	}
	if tx.State() != StateAborted {
		t.Fatalf("state = %s, want aborted", tx.State())
	}
}

func TestCommit_PreservesFileMode(t *testing.T) {
	path := writeDiagram(t, diagramSrc)
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	tx, err := Begin(path, validate.ModeStrict)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Do(func(doc *ilodoc.Document) error {
		return ops.RenameResource(doc, "db", "PostgreSQL")
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if _, err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %o, want 600", fi.Mode().Perm())
	}
}

func TestBegin_MissingFile(t *testing.T) {
	_, err := Begin(filepath.Join(t.TempDir(), "nope.ilograph"), validate.ModeStrict)
	if err == nil {
		t.Fatal("want error for a missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want wrapped fs error, got %v", err)
	}
}
