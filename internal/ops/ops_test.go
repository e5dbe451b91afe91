package ops

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

func parseDoc(t *testing.T, raw string) *ilodoc.Document {
	t.Helper()
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	doc, err := ilodoc.New(&root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return doc
}

// dump re-serialises the document so tests can compare whole-tree state.
func dump(t *testing.T, doc *ilodoc.Document) string {
	t.Helper()
	out, err := yaml.Marshal(doc.Root)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(out)
}

func relationsOf(t *testing.T, doc *ilodoc.Document, perspectiveID string) []*yaml.Node {
	t.Helper()
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		t.Fatalf("perspective %s: %v", perspectiveID, err)
	}
	relations := ilodoc.MapGet(perspective.Node, ilodoc.KeyRelations)
	if relations == nil {
		return nil
	}
	return relations.Content
}

func wantOpError(t *testing.T, err error, code diag.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %v, got nil", code)
	}
	var opErr *diag.OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *diag.OpError, got %T: %v", err, err)
	}
	if opErr.Code != code {
		t.Fatalf("error code = %v, want %v (%v)", opErr.Code, code, err)
	}
}
