package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestFind_WalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeManifest(t, root, "")
	nested := filepath.Join(root, "diagrams", "prod")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !ok || path != want {
		t.Fatalf("Find = %q, %v; want %q", path, ok, want)
	}
}

func TestFind_NoManifest(t *testing.T) {
	path, ok, err := Find(t.TempDir())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if ok || path != "" {
		t.Fatalf("Find = %q, %v; want miss", path, ok)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `[project]
diagram = "architecture.ilograph"
mode = "native"

[check]
files = ["architecture.ilograph", "infra/network.ilograph"]

[batch]
diff = "full"
ui = "off"
`)

	m, ok, err := Load(root)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
	if m.Config.Project.Mode != "native" {
		t.Fatalf("mode = %q", m.Config.Project.Mode)
	}
	if m.Config.Batch.Diff != "full" || m.Config.Batch.UI != "off" {
		t.Fatalf("batch = %+v", m.Config.Batch)
	}

	diagram, ok := m.DiagramPath()
	if !ok || diagram != filepath.Join(root, "architecture.ilograph") {
		t.Fatalf("diagram = %q, %v", diagram, ok)
	}
	files := m.CheckFiles()
	if len(files) != 2 || files[1] != filepath.Join(root, "infra", "network.ilograph") {
		t.Fatalf("check files = %v", files)
	}
}

func TestLoad_InvalidMode(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nmode = \"relaxed\"\n")
	_, ok, err := Load(root)
	if err == nil || !ok {
		t.Fatalf("Load: ok=%v err=%v, want parse failure", ok, err)
	}
	if !strings.Contains(err.Error(), "invalid [project].mode") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoad_NoManifestIsNotAnError(t *testing.T) {
	m, ok, err := Load(t.TempDir())
	if err != nil || ok || m != nil {
		t.Fatalf("Load = %v, %v, %v", m, ok, err)
	}
}

func TestDiagramPath_NilAndEmpty(t *testing.T) {
	var m *Manifest
	if _, ok := m.DiagramPath(); ok {
		t.Fatal("nil manifest should have no diagram")
	}
	if files := m.CheckFiles(); files != nil {
		t.Fatalf("nil manifest check files = %v", files)
	}

	m = &Manifest{Root: "/tmp"}
	if _, ok := m.DiagramPath(); ok {
		t.Fatal("empty config should have no diagram")
	}
}
