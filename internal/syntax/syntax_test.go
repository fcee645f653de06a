package syntax

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/symreach/symreach/internal/discover"
	"github.com/symreach/symreach/internal/langspec"
	"github.com/symreach/symreach/internal/model"
)

func writeSwift(t *testing.T, dir, name, content string) discover.FileInfo {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return discover.FileInfo{Path: path, RelPath: name}
}

func TestInventoryFindsDeclarations(t *testing.T) {
	dir := t.TempDir()
	files := []discover.FileInfo{
		writeSwift(t, dir, "App.swift", `
struct App {
    private func helper() {}
    public func exposed() {}
}
`),
	}

	spec := langspec.Default
	result, err := Inventory(context.Background(), &spec, files)
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("unexpected parse failures: %v", result.Failed)
	}

	var names []string
	for _, d := range result.Declarations {
		names = append(names, d.Name)
	}

	want := map[string]bool{
		"App":          false,
		"App.helper":   false,
		"App.exposed":  true,
	}
	found := map[string]bool{}
	for _, d := range result.Declarations {
		found[d.Name] = d.IsEntryPoint
	}
	for name, wantEntry := range want {
		entry, ok := found[name]
		if !ok {
			t.Errorf("expected declaration %q among %v", name, names)
			continue
		}
		if entry != wantEntry {
			t.Errorf("declaration %q IsEntryPoint = %v, want %v", name, entry, wantEntry)
		}
	}
}

func TestInventoryOrdersDeterministically(t *testing.T) {
	dir := t.TempDir()
	files := []discover.FileInfo{
		writeSwift(t, dir, "B.swift", "struct B {}\n"),
		writeSwift(t, dir, "A.swift", "struct A {}\n"),
	}
	spec := langspec.Default
	result, err := Inventory(context.Background(), &spec, files)
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if len(result.Declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(result.Declarations))
	}
	if result.Declarations[0].Location.File != "A.swift" {
		t.Errorf("expected A.swift first, got %s", result.Declarations[0].Location.File)
	}
}

func TestOuterTypeNameStripsGenerics(t *testing.T) {
	cases := map[string]string{
		"Array<Foo>": "Array",
		"Foo":        "Foo",
		"Bar?":       "Bar",
	}
	for in, want := range cases {
		if got := outerTypeName(in); got != want {
			t.Errorf("outerTypeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeclKindConstantsStable(t *testing.T) {
	if model.KindStruct != "struct" || model.KindClass != "class" {
		t.Fatal("DeclKind constants changed underfoot")
	}
}
