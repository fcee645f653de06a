package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverBasic(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "App.swift"), []byte("struct App {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	files, err := Discover(ctx, dir, Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("expected 1 swift file, got %d", len(files))
	}
	if files[0].RelPath != "App.swift" {
		t.Errorf("RelPath = %q, want App.swift", files[0].RelPath)
	}
}

func TestDiscoverExcludesDirectories(t *testing.T) {
	dir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(dir, "Pods", "Dep"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Pods", "Dep", "Vendored.swift"), []byte("struct Vendored {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "App.swift"), []byte("struct App {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := Discover(context.Background(), dir, Options{Excludes: []string{"Pods"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "App.swift" {
		t.Fatalf("expected only App.swift, got %+v", files)
	}
}

func TestDiscoverCancellation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "App.swift"), []byte("struct App {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, dir, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsTestPath(t *testing.T) {
	if !IsTestPath("Sources/FooTests/BarTest.swift", "test") {
		t.Error("expected path to be detected as a test path")
	}
	if IsTestPath("Sources/Foo/Bar.swift", "test") {
		t.Error("expected path to not be detected as a test path")
	}
}
