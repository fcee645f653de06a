package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseArgsBasic(t *testing.T) {
	a, err := parseArgs([]string{"/tmp/proj", "--index-store-path", "/tmp/index.db", "--verbose"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if a.projectPath != "/tmp/proj" || a.indexStorePath != "/tmp/index.db" || !a.verbose {
		t.Fatalf("got %+v", a)
	}
}

func TestParseArgsEqualsForm(t *testing.T) {
	a, err := parseArgs([]string{"/tmp/proj", "--index-store-path=/tmp/index.db", "--exclude=Pods,.build"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if a.indexStorePath != "/tmp/index.db" {
		t.Errorf("indexStorePath = %q", a.indexStorePath)
	}
	if len(a.excludes) != 2 || a.excludes[0] != "Pods" || a.excludes[1] != ".build" {
		t.Errorf("excludes = %+v", a.excludes)
	}
}

func TestParseArgsMissingValueErrors(t *testing.T) {
	if _, err := parseArgs([]string{"/tmp/proj", "--index-store-path"}); err == nil {
		t.Fatal("expected error for missing --index-store-path value")
	}
}

func TestValidateArgsRequiresIndexStorePath(t *testing.T) {
	dir := t.TempDir()
	a := cliArgs{projectPath: dir}
	if err := validateArgs(a); err == nil {
		t.Fatal("expected error when --index-store-path is missing")
	}
}

func TestValidateArgsRejectsMissingProjectPath(t *testing.T) {
	a := cliArgs{projectPath: "/does/not/exist", indexStorePath: "/tmp/index.db"}
	if err := validateArgs(a); err == nil {
		t.Fatal("expected error for nonexistent project_path")
	}
}

func TestValidateArgsRejectsMissingIndexStorePath(t *testing.T) {
	dir := t.TempDir()
	a := cliArgs{projectPath: dir, indexStorePath: filepath.Join(dir, "does-not-exist.db")}
	if err := validateArgs(a); err == nil {
		t.Fatal("expected error for nonexistent --index-store-path")
	}
}

func TestValidateArgsAcceptsExistingIndexStorePath(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.db")
	if err := os.WriteFile(indexPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	a := cliArgs{projectPath: dir, indexStorePath: indexPath}
	if err := validateArgs(a); err != nil {
		t.Fatalf("unexpected error for existing --index-store-path: %v", err)
	}
}
