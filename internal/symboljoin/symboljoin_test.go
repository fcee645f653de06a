package symboljoin

import (
	"testing"

	"github.com/symreach/symreach/internal/langspec"
	"github.com/symreach/symreach/internal/model"
)

type fakeSource struct {
	byFile map[string][]model.ReferenceOccurrence
}

func (f *fakeSource) OccurrencesInFile(file string) ([]model.ReferenceOccurrence, error) {
	return f.byFile[file], nil
}

func TestJoinExactLineMatch(t *testing.T) {
	spec := langspec.Default
	src := &fakeSource{byFile: map[string][]model.ReferenceOccurrence{
		"App.swift": {
			{
				TargetUSR: "s:App.helper", Name: "helper()", Kind: model.IndexInstanceMethod,
				Location: model.SourceLocation{File: "App.swift", StartLine: 3},
				Roles:    model.RoleDefinition | model.RoleCanonical,
			},
		},
	}}
	decls := []model.Declaration{
		{Name: "App.helper", Kind: model.KindFunction, Location: model.SourceLocation{File: "App.swift", StartLine: 3, EndLine: 3}},
	}

	res, err := Join(&spec, src, decls)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(res.Hydrated) != 1 {
		t.Fatalf("expected 1 hydrated decl, got %d (unmatched=%d)", len(res.Hydrated), len(res.Unmatched))
	}
	usr, ok := res.Hydrated[0].USR.Get()
	if !ok || usr != "s:App.helper" {
		t.Errorf("expected USR s:App.helper, got %q (present=%v)", usr, ok)
	}
}

func TestJoinFuzzyFallback(t *testing.T) {
	spec := langspec.Default
	src := &fakeSource{byFile: map[string][]model.ReferenceOccurrence{
		"App.swift": {
			{
				TargetUSR: "s:App.helper", Name: "helper()", Kind: model.IndexInstanceMethod,
				Location: model.SourceLocation{File: "App.swift", StartLine: 5},
				Roles:    model.RoleDefinition | model.RoleCanonical,
			},
		},
	}}
	decls := []model.Declaration{
		{Name: "App.helper", Kind: model.KindFunction, Location: model.SourceLocation{File: "App.swift", StartLine: 3, EndLine: 3}},
	}

	res, err := Join(&spec, src, decls)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(res.Hydrated) != 1 {
		t.Fatalf("expected fuzzy match to succeed, unmatched=%v", res.Unmatched)
	}
}

func TestJoinKindMismatchStaysUnmatched(t *testing.T) {
	spec := langspec.Default
	src := &fakeSource{byFile: map[string][]model.ReferenceOccurrence{
		"App.swift": {
			{
				TargetUSR: "s:App", Name: "App", Kind: model.IndexStruct,
				Location: model.SourceLocation{File: "App.swift", StartLine: 3},
				Roles:    model.RoleDefinition | model.RoleCanonical,
			},
		},
	}}
	decls := []model.Declaration{
		{Name: "App.helper", Kind: model.KindFunction, Location: model.SourceLocation{File: "App.swift", StartLine: 3, EndLine: 3}},
	}

	res, err := Join(&spec, src, decls)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(res.Hydrated) != 0 || len(res.Unmatched) != 1 {
		t.Fatalf("expected unmatched due to kind mismatch, got hydrated=%d unmatched=%d", len(res.Hydrated), len(res.Unmatched))
	}
}

func TestJoinTracesScoreBreakdown(t *testing.T) {
	spec := langspec.Default
	src := &fakeSource{byFile: map[string][]model.ReferenceOccurrence{
		"App.swift": {
			{
				TargetUSR: "s:App.helper", Name: "helper()", Kind: model.IndexInstanceMethod,
				Location: model.SourceLocation{File: "App.swift", StartLine: 5},
				Roles:    model.RoleDefinition | model.RoleCanonical,
			},
		},
	}}
	decls := []model.Declaration{
		{Name: "App.helper", Kind: model.KindFunction, Location: model.SourceLocation{File: "App.swift", StartLine: 3, EndLine: 3}},
	}

	res, err := Join(&spec, src, decls)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(res.Traces) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(res.Traces))
	}
	tr := res.Traces[0]
	if tr.Tier != "fuzzy" || tr.USR != "s:App.helper" || tr.Score <= 0 {
		t.Fatalf("unexpected trace: %+v", tr)
	}
}

func TestJoinCollisionFirstWins(t *testing.T) {
	spec := langspec.Default
	src := &fakeSource{byFile: map[string][]model.ReferenceOccurrence{
		"X.swift": {
			{
				TargetUSR: "s:X", Name: "X", Kind: model.IndexStruct,
				Location: model.SourceLocation{File: "X.swift", StartLine: 1},
				Roles:    model.RoleDefinition | model.RoleCanonical,
			},
			{
				TargetUSR: "s:X", Name: "X", Kind: model.IndexStruct,
				Location: model.SourceLocation{File: "X.swift", StartLine: 10},
				Roles:    model.RoleDefinition | model.RoleCanonical,
			},
		},
	}}
	decls := []model.Declaration{
		{Name: "X", Kind: model.KindStruct, Location: model.SourceLocation{File: "X.swift", StartLine: 1, EndLine: 1}},
		{Name: "X", Kind: model.KindStruct, Location: model.SourceLocation{File: "X.swift", StartLine: 10, EndLine: 10}},
	}

	res, err := Join(&spec, src, decls)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(res.Hydrated) != 1 {
		t.Fatalf("expected exactly one hydrated decl for the merged USR, got %d", len(res.Hydrated))
	}
	if len(res.Collisions) != 1 {
		t.Fatalf("expected 1 collision logged, got %d", len(res.Collisions))
	}
}
