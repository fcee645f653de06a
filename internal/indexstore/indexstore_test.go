package indexstore

import (
	"testing"

	"github.com/symreach/symreach/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndFetchSymbol(t *testing.T) {
	s := openTestStore(t)
	sym := model.IndexSymbol{
		USR:  "s:App.helper",
		Name: "helper",
		Kind: model.IndexInstanceMethod,
		Location: model.SourceLocation{
			File: "App.swift", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 20,
		},
		Roles: model.RoleDefinition | model.RoleCanonical,
	}
	if err := s.UpsertSymbol(sym); err != nil {
		t.Fatalf("UpsertSymbol: %v", err)
	}

	got, ok, err := s.SymbolByUSR(sym.USR)
	if err != nil {
		t.Fatalf("SymbolByUSR: %v", err)
	}
	if !ok {
		t.Fatal("expected symbol to be found")
	}
	if got.Name != "helper" || got.Kind != model.IndexInstanceMethod {
		t.Errorf("got %+v", got)
	}
	if !got.Roles.Has(model.RoleCanonical) {
		t.Errorf("expected RoleCanonical, got roles=%v", got.Roles)
	}
}

func TestOccurrencesInFileOrdered(t *testing.T) {
	s := openTestStore(t)
	occs := []model.ReferenceOccurrence{
		{TargetUSR: "s:b", Name: "b", Kind: model.IndexFunction, Location: model.SourceLocation{File: "f.swift", StartLine: 10, StartCol: 1}},
		{TargetUSR: "s:a", Name: "a", Kind: model.IndexFunction, Location: model.SourceLocation{File: "f.swift", StartLine: 2, StartCol: 1}},
	}
	for _, o := range occs {
		if err := s.InsertOccurrence(o); err != nil {
			t.Fatalf("InsertOccurrence: %v", err)
		}
	}

	got, err := s.OccurrencesInFile("f.swift")
	if err != nil {
		t.Fatalf("OccurrencesInFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(got))
	}
	if got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("expected ordering by start_line, got %+v", got)
	}
}

// TestUpsertSymbolWithContainerSetsContainedByRelation exercises the
// fixture-building path a Tier-A symbolic-ascent test needs: a symbol whose
// canonical definition row carries a containedBy relation to its enclosing
// declaration, read back via DefinitionOf (internal/graph's attributeTierA
// walks exactly this relation, spec.md §4.3).
func TestUpsertSymbolWithContainerSetsContainedByRelation(t *testing.T) {
	s := openTestStore(t)

	parent := model.IndexSymbol{
		USR: "s:App", Name: "App", Kind: model.IndexStruct,
		Location: model.SourceLocation{File: "App.swift", StartLine: 1, EndLine: 10},
		Roles:    model.RoleDefinition | model.RoleCanonical,
	}
	if err := s.UpsertSymbol(parent); err != nil {
		t.Fatalf("UpsertSymbol(parent): %v", err)
	}

	child := model.IndexSymbol{
		USR: "s:App.helper", Name: "helper", Kind: model.IndexInstanceMethod,
		Location: model.SourceLocation{File: "App.swift", StartLine: 3, EndLine: 3},
		Roles:    model.RoleDefinition | model.RoleCanonical,
	}
	if err := s.UpsertSymbolWithContainer(child, parent.USR); err != nil {
		t.Fatalf("UpsertSymbolWithContainer: %v", err)
	}

	def, ok, err := s.DefinitionOf(child.USR)
	if err != nil {
		t.Fatalf("DefinitionOf: %v", err)
	}
	if !ok {
		t.Fatal("expected child definition to be found")
	}
	related, found := def.Relations.FirstWithRole(model.RoleContainedBy)
	if !found || related != parent.USR {
		t.Fatalf("expected containedBy -> %s, got related=%q found=%v", parent.USR, related, found)
	}
}

func TestOccurrencesOfUSRRoleFilter(t *testing.T) {
	s := openTestStore(t)
	base := model.ReferenceOccurrence{TargetUSR: "s:target", Name: "target", Kind: model.IndexFunction}
	called := base
	called.Location = model.SourceLocation{File: "f.swift", StartLine: 1}
	called.Roles = model.RoleCalledBy
	contained := base
	contained.Location = model.SourceLocation{File: "f.swift", StartLine: 2}
	contained.Roles = model.RoleContainedBy

	if err := s.InsertOccurrence(called); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertOccurrence(contained); err != nil {
		t.Fatal(err)
	}

	got, err := s.OccurrencesOfUSR("s:target", model.RoleCalledBy)
	if err != nil {
		t.Fatalf("OccurrencesOfUSR: %v", err)
	}
	if len(got) != 1 || got[0].Roles != model.RoleCalledBy {
		t.Fatalf("expected 1 RoleCalledBy occurrence, got %+v", got)
	}

	all, err := s.OccurrencesOfUSR("s:target", 0)
	if err != nil {
		t.Fatalf("OccurrencesOfUSR(0): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 occurrences with no filter, got %d", len(all))
	}
}
