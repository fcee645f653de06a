package reachability

import (
	"testing"

	"github.com/symreach/symreach/internal/model"
)

type fakeSource struct {
	refs map[string][]model.ReferenceOccurrence
}

func (f *fakeSource) OccurrencesOfUSR(usr string, roleFilter model.Role) ([]model.ReferenceOccurrence, error) {
	var out []model.ReferenceOccurrence
	for _, o := range f.refs[usr] {
		if roleFilter == 0 || o.Roles.Has(roleFilter) {
			out = append(out, o)
		}
	}
	return out, nil
}

func hd(usr, name string, kind model.DeclKind, entry bool) model.HydratedDeclaration {
	return model.HydratedDeclaration{
		Declaration: model.Declaration{Name: name, Kind: kind, IsEntryPoint: entry},
		USR:         model.Some(usr),
	}
}

func TestBFSMarksReachable(t *testing.T) {
	g := model.NewCallGraph()
	g.AddEdge("s:used", "s:helper")
	visited := BFS(g, []string{"s:used"})
	if !visited["s:used"] || !visited["s:helper"] {
		t.Fatalf("expected both nodes reachable, got %+v", visited)
	}
}

func TestSelectCandidatesExcludesEntryAndReachable(t *testing.T) {
	decls := []model.HydratedDeclaration{
		hd("s:used", "used", model.KindFunction, true),
		hd("s:dead", "dead", model.KindFunction, false),
	}
	reachable := map[string]bool{"s:used": true}
	cands := SelectCandidates(decls, reachable)
	if len(cands) != 1 || cands[0].Name != "dead" {
		t.Fatalf("expected only 'dead' as candidate, got %+v", cands)
	}
}

func TestPruneUnusedPropertyRemovesEdge(t *testing.T) {
	g := model.NewCallGraph()
	g.AddEdge("s:A", "s:T")

	hydrated := []model.HydratedDeclaration{
		hd("s:A", "A", model.KindStruct, false),
		hd("s:T", "T", model.KindStruct, false),
		{
			Declaration: model.Declaration{
				Name: "A.t", Kind: model.KindProperty,
				DeclaredType: model.Some("T"),
			},
			USR: model.Some("s:A.t"),
		},
	}
	src := &fakeSource{refs: map[string][]model.ReferenceOccurrence{}}

	if err := PruneUnusedProperties(hydrated, g, src, Options{}); err != nil {
		t.Fatalf("PruneUnusedProperties: %v", err)
	}
	if _, ok := g.OutEdges["s:A"]["s:T"]; ok {
		t.Fatal("expected A -> T edge to be pruned")
	}
}

func TestPruneRespectsPublicAPIToggle(t *testing.T) {
	g := model.NewCallGraph()
	g.AddEdge("s:A", "s:T")

	hydrated := []model.HydratedDeclaration{
		hd("s:A", "A", model.KindStruct, false),
		hd("s:T", "T", model.KindStruct, false),
		{
			Declaration: model.Declaration{
				Name: "A.t", Kind: model.KindProperty,
				DeclaredType: model.Some("T"),
				Access:       model.Some(model.AccessPublic),
			},
			USR: model.Some("s:A.t"),
		},
	}
	src := &fakeSource{refs: map[string][]model.ReferenceOccurrence{}}

	if err := PruneUnusedProperties(hydrated, g, src, Options{RespectPublicAPI: true}); err != nil {
		t.Fatalf("PruneUnusedProperties: %v", err)
	}
	if _, ok := g.OutEdges["s:A"]["s:T"]; !ok {
		t.Fatal("expected A -> T edge to survive when public API is respected")
	}
}

func TestRescueKeepsMemberOfReachableType(t *testing.T) {
	all := []model.HydratedDeclaration{
		hd("s:P", "P", model.KindStruct, true),
	}
	candidate := hd("s:P.helper", "P.helper", model.KindFunction, false)
	reachable := map[string]bool{"s:P": true}

	kept := Rescue([]model.HydratedDeclaration{candidate}, all, reachable)
	if len(kept) != 0 {
		t.Fatalf("expected candidate to be rescued, got %+v", kept)
	}
}

func TestGroupAndNumberSingleComponent(t *testing.T) {
	g := model.NewCallGraph()
	candidates := []model.HydratedDeclaration{
		hd("s:dead", "dead", model.KindFunction, false),
	}
	entries := GroupAndNumber(candidates, g)
	if len(entries) != 1 || entries[0].Number != "1.0" {
		t.Fatalf("expected single entry numbered 1.0, got %+v", entries)
	}
}

func TestGroupAndNumberHierarchy(t *testing.T) {
	g := model.NewCallGraph()
	g.AddEdge("s:parent", "s:child")
	candidates := []model.HydratedDeclaration{
		hd("s:parent", "parent", model.KindFunction, false),
		hd("s:child", "child", model.KindFunction, false),
	}
	entries := GroupAndNumber(candidates, g)
	if len(entries) != 2 {
		t.Fatalf("expected 2 numbered entries, got %d", len(entries))
	}
	numbers := map[string]string{}
	for _, e := range entries {
		numbers[e.Declaration.Name] = e.Number
	}
	if numbers["child"] != "1.0" {
		t.Errorf("expected child (the leaf) numbered 1.0, got %s", numbers["child"])
	}
	if numbers["parent"] != "1.0.0" {
		t.Errorf("expected parent numbered 1.0.0, got %s", numbers["parent"])
	}
}
