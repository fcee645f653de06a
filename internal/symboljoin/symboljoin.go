// Package symboljoin is the Symbol Joiner (spec.md §4.2): it assigns each
// syntactic Declaration its canonical USR by scoring candidate index
// symbols on the same line, falling back to a narrow line window when the
// exact line has no compatible candidate.
//
// The kind-and-name scoring idiom is grounded on the teacher's
// internal/pipeline/resolver.go FunctionRegistry.Resolve: a prioritized
// strategy ladder (exact match, then progressively fuzzier matches) with a
// deterministic tie-break (there, common import-path prefix length; here,
// score then shorter-USR). The per-file/per-line lookup table shape is new
// (the teacher resolves by qualified name, not by source position), but
// the "score candidates, take the highest, break ties deterministically"
// structure is the same move.
package symboljoin

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/symreach/symreach/internal/langspec"
	"github.com/symreach/symreach/internal/model"
)

// Source is the index-read surface the joiner needs: occurrences_in_file,
// per spec.md §6.
type Source interface {
	OccurrencesInFile(filePath string) ([]model.ReferenceOccurrence, error)
}

// canonicalDefRoles marks an occurrence as a symbol's canonical definition.
const canonicalDefRoles = model.RoleDefinition | model.RoleCanonical

// Collision records that two declarations resolved to the same USR
// (spec.md §3: "the first-encountered wins and the collision is logged").
type Collision struct {
	USR             string
	KeptName        string
	DiscardedName   string
	DiscardedAtFile string
	DiscardedAtLine int
}

// Result is the output of a full join pass.
type Result struct {
	Hydrated   []model.HydratedDeclaration
	Unmatched  []model.Declaration
	Collisions []Collision
	// Traces carries one scoring trace per declaration, in the order
	// declarations were processed. Cheap to collect (scoring already runs
	// during Join); only printed when --debug-usr is set.
	Traces []Trace
}

// Trace is one declaration's joiner scoring outcome, for --debug-usr.
type Trace struct {
	DeclName string
	File     string
	Line     int
	Tier     string // "exact", "fuzzy", or "unmatched"
	USR      string
	Score    int
}

// Join hydrates every declaration with its best-matching canonical USR.
// decls must already be sorted by (file, start_line, start_column) —
// Stage 1's join barrier guarantees this (spec.md §5) — so that collision
// "first wins" is reproducible across runs.
func Join(spec *langspec.Spec, source Source, decls []model.Declaration) (*Result, error) {
	lookup := map[string]map[int][]model.IndexSymbol{}
	loaded := map[string]bool{}

	res := &Result{}
	seen := map[string]int{} // usr -> index into res.Hydrated

	for _, d := range decls {
		if !loaded[d.Location.File] {
			perLine, err := buildFileLookup(source, d.Location.File)
			if err != nil {
				return nil, err
			}
			lookup[d.Location.File] = perLine
			loaded[d.Location.File] = true
		}

		usr, score, tier, matched := resolveTraced(spec, lookup[d.Location.File], d)
		res.Traces = append(res.Traces, Trace{
			DeclName: d.Name, File: d.Location.File, Line: d.Location.StartLine,
			Tier: tier, USR: usr, Score: score,
		})
		if !matched {
			res.Unmatched = append(res.Unmatched, d)
			slog.Info("symboljoin.unmatched", "name", d.Name, "file", d.Location.File, "line", d.Location.StartLine)
			continue
		}

		if idx, dup := seen[usr]; dup {
			kept := res.Hydrated[idx]
			res.Collisions = append(res.Collisions, Collision{
				USR:             usr,
				KeptName:        kept.Name,
				DiscardedName:   d.Name,
				DiscardedAtFile: d.Location.File,
				DiscardedAtLine: d.Location.StartLine,
			})
			slog.Info("symboljoin.collision", "usr", usr, "kept", kept.Name, "discarded", d.Name)
			continue
		}

		hd := model.HydratedDeclaration{Declaration: d, USR: model.Some(usr)}
		seen[usr] = len(res.Hydrated)
		res.Hydrated = append(res.Hydrated, hd)
	}

	return res, nil
}

func buildFileLookup(source Source, file string) (map[int][]model.IndexSymbol, error) {
	occs, err := source.OccurrencesInFile(file)
	if err != nil {
		return nil, err
	}
	perLine := map[int][]model.IndexSymbol{}
	for _, o := range occs {
		if !o.Roles.Has(canonicalDefRoles) {
			continue
		}
		perLine[o.Location.StartLine] = append(perLine[o.Location.StartLine], model.IndexSymbol{
			USR:      o.TargetUSR,
			Name:     o.Name,
			Kind:     o.Kind,
			Location: o.Location,
			Roles:    o.Roles,
		})
	}
	return perLine, nil
}

// resolveTraced implements spec.md §4.2 steps 1-4, also reporting the
// winning score and which tier (exact line vs. the [start-2,end+2] fuzzy
// window) produced it, for --debug-usr.
func resolveTraced(spec *langspec.Spec, perLine map[int][]model.IndexSymbol, d model.Declaration) (usr string, score int, tier string, matched bool) {
	if usr, score, ok := bestOnLine(spec, perLine[d.Location.StartLine], d); ok {
		return usr, score, "exact", true
	}

	var fuzzy []model.IndexSymbol
	for line := d.Location.StartLine - 2; line <= d.Location.EndLine+2; line++ {
		fuzzy = append(fuzzy, perLine[line]...)
	}
	if usr, score, ok := bestOnLine(spec, fuzzy, d); ok {
		return usr, score, "fuzzy", true
	}
	return "", 0, "unmatched", false
}

func bestOnLine(spec *langspec.Spec, candidates []model.IndexSymbol, d model.Declaration) (string, int, bool) {
	bestScore := 0
	bestUSR := ""
	found := false

	for _, c := range candidates {
		if !spec.KindCompatible(d.Kind, c.Kind) {
			continue
		}
		score := 1000
		if baseName(d.Name) == prefixOfParen(c.Name) {
			score += 100
		}
		score -= len(c.USR)

		if !found || score > bestScore {
			bestScore = score
			bestUSR = c.USR
			found = true
		}
	}

	if !found || bestScore <= 0 {
		return "", 0, false
	}
	return bestUSR, bestScore, true
}

func baseName(qualified string) string {
	idx := strings.LastIndexByte(qualified, '.')
	if idx == -1 {
		return qualified
	}
	return qualified[idx+1:]
}

// prefixOfParen strips a parameter-list suffix from an index symbol name
// (e.g. "helper(x:)" -> "helper") so it compares against a Declaration's
// base name.
func prefixOfParen(name string) string {
	if idx := strings.IndexByte(name, '('); idx != -1 {
		return name[:idx]
	}
	return name
}

// SortCollisions orders collisions deterministically for reporting.
func SortCollisions(cs []Collision) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].USR != cs[j].USR {
			return cs[i].USR < cs[j].USR
		}
		return cs[i].DiscardedAtLine < cs[j].DiscardedAtLine
	})
}
