// Package graph is the Graph Builder (spec.md §4.3): for every reference
// occurrence of every hydrated USR, it attributes the occurrence to its
// single enclosing hydrated declaration ("caller") via a two-tier
// strategy — symbolic ascent through the index's containment relations,
// falling back to geometric containment over a sorted interval index —
// and records the caller→callee edge.
//
// The bounded-hop walk (a plain loop, with no queue or visited set) is
// grounded on the teacher's internal/store/traverse.go BFS and
// internal/store/impact.go blast-radius walk, generalized from "follow
// typed graph edges in a SQL-backed store" to "follow containedBy
// relations in the compiler index with a hop budget".
package graph

import (
	"log/slog"
	"sort"

	"github.com/symreach/symreach/internal/model"
)

// Source is the index-read surface the Graph Builder needs.
type Source interface {
	OccurrencesOfUSR(usr string, roleFilter model.Role) ([]model.ReferenceOccurrence, error)
	DefinitionOf(usr string) (model.ReferenceOccurrence, bool, error)
}

// Options configures graph construction.
type Options struct {
	// MaxAscentHops bounds Tier A's symbolic-ascent walk (spec.md §9 open
	// question: "an implementation may increase it if index containment
	// chains are deeper in practice"). Default 10.
	MaxAscentHops int
}

// DefaultOptions matches the spec's stated Tier-A hop budget.
var DefaultOptions = Options{MaxAscentHops: 10}

// Outcome is a mapping log entry's decisive result (spec.md §6).
type Outcome string

const (
	MappedA  Outcome = "MAPPED via A"
	MappedB  Outcome = "MAPPED via B"
	Unmapped Outcome = "UNMAPPED"
)

// LogEntry records one reference occurrence's mapping outcome.
type LogEntry struct {
	Occurrence model.ReferenceOccurrence
	Outcome    Outcome
	CallerUSR  string
}

const canonicalDefRoles = model.RoleDefinition | model.RoleCanonical

// Build constructs the call graph over a set of hydrated declarations,
// returning the graph and the full reference mapping log.
func Build(hydrated []model.HydratedDeclaration, source Source, opts Options) (*model.CallGraph, []LogEntry, error) {
	if opts.MaxAscentHops <= 0 {
		opts.MaxAscentHops = DefaultOptions.MaxAscentHops
	}

	g := model.NewCallGraph()
	for i := range hydrated {
		hd := hydrated[i]
		usr, ok := hd.USR.Get()
		if !ok {
			continue
		}
		g.UsrToDecl[usr] = &hd
		g.GeometricIndex[hd.Location.File] = append(g.GeometricIndex[hd.Location.File], model.GeoEntry{
			StartLine: hd.Location.StartLine,
			EndLine:   hd.Location.EndLine,
			USR:       usr,
		})
	}
	g.SortGeometricIndex()

	usrs := make([]string, 0, len(g.UsrToDecl))
	for usr := range g.UsrToDecl {
		usrs = append(usrs, usr)
	}
	sort.Strings(usrs)

	var log []LogEntry
	for _, usr := range usrs {
		occs, err := source.OccurrencesOfUSR(usr, 0)
		if err != nil {
			return nil, nil, err
		}
		for _, o := range occs {
			if o.Roles.Has(canonicalDefRoles) {
				continue // the definition site itself is not a call/reference
			}

			if caller, ok := attributeTierA(o, g, source, opts.MaxAscentHops); ok {
				g.AddEdge(caller, usr)
				log = append(log, LogEntry{Occurrence: o, Outcome: MappedA, CallerUSR: caller})
				continue
			}
			if caller, ok := attributeTierB(o, g); ok {
				g.AddEdge(caller, usr)
				log = append(log, LogEntry{Occurrence: o, Outcome: MappedB, CallerUSR: caller})
				continue
			}

			slog.Info("graph.unmapped", "usr", usr, "file", o.Location.File, "line", o.Location.StartLine)
			log = append(log, LogEntry{Occurrence: o, Outcome: Unmapped})
		}
	}

	sortLog(log)
	return g, log, nil
}

// sortLog orders the mapping log by (file, start_line, start_col, target
// USR) so verbose output is reproducible across runs regardless of map
// iteration order (spec.md §8 idempotence).
func sortLog(log []LogEntry) {
	sort.SliceStable(log, func(i, j int) bool {
		a, b := log[i].Occurrence.Location, log[j].Occurrence.Location
		if a.File != b.File {
			return a.File < b.File
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		return log[i].Occurrence.TargetUSR < log[j].Occurrence.TargetUSR
	})
}

// attributeTierA walks the index's calledBy/containedBy relations up to
// maxHops times looking for a USR already known to the graph.
func attributeTierA(o model.ReferenceOccurrence, g *model.CallGraph, source Source, maxHops int) (string, bool) {
	seed, ok := o.Relations.FirstWithRole(model.RoleCalledBy)
	if !ok {
		seed, ok = o.Relations.FirstWithRole(model.RoleContainedBy)
	}
	if !ok {
		return "", false
	}

	for hop := 0; hop < maxHops; hop++ {
		if _, known := g.UsrToDecl[seed]; known {
			return seed, true
		}
		def, found, err := source.DefinitionOf(seed)
		if err != nil || !found {
			return "", false
		}
		next, ok := def.Relations.FirstWithRole(model.RoleContainedBy)
		if !ok {
			return "", false
		}
		seed = next
	}
	return "", false
}

// attributeTierB selects the innermost declaration (by largest start_line)
// whose range contains the occurrence's line, from the pre-sorted
// geometric index.
func attributeTierB(o model.ReferenceOccurrence, g *model.CallGraph) (string, bool) {
	entries := g.GeometricIndex[o.Location.File]
	bestUSR := ""
	bestStart := -1
	found := false
	for _, e := range entries {
		if e.StartLine <= o.Location.StartLine && o.Location.StartLine <= e.EndLine {
			if !found || e.StartLine > bestStart {
				bestStart = e.StartLine
				bestUSR = e.USR
				found = true
			}
		}
	}
	return bestUSR, found
}
