// Package reachability is the Reachability Analyzer (spec.md §4.4): it
// prunes false container→property-type edges introduced by unused stored
// properties, runs a breadth-first reachability sweep from entry points,
// selects dead candidates, rescues UI-component members, and groups the
// remaining dead symbols into numbered components for reporting.
//
// The BFS queue/visited-map shape is grounded on the teacher's
// internal/store/traverse.go BFS, generalized from "follow typed SQL edges
// with a depth cap" to "follow out_edges over an in-memory USR graph with
// no depth cap" (spec.md §4.4 Step 2 has no depth limit, only a visited
// set). Risk-bucketing (internal/store/impact.go) is not reused — the
// spec has no hop-based severity concept — but its dedupe-by-visited-map
// idiom grounds the BFS visited set here.
package reachability

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/symreach/symreach/internal/model"
)

// Source is the index-read surface this stage needs.
type Source interface {
	OccurrencesOfUSR(usr string, roleFilter model.Role) ([]model.ReferenceOccurrence, error)
}

// Options toggles the pruning restriction described in spec.md §4.5.
type Options struct {
	// RespectPublicAPI restricts Step 1 pruning to private/fileprivate
	// properties when true. Default false: prune regardless of access.
	RespectPublicAPI bool
}

// PruneUnusedProperties implements spec.md §4.4 Step 1: for every hydrated
// property declaration with no reference occurrences, remove the edge from
// its enclosing container to its declared type's declaration.
func PruneUnusedProperties(hydrated []model.HydratedDeclaration, g *model.CallGraph, source Source, opts Options) error {
	usrByQualifiedName := map[string]string{}
	typeUSRByBaseName := map[string]string{}
	for _, hd := range hydrated {
		usr, ok := hd.USR.Get()
		if !ok {
			continue
		}
		usrByQualifiedName[hd.Name] = usr
		switch hd.Kind {
		case model.KindStruct, model.KindClass, model.KindEnum:
			if _, exists := typeUSRByBaseName[hd.BaseName()]; !exists {
				typeUSRByBaseName[hd.BaseName()] = usr
			}
		}
	}

	for _, hd := range hydrated {
		if hd.Kind != model.KindProperty {
			continue
		}
		usr, ok := hd.USR.Get()
		if !ok {
			continue
		}
		if opts.RespectPublicAPI {
			access, hasAccess := hd.Access.Get()
			if !hasAccess || (access != model.AccessPrivate && access != model.AccessFilePrivate) {
				continue
			}
		}

		refs, err := source.OccurrencesOfUSR(usr, model.RoleReference)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			continue // property is used
		}

		declaredType, ok := hd.DeclaredType.Get()
		if !ok {
			continue
		}
		typeUSR, ok := typeUSRByBaseName[declaredType]
		if !ok {
			continue
		}
		containerUSR, ok := usrByQualifiedName[hd.EnclosingTypeName()]
		if !ok {
			continue
		}

		g.RemoveEdge(containerUSR, typeUSR)
		slog.Info("reachability.prune", "container", containerUSR, "property", hd.Name, "type", declaredType)
	}
	return nil
}

// BFS implements spec.md §4.4 Step 2: mark every USR reachable from the
// entry-point seed set via out_edges.
func BFS(g *model.CallGraph, entryUSRs []string) map[string]bool {
	visited := make(map[string]bool, len(entryUSRs))
	queue := make([]string, 0, len(entryUSRs))
	for _, usr := range entryUSRs {
		if !visited[usr] {
			visited[usr] = true
			queue = append(queue, usr)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for callee := range g.OutEdges[cur] {
			if !visited[callee] {
				visited[callee] = true
				queue = append(queue, callee)
			}
		}
	}
	return visited
}

// SelectCandidates implements spec.md §4.4 Step 3: a hydrated, non-entry
// declaration whose USR was never visited by BFS is a dead candidate.
func SelectCandidates(hydrated []model.HydratedDeclaration, reachable map[string]bool) []model.HydratedDeclaration {
	var out []model.HydratedDeclaration
	for _, hd := range hydrated {
		usr, ok := hd.USR.Get()
		if !ok {
			continue
		}
		if hd.IsEntryPoint || reachable[usr] {
			continue
		}
		out = append(out, hd)
	}
	return out
}

// Rescue implements spec.md §4.4 Step 4: drop a function/variable candidate
// whose immediately enclosing struct/class is itself reachable.
func Rescue(candidates []model.HydratedDeclaration, hydrated []model.HydratedDeclaration, reachable map[string]bool) []model.HydratedDeclaration {
	parentByName := map[string]model.HydratedDeclaration{}
	for _, hd := range hydrated {
		if hd.Kind == model.KindStruct || hd.Kind == model.KindClass {
			parentByName[hd.Name] = hd
		}
	}

	var out []model.HydratedDeclaration
	for _, c := range candidates {
		if c.Kind == model.KindFunction || c.Kind == model.KindVariable {
			parent, ok := parentByName[c.EnclosingTypeName()]
			if ok {
				if usr, hasUSR := parent.USR.Get(); hasUSR && reachable[usr] {
					continue // rescued
				}
			}
		}
		out = append(out, c)
	}
	return out
}

// NumberedEntry is one dead symbol with its hierarchical report number.
type NumberedEntry struct {
	Declaration model.HydratedDeclaration
	Number      string
}

// GroupAndNumber implements spec.md §4.4 Step 5: compute weakly connected
// components over the subgraph induced by dead USRs, then assign
// hierarchical numbers (leaves first, then incoming-edge parents,
// breadth-first), falling back to the bare component number for symbols
// unreached by that walk.
func GroupAndNumber(candidates []model.HydratedDeclaration, g *model.CallGraph) []NumberedEntry {
	if len(candidates) == 0 {
		return nil
	}

	byUSR := map[string]model.HydratedDeclaration{}
	var usrs []string
	for _, c := range candidates {
		usr, ok := c.USR.Get()
		if !ok {
			continue
		}
		byUSR[usr] = c
		usrs = append(usrs, usr)
	}
	sort.Strings(usrs)
	deadSet := make(map[string]bool, len(usrs))
	for _, u := range usrs {
		deadSet[u] = true
	}

	neighbors := func(usr string) []string {
		var out []string
		for callee := range g.OutEdges[usr] {
			if deadSet[callee] {
				out = append(out, callee)
			}
		}
		for caller := range g.InEdges[usr] {
			if deadSet[caller] {
				out = append(out, caller)
			}
		}
		return out
	}

	componentOf := map[string]int{}
	var components [][]string
	for _, start := range usrs {
		if _, assigned := componentOf[start]; assigned {
			continue
		}
		idx := len(components)
		var members []string
		queue := []string{start}
		componentOf[start] = idx
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, n := range neighbors(cur) {
				if _, seen := componentOf[n]; !seen {
					componentOf[n] = idx
					queue = append(queue, n)
				}
			}
		}
		sort.Strings(members)
		components = append(components, members)
	}

	labels := map[string]string{}
	for compIdx, members := range components {
		k := compIdx + 1

		memberSet := make(map[string]bool, len(members))
		for _, m := range members {
			memberSet[m] = true
		}

		var leaves []string
		for _, m := range members {
			hasOutgoingDeadEdge := false
			for callee := range g.OutEdges[m] {
				if memberSet[callee] {
					hasOutgoingDeadEdge = true
					break
				}
			}
			if !hasOutgoingDeadEdge {
				leaves = append(leaves, m)
			}
		}
		sort.Strings(leaves)

		type queued struct {
			usr   string
			label string
		}
		visited := make(map[string]bool, len(members))
		var queue []queued
		for i, leaf := range leaves {
			label := strconv.Itoa(k) + "." + strconv.Itoa(i)
			labels[leaf] = label
			visited[leaf] = true
			queue = append(queue, queued{usr: leaf, label: label})
		}

		childCount := map[string]int{}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			var callers []string
			for caller := range g.InEdges[cur.usr] {
				if memberSet[caller] && !visited[caller] {
					callers = append(callers, caller)
				}
			}
			sort.Strings(callers)
			for _, caller := range callers {
				n := childCount[cur.label]
				childCount[cur.label] = n + 1
				childLabel := cur.label + "." + strconv.Itoa(n)
				labels[caller] = childLabel
				visited[caller] = true
				queue = append(queue, queued{usr: caller, label: childLabel})
			}
		}

		for _, m := range members {
			if _, ok := labels[m]; !ok {
				labels[m] = strconv.Itoa(k)
			}
		}
	}

	result := make([]NumberedEntry, 0, len(usrs))
	for _, u := range usrs {
		result = append(result, NumberedEntry{Declaration: byUSR[u], Number: labels[u]})
	}
	sort.Slice(result, func(i, j int) bool {
		return lessNumericTuple(result[i].Number, result[j].Number)
	})
	return result
}

func lessNumericTuple(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, _ := strconv.Atoi(as[i])
		bn, _ := strconv.Atoi(bs[i])
		if an != bn {
			return an < bn
		}
	}
	return len(as) < len(bs)
}
