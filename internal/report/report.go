// Package report renders the two stdout blocks described in spec.md §6:
// the reference-mapping log and the dead-code report.
package report

import (
	"fmt"
	"io"

	"github.com/symreach/symreach/internal/graph"
	"github.com/symreach/symreach/internal/reachability"
)

// WriteMappingLog renders block 1. In verbose mode every mapped/unmapped
// reference gets its own line; otherwise a reduced per-outcome summary is
// printed, per spec.md §6 ("always in a reduced form" when not verbose).
func WriteMappingLog(w io.Writer, entries []graph.LogEntry, verbose bool) {
	if verbose {
		for _, e := range entries {
			loc := e.Occurrence.Location
			switch e.Outcome {
			case graph.MappedA, graph.MappedB:
				fmt.Fprintf(w, "[MAPPED] via %s %s:%d:%d -> %s (caller %s)\n",
					tierLetter(e.Outcome), loc.File, loc.StartLine, loc.StartCol, e.Occurrence.TargetUSR, e.CallerUSR)
			default:
				fmt.Fprintf(w, "[UNMAPPED] %s:%d:%d -> %s\n",
					loc.File, loc.StartLine, loc.StartCol, e.Occurrence.TargetUSR)
			}
		}
		return
	}

	var mappedA, mappedB, unmapped int
	for _, e := range entries {
		switch e.Outcome {
		case graph.MappedA:
			mappedA++
		case graph.MappedB:
			mappedB++
		default:
			unmapped++
		}
	}
	fmt.Fprintf(w, "[MAPPED] via A: %d references\n", mappedA)
	fmt.Fprintf(w, "[MAPPED] via B: %d references\n", mappedB)
	fmt.Fprintf(w, "[UNMAPPED]: %d references\n", unmapped)
}

func tierLetter(o graph.Outcome) string {
	if o == graph.MappedA {
		return "A"
	}
	return "B"
}

// WriteDeadCodeReport renders block 2.
func WriteDeadCodeReport(w io.Writer, entries []reachability.NumberedEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "✅ No unused symbols found.")
		return
	}
	fmt.Fprintf(w, "❌ Found %d potentially unused symbols:\n", len(entries))
	for _, e := range entries {
		loc := e.Declaration.Location
		fmt.Fprintf(w, "%s %s:%d:%d -> %s [%s]\n", e.Number, loc.File, loc.StartLine, loc.StartCol, e.Declaration.Name, e.Declaration.Kind)
	}
}
