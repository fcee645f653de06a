// Command symreach analyzes a Swift source tree and reports declarations
// unreachable from its entry points, per spec.md §6.
//
// Flag parsing is hand-rolled in the teacher's runCLI style
// (cmd/codebase-memory-mcp/main.go): a single pass over os.Args collecting
// recognized flags into locals and everything else into a positional
// slice, rather than pulling in a CLI framework dependency.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/symreach/symreach/internal/config"
	"github.com/symreach/symreach/internal/discover"
	"github.com/symreach/symreach/internal/graph"
	"github.com/symreach/symreach/internal/indexstore"
	"github.com/symreach/symreach/internal/langspec"
	"github.com/symreach/symreach/internal/reachability"
	"github.com/symreach/symreach/internal/report"
	"github.com/symreach/symreach/internal/symboljoin"
	"github.com/symreach/symreach/internal/syntax"
)

type cliArgs struct {
	projectPath      string
	indexStorePath   string
	excludes         []string
	verbose          bool
	dumpSymbols      bool
	debugUSR         bool
	respectPublicAPI bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	parsed, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if parsed.verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := validateArgs(parsed); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(filepath.Join(parsed.projectPath, ".symreach.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	spec := cfg.Apply(langspec.Default)
	excludes := cfg.Excludes(parsed.excludes)

	ctx := context.Background()

	files, err := discover.Discover(ctx, parsed.projectPath, discover.Options{Excludes: excludes})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: discovering files: %v\n", err)
		return 1
	}

	inv, err := syntax.Inventory(ctx, &spec, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: syntax inventory: %v\n", err)
		return 1
	}
	for _, f := range inv.Failed {
		slog.Warn("main.parse.skip", "file", f)
	}

	idx, err := indexstore.OpenPath(parsed.indexStorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: opening index store: %v\n", err)
		return 1
	}
	defer idx.Close()

	joinResult, err := symboljoin.Join(&spec, idx, inv.Declarations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: symbol join: %v\n", err)
		return 1
	}
	symboljoin.SortCollisions(joinResult.Collisions)
	for _, c := range joinResult.Collisions {
		slog.Info("main.collision", "usr", c.USR, "kept", c.KeptName, "discarded", c.DiscardedName)
	}
	for _, u := range joinResult.Unmatched {
		slog.Info("main.unmatched", "name", u.Name, "file", u.Location.File, "line", u.Location.StartLine)
	}

	if parsed.dumpSymbols {
		dumpSymbols(os.Stdout, joinResult)
		return 0
	}

	g, mappingLog, err := graph.Build(joinResult.Hydrated, idx, graph.DefaultOptions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: graph build: %v\n", err)
		return 1
	}

	if err := reachability.PruneUnusedProperties(joinResult.Hydrated, g, idx, reachability.Options{
		RespectPublicAPI: parsed.respectPublicAPI,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: pruning: %v\n", err)
		return 1
	}

	var entryUSRs []string
	for _, hd := range joinResult.Hydrated {
		if hd.IsEntryPoint {
			if usr, ok := hd.USR.Get(); ok {
				entryUSRs = append(entryUSRs, usr)
			}
		}
	}
	reachable := reachability.BFS(g, entryUSRs)
	candidates := reachability.SelectCandidates(joinResult.Hydrated, reachable)
	candidates = reachability.Rescue(candidates, joinResult.Hydrated, reachable)
	numbered := reachability.GroupAndNumber(candidates, g)

	report.WriteMappingLog(os.Stdout, mappingLog, parsed.verbose)
	if parsed.debugUSR {
		dumpUSRDebug(os.Stdout, joinResult)
	}
	report.WriteDeadCodeReport(os.Stdout, numbered)

	return 0
}

func parseArgs(args []string) (cliArgs, error) {
	var a cliArgs
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--verbose":
			a.verbose = true
		case arg == "--dump-symbols":
			a.dumpSymbols = true
		case arg == "--debug-usr":
			a.debugUSR = true
		case arg == "--respect-public-api":
			a.respectPublicAPI = true
		case arg == "--index-store-path":
			if i+1 >= len(args) {
				return a, fmt.Errorf("--index-store-path requires a value")
			}
			i++
			a.indexStorePath = args[i]
		case strings.HasPrefix(arg, "--index-store-path="):
			a.indexStorePath = strings.TrimPrefix(arg, "--index-store-path=")
		case arg == "--exclude":
			if i+1 >= len(args) {
				return a, fmt.Errorf("--exclude requires a value")
			}
			i++
			a.excludes = splitCSV(args[i])
		case strings.HasPrefix(arg, "--exclude="):
			a.excludes = splitCSV(strings.TrimPrefix(arg, "--exclude="))
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) > 0 {
		a.projectPath = positional[0]
	}
	return a, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateArgs(a cliArgs) error {
	if a.projectPath == "" {
		return fmt.Errorf("missing required argument: project_path")
	}
	info, err := os.Stat(a.projectPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("project_path %q is not a directory", a.projectPath)
	}
	if a.indexStorePath == "" {
		return fmt.Errorf("missing required flag: --index-store-path")
	}
	if _, err := os.Stat(a.indexStorePath); err != nil {
		return fmt.Errorf("--index-store-path %q: %w", a.indexStorePath, err)
	}
	return nil
}

func dumpSymbols(w *os.File, joinResult *symboljoin.Result) {
	for _, hd := range joinResult.Hydrated {
		usr, _ := hd.USR.Get()
		fmt.Fprintf(w, "%s:%d:%d -> %s [%s] usr=%s entry=%v\n",
			hd.Location.File, hd.Location.StartLine, hd.Location.StartCol, hd.Name, hd.Kind, usr, hd.IsEntryPoint)
	}
	for _, d := range joinResult.Unmatched {
		fmt.Fprintf(w, "%s:%d:%d -> %s [%s] usr=<unmatched>\n",
			d.Location.File, d.Location.StartLine, d.Location.StartCol, d.Name, d.Kind)
	}
}

func dumpUSRDebug(w *os.File, joinResult *symboljoin.Result) {
	fmt.Fprintf(w, "-- usr debug: %d hydrated, %d unmatched, %d collisions --\n",
		len(joinResult.Hydrated), len(joinResult.Unmatched), len(joinResult.Collisions))
	for _, t := range joinResult.Traces {
		fmt.Fprintf(w, "score %s:%d -> %s tier=%s usr=%s score=%d\n",
			t.File, t.Line, t.DeclName, t.Tier, t.USR, t.Score)
	}
	for _, c := range joinResult.Collisions {
		fmt.Fprintf(w, "collision usr=%s kept=%s discarded=%s at %s:%d\n",
			c.USR, c.KeptName, c.DiscardedName, c.DiscardedAtFile, c.DiscardedAtLine)
	}
}
