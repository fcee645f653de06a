// Package syntax is the Syntax Inventory (spec.md §4.1): it parses each
// source file with tree-sitter-swift and produces an ordered sequence of
// Declaration records carrying qualified name, containment range, access
// level, and entry-point reasons.
//
// Stage-1 parallelism (spec.md §5) is grounded on the teacher's
// internal/pipeline/usages.go errgroup fan-out: one goroutine per file,
// joined at a barrier before any later stage runs. The declaration
// extraction itself is grounded on the teacher's internal/pipeline.go
// extractClassDef/extractFunctionDef AST-walking style, generalized from
// "class/method node shapes across ten languages" to "Swift's container,
// function, initializer, and property node shapes plus the spec's
// entry-point heuristic table".
package syntax

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/symreach/symreach/internal/discover"
	"github.com/symreach/symreach/internal/langspec"
	"github.com/symreach/symreach/internal/model"
	"github.com/symreach/symreach/internal/tsparse"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Result is the output of a full Syntax Inventory run.
type Result struct {
	Declarations []model.Declaration
	// Failed holds the relative paths of files that failed to parse.
	Failed []string
}

// collector is the guarded append-only list the teacher's design notes call
// for: append_many is atomic, reads only happen after all writers finish.
type collector struct {
	mu    sync.Mutex
	items []model.Declaration
}

func (c *collector) appendMany(items []model.Declaration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, items...)
}

// Inventory runs the Syntax Inventory over every discovered file, one
// goroutine per file (Stage 1), joined before returning.
func Inventory(ctx context.Context, spec *langspec.Spec, files []discover.FileInfo) (*Result, error) {
	col := &collector{}
	var failedMu sync.Mutex
	var failed []string

	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decls, err := parseFile(spec, f)
			if err != nil {
				slog.Warn("syntax.parse.failed", "file", f.RelPath, "err", err)
				failedMu.Lock()
				failed = append(failed, f.RelPath)
				failedMu.Unlock()
				return nil // per-file failure degrades gracefully, never aborts the run
			}
			col.appendMany(decls)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("syntax inventory: %w", err)
	}

	decls := col.items
	// Deterministic ordering across runs regardless of goroutine completion
	// order, per spec.md §5.
	sort.Slice(decls, func(i, j int) bool {
		a, b := decls[i], decls[j]
		if a.Location.File != b.Location.File {
			return a.Location.File < b.Location.File
		}
		if a.Location.StartLine != b.Location.StartLine {
			return a.Location.StartLine < b.Location.StartLine
		}
		return a.Location.StartCol < b.Location.StartCol
	})

	return &Result{Declarations: decls, Failed: failed}, nil
}

// scopeFrame tracks one level of enclosing-type containment while walking.
type scopeFrame struct {
	qualifiedName string
	kind          model.DeclKind
	conformances  []string
}

type fileWalker struct {
	spec    *langspec.Spec
	source  []byte
	relPath string
	decls   []model.Declaration
}

func parseFile(spec *langspec.Spec, f discover.FileInfo) ([]model.Declaration, error) {
	source, err := readFile(f.Path)
	if err != nil {
		return nil, err
	}
	tree, err := tsparse.Parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := &fileWalker{spec: spec, source: source, relPath: f.RelPath}
	root := tree.RootNode()
	for i := uint(0); i < root.ChildCount(); i++ {
		w.visit(root.Child(i), nil)
	}
	return w.decls, nil
}

// visit walks node and its descendants via tsparse.Walk, dispatching each
// node to the matching declaration extractor. Container nodes push a new
// scope frame and re-enter tsparse.Walk over their own children directly
// (visitContainer), so the outer Walk here is told to stop descending once
// it reaches one (return false) to avoid visiting those children twice.
func (w *fileWalker) visit(node *tree_sitter.Node, scope []scopeFrame) {
	tsparse.Walk(node, func(n *tree_sitter.Node) bool {
		kind := n.Kind()
		switch {
		case containsKind(w.spec.Nodes.ClassLike, kind):
			w.visitContainer(n, scope)
			return false
		case containsKind(w.spec.Nodes.FunctionLike, kind):
			w.visitFunction(n, scope)
		case containsKind(w.spec.Nodes.InitLike, kind):
			w.visitInitializer(n, scope)
		case containsKind(w.spec.Nodes.PropertyLike, kind):
			w.visitProperty(n, scope)
		}
		return true
	})
}

func (w *fileWalker) visitContainer(node *tree_sitter.Node, scope []scopeFrame) {
	keyword := leadingKeyword(node, w.spec)
	declKind, ok := w.spec.ContainerKeyword[keyword]
	if !ok {
		declKind = model.KindClass
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = tsparse.FindChildByKind(node, "type_identifier")
	}
	if nameNode == nil {
		// Can't name this container; still descend for nested declarations
		// so errors stay local per spec.md §7.
		for i := uint(0); i < node.ChildCount(); i++ {
			w.visit(node.Child(i), scope)
		}
		return
	}
	baseName := tsparse.NodeText(nameNode, w.source)
	qualified := joinQualified(scope, baseName)

	access := accessLevelOf(node, w.spec)
	conformances := conformancesOf(node, w.source)
	attrs := attributesOf(node, w.spec, w.source)

	reasons := []model.EntryReason{}
	isEntry := false
	if hasFrameworkRoot(conformances, w.spec.FrameworkRoots) {
		reasons = append(reasons, model.ReasonFrameworkRoot)
		isEntry = true
	}
	if hasMainAttribute(attrs, w.spec.MainAttributes) {
		reasons = append(reasons, model.ReasonMainAttribute)
		isEntry = true
	}
	if a, ok := access.Get(); ok && (a == model.AccessPublic || a == model.AccessOpen) {
		reasons = append(reasons, model.ReasonPublicModifier)
		isEntry = true
	}

	loc := locationOf(node, w.relPath)
	w.decls = append(w.decls, model.Declaration{
		ID:           model.IDFor(w.relPath, loc.StartLine, loc.StartCol, qualified),
		Name:         qualified,
		Kind:         declKind,
		Location:     loc,
		Access:       access,
		IsEntryPoint: isEntry,
		EntryReasons: reasons,
	})

	childScope := append(append([]scopeFrame{}, scope...), scopeFrame{
		qualifiedName: qualified,
		kind:          declKind,
		conformances:  conformances,
	})
	for i := uint(0); i < node.ChildCount(); i++ {
		w.visit(node.Child(i), childScope)
	}
}

func (w *fileWalker) visitFunction(node *tree_sitter.Node, scope []scopeFrame) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = tsparse.FindChildByKind(node, "simple_identifier")
	}
	if nameNode == nil {
		return
	}
	name := tsparse.NodeText(nameNode, w.source)
	qualified := joinQualified(scope, name)

	access := accessLevelOf(node, w.spec)
	modifiers := modifierTextsOf(node, w.spec)
	isOverride := containsString(modifiers, "override")

	parent := currentFrame(scope)

	reasons := []model.EntryReason{}
	isEntry := false

	if isOverride {
		reasons = append(reasons, model.ReasonOverride)
		isEntry = true
	}
	if hasMainAttribute(attributesOf(node, w.spec, w.source), w.spec.MainAttributes) {
		reasons = append(reasons, model.ReasonMainAttribute)
		isEntry = true
	}
	if parent.kind == model.KindClass && !isAccess(access, model.AccessPrivate) {
		reasons = append(reasons, model.ReasonNonPrivateMethod)
		isEntry = true
	}
	if containsString(w.spec.LifecycleNames, name) || containsString(w.spec.RepresentableNames, name) {
		reasons = append(reasons, model.ReasonLifecycleOrRepresentable)
		isEntry = true
	}
	if name == "run" && containsString(parent.conformances, w.spec.CLICommandProtocol) {
		reasons = append(reasons, model.ReasonCLIRun)
		isEntry = true
	}
	if discover.IsTestPath(w.relPath, w.spec.TestFilePathMarker) && hasPrefixAny(name, w.spec.TestNamePrefixes) {
		reasons = append(reasons, model.ReasonTestMethod)
		isEntry = true
	}
	if a, ok := access.Get(); ok && (a == model.AccessPublic || a == model.AccessOpen) {
		reasons = append(reasons, model.ReasonPublicModifier)
		isEntry = true
	}

	loc := locationOf(node, w.relPath)
	w.decls = append(w.decls, model.Declaration{
		ID:           model.IDFor(w.relPath, loc.StartLine, loc.StartCol, qualified),
		Name:         qualified,
		Kind:         model.KindFunction,
		Location:     loc,
		Access:       access,
		IsEntryPoint: isEntry,
		EntryReasons: reasons,
	})
}

func (w *fileWalker) visitInitializer(node *tree_sitter.Node, scope []scopeFrame) {
	qualified := joinQualified(scope, "init")
	access := accessLevelOf(node, w.spec)
	parent := currentFrame(scope)

	reasons := []model.EntryReason{}
	isEntry := false

	if isAccess(access, model.AccessPublic) || isAccess(access, model.AccessOpen) {
		reasons = append(reasons, model.ReasonPublicInitializer)
		isEntry = true
	}
	if containsAnyMacro(parent.conformances, w.spec.PersistenceMacros) {
		reasons = append(reasons, model.ReasonPublicInitializer)
		isEntry = true
	}
	if parent.kind == model.KindClass && !isAccess(access, model.AccessPrivate) {
		reasons = append(reasons, model.ReasonNonPrivateMethod)
		isEntry = true
	}
	if a, ok := access.Get(); ok && (a == model.AccessPublic || a == model.AccessOpen) {
		reasons = append(reasons, model.ReasonPublicModifier)
		isEntry = true
	}

	loc := locationOf(node, w.relPath)
	w.decls = append(w.decls, model.Declaration{
		ID:           model.IDFor(w.relPath, loc.StartLine, loc.StartCol, qualified),
		Name:         qualified,
		Kind:         model.KindInitializer,
		Location:     loc,
		Access:       access,
		IsEntryPoint: isEntry,
		EntryReasons: reasons,
	})
}

func (w *fileWalker) visitProperty(node *tree_sitter.Node, scope []scopeFrame) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = tsparse.FindDescendantByKind(node, "pattern")
		if nameNode == nil {
			nameNode = tsparse.FindDescendantByKind(node, "simple_identifier")
		}
	}
	if nameNode == nil {
		return
	}
	name := tsparse.NodeText(nameNode, w.source)
	qualified := joinQualified(scope, name)

	access := accessLevelOf(node, w.spec)
	parent := currentFrame(scope)

	declKind := model.KindVariable
	if parent.kind == model.KindClass || parent.kind == model.KindStruct || parent.kind == model.KindEnum {
		declKind = model.KindProperty
	}

	declaredType := declaredTypeOf(node, w.source)

	reasons := []model.EntryReason{}
	isEntry := false
	if name == "body" && containsAny(parent.conformances, w.spec.UIBodyContainerProtocols) {
		reasons = append(reasons, model.ReasonUIBody)
		isEntry = true
	}
	if a, ok := access.Get(); ok && (a == model.AccessPublic || a == model.AccessOpen) {
		reasons = append(reasons, model.ReasonPublicModifier)
		isEntry = true
	}

	loc := locationOf(node, w.relPath)
	w.decls = append(w.decls, model.Declaration{
		ID:           model.IDFor(w.relPath, loc.StartLine, loc.StartCol, qualified),
		Name:         qualified,
		Kind:         declKind,
		Location:     loc,
		Access:       access,
		DeclaredType: declaredType,
		IsEntryPoint: isEntry,
		EntryReasons: reasons,
	})
}

func currentFrame(scope []scopeFrame) scopeFrame {
	if len(scope) == 0 {
		return scopeFrame{}
	}
	return scope[len(scope)-1]
}

func joinQualified(scope []scopeFrame, base string) string {
	if len(scope) == 0 {
		return base
	}
	return scope[len(scope)-1].qualifiedName + "." + base
}

func containsKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(haystack, needles []string) bool {
	for _, n := range needles {
		if containsString(haystack, n) {
			return true
		}
	}
	return false
}

func containsAnyMacro(conformances, macros []string) bool {
	for _, c := range conformances {
		for _, m := range macros {
			if c == m || strings.TrimPrefix(c, "@") == m {
				return true
			}
		}
	}
	return false
}

func hasPrefixAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func hasFrameworkRoot(conformances, roots []string) bool {
	return containsAny(conformances, roots)
}

func hasMainAttribute(attrs, mains []string) bool {
	for _, a := range attrs {
		for _, m := range mains {
			if a == strings.TrimPrefix(m, "@") {
				return true
			}
		}
	}
	return false
}

func isAccess(opt model.Optional[model.AccessLevel], level model.AccessLevel) bool {
	v, ok := opt.Get()
	return ok && v == level
}

// leadingKeyword returns the first direct child token whose text is a
// recognized container keyword (class/struct/enum/protocol/actor/extension).
func leadingKeyword(node *tree_sitter.Node, spec *langspec.Spec) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		kind := child.Kind()
		if _, ok := spec.ContainerKeyword[kind]; ok {
			return kind
		}
	}
	return ""
}

// accessLevelOf scans a declaration node's modifiers child for an access
// keyword. Returns None when no explicit modifier is present (the target
// language defaults to internal, but the syntax layer records only what it
// observed, per the explicit-sum-type design note).
func accessLevelOf(node *tree_sitter.Node, spec *langspec.Spec) model.Optional[model.AccessLevel] {
	for _, text := range modifierTextsOf(node, spec) {
		switch text {
		case "private":
			return model.Some(model.AccessPrivate)
		case "fileprivate":
			return model.Some(model.AccessFilePrivate)
		case "internal":
			return model.Some(model.AccessInternal)
		case "public":
			return model.Some(model.AccessPublic)
		case "open":
			return model.Some(model.AccessOpen)
		}
	}
	return model.None[model.AccessLevel]()
}

func modifierTextsOf(node *tree_sitter.Node, spec *langspec.Spec) []string {
	var out []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == spec.Nodes.Modifiers {
			for j := uint(0); j < child.ChildCount(); j++ {
				mod := child.Child(j)
				if mod != nil {
					out = append(out, mod.Kind())
					// Keywords such as "public" or "override" are tokens inside
					// wrapper nodes (visibility_modifier, member_modifier).
					for k := uint(0); k < mod.ChildCount(); k++ {
						if tok := mod.Child(k); tok != nil {
							out = append(out, tok.Kind())
						}
					}
				}
			}
		}
	}
	return out
}

// attributesOf collects attribute names (e.g. "main", "Model") attached to a
// declaration node, either as direct children or inside its modifiers child.
func attributesOf(node *tree_sitter.Node, spec *langspec.Spec, source []byte) []string {
	var out []string
	collect := func(n *tree_sitter.Node) {
		if n != nil && n.Kind() == spec.Nodes.Attribute {
			out = append(out, strings.TrimPrefix(tsparse.NodeText(n, source), "@"))
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		collect(child)
		if child != nil && child.Kind() == spec.Nodes.Modifiers {
			for j := uint(0); j < child.ChildCount(); j++ {
				collect(child.Child(j))
			}
		}
	}
	return out
}

// conformancesOf returns the declared supertype/protocol names of a
// container, read from its inheritance clause. Best-effort: scans direct
// children preceding the body for type-shaped identifiers.
func conformancesOf(node *tree_sitter.Node, source []byte) []string {
	bodyField := node.ChildByFieldName("body")
	var out []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || (bodyField != nil && child.StartByte() == bodyField.StartByte()) {
			continue
		}
		switch child.Kind() {
		case "inheritance_specifier", "type_inheritance_clause", "inheritance_clause":
			for j := uint(0); j < child.ChildCount(); j++ {
				out = append(out, collectTypeNames(child.Child(j), source)...)
			}
		case "user_type":
			out = append(out, collectTypeNames(child, source)...)
		}
	}
	return out
}

func collectTypeNames(node *tree_sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "type_identifier", "user_type":
		return []string{outerTypeName(tsparse.NodeText(node, source))}
	}
	var out []string
	for i := uint(0); i < node.ChildCount(); i++ {
		out = append(out, collectTypeNames(node.Child(i), source)...)
	}
	return out
}

// declaredTypeOf extracts a stored property's syntactic type name, taking
// only the outer name of a generic instantiation (spec.md §8 boundary:
// "match the outer name only").
func declaredTypeOf(node *tree_sitter.Node, source []byte) model.Optional[string] {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		ann := tsparse.FindDescendantByKind(node, "type_annotation")
		if ann == nil {
			return model.None[string]()
		}
		typeNode = ann.ChildByFieldName("type")
		if typeNode == nil {
			for i := uint(0); i < ann.ChildCount(); i++ {
				c := ann.Child(i)
				if c != nil && c.Kind() != ":" {
					typeNode = c
					break
				}
			}
		}
	}
	if typeNode == nil {
		return model.None[string]()
	}
	return model.Some(outerTypeName(tsparse.NodeText(typeNode, source)))
}

// outerTypeName strips a generic argument list, e.g. "Array<Foo>" -> "Array".
func outerTypeName(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexByte(raw, '<'); idx >= 0 {
		return raw[:idx]
	}
	if strings.HasSuffix(raw, "?") {
		return strings.TrimSuffix(raw, "?")
	}
	return raw
}

func locationOf(node *tree_sitter.Node, relPath string) model.SourceLocation {
	start := node.StartPosition()
	end := node.EndPosition()
	return model.SourceLocation{
		File:      relPath,
		StartLine: tsparse.SafeRowToLine(start.Row),
		StartCol:  int(start.Column) + 1,
		EndLine:   tsparse.SafeRowToLine(end.Row),
		EndCol:    int(end.Column) + 1,
	}
}
