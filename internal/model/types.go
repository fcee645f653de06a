// Package model holds the shared data model joining the syntactic and
// semantic views of the analyzed source tree: SourceLocation, Declaration,
// HydratedDeclaration, ReferenceOccurrence, IndexSymbol, and CallGraph.
package model

import "sort"

// SourceLocation is an immutable file position. Column is a 1-based UTF-8
// byte offset within its line (not a code-point column), matching what the
// compiler index reports.
type SourceLocation struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// DeclKind enumerates the declaration kinds the syntax inventory produces.
type DeclKind string

const (
	KindStruct      DeclKind = "struct"
	KindClass       DeclKind = "class"
	KindEnum        DeclKind = "enum"
	KindFunction    DeclKind = "function"
	KindInitializer DeclKind = "initializer"
	KindVariable    DeclKind = "variable"
	KindProperty    DeclKind = "property"
)

// AccessLevel enumerates the target language's access modifiers, ordered
// from least to most visible.
type AccessLevel string

const (
	AccessPrivate     AccessLevel = "private"
	AccessFilePrivate AccessLevel = "fileprivate"
	AccessInternal    AccessLevel = "internal"
	AccessPublic      AccessLevel = "public"
	AccessOpen        AccessLevel = "open"
)

// EntryReason is one of the ORed entry-point heuristics from spec.md §4.1.
type EntryReason string

const (
	ReasonFrameworkRoot            EntryReason = "framework_root"
	ReasonMainAttribute            EntryReason = "main_attribute"
	ReasonOverride                 EntryReason = "override"
	ReasonNonPrivateMethod         EntryReason = "non_private_method"
	ReasonPublicInitializer        EntryReason = "public_initializer"
	ReasonLifecycleOrRepresentable EntryReason = "lifecycle_or_representable"
	ReasonCLIRun                   EntryReason = "cli_run"
	ReasonTestMethod               EntryReason = "test_method"
	ReasonUIBody                   EntryReason = "ui_body"
	ReasonPublicModifier           EntryReason = "public_modifier"
)

// Declaration is a syntactic declaration record, produced by the Syntax
// Inventory and immutable thereafter.
type Declaration struct {
	// ID is a stable local identifier derived from file, start position and
	// name (see IDFor), available before a canonical USR is. The Symbol
	// Joiner does not read it.
	ID string

	// Name is the dot-joined qualified path: enclosing type names followed
	// by the base name (e.g. "Outer.Inner.foo").
	Name string

	Kind     DeclKind
	Location SourceLocation
	Access   Optional[AccessLevel]

	// DeclaredType is the syntactic type name of a stored property, used
	// only to locate that type's own declaration for pruning (§4.4).
	DeclaredType Optional[string]

	IsEntryPoint bool
	EntryReasons []EntryReason
}

// BaseName returns the last dot-segment of a qualified Name.
func (d *Declaration) BaseName() string {
	return baseName(d.Name)
}

func baseName(qualified string) string {
	idx := -1
	for i := 0; i < len(qualified); i++ {
		if qualified[i] == '.' {
			idx = i
		}
	}
	if idx == -1 {
		return qualified
	}
	return qualified[idx+1:]
}

// EnclosingTypeName returns the qualified name of the immediately enclosing
// type, i.e. Name with its last dot-segment removed. Returns "" if Name has
// no enclosing scope.
func (d *Declaration) EnclosingTypeName() string {
	idx := -1
	for i := 0; i < len(d.Name); i++ {
		if d.Name[i] == '.' {
			idx = i
		}
	}
	if idx == -1 {
		return ""
	}
	return d.Name[:idx]
}

// HydratedDeclaration pairs a Declaration with its canonical USR, once the
// Symbol Joiner has resolved one. Immutable after construction.
type HydratedDeclaration struct {
	Declaration
	USR Optional[string]
}

// Role is a bit in a ReferenceOccurrence's or IndexSymbol's role set.
type Role uint16

const (
	RoleDefinition Role = 1 << iota
	RoleCanonical
	RoleReference
	RoleCalledBy
	RoleContainedBy
	RoleAccessorOf
	RoleOverrideOf
)

// Has reports whether r contains all bits of other.
func (r Role) Has(other Role) bool {
	return r&other == other
}

// Relation is one (role-set, related USR) pair attached to an occurrence.
type Relation struct {
	Roles      Role
	RelatedUSR string
}

// FirstWithRole returns the related USR of the first relation whose role set
// contains role, and whether one was found.
func (rs Relations) FirstWithRole(role Role) (string, bool) {
	for _, r := range rs {
		if r.Roles.Has(role) {
			return r.RelatedUSR, true
		}
	}
	return "", false
}

// Relations is a list of Relation, kept as its own type for FirstWithRole.
type Relations []Relation

// IndexKind enumerates the semantic-view symbol kinds the compiler index
// reports, as distinct from the syntactic DeclKind.
type IndexKind string

const (
	IndexStruct         IndexKind = "struct"
	IndexClass          IndexKind = "class"
	IndexEnum           IndexKind = "enum"
	IndexConstructor    IndexKind = "constructor"
	IndexFunction       IndexKind = "function"
	IndexInstanceMethod IndexKind = "instance-method"
	IndexStaticMethod   IndexKind = "static-method"
	IndexVariable       IndexKind = "variable"
	IndexInstanceProp   IndexKind = "instance-property"
	IndexStaticProp     IndexKind = "static-property"
)

// IndexSymbol is a canonical-definition occurrence read from the compiler
// index, as produced by occurrences_in_file.
type IndexSymbol struct {
	USR      string
	Name     string
	Kind     IndexKind
	Location SourceLocation
	Roles    Role
}

// ReferenceOccurrence is a single use-site of a USR, produced on demand from
// the index via occurrences_of_usr.
type ReferenceOccurrence struct {
	TargetUSR string
	Name      string
	Kind      IndexKind
	Location  SourceLocation
	Roles     Role
	Relations Relations
}

// GeoEntry is one (line-range, USR) row of a file's geometric index.
type GeoEntry struct {
	StartLine int
	EndLine   int
	USR       string
}

// CallGraph is the joined, directed reference graph over USRs.
type CallGraph struct {
	UsrToDecl      map[string]*HydratedDeclaration
	OutEdges       map[string]map[string]struct{}
	InEdges        map[string]map[string]struct{}
	GeometricIndex map[string][]GeoEntry
}

// NewCallGraph returns an empty, initialized CallGraph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		UsrToDecl:      make(map[string]*HydratedDeclaration),
		OutEdges:       make(map[string]map[string]struct{}),
		InEdges:        make(map[string]map[string]struct{}),
		GeometricIndex: make(map[string][]GeoEntry),
	}
}

// AddEdge records caller->callee, filtering self-edges. Safe to call
// repeatedly; it deduplicates via the underlying sets.
func (g *CallGraph) AddEdge(caller, callee string) {
	if caller == "" || callee == "" || caller == callee {
		return
	}
	if g.OutEdges[caller] == nil {
		g.OutEdges[caller] = make(map[string]struct{})
	}
	g.OutEdges[caller][callee] = struct{}{}
	if g.InEdges[callee] == nil {
		g.InEdges[callee] = make(map[string]struct{})
	}
	g.InEdges[callee][caller] = struct{}{}
}

// RemoveEdge deletes caller->callee if present, keeping InEdges the exact
// inverse of OutEdges.
func (g *CallGraph) RemoveEdge(caller, callee string) {
	if outs, ok := g.OutEdges[caller]; ok {
		delete(outs, callee)
	}
	if ins, ok := g.InEdges[callee]; ok {
		delete(ins, caller)
	}
}

// SortGeometricIndex sorts each file's entries by start_line ascending, then
// by shorter range first, matching the invariant in spec.md §3.
func (g *CallGraph) SortGeometricIndex() {
	for file := range g.GeometricIndex {
		entries := g.GeometricIndex[file]
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].StartLine != entries[j].StartLine {
				return entries[i].StartLine < entries[j].StartLine
			}
			lenI := entries[i].EndLine - entries[i].StartLine
			lenJ := entries[j].EndLine - entries[j].StartLine
			return lenI < lenJ
		})
		g.GeometricIndex[file] = entries
	}
}
