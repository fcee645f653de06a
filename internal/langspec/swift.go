// Package langspec holds the target language's grammar node-kind tables and
// the data tables the Symbol Joiner and Syntax Inventory key off of —
// framework roots, lifecycle names, persistence macros, and the
// kind-compatibility bridge. Kept as data, not logic, per spec.md §9's open
// question. internal/config can override the name lists (framework roots,
// main attributes, lifecycle, representable, persistence-macro and test-name
// tables) without a code change; the kind bridge, node kinds and the other
// fields are changed only by editing Default.
//
// Grounded on the teacher's internal/lang registry pattern
// (internal/lang/lang.go, internal/lang/swift.go), narrowed to the single
// Swift grammar the spec's entry-point heuristics are written against.
package langspec

import "github.com/symreach/symreach/internal/model"

// NodeKinds are the tree-sitter-swift node kind strings the syntax walker
// recognizes. Exposed as data so a grammar upgrade only needs a table edit.
type NodeKinds struct {
	ClassLike    []string // class/struct/enum/protocol/extension all parse under these container kinds
	FunctionLike []string // free/member function declarations
	InitLike     []string
	PropertyLike []string
	Modifiers    string // modifier-list node wrapping access/attribute keywords
	Attribute    string
}

// Spec is the full Swift language specification consumed by
// internal/syntax and internal/symboljoin.
type Spec struct {
	FileExtensions []string
	Nodes          NodeKinds

	// ContainerKeyword maps the leading keyword token text of a ClassLike
	// node ("class", "struct", "enum", "protocol", "actor", "extension") to
	// the DeclKind it produces. "protocol" and "actor" are folded onto the
	// nearest of {class, struct} for entry-point and access-level purposes.
	ContainerKeyword map[string]model.DeclKind

	// FrameworkRoots are supertype names that mark a conforming/inheriting
	// type as an entry point (heuristic #1).
	FrameworkRoots []string

	// MainAttributes mark a type or function as a program entry point
	// (heuristic #2).
	MainAttributes []string

	// LifecycleNames are framework-called method names that are always
	// entry points regardless of access level (heuristic #6a).
	LifecycleNames []string

	// RepresentableNames are SwiftUI/UIKit representable-protocol method
	// names (heuristic #6b).
	RepresentableNames []string

	// PersistenceMacros mark a type whose initializers are entry points
	// even when not public (heuristic #5).
	PersistenceMacros []string

	// TestFilePathMarker is matched case-insensitively against a file's path
	// to decide whether test-prefixed methods are entry points (heuristic #8).
	TestFilePathMarker string
	TestNamePrefixes   []string

	// CLICommandProtocol names the protocol whose conforming types' `run`
	// method is an entry point (heuristic #7).
	CLICommandProtocol string

	// UIBodyContainerProtocols are protocols whose conforming types' `body`
	// computed property is an entry point (heuristic #9).
	UIBodyContainerProtocols []string

	// KindBridge is the Symbol Joiner's kind-compatibility table: for each
	// syntactic DeclKind, the set of semantic IndexKinds a candidate may
	// have and still be considered compatible (spec.md §4.2).
	KindBridge map[model.DeclKind]map[model.IndexKind]bool
}

// Default is the reference Swift specification. internal/config merges a
// loaded YAML document's non-empty name lists over a copy of this; it does
// not override KindBridge, Nodes, ContainerKeyword, TestFilePathMarker,
// CLICommandProtocol or UIBodyContainerProtocols.
var Default = Spec{
	FileExtensions: []string{".swift"},
	Nodes: NodeKinds{
		ClassLike: []string{
			"class_declaration",
			"protocol_declaration",
			"struct_declaration",
			"enum_declaration",
			"extension_declaration",
		},
		FunctionLike: []string{"function_declaration"},
		InitLike:     []string{"init_declaration"},
		PropertyLike: []string{"property_declaration"},
		Modifiers:    "modifiers",
		Attribute:    "attribute",
	},
	ContainerKeyword: map[string]model.DeclKind{
		"class":     model.KindClass,
		"struct":    model.KindStruct,
		"enum":      model.KindEnum,
		"protocol":  model.KindClass,
		"actor":     model.KindClass,
		"extension": model.KindClass,
	},
	FrameworkRoots: []string{
		"UIView", "UIViewController", "UIApplicationDelegate",
		"UIResponder", "NSObject",
		"View", "App", "Scene",
		"XCTestCase",
		"ParsableCommand",
		"Codable", "Decodable", "Encodable",
	},
	MainAttributes: []string{"main", "@main", "UIApplicationMain"},
	LifecycleNames: []string{
		"viewDidLoad", "viewWillAppear", "viewDidAppear",
		"viewWillDisappear", "viewDidDisappear",
		"applicationDidFinishLaunching", "applicationWillTerminate",
		"application",
		"setUp", "tearDown",
	},
	RepresentableNames: []string{
		"makeUIView", "updateUIView", "makeUIViewController",
		"updateUIViewController", "makeCoordinator",
	},
	PersistenceMacros:  []string{"Model", "Entity"},
	TestFilePathMarker: "test",
	TestNamePrefixes:   []string{"test"},
	CLICommandProtocol: "ParsableCommand",
	UIBodyContainerProtocols: []string{
		"View", "App", "Scene",
	},
	KindBridge: map[model.DeclKind]map[model.IndexKind]bool{
		model.KindStruct: {model.IndexStruct: true},
		model.KindClass:  {model.IndexClass: true},
		model.KindEnum:   {model.IndexEnum: true},
		model.KindInitializer: {model.IndexConstructor: true},
		model.KindFunction: {
			model.IndexFunction:       true,
			model.IndexInstanceMethod: true,
			model.IndexStaticMethod:   true,
		},
		model.KindVariable: {
			model.IndexVariable:      true,
			model.IndexInstanceProp:  true,
			model.IndexStaticProp:    true,
		},
		model.KindProperty: {
			model.IndexVariable:     true,
			model.IndexInstanceProp: true,
			model.IndexStaticProp:   true,
		},
	},
}

// KindCompatible reports whether a candidate's IndexKind is an acceptable
// bridge target for a syntactic DeclKind, per the spec's fixed kind bridge.
func (s *Spec) KindCompatible(d model.DeclKind, k model.IndexKind) bool {
	set, ok := s.KindBridge[d]
	if !ok {
		return false
	}
	return set[k]
}
