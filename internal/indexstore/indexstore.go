// Package indexstore reads (and, for test fixtures and indexer feeds,
// writes) the compiler index: canonical symbol definitions and their
// reference occurrences, both modeled uniformly as ReferenceOccurrence rows
// distinguished by role set. It exposes exactly the contract the Symbol
// Joiner and Graph Builder need, per spec.md §3 and §6:
// occurrences_in_file(path) and occurrences_of_usr(usr, role_filter).
//
// Adapted from the teacher's internal/store: the same *sql.DB-backed store
// design and an UpsertNode-style upsert, done here as delete-then-insert
// inside one transaction (internal/store/store.go, internal/store/nodes.go). Switched the driver
// from the teacher's modernc.org/sqlite (cgo-free, but not in the teacher's
// declared require block) to mattn/go-sqlite3, which is what the teacher's
// go.mod actually lists as a direct dependency. The graph traversal the
// teacher built on top of its store (internal/store/traverse.go,
// internal/store/impact.go) is re-grounded in internal/reachability
// instead of living here, since this package's contract is index access,
// not graph algorithms.
package indexstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/symreach/symreach/internal/model"
)

// Store wraps a SQLite-backed compiler index.
type Store struct {
	db *sql.DB
}

// OpenPath opens or creates the index database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory index store, for tests and single-run CLI
// invocations that populate the index from scratch.
func OpenMemory() (*Store, error) {
	return OpenPath(":memory:")
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS occurrences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_usr TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		file_path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		start_col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		roles INTEGER NOT NULL DEFAULT 0,
		relations TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_occ_file ON occurrences(file_path);
	CREATE INDEX IF NOT EXISTS idx_occ_usr ON occurrences(target_usr);
	CREATE INDEX IF NOT EXISTS idx_occ_usr_roles ON occurrences(target_usr, roles);
	`
	_, err := s.db.Exec(schema)
	return err
}

// canonicalDefRoles is the role-set mask that marks an occurrence row as a
// symbol's canonical definition (spec.md §4.2: "occurrences whose role set
// contains both definition and canonical").
const canonicalDefRoles = model.RoleDefinition | model.RoleCanonical

type relationDTO struct {
	Roles      model.Role `json:"roles"`
	RelatedUSR string     `json:"related_usr"`
}

func marshalRelations(rs model.Relations) string {
	dtos := make([]relationDTO, 0, len(rs))
	for _, r := range rs {
		dtos = append(dtos, relationDTO{Roles: r.Roles, RelatedUSR: r.RelatedUSR})
	}
	b, err := json.Marshal(dtos)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalRelations(data string) model.Relations {
	var dtos []relationDTO
	if err := json.Unmarshal([]byte(data), &dtos); err != nil {
		return nil
	}
	out := make(model.Relations, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, model.Relation{Roles: d.Roles, RelatedUSR: d.RelatedUSR})
	}
	return out
}

// InsertOccurrence records one reference occurrence of a USR, canonical
// definitions included.
func (s *Store) InsertOccurrence(occ model.ReferenceOccurrence) error {
	_, err := s.db.Exec(`
		INSERT INTO occurrences (target_usr, name, kind, file_path, start_line, start_col, end_line, end_col, roles, relations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		occ.TargetUSR, occ.Name, string(occ.Kind), occ.Location.File,
		occ.Location.StartLine, occ.Location.StartCol, occ.Location.EndLine, occ.Location.EndCol,
		uint16(occ.Roles), marshalRelations(occ.Relations))
	if err != nil {
		return fmt.Errorf("insert occurrence for %s: %w", occ.TargetUSR, err)
	}
	return nil
}

// UpsertSymbol records (or replaces) the single canonical-definition row for
// a USR, deleting any previous canonical row and inserting the new one in a
// single transaction. Used by indexer feeds and test fixtures that build the
// index symbol-by-symbol.
func (s *Store) UpsertSymbol(sym model.IndexSymbol) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("upsert symbol %s: %w", sym.USR, err)
	}
	if _, err := tx.Exec(`DELETE FROM occurrences WHERE target_usr = ? AND roles & ? = ?`,
		sym.USR, uint16(canonicalDefRoles), uint16(canonicalDefRoles)); err != nil {
		tx.Rollback()
		return fmt.Errorf("upsert symbol %s: %w", sym.USR, err)
	}
	roles := sym.Roles | canonicalDefRoles
	if _, err := tx.Exec(`
		INSERT INTO occurrences (target_usr, name, kind, file_path, start_line, start_col, end_line, end_col, roles, relations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '[]')`,
		sym.USR, sym.Name, string(sym.Kind), sym.Location.File,
		sym.Location.StartLine, sym.Location.StartCol, sym.Location.EndLine, sym.Location.EndCol,
		uint16(roles)); err != nil {
		tx.Rollback()
		return fmt.Errorf("upsert symbol %s: %w", sym.USR, err)
	}
	return tx.Commit()
}

// UpsertSymbolWithContainer is UpsertSymbol plus a containedBy relation to
// parentUSR, needed for Tier-A symbolic ascent (spec.md §4.3).
func (s *Store) UpsertSymbolWithContainer(sym model.IndexSymbol, parentUSR string) error {
	if err := s.UpsertSymbol(sym); err != nil {
		return err
	}
	if parentUSR == "" {
		return nil
	}
	_, err := s.db.Exec(`UPDATE occurrences SET relations = ?
		WHERE target_usr = ? AND roles & ? = ?`,
		marshalRelations(model.Relations{{Roles: model.RoleContainedBy, RelatedUSR: parentUSR}}),
		sym.USR, uint16(canonicalDefRoles), uint16(canonicalDefRoles))
	if err != nil {
		return fmt.Errorf("set container relation for %s: %w", sym.USR, err)
	}
	return nil
}

const occurrenceColumns = `target_usr, name, kind, file_path, start_line, start_col, end_line, end_col, roles, relations`

func scanOccurrence(row interface {
	Scan(dest ...any) error
}) (model.ReferenceOccurrence, error) {
	var occ model.ReferenceOccurrence
	var kind, relations string
	var roles uint16
	err := row.Scan(&occ.TargetUSR, &occ.Name, &kind, &occ.Location.File,
		&occ.Location.StartLine, &occ.Location.StartCol, &occ.Location.EndLine, &occ.Location.EndCol,
		&roles, &relations)
	if err != nil {
		return occ, err
	}
	occ.Kind = model.IndexKind(kind)
	occ.Roles = model.Role(roles)
	occ.Relations = unmarshalRelations(relations)
	return occ, nil
}

// OccurrencesInFile returns every occurrence recorded for a file — canonical
// definitions and plain references alike — ordered by (start_line,
// start_col): the Symbol Joiner's exact-line candidate pool source
// (spec.md §4.2).
func (s *Store) OccurrencesInFile(filePath string) ([]model.ReferenceOccurrence, error) {
	rows, err := s.db.Query(`SELECT `+occurrenceColumns+` FROM occurrences
		WHERE file_path = ? ORDER BY start_line, start_col`, filePath)
	if err != nil {
		return nil, fmt.Errorf("occurrences_in_file %s: %w", filePath, err)
	}
	defer rows.Close()

	var out []model.ReferenceOccurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		out = append(out, occ)
	}
	return out, rows.Err()
}

// OccurrencesOfUSR returns every occurrence of usr whose role set contains
// every bit in roleFilter (pass 0 to select all roles), ordered by
// (start_line, start_col) — used by the Graph Builder to enumerate
// references to a hydrated declaration (spec.md §4.3).
func (s *Store) OccurrencesOfUSR(usr string, roleFilter model.Role) ([]model.ReferenceOccurrence, error) {
	rows, err := s.db.Query(`SELECT `+occurrenceColumns+` FROM occurrences
		WHERE target_usr = ? ORDER BY start_line, start_col`, usr)
	if err != nil {
		return nil, fmt.Errorf("occurrences_of_usr %s: %w", usr, err)
	}
	defer rows.Close()

	var out []model.ReferenceOccurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		if roleFilter != 0 && !occ.Roles.Has(roleFilter) {
			continue
		}
		out = append(out, occ)
	}
	return out, rows.Err()
}

// DefinitionOf returns the canonical-definition occurrence for usr, if
// indexed. Used by Tier-A symbolic ascent to follow a seed USR's
// containedBy relation (spec.md §4.3).
func (s *Store) DefinitionOf(usr string) (model.ReferenceOccurrence, bool, error) {
	row := s.db.QueryRow(`SELECT `+occurrenceColumns+` FROM occurrences
		WHERE target_usr = ? AND roles & ? = ? LIMIT 1`, usr, uint16(canonicalDefRoles), uint16(canonicalDefRoles))
	occ, err := scanOccurrence(row)
	if err == sql.ErrNoRows {
		return model.ReferenceOccurrence{}, false, nil
	}
	if err != nil {
		return model.ReferenceOccurrence{}, false, fmt.Errorf("definition_of %s: %w", usr, err)
	}
	return occ, true, nil
}

// SymbolByUSR returns the canonical symbol definition for usr, if indexed,
// as an IndexSymbol (stripped of the Relations a ReferenceOccurrence
// carries — callers that need the containment relation should use
// DefinitionOf instead).
func (s *Store) SymbolByUSR(usr string) (model.IndexSymbol, bool, error) {
	occ, ok, err := s.DefinitionOf(usr)
	if err != nil || !ok {
		return model.IndexSymbol{}, ok, err
	}
	return model.IndexSymbol{
		USR:      occ.TargetUSR,
		Name:     occ.Name,
		Kind:     occ.Kind,
		Location: occ.Location,
		Roles:    occ.Roles,
	}, true, nil
}
