package model

import (
	"strconv"

	"github.com/zeebo/xxh3"
)

// IDFor computes a stable local declaration id from file, start line, start
// column, and qualified name. Used as Declaration.ID, an identifier that
// exists before a canonical USR does (see DESIGN.md).
//
// Grounded on the teacher's xxh3 content-hashing usage in
// internal/pipeline/pipeline.go.
func IDFor(file string, startLine, startCol int, qualifiedName string) string {
	var b []byte
	b = append(b, file...)
	b = append(b, '\x00')
	b = strconv.AppendInt(b, int64(startLine), 10)
	b = append(b, '\x00')
	b = strconv.AppendInt(b, int64(startCol), 10)
	b = append(b, '\x00')
	b = append(b, qualifiedName...)
	sum := xxh3.Hash(b)
	return strconv.FormatUint(sum, 16)
}
