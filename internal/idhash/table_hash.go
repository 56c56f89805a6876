package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"gld-feature-lab/internal/domain"
)

// TableHash fingerprints an aligned table.
// Canonical form, one line per row, fields joined by '|':
//
//	date|<col1>|<col2>|...
//	2024-01-02|180.5||1.25
//
// Floats use the shortest round-trip decimal form; null is the empty string.
// Two tables hash equal iff they have the same dates, column order and cell values.
func TableHash(t *domain.Table) string {
	h := sha256.New()
	cols := t.Columns()

	var b strings.Builder
	b.WriteString("date")
	for _, c := range cols {
		b.WriteByte('|')
		b.WriteString(c.Name)
	}
	b.WriteByte('\n')
	h.Write([]byte(b.String()))

	for row := 0; row < t.Len(); row++ {
		b.Reset()
		b.WriteString(t.Date(row).Format(domain.DateLayout))
		for _, c := range cols {
			b.WriteByte('|')
			if v := c.Values[row]; v != nil {
				b.WriteString(strconv.FormatFloat(*v, 'f', -1, 64))
			}
		}
		b.WriteByte('\n')
		h.Write([]byte(b.String()))
	}

	return hex.EncodeToString(h.Sum(nil))
}
