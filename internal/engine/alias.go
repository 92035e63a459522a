package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/gridmerge/internal/ir"
)

// ErrAliasChain is returned when an alias target is itself an alias key.
// Chained aliases would make resolution order-dependent.
var ErrAliasChain = errors.New("alias target is itself an alias")

// DefaultAliases returns the built-in table of historical TOP500 header
// spellings (typos and renames) and their canonical forms.
func DefaultAliases() map[string]string {
	return map[string]string{
		"Rmax":                            "RMax",
		"Rpeak":                           "RPeak",
		"Effeciency (%)":                  "Efficiency (%)",
		"Proc. Frequency":                 "Processor Speed (MHz)",
		"Cores":                           "Total Cores",
		"Power Effeciency [GFlops/Watts]": "Power Efficiency [GFlops/Watts]",
	}
}

// MergeAliases combines alias maps. Later maps override earlier ones.
func MergeAliases(tables ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, t := range tables {
		maps.Copy(out, t)
	}
	return out
}

// AliasTable maps raw header spellings to canonical spellings.
// It is immutable after construction. A nil *AliasTable resolves nothing.
type AliasTable struct {
	aliases map[string]string
}

// NewAliasTable validates and copies the mapping.
//
// Identity entries ("RMax": "RMax") are dropped. Empty keys or targets and
// chains ("a": "b", "b": "c") are rejected, which guarantees that
// Canonicalize is idempotent.
func NewAliasTable(aliases map[string]string) (*AliasTable, error) {
	t := &AliasTable{aliases: make(map[string]string, len(aliases))}
	for raw, canonical := range aliases {
		if raw == "" || canonical == "" {
			return nil, fmt.Errorf("alias %q -> %q: empty header name", raw, canonical)
		}
		if raw == canonical {
			continue
		}
		t.aliases[raw] = canonical
	}

	for _, raw := range slices.Sorted(maps.Keys(t.aliases)) {
		canonical := t.aliases[raw]
		if next, ok := t.aliases[canonical]; ok {
			return nil, fmt.Errorf("%w: %q -> %q -> %q", ErrAliasChain, raw, canonical, next)
		}
	}

	return t, nil
}

// MustAliasTable is like NewAliasTable but panics on error.
// Use only in tests or with known-valid tables.
func MustAliasTable(aliases map[string]string) *AliasTable {
	t, err := NewAliasTable(aliases)
	if err != nil {
		panic(err)
	}
	return t
}

// Canonicalize returns the canonical spelling for raw, or raw itself when
// it is not a known alias.
func (t *AliasTable) Canonicalize(raw string) string {
	if t == nil {
		return raw
	}
	if canonical, ok := t.aliases[raw]; ok {
		return canonical
	}
	return raw
}

// Resolve canonicalizes a whole header row.
//
// The returned slice is positionally aligned with header. Renames lists each
// distinct (raw, canonical) pair once, in order of first appearance.
func (t *AliasTable) Resolve(header []string) ([]string, []ir.Rename) {
	canonical := make([]string, len(header))
	var renames []ir.Rename
	seen := make(map[ir.Rename]bool)

	for i, raw := range header {
		name := t.Canonicalize(raw)
		canonical[i] = name
		if name == raw {
			continue
		}
		r := ir.Rename{From: raw, To: name}
		if !seen[r] {
			seen[r] = true
			renames = append(renames, r)
		}
	}

	return canonical, renames
}

// Len returns the number of aliases.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.aliases)
}

// Entries returns the table as renames sorted by raw spelling.
func (t *AliasTable) Entries() []ir.Rename {
	if t == nil {
		return nil
	}
	out := make([]ir.Rename, 0, len(t.aliases))
	for _, raw := range slices.Sorted(maps.Keys(t.aliases)) {
		out = append(out, ir.Rename{From: raw, To: t.aliases[raw]})
	}
	return out
}

// String lists the table as "raw=canonical" pairs.
func (t *AliasTable) String() string {
	entries := t.Entries()
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.From + "=" + e.To
	}
	return strings.Join(parts, ", ")
}
