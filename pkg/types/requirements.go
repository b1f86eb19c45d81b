package types

import (
	"sort"
	"strconv"
	"strings"
)

// Requirement is one buyer-supplied configuration entry (personalization,
// engraving, etc.) attached to a cart line.
type Requirement struct {
	Codename string `json:"codename"`
	Value    string `json:"value"`
}

// Requirements preserves the order the buyer supplied the entries in.
type Requirements []Requirement

// Fingerprint returns a stable identity for the requirement set. Entries are
// keyed by codename, so payload order never changes the identity. Codenames and
// values are quoted before joining so delimiter characters inside a value
// cannot make two different sets share an identity. Lines on the same product
// merge only when their fingerprints match.
func (r Requirements) Fingerprint() string {
	if len(r) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r))
	for _, req := range r {
		parts = append(parts, strconv.Quote(req.Codename)+"="+strconv.Quote(req.Value))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Clone returns an independent copy of the sequence.
func (r Requirements) Clone() Requirements {
	if r == nil {
		return nil
	}
	out := make(Requirements, len(r))
	copy(out, r)
	return out
}
