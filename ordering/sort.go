// Package ordering implements the priority-stable two-key sort that
// produces the play-out order (spec.md §4.4).
package ordering

import (
	"sort"

	"github.com/chase3718/jsontalkieplayer/pin"
)

// Less is the strict weak ordering comparator: primary key TimeMs, secondary
// key Priority, both ascending, both using strict "<" — never "<=" — on
// either level. Using "<=" at either level breaks antisymmetry and makes
// many sort implementations misbehave (spec.md §4.4, §9).
func Less(a, b *pin.Pin) bool {
	if a.TimeMs != b.TimeMs {
		return a.TimeMs < b.TimeMs
	}
	return a.Priority < b.Priority
}

// Sort orders pins in place by (TimeMs asc, Priority asc). The sort
// algorithm itself need not be stable — the normalizer that runs afterward
// relies only on the resulting two-key order, not on the relative order of
// pins that compare equal on both keys.
func Sort(pins []*pin.Pin) {
	sort.Slice(pins, func(i, j int) bool {
		return Less(pins[i], pins[j])
	})
}
