package markdown

import (
	"fmt"
	"sort"
)

// Edit is a targeted byte-range replacement. Start and End are offsets into the
// original source with End exclusive; Replacement replaces source[Start:End].
//
// Marker stripping and link rewriting are both expressed as edits so the
// untouched bytes of a document survive exactly as authored.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies non-overlapping byte-range edits to source and returns the
// updated content. Edits are applied from the end of the source toward the
// beginning so earlier edits do not invalidate offsets for later edits.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start > sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(source) {
			return nil, fmt.Errorf("invalid edit[%d]: range [%d,%d) out of bounds", i, e.Start, e.End)
		}
		if i > 0 && e.End > sorted[i-1].Start {
			return nil, fmt.Errorf("invalid edits: ranges [%d,%d) and [%d,%d) overlap",
				e.Start, e.End, sorted[i-1].Start, sorted[i-1].End)
		}
	}

	out := append([]byte(nil), source...)
	for _, e := range sorted {
		next := make([]byte, 0, len(out)-(e.End-e.Start)+len(e.Replacement))
		next = append(next, out[:e.Start]...)
		next = append(next, e.Replacement...)
		next = append(next, out[e.End:]...)
		out = next
	}
	return out, nil
}

// LineAt returns the 1-based line number of a byte offset in source.
func LineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	line := 1
	for i := 0; i < offset; i++ {
		if source[i] == '\n' {
			line++
		}
	}
	return line
}
