package markdown

import (
	"fmt"
	"sort"
)

// Edit replaces source[Start:End] with Replacement. Offsets refer to the
// original source; End is exclusive.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies non-overlapping byte-range edits and returns the new
// content. The rest of the document, including line endings and escaping, is
// preserved byte for byte.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	prevEnd := 0
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(source) {
			return nil, fmt.Errorf("edit %d: range [%d,%d) out of bounds for %d bytes", i, e.Start, e.End, len(source))
		}
		if e.Start < prevEnd {
			return nil, fmt.Errorf("edit %d: overlaps previous edit", i)
		}
		prevEnd = e.End
	}

	out := make([]byte, 0, len(source))
	cursor := 0
	for _, e := range sorted {
		out = append(out, source[cursor:e.Start]...)
		out = append(out, e.Replacement...)
		cursor = e.End
	}
	out = append(out, source[cursor:]...)
	return out, nil
}
