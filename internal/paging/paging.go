// Package paging holds the offset/limit window shared by every listing.
package paging

// Window clamps [offset, offset+limit) to a sequence of length total.
// Offsets past the end and non-positive limits yield an empty window.
func Window(total, offset, limit int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return total, total
	}
	end = offset + limit
	if end > total || end < offset {
		end = total
	}
	return offset, end
}

// Slice returns a copy of the window over items so callers cannot alias
// the owner's backing array.
func Slice[T any](items []T, offset, limit int) []T {
	start, end := Window(len(items), offset, limit)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Limit bounds a requested page size to (0, max], using max when unset.
func Limit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
