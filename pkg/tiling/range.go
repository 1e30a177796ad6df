package tiling

import (
	"fmt"
	"math"
)

// InclusiveRange is a closed interval [Start, End] of tile indices.
// A range with Start > End is empty; EmptyRange is the canonical empty value.
type InclusiveRange struct {
	Start int16
	End   int16
}

// EmptyRange is the identity element for Merge and Expand.
var EmptyRange = InclusiveRange{Start: math.MaxInt16, End: math.MinInt16}

// NewRange returns the range [start, end].
func NewRange(start, end int16) InclusiveRange {
	return InclusiveRange{Start: start, End: end}
}

// IsEmpty reports whether the range holds no index.
func (r InclusiveRange) IsEmpty() bool {
	return r.Start > r.End
}

// Contains reports whether v lies inside the range.
func (r InclusiveRange) Contains(v int16) bool {
	return v >= r.Start && v <= r.End
}

// Len returns the number of indices in the range.
func (r InclusiveRange) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return int(r.End) - int(r.Start) + 1
}

// Expand grows the range to include v.
func (r *InclusiveRange) Expand(v int16) {
	r.Start = min(r.Start, v)
	r.End = max(r.End, v)
}

// Merge returns the smallest range covering both a and b.
func Merge(a, b InclusiveRange) InclusiveRange {
	return InclusiveRange{Start: min(a.Start, b.Start), End: max(a.End, b.End)}
}

// Clamp intersects the range with [lo, hi]. The result is EmptyRange when r is
// empty or lies entirely outside the bounds.
func (r InclusiveRange) Clamp(lo, hi int16) InclusiveRange {
	if r.IsEmpty() || r.End < lo || r.Start > hi {
		return EmptyRange
	}
	return InclusiveRange{Start: max(r.Start, lo), End: min(r.End, hi)}
}

func (r InclusiveRange) String() string {
	if r.IsEmpty() {
		return "[]"
	}
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}
