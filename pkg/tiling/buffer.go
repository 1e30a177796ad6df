package tiling

import (
	"honnef.co/go/safeish"
)

// Buffer is the flat tile range output shared by all work units.
//
// Item i occupies RangesPerItem consecutive entries starting at
// i*RangesPerItem: entry 0 is the row range, entry 1+row the column range of
// that tile row. Unused trailing entries stay empty.
type Buffer struct {
	RangesPerItem int
	ranges        []InclusiveRange
}

// NewBuffer allocates an empty buffer for items work units.
func NewBuffer(items, rangesPerItem int) *Buffer {
	b := &Buffer{RangesPerItem: rangesPerItem}
	b.Resize(items)
	return b
}

// Resize changes the item count, reusing storage when it is large enough.
// Every entry is reset to EmptyRange.
func (b *Buffer) Resize(items int) {
	n := items * b.RangesPerItem
	if cap(b.ranges) >= n {
		b.ranges = b.ranges[:n]
	} else {
		b.ranges = make([]InclusiveRange, n)
	}
	b.Reset()
}

// Reset marks every entry empty.
func (b *Buffer) Reset() {
	for i := range b.ranges {
		b.ranges[i] = EmptyRange
	}
}

// Len returns the number of items.
func (b *Buffer) Len() int {
	if b.RangesPerItem == 0 {
		return 0
	}
	return len(b.ranges) / b.RangesPerItem
}

// Item returns the sub-slice owned by item i.
func (b *Buffer) Item(i int) []InclusiveRange {
	off := i * b.RangesPerItem
	return b.ranges[off : off+b.RangesPerItem : off+b.RangesPerItem]
}

// RowRange returns the tile rows touched by item i.
func (b *Buffer) RowRange(i int) InclusiveRange {
	return b.ranges[i*b.RangesPerItem]
}

// ColumnRange returns the tile columns touched by item i in the given row.
func (b *Buffer) ColumnRange(i, row int) InclusiveRange {
	if row < 0 || row+1 >= b.RangesPerItem {
		return EmptyRange
	}
	return b.ranges[i*b.RangesPerItem+1+row]
}

// Ranges exposes the flat storage.
func (b *Buffer) Ranges() []InclusiveRange {
	return b.ranges
}

// Bytes returns the storage reinterpreted as bytes for upload, without copying.
// Each range is two native-endian int16 values.
func (b *Buffer) Bytes() []byte {
	return safeish.SliceCast[[]byte](b.ranges)
}
