package frame

import (
	"iter"
	"math"
	"strconv"
	"strings"
)

type sliceRange struct {
	start int64
	count int64
}

// SliceList is an ordered list of column indices made of contiguous runs.
// Indices may repeat, go backwards or be negative; bounds are checked by the
// frame consuming the list.
type SliceList struct {
	ranges []sliceRange
	size   int64
}

// NewSliceList builds a list from explicit indices.
func NewSliceList(indices ...int64) *SliceList {
	s := &SliceList{}
	for _, idx := range indices {
		s.AddIndex(idx)
	}
	return s
}

// NewRange builds the dense list [start, end).
func NewRange(start, end int64) *SliceList {
	return (&SliceList{}).AddRange(start, end)
}

func (s *SliceList) AddIndex(idx int64) *SliceList {
	return s.addRun(idx, 1)
}

// AddRange appends [start, end). Runs continuing the previous one are merged
// into it, so a list is dense iff it holds a single run. It panics if the
// range holds more than math.MaxInt64 indices.
func (s *SliceList) AddRange(start, end int64) *SliceList {
	if end <= start {
		return s
	}
	count, ok := rangeLen(start, end)
	if !ok {
		panic("slice range too large")
	}
	return s.addRun(start, count)
}

// rangeLen is end-start for start < end, false if it does not fit an int64.
func rangeLen(start, end int64) (int64, bool) {
	n := uint64(end) - uint64(start)
	return int64(n), n <= math.MaxInt64
}

func (s *SliceList) addRun(start, count int64) *SliceList {
	s.size += count
	if n := len(s.ranges); n > 0 {
		last := &s.ranges[n-1]
		if start > last.start && uint64(start)-uint64(last.start) == uint64(last.count) && last.count <= math.MaxInt64-count {
			last.count += count
			return s
		}
	}
	s.ranges = append(s.ranges, sliceRange{start: start, count: count})
	return s
}

func (s *SliceList) Size() int64 { return s.size }

// First returns the first index, or -1 for an empty list.
func (s *SliceList) First() int64 {
	if len(s.ranges) == 0 {
		return -1
	}
	return s.ranges[0].start
}

// IsDense reports whether the list is a single ascending run with no gaps.
func (s *SliceList) IsDense() bool {
	return len(s.ranges) == 1
}

// All yields the indices in order.
func (s *SliceList) All() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for _, r := range s.ranges {
			for i := range r.count {
				if !yield(r.start + i) {
					return
				}
			}
		}
	}
}

func (s *SliceList) Indices() []int64 {
	res := make([]int64, 0, s.size)
	for idx := range s.All() {
		res = append(res, idx)
	}
	return res
}

func (s *SliceList) Clone() *SliceList {
	return &SliceList{
		ranges: append([]sliceRange(nil), s.ranges...),
		size:   s.size,
	}
}

// String renders the list in the syntax accepted by ParseSliceList.
func (s *SliceList) String() string {
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		switch {
		case r.count == 1:
			parts[i] = strconv.FormatInt(r.start, 10)
		case r.start > math.MaxInt64-r.count:
			// a run ending at MaxInt64 has no representable end
			parts[i] = strconv.FormatInt(r.start, 10) + ":" + strconv.FormatInt(math.MaxInt64, 10) +
				", " + strconv.FormatInt(math.MaxInt64, 10)
		default:
			parts[i] = strconv.FormatInt(r.start, 10) + ":" + strconv.FormatInt(r.start+r.count, 10)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
