package frame

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseSliceList parses lists such as "0:3, 5 7" or "[2, 0]". Items are
// separated by commas or spaces; "a:b" is the half-open range [a, b).
func ParseSliceList(s string) (*SliceList, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	res := &SliceList{}
	items := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	for _, item := range items {
		lo, hi, isRange := strings.Cut(item, ":")
		start, err := strconv.ParseInt(lo, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid index %q", item)
		}
		if !isRange {
			res.AddIndex(start)
			continue
		}
		end, err := strconv.ParseInt(hi, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid range %q", item)
		}
		if end < start {
			return nil, errors.Errorf("invalid range %q: end before start", item)
		}
		if _, ok := rangeLen(start, end); end > start && !ok {
			return nil, errors.Errorf("invalid range %q: too many indices", item)
		}
		res.AddRange(start, end)
	}
	return res, nil
}
