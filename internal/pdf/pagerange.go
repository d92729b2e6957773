package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange is an inclusive, 1-indexed span of pages.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of pages covered by the range.
func (r PageRange) Len() int {
	return r.End - r.Start + 1
}

// String returns the range in "start-end" form.
func (r PageRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Validate checks 1 <= start <= end <= pageCount.
func (r PageRange) Validate(pageCount int) error {
	if r.Start < 1 {
		return fmt.Errorf("%w: range %s: start page must be >= 1", ErrInvalidRequest, r)
	}
	if r.Start > r.End {
		return fmt.Errorf("%w: range %s: start > end", ErrInvalidRequest, r)
	}
	if r.End > pageCount {
		return fmt.Errorf("%w: range %s exceeds document pages (%d)", ErrInvalidRequest, r, pageCount)
	}
	return nil
}

// ParsePageRanges parses an ordered range list such as "1-2,3,5-".
// Order and overlaps are preserved; each comma-separated part becomes one range.
// A missing start means page 1, a missing end means maxPage.
func ParsePageRanges(expr string, maxPage int) ([]PageRange, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty page range", ErrInvalidRequest)
	}

	ranges := make([]PageRange, 0)
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		r, err := parseRange(part, maxPage)
		if err != nil {
			return nil, err
		}
		if err := r.Validate(maxPage); err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}

	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: no valid pages", ErrInvalidRequest)
	}
	return ranges, nil
}

func parseRange(part string, maxPage int) (PageRange, error) {
	startStr, endStr, isRange := strings.Cut(part, "-")
	if !isRange {
		page, err := strconv.Atoi(part)
		if err != nil {
			return PageRange{}, fmt.Errorf("%w: invalid page %q", ErrInvalidRequest, part)
		}
		return PageRange{Start: page, End: page}, nil
	}

	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	r := PageRange{Start: 1, End: maxPage}
	var err error

	if startStr != "" {
		if r.Start, err = strconv.Atoi(startStr); err != nil {
			return PageRange{}, fmt.Errorf("%w: invalid start %q", ErrInvalidRequest, startStr)
		}
	}
	if endStr != "" {
		if r.End, err = strconv.Atoi(endStr); err != nil {
			return PageRange{}, fmt.Errorf("%w: invalid end %q", ErrInvalidRequest, endStr)
		}
	}

	return r, nil
}
