package buffer

import "fmt"

// Region is a half-open sample-index interval [Start, End) within a Buffer.
type Region struct {
	Start int
	End   int
}

// Len returns the region length in samples, or 0 for an inverted region.
func (r Region) Len() int {
	if r.End <= r.Start {
		return 0
	}

	return r.End - r.Start
}

// Validate fails fast unless 0 <= Start < End <= bufLen.
func (r Region) Validate(bufLen int) error {
	if r.Start < 0 || r.Start >= r.End || r.End > bufLen {
		return fmt.Errorf("buffer: region [%d, %d) invalid for length %d", r.Start, r.End, bufLen)
	}

	return nil
}

// Full returns the region covering an entire buffer of the given length.
func Full(bufLen int) Region {
	return Region{Start: 0, End: bufLen}
}
