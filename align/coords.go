package align

import "fmt"

// InferCoordinates computes the coordinate breakpoints relating two
// column-aligned gapped strings, where '-' is the gap character. The result
// starts at {0, 0} and ends at the ungapped lengths of a and b; an extra
// pair is emitted every time the alignment switches between matched columns,
// columns gapped only in a, and columns gapped only in b. Columns gapped in
// both strings advance neither offset.
//
// Both strings must have the same length. (Callers are expected to check
// this and report it as a parse or input error; a violation here is a bug.)
func InferCoordinates(a, b string) [][2]int {
	if len(a) != len(b) {
		panic(fmt.Sprintf("BUG: gapped strings have lengths %d and %d.",
			len(a), len(b)))
	}

	coords := make([][2]int, 1, 8)
	var i, j int
	var last byte
	for k := 0; k < len(a); k++ {
		agap, bgap := a[k] == '-', b[k] == '-'

		var state byte
		switch {
		case agap && bgap:
			continue
		case agap:
			state = 'i'
		case bgap:
			state = 'd'
		default:
			state = 'm'
		}
		if last != 0 && state != last {
			coords = append(coords, [2]int{i, j})
		}
		last = state

		if !agap {
			i++
		}
		if !bgap {
			j++
		}
	}
	if last == 0 {
		return coords
	}
	return append(coords, [2]int{i, j})
}
