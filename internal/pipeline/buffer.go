package pipeline

// popFront removes the first n elements of buf in place, compacting the
// remaining tail to the front of the backing array so it doesn't grow
// unbounded across many small erasures (spec §9: "vector-front erasure").
// It returns the resulting (shorter) slice.
func popFront(buf []float32, n int) []float32 {
	if n <= 0 {
		return buf
	}
	if n >= len(buf) {
		return buf[:0]
	}
	k := copy(buf, buf[n:])
	return buf[:k]
}
