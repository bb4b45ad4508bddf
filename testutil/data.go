package testutil

// Generic test data. Values carry no meaning beyond their order.

// TestWords is a short fixed sequence for string buffers.
var TestWords = []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf"}

// Sequence returns [start, start+1, ..., start+n-1].
func Sequence(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// Reversed returns a reversed copy of items.
func Reversed[T any](items []T) []T {
	out := make([]T, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return out
}

// LastN returns a copy of the final n items, or all of them when n exceeds len(items).
func LastN[T any](items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[len(items)-n:])
	return out
}
