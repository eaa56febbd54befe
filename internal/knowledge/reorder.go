package knowledge

// Reorder moves the element at from to to, shifting the elements between
// them. It mutates the slice in place and reports whether anything moved;
// out-of-bounds indices leave the slice untouched.
func Reorder[T any](list []T, from, to int) bool {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) || from == to {
		return false
	}
	v := list[from]
	if from < to {
		copy(list[from:], list[from+1:to+1])
	} else {
		copy(list[to+1:], list[to:from])
	}
	list[to] = v
	return true
}
