package runtime

// Bool converts a Go comparison result to the 0/1 i32 value the comparison
// instructions produce.
func Bool(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
