package ir

// VarName returns the n-th generated variable name: a, b, ..., z, ba, bb, ...
func VarName(n int) string {
	if n < 26 {
		return string(rune('a' + n))
	}
	return VarName(n/26) + string(rune('a'+n%26))
}
