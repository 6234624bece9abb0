package domain

import (
	"math"
	"strconv"
	"strings"
)

// Shuffle returns a uniformly random permutation of list using an in-place
// Fisher-Yates pass over a copy. The input is not modified.
func Shuffle(list NameList, rng RNG) NameList {
	out := list.Clone()
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Chunk slices list into consecutive groups of size names. The last group
// holds the remainder. A non-positive size is treated as 1 and an empty
// list yields no groups.
func Chunk(list NameList, size int) []Group {
	size = ClampGroupSize(size)
	if len(list) == 0 {
		return nil
	}
	groups := make([]Group, 0, ExpectedGroups(len(list), size))
	for i := 0; i < len(list); i += size {
		end := min(i+size, len(list))
		g := make(Group, end-i)
		copy(g, list[i:end])
		groups = append(groups, g)
	}
	return groups
}

// ExpectedGroups is the number of groups Chunk produces for n names.
func ExpectedGroups(n, size int) int {
	size = ClampGroupSize(size)
	if n <= 0 {
		return 0
	}
	groups := n / size
	if n%size != 0 {
		groups++
	}
	return groups
}

// ClampGroupSize coerces a non-positive group size to 1.
func ClampGroupSize(size int) int {
	if size < 1 {
		return 1
	}
	return size
}

// CoerceGroupSize parses user-supplied group size text. Leading digits are
// honoured ("3 people" is 3), anything non-numeric or non-positive becomes
// 1, and values too large for an int saturate.
func CoerceGroupSize(raw string) int {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 1
	}
	n, err := strconv.ParseInt(s[:end], 10, 0)
	if err != nil {
		return math.MaxInt
	}
	return ClampGroupSize(int(n))
}
