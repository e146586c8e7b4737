package text

// SimilarChars returns the number of matching bytes between a and b, found by
// taking the longest common substring and recursing on the pieces to its left
// and right. The result depends on argument order.
func SimilarChars(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	pos1, pos2, n := longestCommon(a, b)
	if n == 0 {
		return 0
	}
	sum := n
	if pos1 > 0 && pos2 > 0 {
		sum += SimilarChars(a[:pos1], b[:pos2])
	}
	if pos1+n < len(a) && pos2+n < len(b) {
		sum += SimilarChars(a[pos1+n:], b[pos2+n:])
	}
	return sum
}

// SimilarPercent returns SimilarChars as a percentage of the combined length.
// Two empty strings are 0% similar.
func SimilarPercent(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return float64(SimilarChars(a, b)*2) * 100 / float64(total)
}

// longestCommon returns the first longest common substring of a and b,
// scanning a then b left to right.
func longestCommon(a, b string) (pos1, pos2, n int) {
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > n {
				pos1, pos2, n = i, j, k
			}
		}
	}
	return pos1, pos2, n
}
