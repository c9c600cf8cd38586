package match

import (
	"strings"

	"golang.org/x/text/width"
)

// normalizeValue prepares a field value for comparison: trim, fold
// full-width forms to half-width, and lowercase.
func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = width.Fold.String(value)
	return strings.ToLower(value)
}

// Similarity returns a ratio in [0, 1] between two strings after
// normalization. Either side empty scores 0.
func Similarity(a, b string) float64 {
	a = normalizeValue(a)
	b = normalizeValue(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return ratio([]rune(a), []rune(b))
}

// ratio computes 2*M/T over the longest matching blocks of a and b, the
// Ratcliff/Obershelp measure. Operates on runes so multibyte text compares
// by character, not byte.
func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	matched := matchingTotal(a, b, b2j, 0, len(a), 0, len(b))
	return 2 * float64(matched) / float64(total)
}

// matchingTotal sums matched characters by recursively splitting around the
// longest common block in a[alo:ahi] x b[blo:bhi].
func matchingTotal(a, b []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) int {
	besti, bestj, bestsize := findLongestMatch(a, b2j, alo, ahi, blo, bhi)
	if bestsize == 0 {
		return 0
	}
	total := bestsize
	if alo < besti && blo < bestj {
		total += matchingTotal(a, b, b2j, alo, besti, blo, bestj)
	}
	if besti+bestsize < ahi && bestj+bestsize < bhi {
		total += matchingTotal(a, b, b2j, besti+bestsize, ahi, bestj+bestsize, bhi)
	}
	return total
}

func findLongestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
