package engine

import (
	"sort"
)

// Tile is a maximal run of equal, previously unmatched tokens
type Tile struct {
	StartA int
	StartB int
	Length int
}

// greedyStringTiling repeatedly marks the longest common unmarked token run
// until none of at least minLength remains. The longest run of each round is
// found with a common-suffix table, one row at a time.
func greedyStringTiling(tokensA, tokensB []string, minLength int) []Tile {
	markedA := make([]bool, len(tokensA))
	markedB := make([]bool, len(tokensB))
	tiles := make([]Tile, 0)

	if minLength < 1 {
		minLength = 1
	}

	prev := make([]int, len(tokensB)+1)
	curr := make([]int, len(tokensB)+1)

	for {
		best := Tile{}
		for j := range prev {
			prev[j] = 0
		}

		for i := 1; i <= len(tokensA); i++ {
			for j := 1; j <= len(tokensB); j++ {
				if markedA[i-1] || markedB[j-1] || tokensA[i-1] != tokensB[j-1] {
					curr[j] = 0
					continue
				}
				curr[j] = prev[j-1] + 1
				if curr[j] > best.Length {
					best = Tile{StartA: i - curr[j], StartB: j - curr[j], Length: curr[j]}
				}
			}
			prev, curr = curr, prev
		}

		if best.Length < minLength {
			break
		}

		for k := 0; k < best.Length; k++ {
			markedA[best.StartA+k] = true
			markedB[best.StartB+k] = true
		}
		tiles = append(tiles, best)
	}

	sort.Slice(tiles, func(a, b int) bool {
		return tiles[a].StartA < tiles[b].StartA
	})
	return tiles
}

// TokenSimilarity calculates 2 * matched_tokens / (lenA + lenB)
func TokenSimilarity(matched, lenA, lenB int) float64 {
	total := lenA + lenB
	if total == 0 {
		return 0.0
	}
	return 2.0 * float64(matched) / float64(total)
}
