package engine

import (
	"hash/fnv"
	"strings"
)

// Fingerprints is the winnowed set of k-gram hashes of one file
type Fingerprints map[uint64]struct{}

// BuildFingerprints hashes every k-gram of the token stream and keeps the
// minimum hash of each window of w consecutive k-grams (winnowing).
func BuildFingerprints(tokens []string, kgram, window int) Fingerprints {
	fp := make(Fingerprints)
	if kgram <= 0 || len(tokens) < kgram {
		return fp
	}
	if window <= 0 {
		window = 1
	}

	hashes := make([]uint64, 0, len(tokens)-kgram+1)
	for i := 0; i+kgram <= len(tokens); i++ {
		h := fnv.New64a()
		h.Write([]byte(strings.Join(tokens[i:i+kgram], "\x1f")))
		hashes = append(hashes, h.Sum64())
	}

	if len(hashes) <= window {
		fp[minHash(hashes)] = struct{}{}
		return fp
	}
	for i := 0; i+window <= len(hashes); i++ {
		fp[minHash(hashes[i:i+window])] = struct{}{}
	}
	return fp
}

func minHash(hashes []uint64) uint64 {
	m := hashes[0]
	for _, h := range hashes[1:] {
		if h < m {
			m = h
		}
	}
	return m
}

// Overlap calculates shared_hashes / min(total_hashes_A, total_hashes_B)
func Overlap(a, b Fingerprints) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	shared := 0
	for h := range small {
		if _, ok := large[h]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

// GII (Global Inverted Index) maps hash → indexes of the files containing it
type GII map[uint64][]int

// BuildGII builds the inverted index, skipping hashes that occur in a single file
func BuildGII(fingerprints []Fingerprints) GII {
	gii := make(GII)
	for idx, fp := range fingerprints {
		for h := range fp {
			gii[h] = append(gii[h], idx)
		}
	}

	filtered := make(GII)
	for h, files := range gii {
		if len(files) >= 2 {
			filtered[h] = files
		}
	}
	return filtered
}

// candidatePair is an unordered pair of file indexes with i < j
type candidatePair struct {
	i, j int
}

// CandidatePairs returns every file pair that shares at least one fingerprint
// and whose fingerprint overlap reaches minOverlap. A nil keep admits every
// pair.
func CandidatePairs(gii GII, fingerprints []Fingerprints, minOverlap float64, keep func(i, j int) bool) []candidatePair {
	seen := make(map[candidatePair]bool)
	pairs := make([]candidatePair, 0)

	for _, files := range gii {
		for a := 0; a < len(files); a++ {
			for b := a + 1; b < len(files); b++ {
				p := candidatePair{i: files[a], j: files[b]}
				if p.i > p.j {
					p.i, p.j = p.j, p.i
				}
				if seen[p] {
					continue
				}
				seen[p] = true
				if keep != nil && !keep(p.i, p.j) {
					continue
				}
				if Overlap(fingerprints[p.i], fingerprints[p.j]) >= minOverlap {
					pairs = append(pairs, p)
				}
			}
		}
	}
	return pairs
}
