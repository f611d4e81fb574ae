package plagiarism

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// ComparisonKey is the order-independent identity of a repository pair
func ComparisonKey(shaA, shaB string) string {
	members := []string{shaA, shaB}
	sort.Strings(members)
	return computeHash(strings.Join(members, ""))
}

// GroupKey hashes the sorted member repository hashes. When salted, the creation
// timestamp is appended and identical repository sets yield distinct groups.
func GroupKey(repoShas []string, createdAt time.Time, salted bool) string {
	members := make([]string, len(repoShas))
	copy(members, repoShas)
	sort.Strings(members)

	input := strings.Join(members, "")
	if salted {
		input += createdAt.UTC().Format(time.RFC3339Nano)
	}
	return computeHash(input)
}

// PairKey is the identity of a matched file pair inside one comparison
func PairKey(comparisonSha, leftFileKey, rightFileKey string) string {
	sides := []string{leftFileKey, rightFileKey}
	sort.Strings(sides)
	return computeHash(comparisonSha + "|" + sides[0] + "|" + sides[1])
}

// computeHash computes SHA256 hash of a string
func computeHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
