package plagiarism

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComparisonKey(t *testing.T) {
	t.Run("should not depend on argument order", func(t *testing.T) {
		// when
		ab := ComparisonKey("aaa", "bbb")
		ba := ComparisonKey("bbb", "aaa")

		// then
		assert.Equal(t, ab, ba)
		assert.Len(t, ab, 64)
	})

	t.Run("should hash the sorted concatenation", func(t *testing.T) {
		assert.Equal(t, computeHash("aaabbb"), ComparisonKey("bbb", "aaa"))
	})
}

func TestGroupKey(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("should be identical for every permutation when unsalted", func(t *testing.T) {
		// given
		permutations := [][]string{
			{"a", "b", "c"},
			{"c", "a", "b"},
			{"b", "c", "a"},
		}

		// when / then
		want := GroupKey(permutations[0], created, false)
		for _, p := range permutations {
			assert.Equal(t, want, GroupKey(p, created.Add(time.Hour), false))
		}
	})

	t.Run("should differ per creation time when salted", func(t *testing.T) {
		// when
		first := GroupKey([]string{"a", "b"}, created, true)
		second := GroupKey([]string{"a", "b"}, created.Add(time.Millisecond), true)

		// then
		assert.NotEqual(t, first, second)
	})

	t.Run("should not reorder the caller's slice", func(t *testing.T) {
		// given
		members := []string{"z", "a"}

		// when
		GroupKey(members, created, false)

		// then
		assert.Equal(t, []string{"z", "a"}, members)
	})
}

func TestPairKey(t *testing.T) {
	t.Run("should not depend on side order", func(t *testing.T) {
		assert.Equal(t, PairKey("c", "r1:f1", "r2:f2"), PairKey("c", "r2:f2", "r1:f1"))
		assert.NotEqual(t, PairKey("c1", "r1:f1", "r2:f2"), PairKey("c2", "r1:f1", "r2:f2"))
	})
}
