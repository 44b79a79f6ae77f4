package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeBranches_FirstWins(t *testing.T) {
	branchA := []RawItem{
		{Key: "tmdb:1", NameCN: "来自A"},
		{Key: "tmdb:2"},
	}
	branchB := []RawItem{
		{Key: "mal:10"},
		{Key: "tmdb:1", NameCN: "来自B"}, // duplicate key, must be dropped whole
	}
	branchC := []RawItem{
		{Key: "bgm:20"},
		{Key: "mal:10"},
	}

	merged := mergeBranches(branchA, branchB, branchC)

	keys := make([]string, 0, len(merged))
	for _, item := range merged {
		keys = append(keys, item.Key)
	}
	assert.Equal(t, []string{"tmdb:1", "tmdb:2", "mal:10", "bgm:20"}, keys)
	assert.Equal(t, "来自A", merged[0].NameCN, "first occurrence must win")
}

func TestMergeBranches_DuplicateWithinBranch(t *testing.T) {
	branch := []RawItem{
		{Key: "a:123", Score: "9.0"},
		{Key: "a:123", Score: "1.0"},
	}

	merged := mergeBranches(branch)

	assert.Len(t, merged, 1)
	assert.Equal(t, "9.0", merged[0].Score)
}

func TestMergeBranches_Empty(t *testing.T) {
	assert.Empty(t, mergeBranches(nil, nil, nil))
	assert.Empty(t, mergeBranches())
}
