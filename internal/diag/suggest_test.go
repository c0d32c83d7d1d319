package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinIdentical(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("lower", "lower"))
}

func TestLevenshteinOneEdit(t *testing.T) {
	assert.Equal(t, 1, Levenshtein("lowwer", "lower"))
	assert.Equal(t, 1, Levenshtein("select", "selct"))
}

func TestSuggestFindsClosest(t *testing.T) {
	got := Suggest("selct", []string{"select", "sort", "set"}, 2)
	assert.Equal(t, "select", got)
}

func TestSuggestNoneWithinDistance(t *testing.T) {
	got := Suggest("xyz", []string{"select", "sort"}, 2)
	assert.Equal(t, "", got)
}
