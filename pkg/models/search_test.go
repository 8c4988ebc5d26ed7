package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Война и Мир": "война и мир",
		"ÉMILE Zola":  "émile zola",
		"100% Pure":   "100% pure",
	}
	for in, want := range cases {
		assert.Equal(t, want, SearchKey(in), in)
	}
	assert.Equal(t, SearchKey("ВОЙНА"), SearchKey("война"))
}

func TestWithSearchName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"name", "rating", "search_name"}, WithSearchName([]string{"name", "rating"}))
	assert.Equal(t, []string{"gender"}, WithSearchName([]string{"gender"}))
}
