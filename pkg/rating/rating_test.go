package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	cases := []struct {
		likes    int
		dislikes int
		want     float64
	}{
		{0, 0, 0},
		{7, 3, 4},
		{3, 7, 0},
		{5, 5, 0},
		{1, 0, 10},
		{2, 1, 3.3333},
		{-4, 0, 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Compute(tc.likes, tc.dislikes), "likes=%d dislikes=%d", tc.likes, tc.dislikes)
	}
}

func TestComputeBounds(t *testing.T) {
	t.Parallel()

	for likes := 0; likes < 30; likes++ {
		for dislikes := 0; dislikes < 30; dislikes++ {
			v := Compute(likes, dislikes)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, float64(Max))
		}
	}
}
