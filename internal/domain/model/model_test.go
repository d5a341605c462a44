package model

import "testing"

func TestValidScore(t *testing.T) {
	cases := []struct {
		score int
		want  bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, true},
		{4, true},
		{5, false},
		{-1, false},
	}
	for _, c := range cases {
		if got := ValidScore(c.score); got != c.want {
			t.Errorf("ValidScore(%d) = %v, want %v", c.score, got, c.want)
		}
	}
}
