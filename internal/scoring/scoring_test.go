package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp01(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"below zero", -0.5, 0},
		{"exactly zero", 0, 0},
		{"mid range", 0.42, 0.42},
		{"exactly one", 1, 1},
		{"above one", 1.7, 1},
		{"large negative", -100, 0},
		{"large positive", 100, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Clamp01(tc.in))
		})
	}
}
