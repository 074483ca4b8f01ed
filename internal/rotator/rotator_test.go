package rotator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReachable(t *testing.T) {
	cases := []struct {
		az, el float64
		want   bool
	}{
		{0, 0, true},
		{450, 180, true},
		{180, 45, true},
		{-1, 0, false},
		{451, 0, false},
		{0, -1, false},
		{0, 181, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Reachable(c.az, c.el), "az=%v el=%v", c.az, c.el)
	}
}

func TestAbsf(t *testing.T) {
	assert.Equal(t, 3.5, absf(-3.5))
	assert.Equal(t, 3.5, absf(3.5))
	assert.Equal(t, 0.0, absf(0))
}

func TestMoveRejectsOutOfReachWithoutTouchingThePort(t *testing.T) {
	// A zero-value Rotator has a nil port; Move must return ErrOutOfReach
	// before ever dereferencing it.
	r := &Rotator{}
	_, err := r.Move(500, 45)
	assert.ErrorIs(t, err, ErrOutOfReach)
}
