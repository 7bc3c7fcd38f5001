package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	a := Mask{true, true, false, false}
	b := Mask{true, false, true, false}

	assert.Equal(t, Mask{true, false, false, false}, a.Clone().And(b))
	assert.Equal(t, Mask{true, true, true, false}, a.Clone().Or(b))
	assert.Equal(t, 2, a.Count())
	assert.Equal(t, Mask{true, true, false, false}, a, "Clone leaves the receiver alone")

	assert.Equal(t, 3, NewMask(3, true).Count())
	assert.Equal(t, 0, NewMask(3, false).Count())
}
