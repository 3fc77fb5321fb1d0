package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 112.56, RoundHalfUp(112.555, 2))
	assert.Equal(t, 1.01, RoundHalfUp(1.005, 2))
	assert.Equal(t, -112.56, RoundHalfUp(-112.555, 2))
	assert.Equal(t, 0.1235, RoundHalfUp(0.12345, 4))
	assert.Equal(t, 0.1234, RoundHalfUp(0.12344, 4))
	assert.Equal(t, 12.3, RoundHalfUp(12.3, 2))
	assert.Equal(t, 100.0, RoundHalfUp(99.995, 2))
	assert.Equal(t, 0.0, RoundHalfUp(0, 2))
}

func TestRoundHalfUpCarry(t *testing.T) {
	assert.Equal(t, 1.0, RoundHalfUp(0.9999, 2))
	assert.Equal(t, 10.0, RoundHalfUp(9.999, 2))
}
