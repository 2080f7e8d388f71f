package cu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMeter_Consume(t *testing.T) {
	meter := NewComputeMeter(1000)

	require.NoError(t, meter.Consume(400))
	assert.Equal(t, uint64(400), meter.Used())
	assert.Equal(t, uint64(600), meter.Remaining())
	assert.False(t, meter.Exceeded())

	require.NoError(t, meter.Consume(600))
	assert.Equal(t, uint64(0), meter.Remaining())
	assert.False(t, meter.Exceeded())

	assert.Equal(t, ErrComputeExceeded, meter.Consume(1))
	assert.True(t, meter.Exceeded())
}

func TestComputeMeter_ExceededIsSticky(t *testing.T) {
	meter := NewComputeMeter(10)
	assert.Equal(t, ErrComputeExceeded, meter.Consume(11))
	assert.True(t, meter.Exceeded())
	assert.Equal(t, uint64(0), meter.Remaining())
	assert.Equal(t, uint64(10), meter.Used())

	// once over budget, all further charges fail
	assert.Equal(t, ErrComputeExceeded, meter.Consume(0))
}

func TestComputeMeter_Disabled(t *testing.T) {
	meter := NewComputeMeterDefault()
	meter.Disable()
	assert.NoError(t, meter.Consume(DefaultComputeUnitLimit+1))
	assert.True(t, meter.Exceeded())
}
