package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlignSize(t *testing.T) {
	cases := []struct {
		size, alignment, want int
	}{
		{0, 64, 0},
		{1, 64, 64},
		{64, 64, 64},
		{65, 64, 128},
		{100, 256, 256},
		{300, 256, 512},
		{48, 1, 48},
		{48, 0, 48},
	}
	for _, c := range cases {
		require.Equal(t, c.want, AlignSize(c.size, c.alignment), "AlignSize(%d, %d)", c.size, c.alignment)
	}
}

func TestInstanceBufferLayout(t *testing.T) {
	d := newFakeDevice(3) // MinUniformAlignment is 64

	b, err := NewInstanceBuffer(d, 48, 4, BufferUsageUniform)
	require.NoError(t, err)
	defer b.Destroy()

	require.Equal(t, 48, b.InstanceSize())
	require.Equal(t, 64, b.AlignmentSize())
	require.Equal(t, 4, b.InstanceCount())
	require.Equal(t, 4*64, b.Buffer().Size())
	require.Equal(t, 128, b.OffsetOf(2))
}

func TestInstanceBufferWriteToIndex(t *testing.T) {
	d := newFakeDevice(3)

	b, err := NewInstanceBuffer(d, 48, 4, BufferUsageUniform)
	require.NoError(t, err)
	defer b.Destroy()

	payload := make([]byte, 48)
	for i := range payload {
		payload[i] = 0xAB
	}
	require.NoError(t, b.WriteToIndex(payload, 2))

	raw := b.Buffer().(*fakeBuffer).data
	require.Equal(t, byte(0), raw[127])
	require.Equal(t, byte(0xAB), raw[128])
	require.Equal(t, byte(0xAB), raw[128+47])
	require.Equal(t, byte(0), raw[128+48])

	require.Error(t, b.WriteToIndex(payload, 4))
	require.Error(t, b.WriteToIndex(payload, -1))
	require.Error(t, b.WriteToIndex(make([]byte, 49), 0))
}

func TestNewInstanceBufferRejectsBadDimensions(t *testing.T) {
	d := newFakeDevice(3)
	_, err := NewInstanceBuffer(d, 0, 4, BufferUsageUniform)
	require.Error(t, err)
	_, err = NewInstanceBuffer(d, 48, 0, BufferUsageUniform)
	require.Error(t, err)
}
