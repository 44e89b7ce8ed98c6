package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoopbackDeliversFrame(t *testing.T) {
	tx, rx := LoopbackPair()

	ok, err := tx.Write([]byte("frame-bytes-here"))
	require.NoError(t, err)
	assert.True(t, ok)

	avail, pipe, err := rx.AvailablePipe()
	require.NoError(t, err)
	require.True(t, avail)
	assert.Equal(t, 1, pipe)

	size, err := rx.GetDynamicPayloadSize()
	require.NoError(t, err)
	got, err := rx.Read(size)
	require.NoError(t, err)
	assert.Equal(t, []byte("frame-bytes-here"), got)
}

func Test_LoopbackAckPayloadDeliveredToTransmitter(t *testing.T) {
	tx, rx := LoopbackPair()

	require.NoError(t, rx.WriteAckPayload(1, []byte{0, 1, 2, 3, 4, 5}))

	avail, err := tx.Available()
	require.NoError(t, err)
	require.True(t, avail)

	size, err := tx.GetDynamicPayloadSize()
	require.NoError(t, err)
	ack, err := tx.Read(size)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5}, ack)
}

func Test_LossyRadioDropsFirstAttemptOnly(t *testing.T) {
	tx, _ := LoopbackPair()
	lossy := NewLossyRadio(tx)
	lossy.DropSeqOnFirstPass = map[uint16]bool{7: true}

	frame := make([]byte, 32)
	frame[2] = 0
	frame[3] = 7

	ok, err := lossy.Write(frame)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lossy.Write(frame)
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_LossyRadioFlipsOneByte(t *testing.T) {
	tx, rx := LoopbackPair()
	lossy := NewLossyRadio(tx)
	lossy.FlipOneByte = true

	frame := make([]byte, 32)
	ok, err := lossy.Write(frame)
	require.NoError(t, err)
	assert.True(t, ok)

	size, _ := rx.GetDynamicPayloadSize()
	got, err := rx.Read(size)
	require.NoError(t, err)
	assert.NotEqual(t, frame, got)
}
