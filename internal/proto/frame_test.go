package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func drawFrameArgs(t *rapid.T) (fileID, seqID uint16, data []byte, isLast bool, compressMode byte, useFEC bool) {
	useFEC = rapid.Bool().Draw(t, "useFEC")
	fileID = uint16(rapid.IntRange(0, 65535).Draw(t, "fileID"))
	seqID = uint16(rapid.IntRange(0, 65535).Draw(t, "seqID"))
	maxData := MaxData(useFEC)
	data = rapid.SliceOfN(rapid.Byte(), 0, maxData).Draw(t, "data")
	isLast = rapid.Bool().Draw(t, "isLast")
	compressMode = byte(rapid.IntRange(0, 3).Draw(t, "compressMode"))
	return
}

func Test_BuildFrameAlwaysFrameSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fileID, seqID, data, isLast, cm, useFEC := drawFrameArgs(t)
		frame, err := BuildFrame(fileID, seqID, data, isLast, cm, useFEC)
		require.NoError(t, err)
		assert.Len(t, frame, FrameSize)
	})
}

func Test_BuildFrameRejectsOversizedData(t *testing.T) {
	_, err := BuildFrame(1, 0, make([]byte, DataBytes+1), true, 0, false)
	assert.Error(t, err)

	_, err = BuildFrame(1, 0, make([]byte, EffectiveData+1), true, 0, true)
	assert.Error(t, err)
}

func Test_ParseFrameRoundTripsBuildFrame(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fileID, seqID, data, isLast, cm, useFEC := drawFrameArgs(t)
		frame, err := BuildFrame(fileID, seqID, data, isLast, cm, useFEC)
		require.NoError(t, err)

		parsed, ok := ParseFrame(frame)
		require.True(t, ok)
		assert.Equal(t, fileID, parsed.FileID)
		assert.Equal(t, seqID, parsed.SeqID)
		assert.Equal(t, data, parsed.Data)
		assert.Equal(t, isLast, parsed.IsLast)
		assert.Equal(t, cm, parsed.CompressMode)
		assert.Equal(t, 0, parsed.ErrorsCorrected)
	})
}

func Test_ParseFrameRejectsWrongLength(t *testing.T) {
	_, ok := ParseFrame(make([]byte, 31))
	assert.False(t, ok)
	_, ok = ParseFrame(make([]byte, 33))
	assert.False(t, ok)
}

func Test_ParseFrameCorrectsTwoByteFlipsWithFEC(t *testing.T) {
	frame, err := BuildFrame(42, 7, []byte("hello"), true, 0, true)
	require.NoError(t, err)

	frame[3] ^= 0xFF
	frame[20] ^= 0x01

	parsed, ok := ParseFrame(frame)
	require.True(t, ok)
	assert.GreaterOrEqual(t, parsed.ErrorsCorrected, 1)
	assert.Equal(t, []byte("hello"), parsed.Data)
}

func Test_BoundaryChunkSizes(t *testing.T) {
	// Empty data, LAST set.
	frame, err := BuildFrame(1, 0, nil, true, 0, true)
	require.NoError(t, err)
	parsed, ok := ParseFrame(frame)
	require.True(t, ok)
	assert.Empty(t, parsed.Data)
	assert.True(t, parsed.IsLast)

	// Exactly chunk_size bytes (FEC on -> 22).
	full := make([]byte, EffectiveData)
	for i := range full {
		full[i] = byte(i)
	}
	frame, err = BuildFrame(1, 0, full, true, 0, true)
	require.NoError(t, err)
	parsed, ok = ParseFrame(frame)
	require.True(t, ok)
	assert.Equal(t, full, parsed.Data)
}
