package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
	"github.com/w1fx/nrf24xfer/internal/proto"
)

func Test_SmallFileNeverCompressed(t *testing.T) {
	data := bytes.Repeat([]byte{0x00}, 100)
	blob, mode, ratio := AdaptiveCompress(data)
	assert.Equal(t, proto.CompressNone, int(mode))
	assert.Equal(t, data, blob)
	assert.Equal(t, 1.0, ratio)
}

func Test_JustUnder512BytesStaysUncompressed(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 511)
	_, mode, _ := AdaptiveCompress(data)
	assert.Equal(t, proto.CompressNone, int(mode))
}

func Test_HighlyCompressibleLargeFileIsCompressed(t *testing.T) {
	data := bytes.Repeat([]byte("A"), 50000)
	blob, mode, ratio := AdaptiveCompress(data)
	assert.NotEqual(t, proto.CompressNone, int(mode))
	assert.Less(t, ratio, 0.90)
	assert.Less(t, len(blob), len(data))

	restored, err := AdaptiveDecompress(blob, mode)
	require.NoError(t, err)
	assert.Equal(t, data, restored)
}

func Test_NoneModeReturnsInputUnchanged(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Pseudo-random bytes rarely compress below the 0.90 threshold.
		data := rapid.SliceOfN(rapid.Byte(), 600, 600).Draw(t, "data")
		blob, mode, _ := AdaptiveCompress(data)
		if mode == proto.CompressNone {
			assert.Equal(t, data, blob)
		}
	})
}

func Test_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 12000).Draw(t, "data")
		blob, mode, _ := AdaptiveCompress(data)
		restored, err := AdaptiveDecompress(blob, mode)
		require.NoError(t, err)
		assert.Equal(t, data, restored)
	})
}

func Test_DecompressUnknownModeFails(t *testing.T) {
	_, err := AdaptiveDecompress([]byte("x"), 0x0F)
	assert.Error(t, err)
}
