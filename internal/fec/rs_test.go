package fec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_EncodeProducesBlockSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.SliceOfN(rapid.Byte(), DataSize, DataSize).Draw(t, "msg")
		out := Encode(msg)
		assert.Len(t, out, BlockSize)
	})
}

func Test_DecodeRoundTripNoErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.SliceOfN(rapid.Byte(), DataSize, DataSize).Draw(t, "msg")
		codeword := Encode(msg)

		decoded, errs := Decode(codeword)
		require.Equal(t, 0, errs)
		assert.Equal(t, msg, decoded)
	})
}

func Test_DecodeCorrectsSingleByteFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.SliceOfN(rapid.Byte(), DataSize, DataSize).Draw(t, "msg")
		pos := rapid.IntRange(0, BlockSize-1).Draw(t, "pos")
		flip := rapid.IntRange(1, 255).Draw(t, "flip")

		codeword := Encode(msg)
		codeword[pos] ^= byte(flip)

		decoded, errs := Decode(codeword)
		require.GreaterOrEqual(t, errs, 1)
		assert.Equal(t, msg, decoded)
	})
}

func Test_DecodeCorrectsTwoByteFlips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.SliceOfN(rapid.Byte(), DataSize, DataSize).Draw(t, "msg")
		p1 := rapid.IntRange(0, BlockSize-1).Draw(t, "p1")
		p2 := rapid.IntRange(0, BlockSize-1).Draw(t, "p2")
		if p1 == p2 {
			t.Skip("need two distinct positions")
		}
		f1 := rapid.IntRange(1, 255).Draw(t, "f1")
		f2 := rapid.IntRange(1, 255).Draw(t, "f2")

		codeword := Encode(msg)
		codeword[p1] ^= byte(f1)
		codeword[p2] ^= byte(f2)

		decoded, errs := Decode(codeword)
		require.GreaterOrEqual(t, errs, 1)
		assert.Equal(t, msg, decoded)
	})
}

func Test_DecodeDoesNotPanicOnHeavyCorruption(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		codeword := rapid.SliceOfN(rapid.Byte(), BlockSize, BlockSize).Draw(t, "codeword")

		assert.NotPanics(t, func() {
			Decode(codeword)
		})
	})
}

func Test_DecodeRejectsWrongLength(t *testing.T) {
	out, errs := Decode(make([]byte, 10))
	assert.Equal(t, -1, errs)
	assert.Len(t, out, 10)
}
