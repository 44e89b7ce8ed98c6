// Package compress implements the adaptive per-file compressor: try a
// handful of codecs, keep whichever wins, and never compress unless it
// actually saves space (spec §4.1).
package compress

import (
	"bytes"
	"compress/bzip2"
	"compress/zlib"
	"fmt"
	"io"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz/lzma"
	"github.com/w1fx/nrf24xfer/internal/proto"
)

const (
	smallFileThreshold = 512
	bz2Threshold       = 5000
	lzmaThreshold      = 10000
	acceptRatio        = 0.90

	zlibLevel  = 6
	bz2Level   = 5
)

// candidate is one trial compression result.
type candidate struct {
	mode byte
	blob []byte
	ratio float64
}

// AdaptiveCompress tries zlib (always), bz2 (files over 5000 bytes) and
// lzma (files over 10000 bytes), plus the "no compression" candidate, and
// returns whichever has the smallest output-over-input ratio — unless
// that ratio is still >= 0.90, in which case it returns the input
// unchanged with mode NONE. A codec that errors during a trial is
// silently skipped, per spec §4.1's failure policy.
func AdaptiveCompress(data []byte) (blob []byte, mode byte, ratio float64) {
	if len(data) < smallFileThreshold {
		return data, proto.CompressNone, 1.0
	}

	candidates := []candidate{{mode: proto.CompressNone, blob: data, ratio: 1.0}}

	if c, err := compressZlib(data); err == nil {
		candidates = append(candidates, candidate{
			mode: proto.CompressZlib, blob: c, ratio: float64(len(c)) / float64(len(data)),
		})
	}

	if len(data) > bz2Threshold {
		if c, err := compressBz2(data); err == nil {
			candidates = append(candidates, candidate{
				mode: proto.CompressBz2, blob: c, ratio: float64(len(c)) / float64(len(data)),
			})
		}
	}

	if len(data) > lzmaThreshold {
		if c, err := compressLzma(data); err == nil {
			candidates = append(candidates, candidate{
				mode: proto.CompressLzma, blob: c, ratio: float64(len(c)) / float64(len(data)),
			})
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ratio < best.ratio {
			best = c
		}
	}

	if best.ratio >= acceptRatio {
		return data, proto.CompressNone, 1.0
	}
	return best.blob, best.mode, best.ratio
}

// AdaptiveDecompress reverses AdaptiveCompress given the mode it reported.
func AdaptiveDecompress(data []byte, mode byte) ([]byte, error) {
	switch mode {
	case proto.CompressNone:
		return data, nil
	case proto.CompressZlib:
		return decompressZlib(data)
	case proto.CompressBz2:
		return decompressBz2(data)
	case proto.CompressLzma:
		return decompressLzma(data)
	default:
		return nil, fmt.Errorf("compress: unknown compression mode %d", mode)
	}
}

func compressZlib(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlibLevel)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func compressBz2(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := dsnetbzip2.NewWriter(&buf, &dsnetbzip2.WriterConfig{Level: bz2Level})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressBz2 uses the stdlib reader rather than dsnet's: stdlib
// compress/bzip2 is decode-only but perfectly adequate for reading
// anything dsnetbzip2.NewWriter produces, and avoids depending on the
// third-party package for a capability the standard library already has.
func decompressBz2(data []byte) ([]byte, error) {
	return io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
}

func compressLzma(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLzma(data []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
