package proto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/w1fx/nrf24xfer/internal/fec"
)

// Frame is a parsed 32-byte wire frame.
type Frame struct {
	FileID        uint16
	SeqID         uint16
	Data          []byte
	IsLast        bool
	CompressMode  byte
	ErrorsCorrected int
}

// BuildFrame serializes a single chunk into an exactly FrameSize-byte
// frame, per spec §4.3. useFEC requests Reed-Solomon protection; the FEC
// flag is set iff useFEC is true (this port's FEC codec is always
// available, unlike the reference implementation's optional reedsolo
// dependency).
func BuildFrame(fileID, seqID uint16, data []byte, isLast bool, compressMode byte, useFEC bool) ([]byte, error) {
	maxData := MaxData(useFEC)
	if len(data) > maxData {
		return nil, fmt.Errorf("proto: data exceeds %d bytes (len=%d)", maxData, len(data))
	}

	var flags byte
	if isLast {
		flags |= FlagLast
	}
	if compressMode > 0 {
		flags |= FlagCompressed
		flags |= compressMode << 4
	}
	if useFEC {
		flags |= FlagFEC
	}

	header := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(header[0:2], fileID)
	binary.BigEndian.PutUint16(header[2:4], seqID)
	header[4] = byte(len(data))
	header[5] = flags

	padded := make([]byte, maxData)
	copy(padded, data)

	if useFEC {
		block := make([]byte, 0, fec.DataSize)
		block = append(block, header...)
		block = append(block, padded...)
		encoded := fec.Encode(block)
		if len(encoded) != FrameSize {
			return nil, fmt.Errorf("proto: FEC-encoded payload is not %d bytes (len=%d)", FrameSize, len(encoded))
		}
		return encoded, nil
	}

	frame := make([]byte, 0, FrameSize)
	frame = append(frame, header...)
	frame = append(frame, padded...)
	if len(frame) != FrameSize {
		return nil, fmt.Errorf("proto: payload without FEC is not %d bytes (len=%d)", FrameSize, len(frame))
	}
	return frame, nil
}

// ParseFrame decodes a FrameSize-byte wire frame, attempting FEC
// correction first. It reports ok=false for a malformed packet (wrong
// length, or a header whose declared data_len exceeds its own max_data);
// the receiver treats that as "drop silently".
func ParseFrame(pkt []byte) (Frame, bool) {
	if len(pkt) != FrameSize {
		return Frame{}, false
	}

	raw := pkt
	errorsCorrected := 0

	decoded, errs := fec.Decode(pkt)
	if errs >= 0 && len(decoded) >= HeaderSize && decoded[5]&FlagFEC != 0 {
		raw = decoded
		errorsCorrected = errs
	}
	// else: FEC decode failed (or codeword uncorrectable), or the decoded
	// header does not carry the FEC flag (a non-FEC frame that happens to
	// lie near a codeword) — fall back to interpreting pkt itself, the
	// degraded path spec §4.3 describes.

	if len(raw) < HeaderSize {
		return Frame{}, false
	}

	fileID := binary.BigEndian.Uint16(raw[0:2])
	seqID := binary.BigEndian.Uint16(raw[2:4])
	dataLen := int(raw[4])
	flags := raw[5]

	maxData := MaxData(flags&FlagFEC != 0)
	if dataLen > maxData {
		return Frame{}, false
	}

	dataStart := HeaderSize
	dataEnd := dataStart + maxData
	if dataEnd > len(raw) {
		return Frame{}, false
	}
	data := raw[dataStart:dataEnd]

	var compressMode byte
	if flags&FlagCompressed != 0 {
		compressMode = (flags >> 4) & 0x0F
	}

	return Frame{
		FileID:          fileID,
		SeqID:           seqID,
		Data:            append([]byte(nil), data[:dataLen]...),
		IsLast:          flags&FlagLast != 0,
		CompressMode:    compressMode,
		ErrorsCorrected: errorsCorrected,
	}, true
}

// FileHash computes the 4-byte truncated SHA-256 identity hint spec §4.4
// step 1 and §9 describe: it is never placed on the wire, only exposed
// for logging/verification hooks.
func FileHash(data []byte) [4]byte {
	sum := sha256.Sum256(data)
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}
