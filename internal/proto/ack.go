package proto

import "encoding/binary"

// AckPayloadSize is the fixed size of the piggyback ACK payload.
const AckPayloadSize = 6

// idleAck is the literal initial/no-transfer ACK payload.
var idleAck = [AckPayloadSize]byte{0x00, 0x00, 0xFF, 0xFE, 0x00, 0x00}

// Ack is a parsed 6-byte ACK payload.
type Ack struct {
	FileID       uint16
	MissingSeq   *uint16 // nil when nothing is missing, or sentinel-collapsed
	IsComplete   bool
	CompressMode byte
}

// BuildAckPayload constructs the receiver's 6-byte feedback payload.
//
// fileID == nil means no transfer is active: this returns the literal
// idle ACK regardless of chunks/lastSeq — spec §9's "open question" notes
// this short-circuit is intentional and not reconciled with the
// lastSeq == nil branch below it.
func BuildAckPayload(fileID *uint16, chunks map[uint16][]byte, lastSeq *uint16, lastSeen bool, compressMode byte) []byte {
	if fileID == nil {
		out := make([]byte, AckPayloadSize)
		copy(out, idleAck[:])
		return out
	}

	var missing uint16
	var flags byte

	if lastSeq == nil {
		missing = missingSeqNoActive
	} else {
		found := false
		for seq := 0; seq <= int(*lastSeq); seq++ {
			if _, ok := chunks[uint16(seq)]; !ok {
				missing = uint16(seq)
				found = true
				break
			}
		}
		if !found {
			missing = missingSeqNone
			if lastSeen {
				flags = AckComplete
			}
		}
	}

	out := make([]byte, AckPayloadSize)
	binary.BigEndian.PutUint16(out[0:2], *fileID)
	binary.BigEndian.PutUint16(out[2:4], missing)
	out[4] = flags
	out[5] = compressMode
	return out
}

// ParseAck decodes an ACK payload. Payloads shorter than AckPayloadSize
// but at least 5 bytes are tolerated (compressMode defaults to 0); this
// mirrors spec §4.3's "receivers that omit the last byte are tolerated".
func ParseAck(data []byte) (Ack, bool) {
	if len(data) < 5 {
		return Ack{}, false
	}

	fileID := binary.BigEndian.Uint16(data[0:2])
	missing := binary.BigEndian.Uint16(data[2:4])
	flags := data[4]

	var compressMode byte
	if len(data) > 5 {
		compressMode = data[5]
	}

	ack := Ack{
		FileID:       fileID,
		IsComplete:   flags&AckComplete != 0,
		CompressMode: compressMode,
	}
	if missing != missingSeqNone && missing != missingSeqNoActive {
		m := missing
		ack.MissingSeq = &m
	}
	return ack, true
}
