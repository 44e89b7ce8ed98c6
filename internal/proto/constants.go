// Package proto implements the wire formats of the nRF24 file-transfer
// link: the 32-byte frame, its 6-byte header, and the 6-byte ACK payload
// piggybacked on the radio's hardware acknowledgement.
package proto

import "time"

// Frame geometry. Every frame emitted onto the radio is exactly
// FrameSize bytes, regardless of whether FEC is in use.
const (
	FrameSize   = 32
	HeaderSize  = 6
	DataBytes   = 26 // payload bytes available without FEC
	EffectiveData = 22 // payload bytes available with FEC (4 parity bytes reserved)
	FECSymbols  = 4
)

// Header flag bits (byte offset 5 of the header).
const (
	FlagLast       byte = 0x01
	FlagCompressed byte = 0x02
	FlagFEC        byte = 0x08
)

// Compression mode identifiers, carried in bits 4-7 of the flags byte.
const (
	CompressNone = 0
	CompressZlib = 1
	CompressBz2  = 2
	CompressLzma = 3
)

// ACK payload sentinels for the missing-sequence field.
const (
	missingSeqNone     = 0xFFFF // receiver reports nothing missing
	missingSeqNoActive = 0xFFFE // no active file (or: active file, no LAST seen yet)
)

// AckComplete is bit 0 of the ACK payload's flags byte.
const AckComplete byte = 0x01

// Sender/receiver loop tunables (spec §4.4, §4.5, §6).
const (
	BurstSize         = 15
	MaxRounds         = 20
	EndOfRoundPing    = 300 * time.Millisecond
	GlobalTimeout     = 120 * time.Second
	IdleTimeout       = 10 * time.Second
	ReceiverIdleSleep = 1 * time.Millisecond
)

// Radio parameters that must match on both ends of the link (spec §6).
const (
	RadioChannel   = 90
	RadioDataRate2Mbps = true
)

// AddrA and AddrB are the fixed pipe addresses: the sender always writes
// AddrA and listens on AddrB; the receiver always writes AddrB and
// listens on AddrA.
var (
	AddrA = [5]byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}
	AddrB = [5]byte{0xD7, 0xD7, 0xD7, 0xD7, 0xD7}
)

// MaxData returns the maximum data payload size for a frame, given
// whether FEC is in effect.
func MaxData(useFEC bool) int {
	if useFEC {
		return EffectiveData
	}
	return DataBytes
}
