// Package radio declares the thin interface the link layer needs from a
// half-duplex radio with hardware auto-acknowledgement and dynamic
// payload sizing (spec §4.6, C7) — everything below the driver boundary
// (SPI/UART wiring, channel tuning, the chip's own retry state machine)
// is out of scope and lives behind this interface.
package radio

import (
	"time"

	"github.com/w1fx/nrf24xfer/internal/proto"
)

// AddrA and AddrB identify the two ends of the link.
type Addr [5]byte

// Radio is the capability set spec §4.6 requires. Implementations carry
// implicit PTX/PRX mode state (spec §9's typestate note): StartListening
// and StopListening are the only calls allowed to flip it, and every
// other method assumes the caller has already put the radio in the right
// mode for what it's about to do.
type Radio interface {
	// Begin initializes the chip: max PA level, 2 Mbps data rate,
	// channel 90, dynamic payloads on, ACK payloads on.
	Begin() error

	SetRetries(delay time.Duration, count int) error
	OpenTXPipe(addr Addr) error
	OpenRXPipe(pipe int, addr Addr) error

	StartListening() error
	StopListening() error

	// Write transmits a frame and blocks for the hardware's ARQ window.
	// It reports true if the hardware received an ACK, false if its
	// retry budget was exhausted.
	Write(frame []byte) (bool, error)

	// AvailablePipe reports whether a frame is waiting and which pipe it
	// arrived on.
	AvailablePipe() (available bool, pipe int, err error)

	// Available is AvailablePipe without the pipe number, used by the
	// transmitter right after a successful Write to check for a
	// piggybacked ACK payload.
	Available() (bool, error)

	GetDynamicPayloadSize() (int, error)
	Read(n int) ([]byte, error)

	WriteAckPayload(pipe int, data []byte) error
}

// Addresses both ends of the link must agree on (spec §4.6/§6), kept in
// one place (proto.AddrA/AddrB) and mirrored here as the Radio-flavored
// type so callers never juggle two literals for the same address.
var (
	AddrA = Addr(proto.AddrA)
	AddrB = Addr(proto.AddrB)
)
