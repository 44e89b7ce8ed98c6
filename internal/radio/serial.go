package radio

// SPDX-FileCopyrightText: The Samoyed Authors
//
// Grounded on src/serial_port.go's serial_port_open: open the device in
// raw mode with github.com/pkg/term and set the line speed, exactly as
// the teacher does for its TNC serial connections.

import (
	"bufio"
	"fmt"
	"time"

	"github.com/pkg/term"
)

// Line commands the UART-bridge firmware understands. The nRF24 itself
// has no serial interface; SerialRadio assumes a small microcontroller
// sits between the host and the SPI-attached chip and exposes this
// one-byte-command line protocol — a common pattern for desktop/laptop
// hosts that can't do SPI directly.
const (
	cmdBegin       = 'B'
	cmdSetRetries  = 'R'
	cmdOpenTXPipe  = 'T'
	cmdOpenRXPipe  = 'X'
	cmdListen      = 'L'
	cmdStopListen  = 'S'
	cmdWrite       = 'W'
	cmdAvailable   = 'P'
	cmdPayloadSize = 'Z'
	cmdReadPayload = 'D'
	cmdWriteAck    = 'K'

	replyOK   = 'Y'
	replyFail = 'N'
)

// SerialRadio implements Radio over a UART-bridged nRF24 module.
type SerialRadio struct {
	port *term.Term
	r    *bufio.Reader
}

// OpenSerialRadio opens devicename at baud (0 leaves the current speed
// alone) and puts it in raw mode, the same fallback-on-bad-speed
// behavior serial_port_open uses (defaulting to 4800 on an unsupported
// rate rather than failing outright).
func OpenSerialRadio(devicename string, baud int) (*SerialRadio, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("radio: could not open serial port %s: %w", devicename, err)
	}

	switch baud {
	case 0:
		// leave it alone
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600:
		if err := t.SetSpeed(baud); err != nil {
			return nil, fmt.Errorf("radio: could not set speed %d on %s: %w", baud, devicename, err)
		}
	default:
		if err := t.SetSpeed(4800); err != nil {
			return nil, fmt.Errorf("radio: could not set fallback speed on %s: %w", devicename, err)
		}
	}

	return &SerialRadio{port: t, r: bufio.NewReader(t)}, nil
}

func (s *SerialRadio) Close() error {
	return s.port.Close()
}

func (s *SerialRadio) writeCmd(b []byte) error {
	_, err := s.port.Write(b)
	return err
}

func (s *SerialRadio) readReply(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := s.r.Read(buf)
	return buf, err
}

func (s *SerialRadio) Begin() error {
	return s.writeCmd([]byte{cmdBegin})
}

func (s *SerialRadio) SetRetries(delay time.Duration, count int) error {
	return s.writeCmd([]byte{cmdSetRetries, byte(delay.Milliseconds()), byte(count)})
}

func (s *SerialRadio) OpenTXPipe(addr Addr) error {
	return s.writeCmd(append([]byte{cmdOpenTXPipe}, addr[:]...))
}

func (s *SerialRadio) OpenRXPipe(pipe int, addr Addr) error {
	return s.writeCmd(append([]byte{cmdOpenRXPipe, byte(pipe)}, addr[:]...))
}

func (s *SerialRadio) StartListening() error { return s.writeCmd([]byte{cmdListen}) }
func (s *SerialRadio) StopListening() error  { return s.writeCmd([]byte{cmdStopListen}) }

func (s *SerialRadio) Write(frame []byte) (bool, error) {
	if err := s.writeCmd(append([]byte{cmdWrite, byte(len(frame))}, frame...)); err != nil {
		return false, err
	}
	reply, err := s.readReply(1)
	if err != nil {
		return false, err
	}
	return reply[0] == replyOK, nil
}

func (s *SerialRadio) AvailablePipe() (bool, int, error) {
	if err := s.writeCmd([]byte{cmdAvailable}); err != nil {
		return false, 0, err
	}
	reply, err := s.readReply(2)
	if err != nil {
		return false, 0, err
	}
	return reply[0] == replyOK, int(reply[1]), nil
}

func (s *SerialRadio) Available() (bool, error) {
	ok, _, err := s.AvailablePipe()
	return ok, err
}

// GetDynamicPayloadSize queries the waiting frame's actual byte count,
// a register read distinct from AvailablePipe's pipe-number reply (the
// nRF24 hardware exposes these as two separate registers, and the
// line protocol mirrors that rather than overloading one reply).
func (s *SerialRadio) GetDynamicPayloadSize() (int, error) {
	if err := s.writeCmd([]byte{cmdPayloadSize}); err != nil {
		return 0, err
	}
	reply, err := s.readReply(2)
	if err != nil {
		return 0, err
	}
	if reply[0] != replyOK {
		return 0, fmt.Errorf("radio: no dynamic payload size available")
	}
	return int(reply[1]), nil
}

func (s *SerialRadio) Read(n int) ([]byte, error) {
	if err := s.writeCmd([]byte{cmdReadPayload, byte(n)}); err != nil {
		return nil, err
	}
	return s.readReply(n)
}

func (s *SerialRadio) WriteAckPayload(pipe int, data []byte) error {
	header := []byte{cmdWriteAck, byte(pipe), byte(len(data))}
	return s.writeCmd(append(header, data...))
}
