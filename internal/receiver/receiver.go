// Package receiver implements the receiver-side FSM (spec §4.5, C6):
// IDLE → RECEIVING → COMPLETE|FAILED, reassembling chunks as they
// arrive and piggybacking a fresh ACK on every hardware receive.
package receiver

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/w1fx/nrf24xfer/internal/compress"
	"github.com/w1fx/nrf24xfer/internal/proto"
	"github.com/w1fx/nrf24xfer/internal/radio"
)

// Result is what a completed (or timed-out) receive produced.
type Result struct {
	FileID          uint16
	Data            []byte
	CompressMode    byte
	PacketsReceived int
	Missing         []uint16
	ErrorsCorrected int
	Elapsed         time.Duration
	Complete        bool
}

// Receiver drives one file reception over a Radio already configured
// in PRX mode (RX pipe 1 open on AddrA, TX pipe open on AddrB,
// listening started) per spec §4.5's entry state.
type Receiver struct {
	Radio  radio.Radio
	Logger *log.Logger

	// Now and Sleep are injectable for deterministic tests; they
	// default to time.Now and time.Sleep.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// New returns a Receiver ready to call Receive on.
func New(r radio.Radio) *Receiver {
	return &Receiver{
		Radio:  r,
		Logger: log.New(nil),
		Now:    time.Now,
		Sleep:  time.Sleep,
	}
}

// Receive blocks until a file has been fully reassembled, a timeout
// fires, or ctx is cancelled. A non-nil Result.Missing (or a non-nil
// error) means the transfer ended incomplete.
func (r *Receiver) Receive(ctx context.Context) (Result, error) {
	var (
		fileIDSeen   *uint16
		chunks       = make(map[uint16][]byte)
		lastSeq      *uint16
		lastSeen     bool
		compressMode byte

		startTime      time.Time
		lastPacketTime time.Time

		packetsReceived       int
		totalErrorsCorrected  int
	)

	sendAck := func() {
		ack := proto.BuildAckPayload(fileIDSeen, chunks, lastSeq, lastSeen, compressMode)
		_ = r.Radio.WriteAckPayload(1, ack)
	}

	sendAck()

loop:
	for {
		if err := ctx.Err(); err != nil {
			break loop
		}

		now := r.Now()

		if !startTime.IsZero() && now.Sub(startTime) > proto.GlobalTimeout {
			r.Logger.Warn("global timeout reached")
			break loop
		}
		if lastSeen && !lastPacketTime.IsZero() && now.Sub(lastPacketTime) > proto.IdleTimeout {
			r.Logger.Warn("idle timeout reached")
			break loop
		}

		hasPayload, _, err := r.Radio.AvailablePipe()
		if err != nil || !hasPayload {
			r.Sleep(proto.ReceiverIdleSleep)
			continue
		}

		size, err := r.Radio.GetDynamicPayloadSize()
		if err != nil {
			size = 0
		}
		if size == 0 || size > proto.FrameSize {
			readSize := size
			if readSize <= 0 {
				readSize = proto.FrameSize
			}
			_, _ = r.Radio.Read(readSize)
			sendAck()
			continue
		}

		raw, err := r.Radio.Read(size)
		if err != nil {
			sendAck()
			continue
		}
		if len(raw) < proto.FrameSize {
			padded := make([]byte, proto.FrameSize)
			copy(padded, raw)
			raw = padded
		}

		frame, ok := proto.ParseFrame(raw)
		if !ok {
			sendAck()
			continue
		}

		lastPacketTime = now
		packetsReceived++
		if startTime.IsZero() {
			startTime = now
		}
		if frame.ErrorsCorrected > 0 {
			totalErrorsCorrected += frame.ErrorsCorrected
		}

		if fileIDSeen == nil {
			fid := frame.FileID
			fileIDSeen = &fid
			compressMode = frame.CompressMode
			r.Logger.Info("new transfer", "file_id", fid, "compress_mode", compressMode)
		}

		if frame.FileID != *fileIDSeen {
			sendAck()
			continue
		}

		if _, exists := chunks[frame.SeqID]; !exists {
			chunks[frame.SeqID] = frame.Data
			if packetsReceived%25 == 0 || frame.IsLast {
				r.Logger.Info("progress", "packets", len(chunks))
			}
		}

		if frame.IsLast {
			seq := frame.SeqID
			lastSeq = &seq
			lastSeen = true
			r.Logger.Info("last packet seen", "seq", seq, "received", len(chunks))
		}

		if lastSeen && lastSeq != nil && len(chunks) == int(*lastSeq)+1 {
			r.Logger.Info("transfer complete")
			break loop
		}

		sendAck()
	}

	_ = r.Radio.StopListening()

	elapsed := time.Duration(0)
	if !startTime.IsZero() {
		elapsed = r.Now().Sub(startTime)
	}

	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("receiver: no data received")
	}

	maxSeq := uint16(0)
	for s := range chunks {
		if s > maxSeq {
			maxSeq = s
		}
	}

	var reconstructed []byte
	var missing []uint16
	for s := 0; s <= int(maxSeq); s++ {
		seq := uint16(s)
		if chunk, ok := chunks[seq]; ok {
			reconstructed = append(reconstructed, chunk...)
		} else {
			missing = append(missing, seq)
		}
	}

	result := Result{
		PacketsReceived: packetsReceived,
		Missing:         missing,
		ErrorsCorrected: totalErrorsCorrected,
		Elapsed:         elapsed,
		Complete:        len(missing) == 0,
	}
	if fileIDSeen != nil {
		result.FileID = *fileIDSeen
	}

	if compressMode != proto.CompressNone {
		decompressed, err := compress.AdaptiveDecompress(reconstructed, compressMode)
		if err != nil {
			return result, fmt.Errorf("receiver: decompressing reassembled data: %w", err)
		}
		reconstructed = decompressed
	}
	result.Data = reconstructed
	result.CompressMode = compressMode

	if len(missing) != 0 {
		r.Logger.Warn("reception incomplete", "missing", len(missing))
		return result, fmt.Errorf("receiver: %d packets missing out of %d", len(missing), maxSeq+1)
	}

	return result, nil
}
