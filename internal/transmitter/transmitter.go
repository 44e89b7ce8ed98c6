// Package transmitter implements the sender-side FSM (spec §4.4, C5):
// chunk and FEC-protect a file, burst it over the radio, harvest
// piggyback ACKs, and selectively retransmit whatever the receiver's
// NACK says is still missing.
package transmitter

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/w1fx/nrf24xfer/internal/compress"
	"github.com/w1fx/nrf24xfer/internal/proto"
	"github.com/w1fx/nrf24xfer/internal/radio"
)

// Stats carries the throughput/diagnostic counters spec §4.4 calls
// "not protocol-visible" but a complete implementation still wants to
// surface, grounded on transmitter.py's burst_stats/progress printing.
type Stats struct {
	FileID          uint16
	FileHash        [4]byte
	CompressMode    byte
	OriginalSize    int
	FinalSize       int
	TotalPackets    int
	Sent            int
	Success         int
	Failed          int
	Rounds          int
	Elapsed         time.Duration
	MissingAtEnd    int
}

// Transmitter drives one file transfer over a Radio already configured
// in PTX mode (TX pipe open on AddrA, listening on AddrB, hardware
// retries set) per spec §4.4's entry state.
type Transmitter struct {
	Radio  radio.Radio
	Logger *log.Logger
	UseFEC bool

	// Sleep performs the end-of-round ping delay (spec's 300ms) and
	// SendMultiple's InterFilePause; overridable in tests so the loops
	// don't actually block for real time.
	Sleep func(time.Duration)
}

// New returns a Transmitter ready to call Send on, with default
// dependencies (real time.Sleep, a discard logger if none given).
func New(r radio.Radio, useFEC bool) *Transmitter {
	return &Transmitter{
		Radio:  r,
		Logger: log.New(nil),
		UseFEC: useFEC,
		Sleep:  time.Sleep,
	}
}

func randomFileID() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func chunkData(data []byte, chunkSize int) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	var chunks [][]byte
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	return chunks
}

// Send transmits data to whatever is listening at the other end,
// returning Stats and a non-nil error if not every chunk was
// acknowledged within MaxRounds.
func (t *Transmitter) Send(ctx context.Context, data []byte) (Stats, error) {
	start := time.Now()

	fileHash := proto.FileHash(data)
	compressed, mode, _ := compress.AdaptiveCompress(data)
	chunkSize := proto.MaxData(t.UseFEC)
	chunks := chunkData(compressed, chunkSize)
	totalPackets := len(chunks)

	fileID, err := randomFileID()
	if err != nil {
		return Stats{}, fmt.Errorf("transmitter: could not pick file_id: %w", err)
	}

	t.Logger.Info("starting transfer", "file_id", fileID, "packets", totalPackets, "compress_mode", mode, "fec", t.UseFEC)

	pending := make(map[int]struct{}, totalPackets)
	for i := 0; i < totalPackets; i++ {
		pending[i] = struct{}{}
	}

	stats := Stats{
		FileID:       fileID,
		FileHash:     fileHash,
		CompressMode: mode,
		OriginalSize: len(data),
		FinalSize:    len(compressed),
		TotalPackets: totalPackets,
	}

	rounds := 0
roundLoop:
	for ; rounds < proto.MaxRounds; rounds++ {
		if len(pending) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}
		stats.Rounds++

		pendingList := sortedKeys(pending)

		for burstStart := 0; burstStart < len(pendingList); burstStart += proto.BurstSize {
			burstEnd := burstStart + proto.BurstSize
			if burstEnd > len(pendingList) {
				burstEnd = len(pendingList)
			}
			burst := pendingList[burstStart:burstEnd]

			for _, seq := range burst {
				isLast := seq == totalPackets-1
				frame, err := proto.BuildFrame(fileID, uint16(seq), chunks[seq], isLast, mode, t.UseFEC)
				if err != nil {
					return stats, fmt.Errorf("transmitter: building frame %d: %w", seq, err)
				}

				ok, err := t.Radio.Write(frame)
				if err != nil {
					return stats, fmt.Errorf("transmitter: radio write: %w", err)
				}
				if !ok {
					stats.Failed++
					continue
				}

				stats.Sent++
				stats.Success++
				delete(pending, seq)

				if complete := t.harvestAck(&stats); complete {
					pending = map[int]struct{}{}
					break roundLoop
				}

				if stats.Sent%25 == 0 || isLast {
					t.Logger.Info("progress", "sent", stats.Sent, "total", totalPackets)
				}
			}

			if len(pending) == 0 {
				break
			}
		}

		if len(pending) == 0 {
			break
		}

		t.Sleep(proto.EndOfRoundPing)
		lastSeq := totalPackets - 1
		frame, err := proto.BuildFrame(fileID, uint16(lastSeq), chunks[lastSeq], true, mode, t.UseFEC)
		if err != nil {
			return stats, fmt.Errorf("transmitter: building ping frame: %w", err)
		}
		ok, err := t.Radio.Write(frame)
		if err != nil {
			return stats, fmt.Errorf("transmitter: radio write (ping): %w", err)
		}
		if ok {
			avail, _ := t.Radio.Available()
			if avail {
				ack, ok2 := t.readAck()
				if ok2 {
					if ack.IsComplete {
						pending = map[int]struct{}{}
						break
					}
					if ack.MissingSeq != nil {
						floor := int(*ack.MissingSeq)
						for seq := range pending {
							if seq < floor {
								delete(pending, seq)
							}
						}
					}
				}
			}
		}
	}

	stats.MissingAtEnd = len(pending)
	stats.Elapsed = time.Since(start)

	if len(pending) != 0 {
		t.Logger.Warn("transfer incomplete", "missing", len(pending), "rounds", stats.Rounds)
		return stats, fmt.Errorf("transmitter: %d packets unacknowledged after %d rounds", len(pending), stats.Rounds)
	}

	t.Logger.Info("transfer complete", "elapsed", stats.Elapsed, "sent", stats.Sent)
	return stats, nil
}

// harvestAck reads a piggyback ACK right after a successful Write, if
// one is available, and reports whether the receiver signalled
// completion. This is read-only with respect to pending: the caller
// does the cumulative-NACK bookkeeping only in the end-of-round ping,
// per spec §4.4's "optimistic pending removal" design (spec §9).
func (t *Transmitter) harvestAck(stats *Stats) (complete bool) {
	avail, err := t.Radio.Available()
	if err != nil || !avail {
		return false
	}
	ack, ok := t.readAck()
	if !ok {
		return false
	}
	return ack.IsComplete
}

func (t *Transmitter) readAck() (proto.Ack, bool) {
	size, err := t.Radio.GetDynamicPayloadSize()
	if err != nil || size <= 0 || size > proto.FrameSize {
		return proto.Ack{}, false
	}
	raw, err := t.Radio.Read(size)
	if err != nil {
		return proto.Ack{}, false
	}
	return proto.ParseAck(raw)
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// MultiResult is one file's outcome within a SendMultiple batch.
type MultiResult struct {
	Path  string
	Stats Stats
	Err   error
}

// MultiStats summarizes a SendMultiple run (TX-MULTI mode, spec
// supplement grounded on transmitter.py's transmit_multiple_files).
type MultiStats struct {
	Succeeded int
	Failed    int
	Total     int
	Results   []MultiResult
}

// InterFilePause is the delay transmit_multiple_files takes between
// files (spec supplement, original_source/transmitter.py's time.sleep(2)
// between transmit_file calls).
const InterFilePause = 2 * time.Second

// SendMultiple sends every path in order, continuing past individual
// failures so one bad file doesn't abort the rest of the batch.
func (t *Transmitter) SendMultiple(ctx context.Context, paths []string, read func(path string) ([]byte, error)) MultiStats {
	out := MultiStats{Total: len(paths)}

	for i, path := range paths {
		if i > 0 {
			t.Sleep(InterFilePause)
		}

		data, err := read(path)
		if err != nil {
			out.Failed++
			out.Results = append(out.Results, MultiResult{Path: path, Err: fmt.Errorf("transmitter: reading %s: %w", path, err)})
			continue
		}

		t.Logger.Info("sending file", "path", path)
		stats, err := t.Send(ctx, data)
		result := MultiResult{Path: path, Stats: stats, Err: err}
		out.Results = append(out.Results, result)
		if err != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}

	return out
}
