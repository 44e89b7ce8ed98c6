package receiver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w1fx/nrf24xfer/internal/proto"
	"github.com/w1fx/nrf24xfer/internal/radio"
)

// scriptedRadio feeds a fixed sequence of pre-built frames to Receive
// as if they arrived one per poll, then reports no more data and lets
// the idle/global timeout end the loop.
type scriptedRadio struct {
	radio.Radio
	frames  [][]byte
	pos     int
	acks    [][]byte
}

func newScriptedRadio(frames [][]byte) *scriptedRadio {
	return &scriptedRadio{frames: frames}
}

func (s *scriptedRadio) AvailablePipe() (bool, int, error) {
	return s.pos < len(s.frames), 1, nil
}

func (s *scriptedRadio) GetDynamicPayloadSize() (int, error) {
	if s.pos >= len(s.frames) {
		return 0, nil
	}
	return len(s.frames[s.pos]), nil
}

func (s *scriptedRadio) Read(n int) ([]byte, error) {
	if s.pos >= len(s.frames) {
		return nil, nil
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *scriptedRadio) WriteAckPayload(pipe int, data []byte) error {
	s.acks = append(s.acks, append([]byte(nil), data...))
	return nil
}

func (s *scriptedRadio) StopListening() error { return nil }

func buildTestFrame(t *testing.T, fileID, seq uint16, data []byte, isLast bool) []byte {
	t.Helper()
	frame, err := proto.BuildFrame(fileID, seq, data, isLast, proto.CompressNone, false)
	require.NoError(t, err)
	return frame
}

// fakeClock lets the test drive Now() deterministically so timeouts
// are reachable without sleeping for real.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func Test_Receive_SingleFrameCompletes(t *testing.T) {
	frame := buildTestFrame(t, 42, 0, []byte("hello world"), true)
	sr := newScriptedRadio([][]byte{frame})

	rv := New(sr)
	rv.Sleep = func(time.Duration) {}

	result, err := rv.Receive(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, uint16(42), result.FileID)
	assert.Equal(t, []byte("hello world"), result.Data)
	assert.Empty(t, result.Missing)
}

func Test_Receive_MultiFrameReordered(t *testing.T) {
	f0 := buildTestFrame(t, 7, 0, []byte("AAAA"), false)
	f1 := buildTestFrame(t, 7, 1, []byte("BBBB"), false)
	f2 := buildTestFrame(t, 7, 2, []byte("CCCC"), true)
	// deliver out of order: 1, 0, 2
	sr := newScriptedRadio([][]byte{f1, f0, f2})

	rv := New(sr)
	rv.Sleep = func(time.Duration) {}

	result, err := rv.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("AAAABBBBCCCC"), result.Data)
}

func Test_Receive_DuplicateFrameIgnored(t *testing.T) {
	f0 := buildTestFrame(t, 3, 0, []byte("X"), false)
	f0dup := buildTestFrame(t, 3, 0, []byte("X"), false)
	f1 := buildTestFrame(t, 3, 1, []byte("Y"), true)
	sr := newScriptedRadio([][]byte{f0, f0dup, f1})

	rv := New(sr)
	rv.Sleep = func(time.Duration) {}

	result, err := rv.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("XY"), result.Data)
	assert.Equal(t, 3, result.PacketsReceived)
}

func Test_Receive_GlobalTimeoutReportsMissing(t *testing.T) {
	f0 := buildTestFrame(t, 9, 0, []byte("only"), false)
	// seq 1 never arrives; seq 2 is LAST, leaving a real gap.
	f2 := buildTestFrame(t, 9, 2, []byte("last"), true)
	sr := newScriptedRadio([][]byte{f0, f2})

	clock := &fakeClock{t: time.Unix(0, 0)}
	rv := New(sr)
	rv.Now = clock.now
	rv.Sleep = func(time.Duration) { clock.advance(proto.GlobalTimeout + time.Second) }

	result, err := rv.Receive(context.Background())
	require.Error(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, []uint16{1}, result.Missing)
}

func Test_Receive_NoDataReturnsError(t *testing.T) {
	sr := newScriptedRadio(nil)
	rv := New(sr)
	rv.Sleep = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rv.Receive(ctx)
	require.Error(t, err)
}
