//go:build linux

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// LEDController drives the three status LEDs hardware.py's
// LEDController manages (green/yellow/red), blinking green on Idle and
// red on Completed exactly as _blink_loop does, but as a
// context-cancelled goroutine instead of a daemon thread with a
// running flag.
type LEDController struct {
	chip          *gpiocdev.Chip
	green, yellow, red *gpiocdev.Line

	mu    sync.Mutex
	state State

	cancel context.CancelFunc
	done   chan struct{}
}

// NewLEDController opens chipName and requests the three LED offsets
// as outputs, then starts the blink goroutine.
func NewLEDController(chipName string, green, yellow, red int) (*LEDController, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("nrf24xfer"))
	if err != nil {
		return nil, fmt.Errorf("dispatch: opening gpio chip %s: %w", chipName, err)
	}

	greenLine, err := chip.RequestLine(green, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("dispatch: requesting green LED line: %w", err)
	}
	yellowLine, err := chip.RequestLine(yellow, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("dispatch: requesting yellow LED line: %w", err)
	}
	redLine, err := chip.RequestLine(red, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("dispatch: requesting red LED line: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc := &LEDController{
		chip:   chip,
		green:  greenLine,
		yellow: yellowLine,
		red:    redLine,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go lc.blinkLoop(ctx)
	return lc, nil
}

func (lc *LEDController) blinkLoop(ctx context.Context) {
	defer close(lc.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lc.mu.Lock()
		state := lc.state
		lc.mu.Unlock()

		switch state {
		case StateIdle:
			lc.green.SetValue(1)
			if !sleepOrDone(ctx, 500*time.Millisecond) {
				return
			}
			lc.green.SetValue(0)
			if !sleepOrDone(ctx, 500*time.Millisecond) {
				return
			}
		case StateCompleted:
			lc.red.SetValue(1)
			if !sleepOrDone(ctx, 300*time.Millisecond) {
				return
			}
			lc.red.SetValue(0)
			if !sleepOrDone(ctx, 300*time.Millisecond) {
				return
			}
		default:
			if !sleepOrDone(ctx, 100*time.Millisecond) {
				return
			}
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// SetState changes the visual state, matching set_state's "turn
// everything off, then light what applies" sequencing.
func (lc *LEDController) SetState(state State) {
	lc.mu.Lock()
	lc.state = state
	lc.mu.Unlock()

	lc.green.SetValue(0)
	lc.yellow.SetValue(0)
	lc.red.SetValue(0)

	switch state {
	case StateTXActive, StateRXActive:
		lc.yellow.SetValue(1)
	case StateError:
		lc.yellow.SetValue(1)
		lc.red.SetValue(1)
	}
}

// Close stops the blink goroutine, turns the LEDs off, and releases
// the GPIO lines.
func (lc *LEDController) Close() error {
	lc.cancel()
	<-lc.done
	lc.green.SetValue(0)
	lc.yellow.SetValue(0)
	lc.red.SetValue(0)
	lc.green.Close()
	lc.yellow.Close()
	lc.red.Close()
	return lc.chip.Close()
}
