//go:build linux

package dispatch

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// ButtonWatcher times button presses on a single GPIO line and
// classifies each release via Classify, grounded on hardware.py's
// ButtonController._button_event (rising edge starts the timer,
// falling edge ends it and dispatches short/medium/long).
type ButtonWatcher struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	pressStart time.Time
	onAction   func(Action)
}

// NewButtonWatcher opens chipName and requests offset as a
// debounced, both-edges input line, dispatching onAction whenever a
// full press-release cycle completes.
func NewButtonWatcher(chipName string, offset int, onAction func(Action)) (*ButtonWatcher, error) {
	bw := &ButtonWatcher{onAction: onAction}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("nrf24xfer-button"))
	if err != nil {
		return nil, fmt.Errorf("dispatch: opening gpio chip %s: %w", chipName, err)
	}
	bw.chip = chip

	line, err := chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(50*time.Millisecond),
		gpiocdev.WithEventHandler(bw.handleEvent),
	)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("dispatch: requesting button line: %w", err)
	}
	bw.line = line

	return bw, nil
}

func (bw *ButtonWatcher) handleEvent(evt gpiocdev.LineEvent) {
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		bw.pressStart = time.Now()
	case gpiocdev.LineEventFallingEdge:
		if bw.pressStart.IsZero() {
			return
		}
		duration := time.Since(bw.pressStart)
		bw.pressStart = time.Time{}
		if bw.onAction != nil {
			bw.onAction(Classify(duration))
		}
	}
}

// Close releases the GPIO line and chip.
func (bw *ButtonWatcher) Close() error {
	if bw.line != nil {
		bw.line.Close()
	}
	return bw.chip.Close()
}
