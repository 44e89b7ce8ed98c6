//go:build linux

package radio

// WatchSerialDevice is an optional convenience for the daemon: rather
// than requiring a fixed --serial-device path, it watches udev for a
// tty node to appear (e.g. the USB-serial bridge to the nRF24 module
// being plugged in) and reports its devnode once. This is not part of
// the wire protocol — it only helps cmd/nrf24xfer-daemon pick a device
// path.

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// WatchSerialDevice blocks until a "tty" subsystem device is added, or
// ctx is cancelled, and returns its /dev node path.
func WatchSerialDevice(ctx context.Context) (string, error) {
	u := udev.Udev{}
	monitor := u.NewMonitorFromNetlink("udev")

	if err := monitor.FilterAddMatchSubsystem("tty"); err != nil {
		return "", fmt.Errorf("radio: could not filter udev monitor: %w", err)
	}

	devices, errs, err := monitor.DeviceChan(ctx)
	if err != nil {
		return "", fmt.Errorf("radio: could not start udev monitor: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err := <-errs:
			if err != nil {
				return "", fmt.Errorf("radio: udev monitor error: %w", err)
			}
		case dev := <-devices:
			if dev == nil {
				continue
			}
			if dev.Action() == "add" {
				return dev.Devnode(), nil
			}
		}
	}
}
