//go:build !linux

// Command nrf24xfer-daemon needs GPIO (button/LED) and udev support
// that this repo only implements for linux; cmd/nrf24xfer-tx and
// cmd/nrf24xfer-rx work anywhere a serial port does.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "nrf24xfer-daemon: the button/LED-driven daemon is linux-only; use nrf24xfer-tx or nrf24xfer-rx on this platform")
	os.Exit(1)
}
