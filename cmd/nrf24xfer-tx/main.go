// Command nrf24xfer-tx sends a single file over the nRF24 link and
// exits, the --mode tx path of the original daemon's button dispatch
// made into its own one-shot binary.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/w1fx/nrf24xfer/internal/config"
	"github.com/w1fx/nrf24xfer/internal/radio"
	"github.com/w1fx/nrf24xfer/internal/transmitter"
)

func main() {
	var configFile = pflag.StringP("config-file", "c", "", "YAML config file.")
	config.RegisterFlags(pflag.CommandLine)

	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: nrf24xfer-tx [flags] <file>")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile, pflag.CommandLine)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr)
	level, err := log.ParseLevel(cfg.LogLevel)
	if err == nil {
		logger.SetLevel(level)
	}

	data, err := os.ReadFile(pflag.Arg(0))
	if err != nil {
		logger.Fatal("reading input file", "err", err)
	}

	r, err := radio.OpenSerialRadio(cfg.SerialDevice, cfg.Baud)
	if err != nil {
		logger.Fatal("opening radio", "err", err)
	}
	defer r.Close()

	if err := r.Begin(); err != nil {
		logger.Fatal("initializing radio", "err", err)
	}
	if err := r.SetRetries(5*time.Millisecond, 5); err != nil {
		logger.Fatal("setting retries", "err", err)
	}
	if err := r.OpenTXPipe(radio.AddrA); err != nil {
		logger.Fatal("opening tx pipe", "err", err)
	}
	if err := r.OpenRXPipe(1, radio.AddrB); err != nil {
		logger.Fatal("opening rx pipe", "err", err)
	}

	tr := transmitter.New(r, cfg.UseFEC)
	tr.Logger = logger

	stats, err := tr.Send(context.Background(), data)
	if err != nil {
		logger.Error("transfer failed", "err", err, "missing", stats.MissingAtEnd)
		os.Exit(1)
	}

	logger.Info("transfer complete", "sent", stats.Sent, "rounds", stats.Rounds, "elapsed", stats.Elapsed)
}
