// Command nrf24xfer-rx receives a single file over the nRF24 link and
// writes it into a destination directory, the --mode rx path of the
// original daemon's button dispatch made into its own one-shot binary.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/w1fx/nrf24xfer/internal/config"
	"github.com/w1fx/nrf24xfer/internal/radio"
	"github.com/w1fx/nrf24xfer/internal/receiver"
)

func main() {
	var configFile = pflag.StringP("config-file", "c", "", "YAML config file.")
	config.RegisterFlags(pflag.CommandLine)

	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: nrf24xfer-rx [flags]")
		pflag.PrintDefaults()
	}
	pflag.Parse()

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

	if err := os.MkdirAll(cfg.ReceiveDir, 0o755); err != nil {
		logger.Fatal("creating receive directory", "err", err)
	}

	r, err := radio.OpenSerialRadio(cfg.SerialDevice, cfg.Baud)
	if err != nil {
		logger.Fatal("opening radio", "err", err)
	}
	defer r.Close()

	if err := r.Begin(); err != nil {
		logger.Fatal("initializing radio", "err", err)
	}
	if err := r.SetRetries(5*time.Millisecond, 15); err != nil {
		logger.Fatal("setting retries", "err", err)
	}
	if err := r.OpenRXPipe(1, radio.AddrA); err != nil {
		logger.Fatal("opening rx pipe", "err", err)
	}
	if err := r.OpenTXPipe(radio.AddrB); err != nil {
		logger.Fatal("opening tx pipe", "err", err)
	}
	if err := r.StartListening(); err != nil {
		logger.Fatal("starting listening", "err", err)
	}

	rv := receiver.New(r)
	rv.Logger = logger

	result, err := rv.Receive(context.Background())
	if err != nil {
		logger.Error("reception failed", "err", err, "missing", len(result.Missing))
		os.Exit(1)
	}

	filename := fmt.Sprintf("file_%d_%d.bin", result.FileID, time.Now().Unix())
	destPath := filepath.Join(cfg.ReceiveDir, filename)
	if err := os.WriteFile(destPath, result.Data, 0o644); err != nil {
		logger.Fatal("writing received file", "err", err)
	}

	logger.Info("reception complete", "path", destPath, "bytes", len(result.Data), "packets", result.PacketsReceived, "fec_corrections", result.ErrorsCorrected)
}
