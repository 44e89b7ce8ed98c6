//go:build linux

// Command nrf24xfer-daemon is the button-driven bidirectional daemon,
// grounded on the original main.py: it sits idle blinking its status
// LED until a button press picks TX, RX, or TX-MULTI, runs that
// transfer once, then returns to idle.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/w1fx/nrf24xfer/internal/config"
	"github.com/w1fx/nrf24xfer/internal/dispatch"
	"github.com/w1fx/nrf24xfer/internal/radio"
	"github.com/w1fx/nrf24xfer/internal/receiver"
	"github.com/w1fx/nrf24xfer/internal/status"
	"github.com/w1fx/nrf24xfer/internal/transmitter"
)

func main() {
	var (
		configFile  = pflag.StringP("config-file", "c", "", "YAML config file.")
		sendFile    = pflag.StringP("file", "f", "", "File to send when TX is triggered.")
		initialMode = pflag.String("initial-mode", "idle", "Initial mode: idle, tx, rx, tx-multi.")
	)
	config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	cfg, err := config.Load(*configFile, pflag.CommandLine)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logWriter := io.Writer(os.Stderr)
	if fileWriter, err := cfg.LogFileWriter(time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, err)
	} else if fileWriter != nil {
		defer fileWriter.Close()
		logWriter = io.MultiWriter(os.Stderr, fileWriter)
	}

	logger := log.New(logWriter)
	level, err := log.ParseLevel(cfg.LogLevel)
	if err == nil {
		logger.SetLevel(level)
	}

	if err := os.MkdirAll(cfg.ReceiveDir, 0o755); err != nil {
		logger.Fatal("creating receive directory", "err", err)
	}
	if err := os.MkdirAll(cfg.TextsDir, 0o755); err != nil {
		logger.Warn("creating texts directory", "err", err)
	}

	led, err := dispatch.NewLEDController(cfg.LEDChip, cfg.LEDGreen, cfg.LEDYellow, cfg.LEDRed)
	if err != nil {
		logger.Fatal("initializing LEDs", "err", err)
	}
	defer led.Close()

	var (
		mu      sync.Mutex
		pending dispatch.Action
	)

	button, err := dispatch.NewButtonWatcher(cfg.ButtonChip, cfg.ButtonOffset, func(action dispatch.Action) {
		mu.Lock()
		defer mu.Unlock()
		if pending == dispatch.ActionNone {
			pending = action
			logger.Info("button press dispatched", "action", action)
		}
	})
	if err != nil {
		logger.Fatal("initializing button watcher", "err", err)
	}
	defer button.Close()

	if cfg.SerialDevice == "" {
		logger.Info("no --serial-device given, watching udev for one")
		watchCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		dev, err := radio.WatchSerialDevice(watchCtx)
		cancel()
		if err != nil {
			logger.Fatal("auto-detecting serial device", "err", err)
		}
		cfg.SerialDevice = dev
		logger.Info("detected serial device", "device", dev)
	}

	r, err := radio.OpenSerialRadio(cfg.SerialDevice, cfg.Baud)
	if err != nil {
		logger.Fatal("opening radio", "err", err)
	}
	defer r.Close()
	if err := r.Begin(); err != nil {
		logger.Fatal("initializing radio", "err", err)
	}

	statusSrv := status.NewServer()
	statusCtx, stopStatus := context.WithCancel(context.Background())
	defer stopStatus()
	if port, err := statusSrv.Listen(statusCtx); err != nil {
		logger.Warn("status server disabled", "err", err)
	} else if err := status.Announce(statusCtx, "nrf24xfer", port); err != nil {
		logger.Warn("dns-sd announcement disabled", "err", err)
	} else {
		logger.Info("status service announced", "port", port, "type", status.ServiceType)
	}

	logger.Info("daemon ready", "receive_dir", cfg.ReceiveDir, "texts_dir", cfg.TextsDir)

	takePending := func(initial dispatch.Action) dispatch.Action {
		if initial != dispatch.ActionNone {
			return initial
		}
		mu.Lock()
		defer mu.Unlock()
		action := pending
		pending = dispatch.ActionNone
		return action
	}

	var initial dispatch.Action
	switch *initialMode {
	case "tx":
		initial = dispatch.ActionTX
	case "rx":
		initial = dispatch.ActionRX
	case "tx-multi":
		initial = dispatch.ActionTXMulti
	}

	led.SetState(dispatch.StateIdle)

	for {
		action := takePending(initial)
		initial = dispatch.ActionNone

		switch action {
		case dispatch.ActionTX:
			runTX(r, logger, led, statusSrv, *sendFile, cfg.UseFEC)
		case dispatch.ActionRX:
			runRX(r, logger, led, statusSrv, cfg.ReceiveDir)
		case dispatch.ActionTXMulti:
			runTXMulti(r, logger, led, statusSrv, cfg.TextsDir, cfg.UseFEC)
		default:
			time.Sleep(100 * time.Millisecond)
			continue
		}

		time.Sleep(3 * time.Second)
		led.SetState(dispatch.StateIdle)
	}
}

func runTX(r *radio.SerialRadio, logger *log.Logger, led *dispatch.LEDController, statusSrv *status.Server, path string, useFEC bool) {
	led.SetState(dispatch.StateTXActive)
	if path == "" {
		logger.Error("no --file configured for TX mode")
		led.SetState(dispatch.StateError)
		statusSrv.SetLast(status.Info{Mode: "tx", Error: "no --file configured", Timestamp: time.Now()})
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("reading send file", "err", err)
		led.SetState(dispatch.StateError)
		statusSrv.SetLast(status.Info{Mode: "tx", Error: err.Error(), Timestamp: time.Now()})
		return
	}

	if err := r.SetRetries(5*time.Millisecond, 5); err != nil {
		logger.Error("setting retries", "err", err)
		led.SetState(dispatch.StateError)
		return
	}
	if err := r.OpenTXPipe(radio.AddrA); err != nil {
		logger.Error("opening tx pipe", "err", err)
		led.SetState(dispatch.StateError)
		return
	}
	if err := r.OpenRXPipe(1, radio.AddrB); err != nil {
		logger.Error("opening rx pipe", "err", err)
		led.SetState(dispatch.StateError)
		return
	}

	tr := transmitter.New(r, useFEC)
	tr.Logger = logger
	stats, err := tr.Send(context.Background(), data)
	info := status.Info{Mode: "tx", FileID: stats.FileID, Bytes: stats.FinalSize, Success: err == nil, Timestamp: time.Now()}
	if err != nil {
		info.Error = err.Error()
		logger.Error("transfer failed", "err", err)
		led.SetState(dispatch.StateError)
		statusSrv.SetLast(info)
		return
	}
	statusSrv.SetLast(info)
	led.SetState(dispatch.StateCompleted)
}

func runRX(r *radio.SerialRadio, logger *log.Logger, led *dispatch.LEDController, statusSrv *status.Server, destDir string) {
	led.SetState(dispatch.StateRXActive)

	if err := r.OpenRXPipe(1, radio.AddrA); err != nil {
		logger.Error("opening rx pipe", "err", err)
		led.SetState(dispatch.StateError)
		return
	}
	if err := r.OpenTXPipe(radio.AddrB); err != nil {
		logger.Error("opening tx pipe", "err", err)
		led.SetState(dispatch.StateError)
		return
	}
	if err := r.StartListening(); err != nil {
		logger.Error("starting listening", "err", err)
		led.SetState(dispatch.StateError)
		return
	}

	rv := receiver.New(r)
	rv.Logger = logger
	result, err := rv.Receive(context.Background())
	if err != nil {
		logger.Error("reception failed", "err", err)
		led.SetState(dispatch.StateError)
		statusSrv.SetLast(status.Info{Mode: "rx", Error: err.Error(), Timestamp: time.Now()})
		return
	}

	filename := fmt.Sprintf("file_%d_%d.bin", result.FileID, time.Now().Unix())
	if err := os.WriteFile(filepath.Join(destDir, filename), result.Data, 0o644); err != nil {
		logger.Error("writing received file", "err", err)
		led.SetState(dispatch.StateError)
		statusSrv.SetLast(status.Info{Mode: "rx", Error: err.Error(), Timestamp: time.Now()})
		return
	}
	statusSrv.SetLast(status.Info{Mode: "rx", FileID: result.FileID, Bytes: len(result.Data), Success: true, Timestamp: time.Now()})
	led.SetState(dispatch.StateCompleted)
}

func runTXMulti(r *radio.SerialRadio, logger *log.Logger, led *dispatch.LEDController, statusSrv *status.Server, textsDir string, useFEC bool) {
	led.SetState(dispatch.StateTXActive)

	matches, err := filepath.Glob(filepath.Join(textsDir, "*.txt"))
	if err != nil {
		logger.Error("globbing texts dir", "err", err)
		led.SetState(dispatch.StateError)
		return
	}
	if len(matches) == 0 {
		logger.Warn("no .txt files found for TX-MULTI", "dir", textsDir)
		led.SetState(dispatch.StateError)
		return
	}

	if err := r.SetRetries(5*time.Millisecond, 5); err != nil {
		logger.Error("setting retries", "err", err)
		led.SetState(dispatch.StateError)
		return
	}
	if err := r.OpenTXPipe(radio.AddrA); err != nil {
		logger.Error("opening tx pipe", "err", err)
		led.SetState(dispatch.StateError)
		return
	}
	if err := r.OpenRXPipe(1, radio.AddrB); err != nil {
		logger.Error("opening rx pipe", "err", err)
		led.SetState(dispatch.StateError)
		return
	}

	tr := transmitter.New(r, useFEC)
	tr.Logger = logger
	stats := tr.SendMultiple(context.Background(), matches, os.ReadFile)

	logger.Info("TX-MULTI complete", "succeeded", stats.Succeeded, "failed", stats.Failed, "total", stats.Total)
	statusSrv.SetLast(status.Info{Mode: "tx-multi", Bytes: stats.Total, Success: stats.Failed == 0, Timestamp: time.Now()})
	if stats.Failed > 0 {
		led.SetState(dispatch.StateError)
		return
	}
	led.SetState(dispatch.StateCompleted)
}
