// Package config loads the handful of knobs the link layer needs: a
// YAML file for the usual case plus CLI flags that override it, the
// same precedence the teacher gives command-line options over
// direwolf.conf.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds everything a daemon binary needs to bring up a Radio
// and run a transfer.
type Config struct {
	SerialDevice   string `yaml:"serial_device"`
	Baud           int    `yaml:"baud"`
	Channel        int    `yaml:"channel"`
	UseFEC         bool   `yaml:"use_fec"`
	ReceiveDir     string `yaml:"receive_dir"`
	TextsDir       string `yaml:"texts_dir"`
	LogLevel       string `yaml:"log_level"`
	LogFilePattern string `yaml:"log_file_pattern"`
	LogMaxSizeMB   int    `yaml:"log_max_size_mb"`
	LogMaxBackups  int    `yaml:"log_max_backups"`

	ButtonChip   string `yaml:"button_chip"`
	ButtonOffset int    `yaml:"button_offset"`
	LEDChip      string `yaml:"led_chip"`
	LEDGreen     int    `yaml:"led_green"`
	LEDYellow    int    `yaml:"led_yellow"`
	LEDRed       int    `yaml:"led_red"`
}

// Default returns the baseline configuration, overridden first by an
// optional YAML file and then by CLI flags.
func Default() Config {
	return Config{
		Baud:           115200,
		Channel:        90,
		UseFEC:         true,
		ReceiveDir:     "received",
		TextsDir:       "Textos",
		LogLevel:       "info",
		LogFilePattern: "nrf24xfer-%Y%m%d.log",
		LogMaxSizeMB:   5,
		LogMaxBackups:  3,

		ButtonChip:   "gpiochip0",
		ButtonOffset: 27,
		LEDChip:      "gpiochip0",
		LEDGreen:     17,
		LEDYellow:    22,
		LEDRed:       23,
	}
}

// Load reads an optional YAML config file (if path is non-empty and
// exists) over Default(), then layers the given flag set's explicitly
// set flags on top. fs must already have been registered with
// RegisterFlags and Parse()d by the caller.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyFlags(&cfg, fs)
	return cfg, nil
}

// RegisterFlags adds the CLI flags Load consults, mirroring
// cmd/direwolf/main.go's long+short pflag style.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("serial-device", "s", "", "Serial device path for the radio's UART bridge.")
	fs.IntP("baud", "b", 0, "Serial baud rate. 0 leaves the config file value.")
	fs.Int("channel", 0, "Radio channel (0 leaves the config file value).")
	fs.Bool("fec", false, "Force-enable Reed-Solomon FEC.")
	fs.Bool("no-fec", false, "Force-disable Reed-Solomon FEC.")
	fs.StringP("receive-dir", "r", "", "Directory to save received files in.")
	fs.StringP("texts-dir", "t", "", "Directory of files to send in TX-MULTI mode.")
	fs.StringP("log-level", "l", "", "Log level: debug, info, warn, error.")
	fs.String("log-file-pattern", "", "strftime pattern for the daily log file name, e.g. nrf24xfer-%Y%m%d.log.")
	fs.Int("log-max-size-mb", 0, "Rotate the log file after it reaches this many megabytes (0 leaves the config file value).")
	fs.Int("log-max-backups", -1, "Number of rotated log files to keep (-1 leaves the config file value).")
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	if fs.Changed("serial-device") {
		cfg.SerialDevice, _ = fs.GetString("serial-device")
	}
	if fs.Changed("baud") {
		cfg.Baud, _ = fs.GetInt("baud")
	}
	if fs.Changed("channel") {
		cfg.Channel, _ = fs.GetInt("channel")
	}
	if fs.Changed("fec") {
		cfg.UseFEC = true
	}
	if fs.Changed("no-fec") {
		cfg.UseFEC = false
	}
	if fs.Changed("receive-dir") {
		cfg.ReceiveDir, _ = fs.GetString("receive-dir")
	}
	if fs.Changed("texts-dir") {
		cfg.TextsDir, _ = fs.GetString("texts-dir")
	}
	if fs.Changed("log-level") {
		cfg.LogLevel, _ = fs.GetString("log-level")
	}
	if fs.Changed("log-file-pattern") {
		cfg.LogFilePattern, _ = fs.GetString("log-file-pattern")
	}
	if fs.Changed("log-max-size-mb") {
		cfg.LogMaxSizeMB, _ = fs.GetInt("log-max-size-mb")
	}
	if fs.Changed("log-max-backups") {
		cfg.LogMaxBackups, _ = fs.GetInt("log-max-backups")
	}
}
