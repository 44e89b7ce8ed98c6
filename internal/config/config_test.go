package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_DefaultsOnly(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func Test_Load_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial_device: /dev/ttyUSB0\nbaud: 57600\n"), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialDevice)
	assert.Equal(t, 57600, cfg.Baud)
	assert.Equal(t, Default().Channel, cfg.Channel)
}

func Test_Load_FlagsOverrideYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baud: 57600\n"), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--baud", "9600"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 9600, cfg.Baud)
}

func Test_Load_MissingFileIsNotAnError(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("/nonexistent/path/config.yaml", fs)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func Test_LogFilePath_ExpandsPattern(t *testing.T) {
	cfg := Default()
	cfg.LogFilePattern = "nrf24xfer-%Y%m%d.log"

	path, err := cfg.LogFilePath(time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "nrf24xfer-20260305.log", path)
}

func Test_LogFilePath_EmptyPatternDisablesFileLogging(t *testing.T) {
	cfg := Default()
	cfg.LogFilePattern = ""

	path, err := cfg.LogFilePath(time.Now())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func Test_LogFileWriter_NilWhenPatternEmpty(t *testing.T) {
	cfg := Default()
	cfg.LogFilePattern = ""

	w, err := cfg.LogFileWriter(time.Now())
	require.NoError(t, err)
	assert.Nil(t, w)
}

func Test_LogFileWriter_OpensRotatorWhenPatternSet(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.LogFilePattern = filepath.Join(dir, "nrf24xfer-%Y%m%d.log")
	cfg.LogMaxSizeMB = 1
	cfg.LogMaxBackups = 2

	w, err := cfg.LogFileWriter(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, w)
	defer w.Close()

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "nrf24xfer-20260305.log"))
}

func Test_Load_NoFECFlagDisablesFEC(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--no-fec"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.False(t, cfg.UseFEC)
}
