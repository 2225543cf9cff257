package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "9600", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, 4, cfg.Kernel.Quantum)
	assert.Equal(t, 64, cfg.Kernel.MaxProcesses)
	assert.Equal(t, 8, cfg.Kernel.MailboxCapacity)
	assert.Equal(t, 4096, cfg.Kernel.MaxPayload)
	assert.Equal(t, 1024, cfg.Kernel.Frames)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.True(t, cfg.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "9700")
	t.Setenv("KERNEL_QUANTUM", "8")
	t.Setenv("KERNEL_MAILBOX_CAPACITY", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9700", cfg.Server.Port)
	assert.Equal(t, 8, cfg.Kernel.Quantum)
	assert.Equal(t, 2, cfg.Kernel.MailboxCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset values keep defaults
	assert.Equal(t, 64, cfg.Kernel.MaxProcesses)
}

func TestValidateRejectsBadTuning(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero quantum", func(c *Config) { c.Kernel.Quantum = 0 }},
		{"empty table", func(c *Config) { c.Kernel.MaxProcesses = 0 }},
		{"zero mailbox", func(c *Config) { c.Kernel.MailboxCapacity = 0 }},
		{"stack exceeds frames", func(c *Config) { c.Kernel.Frames = 2; c.Kernel.StackFrames = 4 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.yaml")
	content := []byte("kernel:\n  quantum: 16\n  max_processes: 8\n  mailbox_capacity: 4\n  max_payload: 512\n  frames: 128\n  stack_frames: 2\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	assert.Equal(t, 16, cfg.Kernel.Quantum)
	assert.Equal(t, 8, cfg.Kernel.MaxProcesses)
	// Sections absent from the file are untouched
	assert.Equal(t, "9600", cfg.Server.Port)
}

func TestLoadFilePartialSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.yaml")
	content := []byte("rate_limit:\n  requests_per_second: 5\nkernel:\n  quantum: 16\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	assert.Equal(t, 5, cfg.RateLimit.RequestsPerSecond)
	// Keys absent from a present section keep their prior values
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2000, cfg.RateLimit.Burst)
	assert.Equal(t, 16, cfg.Kernel.Quantum)
	assert.Equal(t, 64, cfg.Kernel.MaxProcesses)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	assert.Error(t, LoadFile(cfg, filepath.Join(t.TempDir(), "absent.yaml")))
}
