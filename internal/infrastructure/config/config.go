package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all kernel configuration.
type Config struct {
	Server    ServerConfig
	Kernel    KernelConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the syscall HTTP surface configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"9600" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// KernelConfig holds scheduler, IPC and memory tuning.
type KernelConfig struct {
	// Quantum is the number of timer ticks a process runs before preemption.
	Quantum int `envconfig:"KERNEL_QUANTUM" default:"4" yaml:"quantum"`
	// MaxProcesses bounds the process table.
	MaxProcesses int `envconfig:"KERNEL_MAX_PROCESSES" default:"64" yaml:"max_processes"`
	// MailboxCapacity bounds each per-process message queue.
	MailboxCapacity int `envconfig:"KERNEL_MAILBOX_CAPACITY" default:"8" yaml:"mailbox_capacity"`
	// MaxPayload is the largest accepted message payload in bytes.
	MaxPayload int `envconfig:"KERNEL_MAX_PAYLOAD" default:"4096" yaml:"max_payload"`
	// Frames is the size of the simulated physical memory in frames.
	Frames int `envconfig:"KERNEL_FRAMES" default:"1024" yaml:"frames"`
	// StackFrames is the number of frames backing each process stack.
	StackFrames int `envconfig:"KERNEL_STACK_FRAMES" default:"4" yaml:"stack_frames"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration for the syscall surface.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"1000" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"2000" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "9600",
			Host: "0.0.0.0",
		},
		Kernel: KernelConfig{
			Quantum:         4,
			MaxProcesses:    64,
			MailboxCapacity: 8,
			MaxPayload:      4096,
			Frames:          1024,
			StackFrames:     4,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             2000,
			Enabled:           true,
		},
	}
}

// Validate rejects tunings the kernel cannot run with.
func (c *Config) Validate() error {
	if c.Kernel.Quantum < 1 {
		return fmt.Errorf("quantum must be at least 1 tick, got %d", c.Kernel.Quantum)
	}
	if c.Kernel.MaxProcesses < 1 {
		return fmt.Errorf("process table needs at least 1 slot, got %d", c.Kernel.MaxProcesses)
	}
	if c.Kernel.MailboxCapacity < 1 {
		return fmt.Errorf("mailbox capacity must be at least 1, got %d", c.Kernel.MailboxCapacity)
	}
	if c.Kernel.StackFrames < 1 || c.Kernel.Frames < c.Kernel.StackFrames {
		return fmt.Errorf("frame budget %d cannot back %d-frame stacks", c.Kernel.Frames, c.Kernel.StackFrames)
	}
	return nil
}
