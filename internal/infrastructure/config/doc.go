// Package config loads kernel configuration from environment variables with
// an optional YAML tuning overlay.
//
// Sources, in order of precedence:
//  1. YAML file passed via -config (per-machine tuning)
//  2. Environment variables (KERNEL_QUANTUM, KERNEL_MAILBOX_CAPACITY, ...)
//  3. Built-in defaults
package config
