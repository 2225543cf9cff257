/*
Package monitoring provides Prometheus-based metrics for the kernel core.

# Overview

Tracks the scheduler (context switches, preemptions, ready-queue length),
IPC (messages sent/delivered, blocked senders), interrupts (dispatched and
dropped per line), memory (frames in use), and the syscall HTTP surface.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	metrics.RecordContextSwitch()
	metrics.RecordInterruptDropped(line)

# Metrics Endpoint

Expose via the standard Prometheus handler:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

A JSON snapshot of headline counters is available for dashboards that do not
scrape Prometheus, via Metrics.Snapshot.
*/
package monitoring
