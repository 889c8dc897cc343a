//go:build deadlock

// Package syncutil provides the mutex types guarding engines and loggers that
// are shared between goroutines. This file is compiled with -tags=deadlock.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex wraps deadlock.Mutex for deadlock detection.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex wraps deadlock.RWMutex for deadlock detection.
type RWMutex struct {
	deadlock.RWMutex
}

// Enabled reports whether deadlock detection is compiled in.
const Enabled = true
