// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package picc

import (
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-picc/internal/syncutil"
)

// Event tags a protocol log entry.
type Event int

// Protocol log events
const (
	EventISO14443_3AState Event = iota
	EventISO14443_4State
	EventREQA
	EventWUPA
	EventHalt
	EventDeselect
	EventChecksumFail
	EventUnimplemented
	EventIncomingData
	EventOutgoingData
	EventRetryReset
)

var eventNames = [...]string{
	EventISO14443_3AState: "ISO14443-3A-STATE",
	EventISO14443_4State:  "ISO14443-4-STATE",
	EventREQA:             "CMD-REQA",
	EventWUPA:             "CMD-WUPA",
	EventHalt:             "CMD-HALT",
	EventDeselect:         "CMD-DESELECT",
	EventChecksumFail:     "ERR-CHECKSUM",
	EventUnimplemented:    "UNIMPLEMENTED",
	EventIncomingData:     "DATA-IN",
	EventOutgoingData:     "DATA-OUT",
	EventRetryReset:       "RETRY-RESET",
}

func (e Event) String() string {
	if e >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Logger receives protocol events. Implementations must not block and
// must tolerate any data, including nil. The engine ignores everything
// a Logger does.
type Logger interface {
	Log(event Event, data []byte)
}

// NopLogger discards all events.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(Event, []byte) {}

// DebugLogger forwards events to Debugf, so they reach the console when
// debug mode is on and the session log when one is open.
type DebugLogger struct{}

// Log implements Logger.
func (DebugLogger) Log(event Event, data []byte) {
	if len(data) == 0 {
		Debugf("%s", event)
		return
	}
	Debugf("%s %s", event, formatHexBytes(data))
}

// TraceLogger writes one timestamped text line per event to a writer.
// It is safe for concurrent use.
type TraceLogger struct {
	w   io.Writer
	now func() time.Time
	mu  syncutil.Mutex
}

// NewTraceLogger returns a TraceLogger writing to w.
func NewTraceLogger(w io.Writer) *TraceLogger {
	return &TraceLogger{w: w, now: time.Now}
}

// Log implements Logger. Write errors are dropped.
func (l *TraceLogger) Log(event Event, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().Format("15:04:05.000")
	if len(data) == 0 {
		_, _ = fmt.Fprintf(l.w, "%s %-17s\n", ts, event)
		return
	}
	_, _ = fmt.Fprintf(l.w, "%s %-17s %s\n", ts, event, formatHexBytes(data))
}

// MultiLogger fans an event out to several loggers.
type MultiLogger []Logger

// Log implements Logger.
func (m MultiLogger) Log(event Event, data []byte) {
	for _, l := range m {
		if l != nil {
			l.Log(event, data)
		}
	}
}
