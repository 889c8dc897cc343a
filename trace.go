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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/go-picc/internal/frame"
)

const (
	defaultTraceSize = 16
	// maxHexBytes bounds how much of a frame is printed
	maxHexBytes = 32
	traceTime   = "15:04:05.000"
)

// TraceDirection is RX for frames from the PCD and TX for frames to it
type TraceDirection string

const (
	TraceRX TraceDirection = "RX"
	TraceTX TraceDirection = "TX"
)

// TraceEntry is one frame seen on the air interface
type TraceEntry struct {
	Timestamp time.Time
	Direction TraceDirection
	Note      string
	Data      []byte
	Bits      int
}

func (e TraceEntry) String() string {
	s := fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format(traceTime), e.Direction, formatFrame(e.Data, e.Bits))
	if e.Note != "" {
		s += " (" + e.Note + ")"
	}
	return s
}

// TraceableError carries the frames exchanged before a link failed:
//
//	var te *picc.TraceableError
//	if errors.As(err, &te) {
//	    log.Print(te.FormatTrace())
//	}
type TraceableError struct {
	Err   error
	Port  string
	Trace []TraceEntry
}

func (e *TraceableError) Error() string {
	return e.Err.Error()
}

func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace renders the trace one frame per line, < for received frames
// and > for sent ones
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[%s] (no trace data)", e.Port)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] Air trace (%d entries):\n", e.Port, len(e.Trace))
	for _, entry := range e.Trace {
		arrow := '<'
		if entry.Direction == TraceTX {
			arrow = '>'
		}
		fmt.Fprintf(&sb, "  %c %s", arrow, formatFrame(entry.Data, entry.Bits))
		if entry.Note != "" {
			fmt.Fprintf(&sb, " (%s)", entry.Note)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TraceBuffer is a ring of the most recent frames of a session. It is not
// safe for concurrent use; Serve owns its buffer.
type TraceBuffer struct {
	port    string
	entries []TraceEntry
	next    int
	full    bool
}

// NewTraceBuffer returns a ring holding up to size frames
func NewTraceBuffer(port string, size int) *TraceBuffer {
	if size <= 0 {
		size = defaultTraceSize
	}
	return &TraceBuffer{port: port, entries: make([]TraceEntry, size)}
}

// RecordRX records a frame received from the PCD
func (tb *TraceBuffer) RecordRX(data []byte, bits int, note string) {
	tb.record(TraceRX, data, bits, note)
}

// RecordTX records a frame sent to the PCD
func (tb *TraceBuffer) RecordTX(data []byte, bits int, note string) {
	tb.record(TraceTX, data, bits, note)
}

func (tb *TraceBuffer) record(dir TraceDirection, data []byte, bits int, note string) {
	tb.entries[tb.next] = TraceEntry{
		Timestamp: time.Now(),
		Direction: dir,
		Note:      note,
		Data:      append([]byte(nil), data...),
		Bits:      bits,
	}
	tb.next = (tb.next + 1) % len(tb.entries)
	if tb.next == 0 {
		tb.full = true
	}
}

// Entries returns the recorded frames, oldest first
func (tb *TraceBuffer) Entries() []TraceEntry {
	if !tb.full {
		return append([]TraceEntry(nil), tb.entries[:tb.next]...)
	}
	out := make([]TraceEntry, 0, len(tb.entries))
	out = append(out, tb.entries[tb.next:]...)
	return append(out, tb.entries[:tb.next]...)
}

// WrapError attaches the recorded frames to err. A nil err stays nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &TraceableError{Err: err, Port: tb.port, Trace: tb.Entries()}
}

// TraceOf returns the trace attached to err, if any
func TraceOf(err error) (*TraceableError, bool) {
	var te *TraceableError
	ok := errors.As(err, &te)
	return te, ok
}

// formatHexBytes prints up to maxHexBytes bytes as spaced hex
func formatHexBytes(data []byte) string {
	switch {
	case len(data) == 0:
		return "(empty)"
	case len(data) > maxHexBytes:
		return fmt.Sprintf("% X ... (%d bytes total)", data[:maxHexBytes], len(data))
	default:
		return fmt.Sprintf("% X", data)
	}
}

// formatFrame is formatHexBytes with the bit length of short frames
func formatFrame(data []byte, bits int) string {
	s := formatHexBytes(data)
	if bits%frame.BitsPerByte != 0 {
		s += fmt.Sprintf(" [%d bits]", bits)
	}
	return s
}
