// go-picc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-picc.
//
// go-picc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-picc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-picc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package uart connects an engine to an RF front-end over a serial port.
// Frames travel in link framing: air frames from the PCD arrive with TFI
// D4, responses leave with TFI D5.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/ZaparooProject/go-picc"
	"github.com/ZaparooProject/go-picc/internal/frame"
	"github.com/ZaparooProject/go-picc/internal/syncutil"
)

// BaudRate is the front-end serial speed (8N1)
const BaudRate = 115200

const (
	readChunk      = 64
	maxPending     = 4 * (frame.MaxLinkDataLength + frame.MinLinkFrameLength)
	drainRetries   = 3
	drainBaseDelay = 2 * time.Millisecond
)

// Port is the part of serial.Port the link needs
type Port interface {
	io.ReadWriteCloser
	Drain() error
	SetReadTimeout(t time.Duration) error
}

// Link implements picc.Link over a serial port
type Link struct {
	port     Port
	portName string
	pending  []byte
	chunk    []byte
	readMu   syncutil.Mutex
	writeMu  syncutil.Mutex
}

// isWindows returns true if running on Windows
func isWindows() bool {
	return runtime.GOOS == "windows"
}

// readTimeout is how long one port read blocks. Windows drivers need
// longer than Linux and macOS.
func readTimeout() time.Duration {
	if isWindows() {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// New opens portName at BaudRate 8N1
func New(portName string) (*Link, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	link, err := NewWithPort(port, portName)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return link, nil
}

// NewWithPort builds a link on an already open port
func NewWithPort(port Port, portName string) (*Link, error) {
	if err := port.SetReadTimeout(readTimeout()); err != nil {
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}
	return &Link{
		port:     port,
		portName: portName,
		pending:  make([]byte, 0, maxPending),
		chunk:    make([]byte, readChunk),
	}, nil
}

// ReadFrame implements picc.Link. Bytes before a start code and frames with
// a bad checksum or direction are skipped.
func (l *Link) ReadFrame(ctx context.Context) ([]byte, int, error) {
	l.readMu.Lock()
	defer l.readMu.Unlock()

	for {
		data, bits, consumed, err := frame.DecodeLinkFrame(l.pending, frame.ReaderToCard)
		l.pending = l.pending[consumed:]
		switch {
		case err == nil:
			return data, bits, nil
		case !errors.Is(err, frame.ErrIncompleteFrame):
			picc.Debugf("UART %s: dropping link frame: %v", l.portName, err)
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if err := l.fill(); err != nil {
			return nil, 0, err
		}
	}
}

// fill reads whatever the port has within one read timeout
func (l *Link) fill() error {
	n, err := l.port.Read(l.chunk)
	if err != nil {
		if isInterruptedSystemCall(err) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return picc.NewTransportError("read", l.portName, picc.ErrTransportClosed, picc.ErrorTypePermanent)
		}
		return fmt.Errorf("UART read failed: %w", picc.NewTransportError("read", l.portName, err, picc.ErrorTypeTransient))
	}
	if len(l.pending)+n > maxPending {
		// The front-end is sending garbage; keep the newest bytes
		l.pending = l.pending[:0]
	}
	l.pending = append(l.pending, l.chunk[:n]...)
	return nil
}

// WriteFrame implements picc.Link
func (l *Link) WriteFrame(ctx context.Context, data []byte, bits int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frm, err := frame.EncodeLinkFrame(frame.CardToReader, data, bits)
	if err != nil {
		if errors.Is(err, frame.ErrDataTooLarge) {
			return picc.NewDataTooLargeError("write", l.portName)
		}
		return fmt.Errorf("UART encode failed: %w", err)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	n, err := l.port.Write(frm)
	if err != nil {
		return fmt.Errorf("UART write failed: %w", picc.NewTransportError("write", l.portName, err, picc.ErrorTypeTransient))
	}
	if n != len(frm) {
		return picc.NewTransportWriteError("write", l.portName)
	}
	return l.drainWithRetry()
}

// Close closes the port
func (l *Link) Close() error {
	if err := l.port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// drainWithRetry waits for the written frame to leave the port, retrying
// interrupted system calls
func (l *Link) drainWithRetry() error {
	var err error
	for attempt := range drainRetries {
		err = l.port.Drain()
		if err == nil {
			return nil
		}
		if !isInterruptedSystemCall(err) {
			break
		}
		time.Sleep(drainBaseDelay * time.Duration(1<<attempt))
	}
	return fmt.Errorf("UART drain failed: %w", picc.NewTransportError("drain", l.portName, err, picc.ErrorTypeTransient))
}

var _ picc.Link = (*Link)(nil)
