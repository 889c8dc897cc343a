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

// Package spi connects an engine to an RF front-end on an SPI bus. The
// front-end is the bus slave, signals a pending air frame through its
// status byte and shifts bytes LSB first.
package spi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/ZaparooProject/go-picc"
	"github.com/ZaparooProject/go-picc/internal/frame"
	"github.com/ZaparooProject/go-picc/internal/syncutil"
)

const (
	// SPI protocol constants
	spiStatRead  = 0x02
	spiDataWrite = 0x01
	spiDataRead  = 0x03
	spiReady     = 0x01

	// preamble, start code, LEN, LCS
	headerLen = 5

	defaultFreq  = 1 * physic.MegaHertz
	mode         = spi.Mode0 // CPOL=0, CPHA=0 (LSB first is handled by bit reversal)
	pollInterval = 2 * time.Millisecond
	txDelay      = time.Millisecond
)

// Conn is the part of spi.Conn the link needs
type Conn interface {
	Tx(w, r []byte) error
}

// Link implements picc.Link over SPI
type Link struct {
	port     spi.PortCloser
	conn     Conn
	portName string
	mu       syncutil.Mutex
}

// New opens the SPI port by name through the periph registry
func New(portName string) (*Link, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(defaultFreq, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	link := NewWithConn(conn, portName)
	link.port = port
	return link, nil
}

// NewWithConn builds a link on an already connected bus
func NewWithConn(conn Conn, portName string) *Link {
	return &Link{conn: conn, portName: portName}
}

// reverseBit reverses the bits in a byte (LSB <-> MSB)
func reverseBit(b byte) byte {
	var result byte
	for range 8 {
		result <<= 1
		result |= b & 1
		b >>= 1
	}
	return result
}

// reverseBytes returns a copy of data with the bits of every byte reversed
func reverseBytes(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = reverseBit(b)
	}
	return out
}

// ReadFrame implements picc.Link. It polls the status byte until the
// front-end has a frame, then reads the header and the rest of the frame.
func (l *Link) ReadFrame(ctx context.Context) ([]byte, int, error) {
	for {
		data, bits, ready, err := l.tryRead()
		if err != nil || ready {
			return data, bits, err
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, 0, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Link) tryRead() (data []byte, bits int, ready bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	status := make([]byte, 2)
	if err := l.conn.Tx([]byte{reverseBit(spiStatRead), 0}, status); err != nil {
		return nil, 0, false, fmt.Errorf("SPI status read failed: %w",
			picc.NewTransportError("status", l.portName, err, picc.ErrorTypeTransient))
	}
	if reverseBit(status[1]) != spiReady {
		return nil, 0, false, nil
	}

	raw := make([]byte, headerLen+1)
	if err := l.conn.Tx([]byte{reverseBit(spiDataRead)}, raw); err != nil {
		return nil, 0, true, picc.NewTransportReadError("header", l.portName)
	}
	header := reverseBytes(raw[1:])
	length := int(header[3])
	if header[0] != frame.Preamble || header[1] != frame.StartCode1 || header[2] != frame.StartCode2 ||
		byte(length)+header[4] != 0 {
		return nil, 0, true, picc.NewFrameCorruptedError("header", l.portName)
	}

	// TFI, VB, data, DCS, postamble
	raw = make([]byte, length+2+1)
	time.Sleep(txDelay)
	if err := l.conn.Tx([]byte{reverseBit(spiDataRead)}, raw); err != nil {
		return nil, 0, true, picc.NewTransportReadError("data", l.portName)
	}

	full := append(header, reverseBytes(raw[1:])...)
	data, bits, _, err = frame.DecodeLinkFrame(full, frame.ReaderToCard)
	if err != nil {
		picc.Debugf("SPI %s: bad link frame % X: %v", l.portName, full, err)
		return nil, 0, true, picc.NewTransportError("data", l.portName, err, picc.ErrorTypeTransient)
	}
	return data, bits, true, nil
}

// WriteFrame implements picc.Link
func (l *Link) WriteFrame(ctx context.Context, data []byte, bits int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frm, err := frame.EncodeLinkFrame(frame.CardToReader, data, bits)
	if errors.Is(err, frame.ErrDataTooLarge) {
		return picc.NewDataTooLargeError("write", l.portName)
	}
	if err != nil {
		return fmt.Errorf("SPI encode failed: %w", err)
	}

	out := make([]byte, 0, len(frm)+1)
	out = append(out, reverseBit(spiDataWrite))
	out = append(out, reverseBytes(frm)...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.conn.Tx(out, nil); err != nil {
		return picc.NewTransportWriteError("write", l.portName)
	}
	return nil
}

// Close closes the SPI port
func (l *Link) Close() error {
	if l.port != nil {
		if err := l.port.Close(); err != nil {
			return fmt.Errorf("SPI close failed: %w", err)
		}
	}
	return nil
}

var _ picc.Link = (*Link)(nil)
