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

package testing

import (
	"errors"
	"time"

	"github.com/ZaparooProject/go-picc/internal/frame"
	"github.com/ZaparooProject/go-picc/internal/syncutil"
)

// ErrFrontEndClosed is returned by FrontEnd once closed
var ErrFrontEndClosed = errors.New("front-end closed")

// FrontEnd simulates the serial side of an RF front-end. Frames the test
// makes the front-end "receive" from a PCD are encoded as link frames for
// the host to read; link frames the host writes are decoded and kept.
//
// Read returns (0, nil) after a short wait when nothing is pending, as a
// serial port with a read timeout does.
type FrontEnd struct {
	rx      []byte
	tx      []byte
	sent    []LinkFrame
	drains  int
	closed  bool
	mu      syncutil.Mutex
	timeout time.Duration
}

// NewFrontEnd returns an empty front-end
func NewFrontEnd() *FrontEnd {
	return &FrontEnd{timeout: 5 * time.Millisecond}
}

// Receive queues a frame from the PCD, encoded with TFI D4
func (f *FrontEnd) Receive(data []byte, bits int) error {
	frm, err := frame.EncodeLinkFrame(frame.ReaderToCard, data, bits)
	if err != nil {
		return err
	}
	f.ReceiveRaw(frm)
	return nil
}

// ReceiveRaw queues raw bytes, for garbage and corrupted frames
func (f *FrontEnd) ReceiveRaw(p []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = append(f.rx, p...)
}

// Read implements io.Reader
func (f *FrontEnd) Read(p []byte) (int, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0, ErrFrontEndClosed
	}
	if len(f.rx) == 0 {
		timeout := f.timeout
		f.mu.Unlock()
		time.Sleep(timeout)
		return 0, nil
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	f.mu.Unlock()
	return n, nil
}

// Write implements io.Writer. Complete link frames are decoded as they
// arrive.
func (f *FrontEnd) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrFrontEndClosed
	}
	f.tx = append(f.tx, p...)
	for {
		data, bits, consumed, err := frame.DecodeLinkFrame(f.tx, frame.CardToReader)
		if errors.Is(err, frame.ErrIncompleteFrame) {
			f.tx = f.tx[consumed:]
			return len(p), nil
		}
		f.tx = f.tx[consumed:]
		if err == nil {
			f.sent = append(f.sent, LinkFrame{Data: data, Bits: bits})
		}
	}
}

// Drain implements the drain call of a serial port
func (f *FrontEnd) Drain() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drains++
	return nil
}

// SetReadTimeout sets how long an empty Read waits
func (f *FrontEnd) SetReadTimeout(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = d
	return nil
}

// Close implements io.Closer
func (f *FrontEnd) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Sent returns the frames written by the host so far
func (f *FrontEnd) Sent() []LinkFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]LinkFrame, len(f.sent))
	copy(out, f.sent)
	return out
}

// Drains returns how many times Drain was called
func (f *FrontEnd) Drains() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drains
}
