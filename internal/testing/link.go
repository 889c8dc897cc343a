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
	"context"
	"errors"
	"time"

	"github.com/ZaparooProject/go-picc/internal/syncutil"
)

// ErrLinkClosed is returned by a MockLink after Close
var ErrLinkClosed = errors.New("mock link closed")

// LinkFrame is one frame, or one error, passing through a MockLink
type LinkFrame struct {
	Err  error
	Data []byte
	Bits int
}

// MockLink is an in-memory frame link. Frames pushed by the test are
// returned by ReadFrame in order; frames written are recorded.
type MockLink struct {
	incoming chan LinkFrame
	written  chan LinkFrame
	writeErr []error
	closed   bool
	mu       syncutil.Mutex
}

// NewMockLink returns an open link with room for 64 frames each way
func NewMockLink() *MockLink {
	return &MockLink{
		incoming: make(chan LinkFrame, 64),
		written:  make(chan LinkFrame, 64),
	}
}

// Push queues a frame received from the PCD
func (m *MockLink) Push(data []byte, bits int) {
	m.incoming <- LinkFrame{Data: append([]byte(nil), data...), Bits: bits}
}

// PushError makes the next ReadFrame fail with err
func (m *MockLink) PushError(err error) {
	m.incoming <- LinkFrame{Err: err}
}

// FailWrites makes the next writes fail with errs, one per write
func (m *MockLink) FailWrites(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = append(m.writeErr, errs...)
}

// ReadFrame implements the link interface
func (m *MockLink) ReadFrame(ctx context.Context) ([]byte, int, error) {
	if m.isClosed() {
		return nil, 0, ErrLinkClosed
	}
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case f := <-m.incoming:
		return f.Data, f.Bits, f.Err
	}
}

// WriteFrame implements the link interface
func (m *MockLink) WriteFrame(_ context.Context, data []byte, bits int) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrLinkClosed
	}
	if len(m.writeErr) > 0 {
		err := m.writeErr[0]
		m.writeErr = m.writeErr[1:]
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	m.written <- LinkFrame{Data: append([]byte(nil), data...), Bits: bits}
	return nil
}

// Close implements the link interface
func (m *MockLink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockLink) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Next waits up to timeout for the next written frame
func (m *MockLink) Next(timeout time.Duration) (LinkFrame, bool) {
	select {
	case f := <-m.written:
		return f, true
	case <-time.After(timeout):
		return LinkFrame{}, false
	}
}
