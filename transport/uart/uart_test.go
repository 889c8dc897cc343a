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

package uart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-picc"
	"github.com/ZaparooProject/go-picc/internal/frame"
	testutil "github.com/ZaparooProject/go-picc/internal/testing"
)

// jitteryPort fragments reads from a simulated front-end
type jitteryPort struct {
	*testutil.JitteryPort
	fe *testutil.FrontEnd
}

func (p *jitteryPort) Drain() error                         { return p.fe.Drain() }
func (p *jitteryPort) SetReadTimeout(d time.Duration) error { return p.fe.SetReadTimeout(d) }
func (p *jitteryPort) Close() error                         { return p.fe.Close() }

func newTestLink(t *testing.T, jitter bool) (*Link, *testutil.FrontEnd) {
	t.Helper()
	fe := testutil.NewFrontEnd()
	var port Port = fe
	if jitter {
		cfg := testutil.DefaultJitterConfig()
		cfg.MaxLatency = 0
		cfg.Seed = 7
		port = &jitteryPort{JitteryPort: testutil.NewJitteryPort(fe, cfg), fe: fe}
	}
	link, err := NewWithPort(port, "test")
	require.NoError(t, err)
	return link, fe
}

func readCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestReadFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		bits int
	}{
		{name: "REQA short frame", data: []byte{0x26}, bits: 7},
		{name: "RATS", data: []byte{0xE0, 0x80, 0x31, 0x73}, bits: 32},
		{name: "field off", data: nil, bits: 0},
	}

	for _, tt := range tests {
		for _, jitter := range []bool{false, true} {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				link, fe := newTestLink(t, jitter)
				require.NoError(t, fe.Receive(tt.data, tt.bits))

				data, bits, err := link.ReadFrame(readCtx(t))
				require.NoError(t, err)
				assert.Equal(t, tt.bits, bits)
				assert.Equal(t, frame.AsBytes(tt.bits), len(data))
				if tt.bits > 0 {
					assert.Equal(t, tt.data, data)
				}
			})
		}
	}
}

func TestReadFrameSkipsGarbageAndCorruptFrames(t *testing.T) {
	t.Parallel()

	link, fe := newTestLink(t, true)

	fe.ReceiveRaw([]byte{0x55, 0x13, 0x37})
	corrupt, err := frame.EncodeLinkFrame(frame.ReaderToCard, []byte{0x52}, 7)
	require.NoError(t, err)
	corrupt[len(corrupt)-2] ^= 0xFF // DCS
	fe.ReceiveRaw(corrupt)
	wrongDir, err := frame.EncodeLinkFrame(frame.CardToReader, []byte{0x44, 0x03}, 16)
	require.NoError(t, err)
	fe.ReceiveRaw(wrongDir)
	require.NoError(t, fe.Receive([]byte{0x93, 0x20}, 16))

	data, bits, err := link.ReadFrame(readCtx(t))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x93, 0x20}, data)
	assert.Equal(t, 16, bits)
}

func TestReadFrameSequence(t *testing.T) {
	t.Parallel()

	link, fe := newTestLink(t, true)
	frames := [][]byte{{0x26}, {0x93, 0x20}, {0xE0, 0x80, 0x31, 0x73}}
	for _, f := range frames {
		require.NoError(t, fe.Receive(f, frame.AsBits(len(f))))
	}

	for _, want := range frames {
		data, _, err := link.ReadFrame(readCtx(t))
		require.NoError(t, err)
		assert.Equal(t, want, data)
	}
}

func TestReadFrameContextCancelled(t *testing.T) {
	t.Parallel()

	link, _ := newTestLink(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := link.ReadFrame(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWriteFrame(t *testing.T) {
	t.Parallel()

	link, fe := newTestLink(t, false)

	require.NoError(t, link.WriteFrame(context.Background(), []byte{0x44, 0x03}, 16))
	require.NoError(t, link.WriteFrame(context.Background(), []byte{0xA2}, 4))

	sent := fe.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, []byte{0x44, 0x03}, sent[0].Data)
	assert.Equal(t, 16, sent[0].Bits)
	assert.Equal(t, []byte{0xA2}, sent[1].Data)
	assert.Equal(t, 4, sent[1].Bits)
	assert.Equal(t, 2, fe.Drains())
}

func TestWriteFrameTooLarge(t *testing.T) {
	t.Parallel()

	link, _ := newTestLink(t, false)
	err := link.WriteFrame(context.Background(), make([]byte, 300), 2400)
	require.ErrorIs(t, err, picc.ErrDataTooLarge)
	assert.True(t, picc.IsFatal(err))
}

func TestWriteAfterCloseIsRetryable(t *testing.T) {
	t.Parallel()

	link, _ := newTestLink(t, false)
	require.NoError(t, link.Close())

	err := link.WriteFrame(context.Background(), []byte{0x00}, 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, testutil.ErrFrontEndClosed))
	assert.True(t, picc.IsRetryable(err))
}

func TestIsInterruptedSystemCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "EINTR", err: errors.New("read: EINTR"), want: true},
		{name: "interrupted", err: errors.New("interrupted system call"), want: true},
		{name: "other", err: errors.New("device not configured"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isInterruptedSystemCall(tt.err))
		})
	}
}
