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
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout retryable", err: ErrTransportTimeout, want: true},
		{name: "transport read retryable", err: ErrTransportRead, want: true},
		{name: "transport write retryable", err: ErrTransportWrite, want: true},
		{name: "frame corrupted retryable", err: ErrFrameCorrupted, want: true},
		{name: "checksum mismatch retryable", err: ErrChecksumMismatch, want: true},
		{name: "unexpected TFI retryable", err: ErrUnexpectedTFI, want: true},
		{name: "data too large not retryable", err: ErrDataTooLarge, want: false},
		{name: "invalid UID not retryable", err: ErrInvalidUID, want: false},
		{
			name: "wrapped retryable error",
			err:  fmt.Errorf("read frame: %w", ErrChecksumMismatch),
			want: true,
		},
		{
			name: "flattened message is not retryable",
			err:  errors.New("outer: " + ErrTransportTimeout.Error()),
			want: false,
		},
		{
			name: "transient transport error",
			err:  NewTransportReadError("ReadFrame", "/dev/ttyUSB0"),
			want: true,
		},
		{
			name: "permanent transport error",
			err:  NewDataTooLargeError("WriteFrame", "/dev/ttyUSB0"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport closed is fatal", err: ErrTransportClosed, want: true},
		{name: "EOF is fatal", err: io.EOF, want: true},
		{name: "closed pipe is fatal", err: io.ErrClosedPipe, want: true},
		{name: "transport timeout is not fatal", err: ErrTransportTimeout, want: false},
		{name: "transport read is not fatal", err: ErrTransportRead, want: false},
		{name: "random error is not fatal", err: errors.New("random error"), want: false},
		{
			name: "permanent transport error is fatal",
			err:  NewTransportError("read", "/dev/ttyUSB0", errors.New("device disconnected"), ErrorTypePermanent),
			want: true,
		},
		{
			name: "transient transport error is not fatal",
			err:  NewTransportError("read", "/dev/ttyUSB0", ErrTransportTimeout, ErrorTypeTransient),
			want: false,
		},
		{name: "EIO is fatal", err: syscall.EIO, want: true},
		{name: "ENXIO is fatal", err: syscall.ENXIO, want: true},
		{name: "ENODEV is fatal", err: syscall.ENODEV, want: true},
		{name: "wrapped EIO is fatal", err: fmt.Errorf("write failed: %w", syscall.EIO), want: true},
		{name: "EAGAIN is not fatal", err: syscall.EAGAIN, want: false},
		{name: "EINTR is not fatal", err: syscall.EINTR, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestTransportErrorConstructors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err       *TransportError
		wantErr   error
		name      string
		wantType  ErrorType
		retryable bool
	}{
		{name: "frame corrupted", err: NewFrameCorruptedError("op", "p"), wantErr: ErrFrameCorrupted,
			wantType: ErrorTypeTransient, retryable: true},
		{name: "data too large", err: NewDataTooLargeError("op", "p"), wantErr: ErrDataTooLarge,
			wantType: ErrorTypePermanent, retryable: false},
		{name: "write", err: NewTransportWriteError("op", "p"), wantErr: ErrTransportWrite,
			wantType: ErrorTypeTransient, retryable: true},
		{name: "read", err: NewTransportReadError("op", "p"), wantErr: ErrTransportRead,
			wantType: ErrorTypeTransient, retryable: true},
		{name: "checksum", err: NewChecksumMismatchError("op", "p"), wantErr: ErrChecksumMismatch,
			wantType: ErrorTypeTransient, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.err, tt.wantErr)
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.retryable, tt.err.Retryable())
			assert.Equal(t, "op", tt.err.Op)
			assert.Equal(t, "p", tt.err.Port)
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewTransportReadError("ReadFrame", "/dev/ttyUSB0")
	assert.Equal(t, "ReadFrame /dev/ttyUSB0: transport read failed", err.Error())

	err = NewTransportReadError("ReadFrame", "")
	assert.Equal(t, "ReadFrame: transport read failed", err.Error())

	wrapped := fmt.Errorf("serve: %w", err)
	var te *TransportError
	require.ErrorAs(t, wrapped, &te)
	assert.Equal(t, "ReadFrame", te.Op)
}

func TestErrorTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "transient", ErrorTypeTransient.String())
	assert.Equal(t, "permanent", ErrorTypePermanent.String())
}

