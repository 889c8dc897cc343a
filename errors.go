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
	"runtime"
	"syscall"

	"github.com/ZaparooProject/go-picc/internal/frame"
)

// Link errors
var (
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportClosed  = errors.New("transport is closed")

	// Link framing errors come from the frame codec
	ErrFrameCorrupted   = frame.ErrFrameCorrupted
	ErrChecksumMismatch = frame.ErrChecksumMismatch
	ErrUnexpectedTFI    = frame.ErrUnexpectedTFI
	ErrDataTooLarge     = frame.ErrDataTooLarge
)

// Configuration errors
var (
	ErrNilExecutor      = errors.New("command executor is nil")
	ErrInvalidUID       = errors.New("invalid UID length")
	ErrInvalidATS       = errors.New("invalid ATS")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// retryableErrors fail one exchange but leave the link usable
var retryableErrors = []error{
	ErrTransportTimeout,
	ErrTransportRead,
	ErrTransportWrite,
	ErrFrameCorrupted,
	ErrChecksumMismatch,
	ErrUnexpectedTFI,
}

// fatalErrors mean the link is gone
var fatalErrors = []error{
	ErrTransportClosed,
	io.EOF,
	io.ErrClosedPipe,
}

// ErrorType tells transient link failures from permanent ones
type ErrorType int

const (
	// ErrorTypeTransient failures may succeed when retried
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent failures end the session
	ErrorTypePermanent
)

func (t ErrorType) String() string {
	if t == ErrorTypePermanent {
		return "permanent"
	}
	return "transient"
}

// TransportError is a link failure tagged with the operation and port
type TransportError struct {
	Err  error
	Op   string
	Port string
	Type ErrorType
}

// NewTransportError tags err with the failed operation and port
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err, Type: errType}
}

// NewFrameCorruptedError reports an undecodable link frame
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, ErrorTypeTransient)
}

// NewChecksumMismatchError reports a link frame with a bad checksum
func NewChecksumMismatchError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrChecksumMismatch, ErrorTypeTransient)
}

// NewDataTooLargeError reports a response that cannot be framed. Retrying
// the same response cannot help.
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

// NewTransportReadError reports a failed read from the link
func NewTransportReadError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportRead, ErrorTypeTransient)
}

// NewTransportWriteError reports a failed write to the link
func NewTransportWriteError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportWrite, ErrorTypeTransient)
}

func (e *TransportError) Error() string {
	if e.Port == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failed operation may be tried again
func (e *TransportError) Retryable() bool {
	return e.Type == ErrorTypeTransient
}

// IsRetryable reports whether err is a link failure worth retrying. A
// TransportError decides by its type; other errors by the sentinel they wrap.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return isAny(err, retryableErrors)
}

// IsFatal reports whether serving must stop because the link is gone
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermanent
	}
	return isAny(err, fatalErrors) || isDeviceGone(err)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Windows codes for an unplugged device. syscall only names them on Windows.
const (
	winAccessDenied syscall.Errno = 5
	winGenFailure   syscall.Errno = 31
	winNoSuchDevice syscall.Errno = 433
)

// isDeviceGone spots the OS errors of a USB adapter or SPI device that was
// pulled while in use
func isDeviceGone(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	//nolint:exhaustive // only device-gone codes matter
	switch errno {
	case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
		return true
	}
	if runtime.GOOS != "windows" {
		return false
	}
	//nolint:exhaustive // only device-gone codes matter
	switch errno {
	case winAccessDenied, winGenFailure, winNoSuchDevice:
		return true
	}
	return false
}
