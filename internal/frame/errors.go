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

package frame

import "errors"

var (
	// ErrBufferOverflow is returned when a write would exceed MaxFrameSize
	ErrBufferOverflow = errors.New("frame buffer overflow")
	// ErrOutOfRange is returned for reads or writes past the current length
	ErrOutOfRange = errors.New("frame index out of range")

	// ErrFrameCorrupted indicates a link frame with a broken structure
	ErrFrameCorrupted = errors.New("link frame corrupted")
	// ErrChecksumMismatch indicates a link frame with a bad LCS or DCS
	ErrChecksumMismatch = errors.New("link frame checksum mismatch")
	// ErrUnexpectedTFI indicates a link frame travelling in the wrong direction
	ErrUnexpectedTFI = errors.New("unexpected link frame identifier")
	// ErrIncompleteFrame indicates more bytes are needed to decode a link frame
	ErrIncompleteFrame = errors.New("link frame incomplete")
	// ErrDataTooLarge indicates a payload that does not fit a link frame
	ErrDataTooLarge = errors.New("link frame payload too large")
)
