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

import (
	"testing"
)

// =============================================================================
// Fuzz Tests for Frame Parsing
// =============================================================================
// Link frames come from an external RF front-end; malformed input must never
// panic the decoder or the frame buffer.
//
// Run with: go test -fuzz=FuzzDecodeLinkFrame -fuzztime=30s ./internal/frame/

// FuzzDecodeLinkFrame tests link frame decoding with arbitrary input.
func FuzzDecodeLinkFrame(f *testing.F) {
	f.Add([]byte{0x00, 0x00, 0xFF, 0x03, 0xFD, 0xD4, 0x07, 0x26, 0xFF, 0x00})
	f.Add([]byte{})
	f.Add([]byte{0x00, 0xFF})
	f.Add([]byte{0x00, 0x00, 0xFF, 0x00, 0x00})
	f.Add([]byte{0x00, 0x00, 0xFF, 0xFF, 0x01, 0xD4})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, buf []byte) {
		data, bits, consumed, err := DecodeLinkFrame(buf, ReaderToCard)
		if consumed < 0 || consumed > len(buf) {
			t.Fatalf("consumed %d out of range for %d bytes", consumed, len(buf))
		}
		if err == nil && AsBytes(bits) != len(data) {
			t.Fatalf("bits %d do not match %d data bytes", bits, len(data))
		}
	})
}

// FuzzChecksumValid ensures the checksum helper handles all slice bounds.
func FuzzChecksumValid(f *testing.F) {
	f.Add([]byte{0xD4, 0x00, 0x26, 0x06}, 0, 4)
	f.Add([]byte{}, 0, 0)
	f.Add([]byte{0x01}, -1, 5)

	f.Fuzz(func(_ *testing.T, buf []byte, start, end int) {
		_ = ChecksumValid(buf, start, end)
	})
}

// FuzzBuffer exercises the bounds checks of the frame buffer.
func FuzzBuffer(f *testing.F) {
	f.Add([]byte{0x02, 0x60}, 3, 1)
	f.Add([]byte{}, 0, 0)

	f.Fuzz(func(t *testing.T, p []byte, prefix, trim int) {
		var b Buffer
		if err := b.SetBytes(p); err != nil {
			return
		}
		if prefix >= 0 && prefix < MaxFrameSize {
			_ = b.Prepend(make([]byte, prefix)...)
		}
		_ = b.TrimFront(trim)
		if b.Len() > MaxFrameSize || b.Bits() < 0 {
			t.Fatalf("buffer invariant broken: len=%d bits=%d", b.Len(), b.Bits())
		}
	})
}
