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

// Buffer is a length-tracked frame buffer with a fixed capacity of
// MaxFrameSize bytes. Its length is kept in bits because anticollision
// and ACK frames are not byte aligned. All writes are bounds checked.
type Buffer struct {
	data [MaxFrameSize]byte
	bits int
}

// NewBuffer returns a buffer holding a copy of p with a bit length of
// 8*len(p). It returns ErrBufferOverflow if p does not fit.
func NewBuffer(p []byte) (*Buffer, error) {
	b := &Buffer{}
	if err := b.SetBytes(p); err != nil {
		return nil, err
	}
	return b, nil
}

// Len returns the number of bytes needed to hold the frame.
func (b *Buffer) Len() int {
	return AsBytes(b.bits)
}

// Bits returns the frame length in bits.
func (b *Buffer) Bits() int {
	return b.bits
}

// Bytes returns the frame contents. The slice aliases the buffer and is only
// valid until the next mutation.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.Len()]
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.bits = 0
}

// SetBytes replaces the contents with p.
func (b *Buffer) SetBytes(p []byte) error {
	return b.SetFrame(p, AsBits(len(p)))
}

// SetFrame replaces the contents with p and sets an explicit bit length.
// bits must not describe more bytes than p holds.
func (b *Buffer) SetFrame(p []byte, bits int) error {
	if len(p) > MaxFrameSize {
		return ErrBufferOverflow
	}
	if bits < 0 || AsBytes(bits) > len(p) {
		return ErrOutOfRange
	}
	copy(b.data[:], p)
	b.bits = bits
	return nil
}

// SetBits changes the bit length without touching the contents.
func (b *Buffer) SetBits(bits int) error {
	if bits < 0 || AsBytes(bits) > MaxFrameSize {
		return ErrBufferOverflow
	}
	b.bits = bits
	return nil
}

// At returns the byte at index i.
func (b *Buffer) At(i int) (byte, error) {
	if i < 0 || i >= b.Len() {
		return 0, ErrOutOfRange
	}
	return b.data[i], nil
}

// Set overwrites the byte at index i.
func (b *Buffer) Set(i int, v byte) error {
	if i < 0 || i >= b.Len() {
		return ErrOutOfRange
	}
	b.data[i] = v
	return nil
}

// Append adds bytes at the end. A partial trailing byte becomes whole.
func (b *Buffer) Append(p ...byte) error {
	n := b.Len()
	if n+len(p) > MaxFrameSize {
		return ErrBufferOverflow
	}
	copy(b.data[n:], p)
	b.bits = AsBits(n + len(p))
	return nil
}

// Prepend inserts bytes at the front, shifting the current contents.
func (b *Buffer) Prepend(p ...byte) error {
	n := b.Len()
	if n+len(p) > MaxFrameSize {
		return ErrBufferOverflow
	}
	copy(b.data[len(p):], b.data[:n])
	copy(b.data[:], p)
	b.bits += AsBits(len(p))
	return nil
}

// TrimFront removes n bytes from the front.
func (b *Buffer) TrimFront(n int) error {
	l := b.Len()
	if n < 0 || n > l {
		return ErrOutOfRange
	}
	copy(b.data[:], b.data[n:l])
	b.bits -= AsBits(n)
	if b.bits < 0 {
		b.bits = 0
	}
	return nil
}

// Truncate shortens the frame to n whole bytes.
func (b *Buffer) Truncate(n int) error {
	if n < 0 || n > b.Len() {
		return ErrOutOfRange
	}
	b.bits = AsBits(n)
	return nil
}

// AppendCRCA appends the ISO14443-A checksum of the current contents.
func (b *Buffer) AppendCRCA() error {
	crc := CRCA(b.Bytes())
	return b.Append(byte(crc), byte(crc>>8))
}

// CheckCRCA verifies the trailing checksum of the current contents.
func (b *Buffer) CheckCRCA() bool {
	return CheckCRCA(b.Bytes())
}

// CopyFrom makes b an exact copy of src.
func (b *Buffer) CopyFrom(src *Buffer) {
	n := src.Len()
	copy(b.data[:n], src.data[:n])
	b.bits = src.bits
}

// HasCommonPrefix reports whether b and other agree on the first
// min(b.Len(), other.Len()) bytes. Both must be non-empty.
func (b *Buffer) HasCommonPrefix(other *Buffer) bool {
	n := min(b.Len(), other.Len())
	if n == 0 {
		return false
	}
	for i := range n {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}
