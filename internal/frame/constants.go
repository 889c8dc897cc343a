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

// Link frame direction identifiers (TFI)
const (
	ReaderToCard = 0xD4 // Frames received over the air from the PCD
	CardToReader = 0xD5 // Frames to be transmitted to the PCD
)

// Link frame markers
const (
	Preamble   = 0x00
	StartCode1 = 0x00
	StartCode2 = 0xFF
	Postamble  = 0x00
)

// Link frame size limits
const (
	// MaxLinkDataLength is the largest LEN value (TFI + VB + data)
	MaxLinkDataLength = 255
	// MinLinkFrameLength is preamble + start code + len + lcs + tfi + vb + dcs + postamble
	MinLinkFrameLength = 9
	// linkOverhead is the number of LEN bytes that are not payload (TFI and VB)
	linkOverhead = 2
)

// Over-the-air frame limits
const (
	// MaxFrameSize is the transfer buffer capacity shared by both directions
	MaxFrameSize = 256
	// CRCASize is the number of checksum bytes trailing an ISO14443-A frame
	CRCASize = 2
	// BitsPerByte is used for bit/byte length conversions
	BitsPerByte = 8
)

// AsBits converts a byte count to a bit count.
func AsBits(byteCount int) int {
	return byteCount * BitsPerByte
}

// AsBytes converts a bit count to the number of bytes needed to hold it.
func AsBytes(bitCount int) int {
	return (bitCount + BitsPerByte - 1) / BitsPerByte
}
