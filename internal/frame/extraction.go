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

// EncodeLinkFrame builds a link frame carrying data with an explicit bit
// length:
//
//	00 00 FF LEN LCS TFI VB DATA... DCS 00
//
// VB is the number of valid bits in the last data byte, 0 meaning all 8.
func EncodeLinkFrame(tfi byte, data []byte, bits int) ([]byte, error) {
	if bits < 0 || AsBytes(bits) > len(data) {
		return nil, ErrFrameCorrupted
	}
	data = data[:AsBytes(bits)]
	dataLen := linkOverhead + len(data)
	if dataLen > MaxLinkDataLength {
		return nil, ErrDataTooLarge
	}

	validBits := byte(bits % BitsPerByte)

	frm := make([]byte, 0, MinLinkFrameLength+len(data))
	frm = append(frm, Preamble, StartCode1, StartCode2, byte(dataLen), ^byte(dataLen)+1, tfi, validBits)
	frm = append(frm, data...)

	checksum := tfi + validBits + CalculateChecksum(data)
	frm = append(frm, ^checksum+1, Postamble)
	return frm, nil
}

// FindFrameStart locates the start code in buf and returns the offset of
// its second byte (0xFF).
func FindFrameStart(buf []byte) (offset int, ok bool) {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == StartCode1 && buf[i+1] == StartCode2 {
			return i + 1, true
		}
	}
	return 0, false
}

// ExtractFrameData extracts the payload of a link frame whose length has
// already been validated. off points at the 0xFF start code byte.
func ExtractFrameData(buf []byte, off, frameLen int, tfiExpected byte) (data []byte, bits int, err error) {
	if off < 0 || frameLen < linkOverhead {
		return nil, 0, ErrFrameCorrupted
	}

	// Move to TFI position (skip start code, length and length checksum)
	off += 3
	end := off + frameLen
	if end >= len(buf) {
		return nil, 0, ErrIncompleteFrame
	}

	if !ChecksumValid(buf, off, end+1) {
		return nil, 0, ErrChecksumMismatch
	}

	if buf[off] != tfiExpected {
		return nil, 0, ErrUnexpectedTFI
	}

	validBits := int(buf[off+1])
	dataLen := frameLen - linkOverhead
	if validBits >= BitsPerByte || (dataLen == 0 && validBits != 0) {
		return nil, 0, ErrFrameCorrupted
	}

	data = make([]byte, dataLen)
	copy(data, buf[off+linkOverhead:end])

	bits = AsBits(dataLen)
	if validBits != 0 {
		bits = AsBits(dataLen-1) + validBits
	}
	return data, bits, nil
}

// DecodeLinkFrame decodes the first link frame in buf. consumed is the number
// of bytes of buf used, including any garbage before the start code, so that
// stream readers can discard them. ErrIncompleteFrame means more input is
// needed; other errors mean the frame at the start of buf must be skipped.
func DecodeLinkFrame(buf []byte, tfiExpected byte) (data []byte, bits, consumed int, err error) {
	off, ok := FindFrameStart(buf)
	if !ok {
		// Keep a trailing 0x00 as it may be the first start code byte
		return nil, 0, max(len(buf)-1, 0), ErrIncompleteFrame
	}

	frameLen, err := ValidateFrameLength(buf, off, len(buf))
	if err != nil {
		if errors.Is(err, ErrIncompleteFrame) {
			return nil, 0, 0, err
		}
		return nil, 0, off + 1, err
	}

	// start code, len, lcs, payload, dcs, postamble
	total := off + 3 + frameLen + 2
	if total > len(buf) {
		return nil, 0, 0, ErrIncompleteFrame
	}

	data, bits, err = ExtractFrameData(buf, off, frameLen, tfiExpected)
	if err != nil {
		return nil, 0, total, err
	}
	return data, bits, total, nil
}
