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

// CalculateChecksum is the modulo 256 sum behind LCS and DCS. A span that
// includes its own checksum byte sums to zero.
func CalculateChecksum(data []byte) (sum byte) {
	for _, b := range data {
		sum += b
	}
	return sum
}

// ChecksumValid reports whether buf[start:end], DCS included, sums to zero.
// Bounds outside buf are never valid.
func ChecksumValid(buf []byte, start, end int) bool {
	if start < 0 || start > end || end > len(buf) {
		return false
	}
	return CalculateChecksum(buf[start:end]) == 0
}

// ValidateFrameLength reads LEN and LCS following the start code byte at off
// and returns LEN. A bad LCS yields ErrChecksumMismatch so that the caller
// can resynchronise on the next start code.
func ValidateFrameLength(buf []byte, off, totalLen int) (int, error) {
	lenAt := off + 1
	if off < 0 || totalLen > len(buf) || lenAt+1 >= totalLen {
		return 0, ErrIncompleteFrame
	}
	n, lcs := buf[lenAt], buf[lenAt+1]
	switch {
	case n+lcs != 0:
		return 0, ErrChecksumMismatch
	case int(n) < linkOverhead:
		return 0, ErrFrameCorrupted
	}
	return int(n), nil
}
