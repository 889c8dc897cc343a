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

// CRCAInit is the ISO/IEC 14443-3 CRC_A preset value
const CRCAInit = 0x6363

// UpdateCRCA feeds data into a running CRC_A. This is the CRC-CCITT update
// in its reflected form, as used by ISO14443 type A.
func UpdateCRCA(crc uint16, data []byte) uint16 {
	for _, b := range data {
		b ^= byte(crc)
		b ^= b << 4
		bt := uint16(b)
		crc = (crc >> 8) ^ (bt << 8) ^ (bt << 3) ^ (bt >> 4)
	}
	return crc
}

// CRCA computes the ISO14443-A checksum of data.
func CRCA(data []byte) uint16 {
	return UpdateCRCA(CRCAInit, data)
}

// AppendCRCA appends the two checksum bytes, low byte first.
func AppendCRCA(data []byte) []byte {
	crc := CRCA(data)
	return append(data, byte(crc), byte(crc>>8))
}

// CheckCRCA reports whether the last two bytes of data are a valid CRC_A
// over the bytes preceding them.
func CheckCRCA(data []byte) bool {
	if len(data) < CRCASize {
		return false
	}
	n := len(data) - CRCASize
	crc := CRCA(data[:n])
	return data[n] == byte(crc) && data[n+1] == byte(crc>>8)
}
