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

package desfire

import "errors"

// UIDSize is the length of a DESFire UID
const UIDSize = 7

// ErrInvalidUID is returned for UIDs that are not 7 bytes long
var ErrInvalidUID = errors.New("desfire: UID must be 7 bytes")

// Version is the manufacturing data returned by GetVersion
type Version struct {
	UID      [UIDSize]byte
	BatchNo  [5]byte
	Hardware [7]byte
	Software [7]byte
	ProdWeek byte
	ProdYear byte
}

// DefaultVersion describes a DESFire EV1 8k
func DefaultVersion(uid []byte) (Version, error) {
	if len(uid) != UIDSize {
		return Version{}, ErrInvalidUID
	}
	v := Version{
		// vendor NXP, type, subtype, major, minor, storage size, protocol
		Hardware: [7]byte{0x04, 0x01, 0x01, 0x01, 0x00, 0x1A, 0x05},
		Software: [7]byte{0x04, 0x01, 0x01, 0x01, 0x04, 0x1A, 0x05},
		BatchNo:  [5]byte{0xBA, 0x54, 0x10, 0x00, 0x00},
		ProdWeek: 0x18,
		ProdYear: 0x24,
	}
	copy(v.UID[:], uid)
	return v, nil
}

// part returns the payload of GetVersion frame n (1 to 3)
func (v *Version) part(n int) []byte {
	switch n {
	case 1:
		return v.Hardware[:]
	case 2:
		return v.Software[:]
	default:
		out := make([]byte, 0, UIDSize+len(v.BatchNo)+2)
		out = append(out, v.UID[:]...)
		out = append(out, v.BatchNo[:]...)
		return append(out, v.ProdWeek, v.ProdYear)
	}
}
