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

	"github.com/stretchr/testify/assert"
)

func TestCRCA_KnownVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{name: "HLTA", data: []byte{0x50, 0x00}, want: []byte{0x57, 0xCD}},
		{name: "RATS", data: []byte{0xE0, 0x80}, want: []byte{0x31, 0x73}},
		{name: "S(DESELECT)", data: []byte{0xC2}, want: []byte{0xE0, 0xB4}},
		{name: "R(NAK) block 1", data: []byte{0xB3}, want: []byte{0xEE, 0xD6}},
		{name: "I-block", data: []byte{0x02, 0x60}, want: []byte{0x16, 0x4E}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			crc := CRCA(tt.data)
			assert.Equal(t, tt.want, []byte{byte(crc), byte(crc >> 8)})

			framed := AppendCRCA(append([]byte(nil), tt.data...))
			assert.Equal(t, append(append([]byte(nil), tt.data...), tt.want...), framed)
			assert.True(t, CheckCRCA(framed))
		})
	}
}

func TestCheckCRCA_Rejects(t *testing.T) {
	t.Parallel()

	assert.False(t, CheckCRCA(nil))
	assert.False(t, CheckCRCA([]byte{0x57}))
	assert.False(t, CheckCRCA([]byte{0x50, 0x00, 0x57, 0xCE}))
	assert.False(t, CheckCRCA([]byte{0x50, 0x01, 0x57, 0xCD}))
}

func TestUpdateCRCA_Threaded(t *testing.T) {
	t.Parallel()

	data := []byte{0x02, 0x90, 0x60, 0x00, 0x00, 0x00}
	whole := CRCA(data)
	split := UpdateCRCA(UpdateCRCA(CRCAInit, data[:2]), data[2:])
	assert.Equal(t, whole, split)
}
