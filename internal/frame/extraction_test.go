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
	"github.com/stretchr/testify/require"
)

func TestEncodeLinkFrame(t *testing.T) {
	t.Parallel()

	frm, err := EncodeLinkFrame(ReaderToCard, []byte{0x26}, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x03, 0xFD, 0xD4, 0x07, 0x26, 0xFF, 0x00}, frm)

	_, err = EncodeLinkFrame(ReaderToCard, []byte{0x26}, 9)
	require.ErrorIs(t, err, ErrFrameCorrupted)

	_, err = EncodeLinkFrame(ReaderToCard, make([]byte, 254), AsBits(254))
	require.ErrorIs(t, err, ErrDataTooLarge)
}

func TestDecodeLinkFrame_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		bits int
	}{
		{name: "field off", data: []byte{}, bits: 0},
		{name: "short frame", data: []byte{0x52}, bits: 7},
		{name: "ack nibble", data: []byte{0xA2}, bits: 4},
		{name: "rats", data: []byte{0xE0, 0x80, 0x31, 0x73}, bits: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			frm, err := EncodeLinkFrame(CardToReader, tt.data, tt.bits)
			require.NoError(t, err)

			data, bits, consumed, err := DecodeLinkFrame(frm, CardToReader)
			require.NoError(t, err)
			assert.Equal(t, tt.data, data)
			assert.Equal(t, tt.bits, bits)
			assert.Equal(t, len(frm), consumed)
		})
	}
}

func TestDecodeLinkFrame_Errors(t *testing.T) {
	t.Parallel()

	valid, err := EncodeLinkFrame(ReaderToCard, []byte{0x93, 0x20}, 16)
	require.NoError(t, err)

	t.Run("incomplete", func(t *testing.T) {
		t.Parallel()
		_, _, consumed, err := DecodeLinkFrame(valid[:6], ReaderToCard)
		require.ErrorIs(t, err, ErrIncompleteFrame)
		assert.Equal(t, 0, consumed)
	})

	t.Run("garbage before start code", func(t *testing.T) {
		t.Parallel()
		buf := append([]byte{0x55, 0x12}, valid...)
		data, _, consumed, err := DecodeLinkFrame(buf, ReaderToCard)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x93, 0x20}, data)
		assert.Equal(t, len(buf), consumed)
	})

	t.Run("no start code", func(t *testing.T) {
		t.Parallel()
		_, _, consumed, err := DecodeLinkFrame([]byte{0x55, 0x55, 0x55}, ReaderToCard)
		require.ErrorIs(t, err, ErrIncompleteFrame)
		assert.Equal(t, 2, consumed)
	})

	t.Run("wrong direction", func(t *testing.T) {
		t.Parallel()
		_, _, consumed, err := DecodeLinkFrame(valid, CardToReader)
		require.ErrorIs(t, err, ErrUnexpectedTFI)
		assert.Equal(t, len(valid), consumed)
	})

	t.Run("bad data checksum", func(t *testing.T) {
		t.Parallel()
		bad := append([]byte(nil), valid...)
		bad[len(bad)-2]++
		_, _, _, err := DecodeLinkFrame(bad, ReaderToCard)
		require.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("bad length checksum", func(t *testing.T) {
		t.Parallel()
		bad := append([]byte(nil), valid...)
		bad[4]++
		_, _, consumed, err := DecodeLinkFrame(bad, ReaderToCard)
		require.ErrorIs(t, err, ErrChecksumMismatch)
		assert.Equal(t, 3, consumed)
	})
}
