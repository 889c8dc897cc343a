// go-picc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-picc.
//
// go-picc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-picc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-picc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitteryPortDeliversAllBytesInOrder(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}

	tests := []struct {
		name   string
		config JitterConfig
	}{
		{name: "fragmented", config: JitterConfig{FragmentReads: true, FragmentMinBytes: 1, Seed: 1}},
		{name: "min fragment", config: JitterConfig{FragmentReads: true, FragmentMinBytes: 7, Seed: 2}},
		{name: "no fragmentation", config: JitterConfig{Seed: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			port := NewJitteryPort(bytes.NewBuffer(append([]byte(nil), payload...)), tt.config)
			got := make([]byte, 0, len(payload))
			buf := make([]byte, 64)
			for len(got) < len(payload) {
				n, err := port.Read(buf)
				require.NoError(t, err)
				require.Positive(t, n)
				got = append(got, buf[:n]...)
			}
			assert.Equal(t, payload, got)
			assert.Zero(t, port.Buffered())
		})
	}
}

func TestJitteryPortFragmentsReads(t *testing.T) {
	t.Parallel()

	maxReads := 0
	for seed := uint64(1); seed <= 10; seed++ {
		port := NewJitteryPort(bytes.NewBuffer(make([]byte, 256)), JitterConfig{FragmentReads: true, FragmentMinBytes: 1, Seed: seed})
		buf := make([]byte, 256)

		reads, total := 0, 0
		for total < 256 {
			n, err := port.Read(buf)
			require.NoError(t, err)
			total += n
			reads++
		}
		maxReads = max(maxReads, reads)
	}
	assert.Greater(t, maxReads, 1)
}

func TestJitteryPortWritePassThrough(t *testing.T) {
	t.Parallel()

	var backend bytes.Buffer
	port := NewJitteryPort(&backend, DefaultJitterConfig())
	n, err := port.Write([]byte{0x00, 0x00, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x00, 0x00, 0xFF}, backend.Bytes())
}
