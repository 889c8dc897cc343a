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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-picc"
	"github.com/ZaparooProject/go-picc/internal/frame"
	testutil "github.com/ZaparooProject/go-picc/internal/testing"
	"github.com/ZaparooProject/go-picc/iso7816"
)

func exchange(t *testing.T, e *picc.Engine, p []byte) []byte {
	t.Helper()
	resp, bits := e.ProcessFrame(p, testutil.Bits(p))
	require.Equal(t, frame.AsBits(len(resp)), bits)
	return append([]byte(nil), resp...)
}

// newActiveEngine returns an engine serving c that has been selected and
// has answered RATS
func newActiveEngine(t *testing.T, c *Card) *picc.Engine {
	t.Helper()
	e, err := picc.New(c, picc.WithUID(testUID))
	require.NoError(t, err)

	resp, _ := e.ProcessFrame(testutil.REQA, testutil.ShortFrameBits)
	require.Equal(t, []byte{0x44, 0x03}, resp)
	for i, cl := range testutil.CascadeLevels(testUID) {
		sel := []byte{0x93, 0x95}[i]
		require.NotEmpty(t, exchange(t, e, testutil.AnticollisionRequest(sel)))
		require.NotEmpty(t, exchange(t, e, testutil.SelectRequest(sel, cl)))
	}
	require.Equal(t, picc.DefaultATS, exchange(t, e, testutil.RATS()))
	require.Equal(t, picc.StateProtocolActive, e.State().Layer4)
	return e
}

// body strips the PCB and CRC from an I-block response
func body(t *testing.T, resp []byte, pcb byte) []byte {
	t.Helper()
	require.GreaterOrEqual(t, len(resp), 3)
	require.True(t, frame.CheckCRCA(resp))
	require.Equal(t, pcb, resp[0])
	return resp[1 : len(resp)-frame.CRCASize]
}

func TestGetVersionOverISO14443_4(t *testing.T) {
	t.Parallel()

	c := newTestCard(t)
	e := newActiveEngine(t, c)
	pcd := testutil.NewPCD()
	v, err := DefaultVersion(testUID)
	require.NoError(t, err)

	want := [][]byte{
		append(v.part(1), 0x91, 0xAF),
		append(v.part(2), 0x91, 0xAF),
		append(v.part(3), 0x91, 0x00),
	}
	ins := []byte{InsGetVersion, InsAdditionalFrame, InsAdditionalFrame}

	for i := range ins {
		pcb := 0x02 | pcd.BlockNumber()
		resp := exchange(t, e, pcd.IBlock(testutil.NativeAPDU(ins[i])...))
		assert.Equal(t, want[i], body(t, resp, pcb), "frame %d", i+1)
	}
	assert.False(t, c.ExpectsAdditionalFrame())
}

func TestSelectOverISO14443_4(t *testing.T) {
	t.Parallel()

	e := newActiveEngine(t, newTestCard(t))
	pcd := testutil.NewPCD()

	resp := exchange(t, e, pcd.IBlock(testutil.ISOAPDU(InsISOSelectFile, 0x00, 0x00, ISOApplicationName...)...))
	payload := body(t, resp, 0x02)
	require.GreaterOrEqual(t, len(payload), 2)

	sw := iso7816.NewStatusWord(payload[len(payload)-2], payload[len(payload)-1])
	assert.Equal(t, iso7816.SWNoError, sw)
	name, err := iso7816.ParseFCIName(payload[:len(payload)-2])
	require.NoError(t, err)
	assert.Equal(t, ISOApplicationName, name)

	// SELECT by DF name with P1=04 is refused by the standard wrapping
	resp = exchange(t, e, pcd.IBlock(testutil.ISOAPDU(InsISOSelectFile, 0x04, 0x00, ISOApplicationName...)...))
	assert.Equal(t, iso7816.SWIncorrectP1P2.Bytes(), body(t, resp, 0x03))
}

func TestGetVersionOverPM3Raw(t *testing.T) {
	t.Parallel()

	c := newTestCard(t)
	e := newActiveEngine(t, c)
	v, err := DefaultVersion(testUID)
	require.NoError(t, err)

	// With the block protocol active these frames are I-blocks for CID 0;
	// the block number runs in step with the prologue the reader sends
	resp := exchange(t, e, testutil.PM3Raw(0x0A, InsGetVersion))
	require.True(t, frame.CheckCRCA(resp))
	want := append([]byte{0x0A, 0x00, byte(StatusAdditionalFrame)}, v.part(1)...)
	assert.Equal(t, want, resp[:len(resp)-frame.CRCASize])

	resp = exchange(t, e, testutil.PM3Raw(0x0B, InsAdditionalFrame))
	want = append([]byte{0x0B, 0x00, byte(StatusAdditionalFrame)}, v.part(2)...)
	assert.Equal(t, want, resp[:len(resp)-frame.CRCASize])
	assert.Equal(t, StateGetVersion3, c.State())
	assert.Equal(t, byte(1), e.State().BlockNumber)
}

func TestFieldOffAbortsChain(t *testing.T) {
	t.Parallel()

	c := newTestCard(t)
	e := newActiveEngine(t, c)
	pcd := testutil.NewPCD()
	exchange(t, e, pcd.IBlock(testutil.NativeAPDU(InsGetVersion)...))
	require.True(t, c.ExpectsAdditionalFrame())

	e.FieldOff()
	assert.False(t, c.ExpectsAdditionalFrame())
	assert.Equal(t, picc.StateHalt, e.State().Layer3A)
}
