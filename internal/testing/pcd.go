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

package testing

import "github.com/ZaparooProject/go-picc/internal/frame"

// Frames a PCD sends, with bit lengths as seen over the air.
var (
	REQA = []byte{0x26}
	WUPA = []byte{0x52}
	// HLTA is HALT with its CRC_A
	HLTA = []byte{0x50, 0x00, 0x57, 0xCD}
)

// Short frame length of REQA and WUPA
const ShortFrameBits = 7

// Common UIDs for testing
var (
	// TestUID7 is a double-size UID
	TestUID7 = []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	// TestUID4 is a single-size UID
	TestUID4 = []byte{0x12, 0x34, 0x56, 0x78}
)

// PCD builds the frames a proximity coupling device sends while activating
// and talking to a card. It tracks its own ISO14443-4 block number.
type PCD struct {
	blockNumber byte
}

// NewPCD returns a PCD about to send its first I-block (block number 0)
func NewPCD() *PCD {
	return &PCD{}
}

// WithCRC returns a copy of p with CRC_A appended
func WithCRC(p ...byte) []byte {
	return frame.AppendCRCA(append([]byte(nil), p...))
}

// Bits returns the bit length of a whole-byte frame
func Bits(p []byte) int {
	return frame.AsBits(len(p))
}

// AnticollisionRequest is SEL NVB=0x20 for a cascade level (0x93, 0x95, 0x97)
func AnticollisionRequest(sel byte) []byte {
	return []byte{sel, 0x20}
}

// SelectRequest is SEL NVB=0x70 with the four UID bytes of the level, BCC
// and CRC_A
func SelectRequest(sel byte, uidCL []byte) []byte {
	p := []byte{sel, 0x70}
	p = append(p, uidCL...)
	p = append(p, uidCL[0]^uidCL[1]^uidCL[2]^uidCL[3])
	return frame.AppendCRCA(p)
}

// CascadeLevels splits a 4 or 7 byte UID into the bytes sent at each level
func CascadeLevels(uid []byte) [][]byte {
	if len(uid) == 4 {
		return [][]byte{uid}
	}
	return [][]byte{
		{0x88, uid[0], uid[1], uid[2]},
		uid[3:7],
	}
}

// RATS requests the ATS with FSDI 8 and CID 0
func RATS() []byte {
	return WithCRC(0xE0, 0x80)
}

// RATSWithCID requests the ATS announcing a card identifier
func RATSWithCID(cid byte) []byte {
	return WithCRC(0xE0, 0x80|cid&0x0F)
}

// IBlock frames an application payload in the next I-block and toggles the
// PCD block number
func (p *PCD) IBlock(payload ...byte) []byte {
	pcb := 0x02 | p.blockNumber
	p.blockNumber ^= 1
	return WithCRC(append([]byte{pcb}, payload...)...)
}

// IBlockCID is IBlock with a CID byte in the prologue
func (p *PCD) IBlockCID(cid byte, payload ...byte) []byte {
	pcb := 0x0A | p.blockNumber
	p.blockNumber ^= 1
	return WithCRC(append([]byte{pcb, cid}, payload...)...)
}

// BlockNumber returns the number of the next I-block
func (p *PCD) BlockNumber() byte {
	return p.blockNumber
}

// RACK acknowledges with the given block number
func RACK(blockNumber byte) []byte {
	return WithCRC(0xA2 | blockNumber&1)
}

// RNAK is a negative acknowledgement with the given block number
func RNAK(blockNumber byte) []byte {
	return WithCRC(0xB2 | blockNumber&1)
}

// Deselect is S(DESELECT) without CID
func Deselect() []byte {
	return WithCRC(0xC2)
}

// NativeAPDU wraps a DESFire instruction in the native ISO7816 envelope
//
//	90 INS 00 00 LEN data 00
func NativeAPDU(ins byte, data ...byte) []byte {
	p := []byte{0x90, ins, 0x00, 0x00, byte(len(data))}
	p = append(p, data...)
	return append(p, 0x00)
}

// ISOAPDU builds a case 3 or case 1 ISO7816-4 command with CLA 00
func ISOAPDU(ins, p1, p2 byte, data ...byte) []byte {
	p := []byte{0x00, ins, p1, p2}
	if len(data) > 0 {
		p = append(p, byte(len(data)))
		p = append(p, data...)
	}
	return p
}

// PM3Raw frames a raw instruction behind the Proxmark prologue with CRC
func PM3Raw(pcb, ins byte, data ...byte) []byte {
	return WithCRC(append([]byte{pcb, 0x00, ins}, data...)...)
}
