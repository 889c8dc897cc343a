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

package picc

import "github.com/ZaparooProject/go-picc/internal/frame"

// Layer4State is the ISO14443-4 block protocol state
type Layer4State int

// ISO14443-4 states
const (
	StateExpectRATS Layer4State = iota
	StateProtocolActive
	// StateLast is terminal; the block protocol never answers
	StateLast
)

func (s Layer4State) String() string {
	switch s {
	case StateExpectRATS:
		return "EXPECT_RATS"
	case StateProtocolActive:
		return "ACTIVE"
	case StateLast:
		return "LAST"
	default:
		return "UNKNOWN"
	}
}

// Protocol control byte layout
const (
	pcbBlockTypeMask   = 0xC0
	pcbIBlock          = 0x00
	pcbRBlock          = 0x80
	pcbSBlock          = 0xC0
	pcbIBlockStatic    = 0x02
	pcbRBlockStatic    = 0xA2
	pcbRBlockNAK       = 0x10
	pcbHasCID          = 0x08
	pcbHasNAD          = 0x04
	pcbChaining        = 0x10
	pcbBlockNumberMask = 0x01
	pcbSDeselect       = 0xC2
	pcbSDeselectCID    = 0xCA
)

const (
	cmdPPS     = 0xD0
	ppsMask    = 0xF0
	cidMask    = 0x0F
	atsT1      = 0x80
	atsLength  = 6
	ackBits    = 4
	minBlockSz = 1 + frame.CRCASize
)

// switch4 moves the block protocol to a new state
func (e *Engine) switch4(s Layer4State) {
	e.l4 = s
	e.retries = 0
	e.logger.Log(EventISO14443_4State, []byte{byte(s)})
}

// reset4 returns the block protocol to its baseline without logging
func (e *Engine) reset4() {
	e.l4 = StateExpectRATS
	if !e.cfg.ISO14443_4 {
		e.l4 = StateLast
	}
	e.blockNumber = 1
	e.cache.clearOutgoing()
}

// processBlock runs the ISO14443-4 block protocol on b. The response, if
// any, replaces the contents of b and its length in bits is returned.
func (e *Engine) processBlock(b *frame.Buffer) int {
	if b.Len() < minBlockSz {
		Debugln("ISO14443-4: length fail")
		return 0
	}
	if !b.CheckCRCA() {
		e.logger.Log(EventChecksumFail, b.Bytes())
		Debugf("ISO14443-4: CRC fail on %s", formatHexBytes(b.Bytes()))
		return 0
	}
	_ = b.Truncate(b.Len() - frame.CRCASize)

	pcb := b.Bytes()[0]
	prologueLen := 1

	switch e.l4 {
	case StateExpectRATS:
		if pcb != cmdRATS || b.Len() < 2 {
			Debugf("ISO14443-4: expecting RATS, got 0x%02X", pcb)
			e.countRetry()
			return 0
		}
		return e.answerRATS(b)

	case StateProtocolActive:
		if pcb&ppsMask == cmdPPS {
			// Baud rate changes are acknowledged but not applied
			e.logger.Log(EventUnimplemented, b.Bytes())
			e.switch4(StateProtocolActive)
			_ = b.Truncate(1)
			_ = b.AppendCRCA()
			return frame.AsBits(b.Len())
		}
		if pcb&pcbHasCID != 0 {
			prologueLen++
			cid, err := b.At(1)
			if err != nil {
				return 0
			}
			if cid&cidMask != e.cardID {
				Debugf("ISO14443-4: CID %d is not ours (%d)", cid&cidMask, e.cardID)
				return 0
			}
		}

	default:
		return 0
	}

	switch pcb & pcbBlockTypeMask {
	case pcbIBlock:
		return e.iBlock(b, pcb, prologueLen)
	case pcbRBlock:
		return e.rBlock(b, pcb)
	case pcbSBlock:
		return e.sBlock(b, pcb, prologueLen)
	}
	return 0
}

// answerRATS captures the CID and replies with the ATS
func (e *Engine) answerRATS(b *frame.Buffer) int {
	param, _ := b.At(1)
	e.cardID = param & cidMask

	ats := make([]byte, 0, atsLength+frame.CRCASize)
	ats = append(ats, atsLength)
	ats = append(ats, e.cfg.ATS[1:minATSLength]...)
	ats = append(ats, atsT1)
	if e.cfg.ATSWithCRC {
		ats = frame.AppendCRCA(ats)
	}
	_ = b.SetBytes(ats)

	e.switch4(StateProtocolActive)
	Debugf("ISO14443-4: RATS, CID %d", e.cardID)
	return frame.AsBits(b.Len())
}

// iBlock toggles the block number (rule D) before anything else, runs the
// payload through the payload codecs and the executor and frames the answer
// with the rebuilt prologue. Chained blocks are dropped after the toggle.
func (e *Engine) iBlock(b *frame.Buffer, pcb byte, prologueLen int) int {
	e.blockNumber ^= pcbBlockNumberMask

	if pcb&pcbChaining != 0 {
		e.logger.Log(EventUnimplemented, b.Bytes())
		Debugln("ISO14443-4: chaining not supported")
		return 0
	}
	if pcb&pcbHasNAD != 0 {
		// The NAD byte is skipped and the block handled as if it was absent
		prologueLen++
		e.logger.Log(EventUnimplemented, b.Bytes())
	}
	if b.Len() < prologueLen {
		return 0
	}

	prologue := []byte{pcbIBlockStatic | e.blockNumber}
	if pcb&pcbHasCID != 0 {
		prologue[0] |= pcbHasCID
		prologue = append(prologue, e.cardID)
	}

	_ = b.TrimFront(prologueLen)
	if !e.executePayload(b) {
		Debugln("ISO14443-4: no response from executor")
		return 0
	}
	if err := b.Prepend(prologue...); err != nil {
		Debugf("ISO14443-4: response too large: %v", err)
		return 0
	}
	if err := b.AppendCRCA(); err != nil {
		Debugf("ISO14443-4: response too large: %v", err)
		return 0
	}
	return b.Bits()
}

// rBlock answers R(NAK) with R(ACK) and R(ACK) with the last response
func (e *Engine) rBlock(b *frame.Buffer, pcb byte) int {
	if pcb&pcbBlockNumberMask == e.blockNumber {
		Debugln("ISO14443-4: stale R-block")
		return 0
	}
	if pcb&pcbRBlockNAK != 0 {
		_ = b.SetFrame([]byte{pcbRBlockStatic | e.blockNumber}, ackBits)
		return ackBits
	}
	if !e.cache.hasOutgoing() {
		return 0
	}
	return e.cache.replay(b)
}

// sBlock handles S(DESELECT): both layers reset and the card halts
func (e *Engine) sBlock(b *frame.Buffer, pcb byte, prologueLen int) int {
	if pcb != pcbSDeselect && pcb != pcbSDeselectCID {
		Debugf("ISO14443-4: S-block 0x%02X not supported", pcb)
		return 0
	}
	e.logger.Log(EventDeselect, nil)
	e.reset4()
	e.logger.Log(EventISO14443_4State, []byte{byte(e.l4)})
	e.halt3A()

	_ = b.Truncate(prologueLen)
	_ = b.AppendCRCA()
	return b.Bits()
}
