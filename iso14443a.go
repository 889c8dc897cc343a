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

import (
	"bytes"

	"github.com/ZaparooProject/go-picc/internal/frame"
)

// Layer3AState is the ISO14443-3A PICC state
type Layer3AState int

// ISO14443-3A states
const (
	StateIdle Layer3AState = iota
	StateReady1
	StateReady2
	StateActive
	StateHalt
)

func (s Layer3AState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady1:
		return "READY1"
	case StateReady2:
		return "READY2"
	case StateActive:
		return "ACTIVE"
	case StateHalt:
		return "HALT"
	default:
		return "UNKNOWN"
	}
}

// ISO14443-3A commands
const (
	cmdREQA      = 0x26
	cmdWUPA      = 0x52
	cmdHLTA      = 0x50
	cmdSelectCL1 = 0x93
	cmdSelectCL2 = 0x95
	cmdSelectCL3 = 0x97
	cmdRATS      = 0xE0
	cmdDeselect  = 0xC2

	// pm3WUPAMask matches the wakeup variants sent by Proxmark clients
	pm3WUPAMask = 0x54
)

// Anticollision values
const (
	cascadeTag = 0x88
	nvbACStart = 0x20
	nvbACEnd   = 0x70

	sakIncomplete      = 0x04
	sakCompliant       = 0x20
	sakNotCompliant    = 0x00
	uidCLSize          = 4
	selectFrameMinSize = 2 + uidCLSize
)

// Frame sizes in bits
const (
	atqaFrameBits = 16
	hltaFrameBits = 32
	clFrameBits   = 40
	sakFrameBits  = 24
)

func isREQA(b *frame.Buffer) bool {
	return b.Len() == 1 && b.Bytes()[0] == cmdREQA
}

func isWUPA(b *frame.Buffer) bool {
	if b.Len() != 1 {
		return false
	}
	cmd := b.Bytes()[0]
	return cmd == cmdWUPA || cmd&pm3WUPAMask == pm3WUPAMask
}

func isHLTA(b *frame.Buffer) bool {
	p := b.Bytes()
	return b.Bits() == hltaFrameBits && p[0] == cmdHLTA && p[1] == 0x00 && frame.CheckCRCA(p)
}

// bcc is the block check character over one cascade level
func bcc(uid []byte) byte {
	return uid[0] ^ uid[1] ^ uid[2] ^ uid[3]
}

// uidCL returns the four UID bytes sent at the given cascade level
func (e *Engine) uidCL(level int) []byte {
	uid := e.cfg.UID
	if len(uid) == UIDSizeSingle {
		return uid
	}
	if level == 1 {
		return []byte{cascadeTag, uid[0], uid[1], uid[2]}
	}
	return uid[3:7]
}

// switch3A moves to a new state; every transition clears the retry counter
func (e *Engine) switch3A(s Layer3AState) {
	e.l3 = s
	e.retries = 0
	e.logger.Log(EventISO14443_3AState, []byte{byte(s)})
}

// reset3A returns Layer-3A to IDLE without logging and forgets the last response
func (e *Engine) reset3A() {
	e.l3 = StateIdle
	e.idleReturn = StateIdle
	e.cache.clearOutgoing()
}

// halt3A puts the card into HALT; only WUPA wakes it up again
func (e *Engine) halt3A() {
	e.cache.clearOutgoing()
	e.switch3A(StateHalt)
	e.idleReturn = StateHalt
}

// countRetry records an unrecognized frame. Past the limit, the card falls
// back to its idle baseline; state and counter are reset together.
func (e *Engine) countRetry() {
	e.retries++
	if e.retries <= e.cfg.MaxStateRetries {
		return
	}
	Debugf("ISO14443-3A: retry limit reached in %s, back to %s", e.l3, e.idleReturn)
	e.logger.Log(EventRetryReset, []byte{byte(e.l3)})
	e.reset4()
	e.l3 = e.idleReturn
	e.retries = 0
}

// process3A runs the ISO14443-3A state machine on b. The response, if any,
// replaces the contents of b and its length in bits is returned.
func (e *Engine) process3A(b *frame.Buffer) int {
	if b.Bits() == 0 {
		e.reset4()
		e.halt3A()
		return 0
	}

	// Wakeup and request are accepted in every state
	switch {
	case isREQA(b):
		e.logger.Log(EventREQA, nil)
		return e.wakeup(b)
	case isWUPA(b):
		e.logger.Log(EventWUPA, nil)
		return e.wakeup(b)
	case isHLTA(b):
		e.logger.Log(EventHalt, nil)
		Debugln("ISO14443-3A: halting")
		e.reset4()
		e.halt3A()
		return 0
	}

	cmd := b.Bytes()[0]

	switch e.l3 {
	case StateHalt:
		Debugf("ISO14443-3A: HALT, ignoring 0x%02X", cmd)
		e.countRetry()
		return 0

	case StateIdle:
		return e.answerRequest(b)

	case StateReady1:
		if cmd == cmdSelectCL1 {
			return e.selectCL1(b)
		}
		Debugf("ISO14443-3A: READY1, not a select: 0x%02X", cmd)
		e.countRetry()
		return 0

	case StateReady2:
		if cmd == cmdSelectCL2 && len(e.cfg.UID) == UIDSizeDouble {
			return e.selectCL2(b)
		}
		Debugf("ISO14443-3A: READY2, not a select: 0x%02X", cmd)
		e.countRetry()
		return 0

	case StateActive:
		return e.active3A(b, cmd)
	}

	return 0
}

// wakeup handles REQA and WUPA. Leaving HALT remembers HALT as the state
// to fall back to; the request is then answered from IDLE.
func (e *Engine) wakeup(b *frame.Buffer) int {
	from := e.l3
	e.switch3A(StateIdle)
	return e.haltThenIdle(from, b)
}

// haltThenIdle is the HALT-then-IDLE step: a card woken from HALT keeps HALT
// as its idle-return state and continues with the IDLE handling.
func (e *Engine) haltThenIdle(from Layer3AState, b *frame.Buffer) int {
	ret := e.answerRequest(b)
	if from == StateHalt {
		e.idleReturn = StateHalt
	}
	return ret
}

// answerRequest is the IDLE handling: reply ATQA and move to READY1
func (e *Engine) answerRequest(b *frame.Buffer) int {
	e.idleReturn = e.l3
	e.switch3A(StateReady1)
	_ = b.SetBytes([]byte{byte(e.cfg.ATQA), byte(e.cfg.ATQA >> 8)})
	return atqaFrameBits
}

func (e *Engine) selectCL1(b *frame.Buffer) int {
	sak := byte(sakIncomplete)
	next := StateReady2
	if len(e.cfg.UID) == UIDSizeSingle {
		sak = sakCompliant
		next = StateActive
	}
	bits, done := anticollision(b, e.uidCL(1), sak)
	if done {
		Debugln("ISO14443-3A: CL1 selected")
		e.switch3A(next)
	}
	return bits
}

func (e *Engine) selectCL2(b *frame.Buffer) int {
	bits, done := anticollision(b, e.uidCL(2), sakCompliant)
	if done {
		Debugln("ISO14443-3A: CL2 selected")
		e.switch3A(StateActive)
	}
	return bits
}

// anticollision answers one SELECT/ANTICOLLISION command for a cascade
// level. done is true once the PCD has selected this level with NVB 0x70.
func anticollision(b *frame.Buffer, uid []byte, sak byte) (bits int, done bool) {
	p := b.Bytes()
	if len(p) < 2 {
		return 0, false
	}
	full := append(append(make([]byte, 0, uidCLSize+1), uid...), bcc(uid))

	switch nvb := p[1]; nvb {
	case nvbACStart:
		_ = b.SetBytes(full)
		return clFrameBits, false

	case nvbACEnd:
		if len(p) < selectFrameMinSize || !bytes.Equal(p[2:selectFrameMinSize], uid) {
			// Another card was selected
			return 0, false
		}
		_ = b.SetBytes([]byte{sak})
		_ = b.AppendCRCA()
		return sakFrameBits, true

	default:
		knownBytes := int(nvb>>4) - 2
		knownBits := int(nvb & 0x0F)
		if knownBytes < 0 || knownBits >= frame.BitsPerByte ||
			knownBytes > len(full) || (knownBytes == len(full) && knownBits > 0) {
			return 0, false
		}
		need := 2 + knownBytes
		if knownBits > 0 {
			need++
		}
		if len(p) < need || !bytes.Equal(p[2:2+knownBytes], full[:knownBytes]) {
			return 0, false
		}
		if knownBits > 0 {
			mask := byte(0xFF) >> (frame.BitsPerByte - knownBits)
			if full[knownBytes]&mask != p[2+knownBytes]&mask {
				return 0, false
			}
		}
		_ = b.SetBytes(full)
		return clFrameBits, false
	}
}

// active3A handles a frame once the card is selected. Everything that is not
// an ISO14443-3 command belongs to the block protocol.
func (e *Engine) active3A(b *frame.Buffer, cmd byte) int {
	switch cmd {
	case cmdRATS:
		if e.cfg.ISO14443_4 && b.CheckCRCA() {
			e.switch4(StateExpectRATS)
			Debugln("ISO14443-3A: expecting RATS")
		}
	case cmdSelectCL3:
		_ = b.SetBytes([]byte{sakNotCompliant})
		_ = b.AppendCRCA()
		return sakFrameBits
	case cmdDeselect:
		// Some readers deselect before RATS
		e.logger.Log(EventDeselect, nil)
	}
	return e.processBlock(b)
}
