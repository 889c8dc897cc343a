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
	"github.com/ZaparooProject/go-picc/internal/frame"
	"github.com/ZaparooProject/go-picc/iso7816"
)

// WrapFormat identifies how a reader wrapped an application command
type WrapFormat int

// Wrap formats reported in outgoing data log entries
const (
	WrapNone WrapFormat = iota
	WrapISO7816Standard
	WrapPM3AdditionalFrame
	WrapPM3Raw
)

func (f WrapFormat) String() string {
	switch f {
	case WrapNone:
		return "NONE"
	case WrapISO7816Standard:
		return "ISO7816_STANDARD"
	case WrapPM3AdditionalFrame:
		return "PM3_ADDITIONAL_FRAME"
	case WrapPM3Raw:
		return "PM3_RAW"
	default:
		return "UNKNOWN"
	}
}

// Native DESFire wrapping
const (
	nativeCLA             = 0x90
	statusAdditionalFrame = 0xAF
	nativeTrailer         = 0x91
	nativeHeaderLen       = 5
	leZero                = 0x00
)

// PM3 prologue: an I-block PCB with the CID bit set, followed by the CID
const (
	pm3PrologueLen = 2
	pm3PCB0        = 0x0A
	pm3PCB1        = 0x0B
)

func isPM3Prologue(b byte) bool {
	return b == pm3PCB0 || b == pm3PCB1
}

// wrapContext carries what a codec stripped from a request so the response
// can be wrapped the same way.
type wrapContext struct {
	// reply, when set, is sent instead of running the executor
	reply             []byte
	prologue          [pm3PrologueLen]byte
	prologueLen       int
	crc               bool
	expectsAdditional bool
}

func (wc *wrapContext) keepPrologue(p []byte, n int) {
	wc.prologueLen = copy(wc.prologue[:], p[:n])
}

// wrapCodec is one reader wrapping convention. Unwrap reports whether b uses
// the convention and, if so, strips b down to the bare command; b is left
// untouched otherwise. Rewrap turns the bare response in b into the body of
// the wrapped response. The prologue and CRC recorded in the context are
// attached afterwards by finishWrap.
type wrapCodec interface {
	Format() WrapFormat
	Unwrap(wc *wrapContext, b *frame.Buffer) bool
	Rewrap(wc *wrapContext, b *frame.Buffer) error
}

// finishWrap attaches the prologue and CRC stripped from the request
func finishWrap(wc *wrapContext, b *frame.Buffer) error {
	if wc.prologueLen > 0 {
		if err := b.Prepend(wc.prologue[:wc.prologueLen]...); err != nil {
			return err
		}
	}
	if wc.crc {
		return b.AppendCRCA()
	}
	return nil
}

// stripCRC removes a valid trailing CRC_A from b
func stripCRC(wc *wrapContext, b *frame.Buffer) {
	if b.Len() > frame.CRCASize && b.CheckCRCA() {
		_ = b.Truncate(b.Len() - frame.CRCASize)
		wc.crc = true
	}
}

// prologueContinuation is an additional frame behind a PM3 prologue:
//
//	P0 P1 AF data... [CRC]
type prologueContinuation struct{}

func (prologueContinuation) Format() WrapFormat { return WrapPM3AdditionalFrame }

func (prologueContinuation) Unwrap(wc *wrapContext, b *frame.Buffer) bool {
	p := b.Bytes()
	if !wc.expectsAdditional || len(p) < 3 || !isPM3Prologue(p[0]) || p[2] != statusAdditionalFrame {
		return false
	}
	wc.keepPrologue(p, pm3PrologueLen)
	stripCRC(wc, b)
	_ = b.TrimFront(pm3PrologueLen)
	return true
}

func (prologueContinuation) Rewrap(*wrapContext, *frame.Buffer) error { return nil }

// nativeEnvelope checks for CLA INS 00 00 LEN data [Le=00] [CRC] at the start
// of p. It returns the payload length and whether a CRC trails the command.
func nativeEnvelope(p []byte) (dataLen int, crc, ok bool) {
	if len(p) < nativeHeaderLen || p[0] != nativeCLA || p[2] != 0x00 || p[3] != 0x00 {
		return 0, false, false
	}
	dataLen = int(p[4])
	end := nativeHeaderLen + dataLen
	switch len(p) - end {
	case 0:
		return dataLen, false, true
	case 1:
		return dataLen, false, p[end] == leZero
	case frame.CRCASize:
		return dataLen, true, frame.CheckCRCA(p)
	case 1 + frame.CRCASize:
		return dataLen, true, p[end] == leZero && frame.CheckCRCA(p)
	default:
		return 0, false, false
	}
}

// nativeCodec is the DESFire native wrapping
//
//	90 INS 00 00 LEN data... [00] [CRC]
//
// with the response sent as data... 91 status. With scanPrologue set, the
// envelope follows one leading byte that is echoed back. With continuation
// set, only additional frames expected by the executor match.
type nativeCodec struct {
	scanPrologue bool
	continuation bool
}

func (nativeCodec) Format() WrapFormat { return WrapNone }

func (c nativeCodec) Unwrap(wc *wrapContext, b *frame.Buffer) bool {
	p := b.Bytes()
	offset := 0
	if c.scanPrologue {
		offset = 1
	}
	if len(p) <= offset {
		return false
	}
	dataLen, crc, ok := nativeEnvelope(p[offset:])
	if !ok {
		return false
	}
	ins := p[offset+1]
	if c.continuation && (ins != statusAdditionalFrame || !wc.expectsAdditional) {
		return false
	}

	wc.keepPrologue(p, offset)
	wc.crc = crc
	// INS is kept in front of the payload: INS data...
	_ = b.Truncate(offset + nativeHeaderLen + dataLen)
	_ = b.Set(offset+nativeHeaderLen-1, ins)
	_ = b.TrimFront(offset + nativeHeaderLen - 1)
	return true
}

// Rewrap moves the leading status byte behind a 91 trailer
func (nativeCodec) Rewrap(_ *wrapContext, b *frame.Buffer) error {
	status, err := b.At(0)
	if err != nil {
		return err
	}
	if err := b.TrimFront(1); err != nil {
		return err
	}
	return b.Append(nativeTrailer, status)
}

// iso7816Codec is an ISO7816-4 APDU, bare or behind a PM3 prologue with CRC:
//
//	CLA INS P1 P2 [Lc data...] [Le]
//	P0 P1 CLA INS P1 P2 [Lc data...] [Le] CRC
//
// P1 and P2 must be zero. The response keeps the executor's status bytes.
type iso7816Codec struct{}

func (iso7816Codec) Format() WrapFormat { return WrapISO7816Standard }

func (iso7816Codec) Unwrap(wc *wrapContext, b *frame.Buffer) bool {
	p := b.Bytes()
	body := p
	prologueLen := 0
	if len(p) > 0 && isPM3Prologue(p[0]) {
		if len(p) < pm3PrologueLen+frame.CRCASize || !frame.CheckCRCA(p) {
			return false
		}
		prologueLen = pm3PrologueLen
		body = p[pm3PrologueLen : len(p)-frame.CRCASize]
	}
	apdu, ok := iso7816.ParseCommand(body)
	if !ok || !standardClass(apdu.CLA) {
		return false
	}

	wc.keepPrologue(p, prologueLen)
	wc.crc = prologueLen > 0
	if apdu.P1 != 0x00 || apdu.P2 != 0x00 {
		wc.reply = iso7816.SWIncorrectP1P2.Bytes()
		return true
	}
	cmd := append([]byte{apdu.INS}, apdu.Data...)
	_ = b.SetBytes(cmd)
	return true
}

func (iso7816Codec) Rewrap(*wrapContext, *frame.Buffer) error { return nil }

// standardClass accepts plain interindustry classes: no chaining, no secure
// messaging, basic channel. Anything else is left to the other conventions,
// which also start with bytes that classify as interindustry.
func standardClass(cla byte) bool {
	class, err := iso7816.NewClass(cla)
	return err == nil && class.IsPlain()
}

// pm3Codec covers the Proxmark raw conventions behind a PM3 prologue with
// CRC. The command is restructured into the native envelope, handled by the
// native codec, and the native response is turned back into status data...
//
//	P0 P1 AF data... CRC    (additional frame)
//	P0 P1 INS data... CRC   (raw)
type pm3Codec struct {
	native          nativeCodec
	additionalFrame bool
}

func (c pm3Codec) Format() WrapFormat {
	if c.additionalFrame {
		return WrapPM3AdditionalFrame
	}
	return WrapPM3Raw
}

func (c pm3Codec) Unwrap(wc *wrapContext, b *frame.Buffer) bool {
	p := b.Bytes()
	if len(p) < pm3PrologueLen+1+frame.CRCASize || !isPM3Prologue(p[0]) || !frame.CheckCRCA(p) {
		return false
	}
	if (p[2] == statusAdditionalFrame) != c.additionalFrame {
		return false
	}

	var prologue [pm3PrologueLen]byte
	copy(prologue[:], p)

	_ = b.Truncate(b.Len() - frame.CRCASize)
	_ = b.TrimFront(pm3PrologueLen)
	ins, _ := b.At(0)
	dataLen := b.Len() - 1
	_ = b.TrimFront(1)
	if err := b.Prepend(nativeCLA, ins, 0x00, 0x00, byte(dataLen)); err != nil {
		return false
	}
	if !c.native.Unwrap(wc, b) {
		return false
	}

	wc.prologue = prologue
	wc.prologueLen = pm3PrologueLen
	wc.crc = true
	return true
}

func (c pm3Codec) Rewrap(wc *wrapContext, b *frame.Buffer) error {
	if err := c.native.Rewrap(wc, b); err != nil {
		return err
	}
	// data... 91 status -> status data...
	n := b.Len()
	status, err := b.At(n - 1)
	if err != nil {
		return err
	}
	if err := b.Truncate(n - 2); err != nil {
		return err
	}
	return b.Prepend(status)
}

// wrapCodecs is the detection order. Conventions overlap structurally, so
// the order decides which one claims a frame.
var wrapCodecs = []wrapCodec{
	prologueContinuation{},
	nativeCodec{continuation: true},
	nativeCodec{},
	nativeCodec{scanPrologue: true},
	iso7816Codec{},
	pm3Codec{additionalFrame: true},
	pm3Codec{},
}

// payloadCodecs apply to I-block payloads, which carry no prologue or CRC
// of their own
var payloadCodecs = []wrapCodec{
	nativeCodec{continuation: true},
	nativeCodec{},
	iso7816Codec{},
}
