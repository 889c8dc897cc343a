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

// dispatch runs one incoming frame through duplicate suppression, the wrap
// codecs, the bare executor and finally the ISO14443 state machines. The
// response replaces the contents of b; its length in bits is returned.
func (e *Engine) dispatch(b *frame.Buffer) int {
	if e.cache.isDuplicate(b) {
		Debugln("dispatch: retransmission, resending last response")
		return e.cache.replay(b)
	}
	e.cache.recordIncoming(b)

	if e.isAddressedBlock(b) {
		bits := e.process3A(b)
		e.finish(b, bits, WrapNone)
		return bits
	}

	if bits, ok := e.dispatchWrapped(b); ok {
		return bits
	}

	if bits, ok := e.dispatchBare(b); ok {
		return bits
	}

	bits := e.process3A(b)
	e.finish(b, bits, WrapNone)
	return bits
}

// dispatchWrapped tries each wrap codec in order. The first codec that
// claims the frame decides the outcome, response or not.
func (e *Engine) dispatchWrapped(b *frame.Buffer) (int, bool) {
	var orig frame.Buffer
	orig.CopyFrom(b)
	expects := e.expectsAdditionalFrame()

	for _, codec := range wrapCodecs {
		wc := wrapContext{expectsAdditional: expects}
		if !codec.Unwrap(&wc, b) {
			b.CopyFrom(&orig)
			continue
		}

		if wc.reply != nil {
			_ = b.SetBytes(wc.reply)
		} else if !e.execute(b, true) {
			Debugf("dispatch: no response to %s command", codec.Format())
			return 0, true
		}

		if err := codec.Rewrap(&wc, b); err != nil {
			Debugf("dispatch: %s rewrap failed: %v", codec.Format(), err)
			return 0, true
		}
		if err := finishWrap(&wc, b); err != nil {
			Debugf("dispatch: %s response too large: %v", codec.Format(), err)
			return 0, true
		}
		e.finish(b, b.Bits(), codec.Format())
		return b.Bits(), true
	}
	return 0, false
}

// isAddressedBlock reports whether b is an I-block carrying our CID while the
// block protocol is active. Such a frame shares its first bytes with a PM3
// prologue and belongs to ISO14443-4.
func (e *Engine) isAddressedBlock(b *frame.Buffer) bool {
	p := b.Bytes()
	if e.l4 != StateProtocolActive || len(p) < pm3PrologueLen+frame.CRCASize {
		return false
	}
	return isPM3Prologue(p[0]) && p[1]&cidMask == e.cardID && frame.CheckCRCA(p)
}

// dispatchBare offers the frame to the executor as is
func (e *Engine) dispatchBare(b *frame.Buffer) (int, bool) {
	var orig frame.Buffer
	orig.CopyFrom(b)
	if !e.execute(b, false) {
		b.CopyFrom(&orig)
		return 0, false
	}
	e.finish(b, b.Bits(), WrapNone)
	return b.Bits(), true
}

// executePayload runs an I-block payload through the payload codecs, or
// hands it to the executor bare when no codec claims it
func (e *Engine) executePayload(b *frame.Buffer) bool {
	var orig frame.Buffer
	orig.CopyFrom(b)
	expects := e.expectsAdditionalFrame()

	for _, codec := range payloadCodecs {
		wc := wrapContext{expectsAdditional: expects}
		if !codec.Unwrap(&wc, b) {
			b.CopyFrom(&orig)
			continue
		}
		if wc.reply != nil {
			return b.SetBytes(wc.reply) == nil
		}
		if !e.execute(b, true) {
			return false
		}
		if err := codec.Rewrap(&wc, b); err != nil {
			Debugf("dispatch: %s payload rewrap failed: %v", codec.Format(), err)
			return false
		}
		return true
	}
	return e.execute(b, false)
}

// finish caches and logs a response
func (e *Engine) finish(b *frame.Buffer, bits int, format WrapFormat) {
	if bits == 0 {
		return
	}
	e.cache.recordOutgoing(b)
	e.logger.Log(EventOutgoingData, b.Bytes())
	Debugf("dispatch: out [%s] %s", format, formatFrame(b.Bytes(), bits))
}

// execute replaces the command in b with the executor's response. Wrapped
// commands pass through the APDU processor. It reports false, leaving b in
// an unspecified state, when there is no usable response.
func (e *Engine) execute(b *frame.Buffer, wrapped bool) bool {
	if b.Len() == 0 {
		return false
	}
	cmd := append([]byte(nil), b.Bytes()...)

	mode := CommModePlain
	if r, ok := e.executor.(CommModeReader); ok {
		mode = r.CommMode()
	}
	if wrapped {
		cmd = e.processor.Preprocess(mode, cmd)
		if len(cmd) == 0 {
			return false
		}
	}

	resp := e.executor.Execute(cmd)
	if wrapped && len(resp) > 0 {
		resp = e.processor.Postprocess(mode, resp)
	}
	if len(resp) == 0 {
		return false
	}
	if err := b.SetBytes(resp); err != nil {
		Debugf("dispatch: executor response dropped: %v", err)
		return false
	}
	return true
}

func (e *Engine) expectsAdditionalFrame() bool {
	r, ok := e.executor.(CommandStateReader)
	return ok && r.ExpectsAdditionalFrame()
}
