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
	"bytes"

	"github.com/ZaparooProject/go-picc"
	"github.com/ZaparooProject/go-picc/iso7816"
)

// ISOApplicationName is the DF name of the DESFire ISO application
var ISOApplicationName = []byte{0xD2, 0x76, 0x00, 0x00, 0x85, 0x01, 0x00}

// Card answers DESFire commands. It implements picc.CommandExecutor,
// picc.CommandStateReader, picc.CommModeReader and picc.ExecutorResetter.
type Card struct {
	version Version
	state   CommandState
}

// New creates a card reporting the given version data
func New(v Version) *Card {
	return &Card{version: v}
}

// NewWithUID creates a card with DefaultVersion for uid
func NewWithUID(uid []byte) (*Card, error) {
	v, err := DefaultVersion(uid)
	if err != nil {
		return nil, err
	}
	return New(v), nil
}

// Execute implements picc.CommandExecutor. Unknown instructions get no
// response so that protocol frames fall through to the engine.
func (c *Card) Execute(cmd []byte) []byte {
	if len(cmd) == 0 {
		return nil
	}
	ins := cmd[0]
	if ins == InsAdditionalFrame {
		return c.continueChain(cmd)
	}

	switch ins {
	case InsGetVersion:
		c.state = StateIdle
		if len(cmd) != 1 {
			return status(StatusLengthError)
		}
		c.state = StateGetVersion2
		return response(StatusAdditionalFrame, c.version.part(1))
	case InsGetApplicationIDs:
		c.state = StateIdle
		if len(cmd) != 1 {
			return status(StatusLengthError)
		}
		// No applications besides the PICC master application
		return status(StatusOK)
	case InsISOSelectFile:
		c.state = StateIdle
		return c.selectFile(cmd[1:])
	default:
		// Unknown bytes are usually protocol frames on their way to the
		// engine and leave a chain in progress alone
		picc.Debugf("desfire: instruction 0x%02X not handled", ins)
		return nil
	}
}

func (c *Card) continueChain(cmd []byte) []byte {
	if len(cmd) != 1 {
		c.state = StateIdle
		return status(StatusLengthError)
	}
	switch c.state {
	case StateGetVersion2:
		c.state = StateGetVersion3
		return response(StatusAdditionalFrame, c.version.part(2))
	case StateGetVersion3:
		c.state = StateIdle
		return response(StatusOK, c.version.part(3))
	default:
		return status(StatusIllegalCommand)
	}
}

// selectFile answers an ISO SELECT by DF name with an FCI template
func (c *Card) selectFile(name []byte) []byte {
	if !bytes.Equal(name, ISOApplicationName) {
		return iso7816.SWFileNotFound.Bytes()
	}
	fci, err := iso7816.BuildFCI(name)
	if err != nil {
		picc.Debugf("desfire: FCI encoding failed: %v", err)
		return iso7816.SWFuncNotSupported.Bytes()
	}
	return append(fci, iso7816.SWNoError.Bytes()...)
}

// ExpectsAdditionalFrame implements picc.CommandStateReader
func (c *Card) ExpectsAdditionalFrame() bool {
	return c.state != StateIdle
}

// CommMode implements picc.CommModeReader. No session is ever authenticated.
func (*Card) CommMode() picc.CommMode {
	return picc.CommModePlain
}

// State returns the chained command state
func (c *Card) State() CommandState {
	return c.state
}

// Reset implements picc.ExecutorResetter
func (c *Card) Reset() {
	c.state = StateIdle
}

func status(s Status) []byte {
	return []byte{byte(s)}
}

func response(s Status, data []byte) []byte {
	out := make([]byte, 0, 1+len(data))
	out = append(out, byte(s))
	return append(out, data...)
}
