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

// CommandExecutor runs bare application commands.
//
// Execute receives a command with all reader wrapping removed, typically an
// instruction byte followed by its parameters, and returns the bare response
// (status byte first for native DESFire commands). A nil or empty response
// means "no response". Execute must return no response for bytes it does not
// recognize, so that contactless protocol frames fall through to the
// ISO14443 state machines. The slice passed in is owned by the executor.
type CommandExecutor interface {
	Execute(cmd []byte) []byte
}

// ExecutorFunc adapts a plain function to CommandExecutor
type ExecutorFunc func(cmd []byte) []byte

// Execute implements CommandExecutor
func (f ExecutorFunc) Execute(cmd []byte) []byte {
	return f(cmd)
}

// CommandStateReader is implemented by executors with multi-frame commands.
// ExpectsAdditionalFrame reports whether the next command is expected to be
// an additional frame (0xAF) continuing the current one.
type CommandStateReader interface {
	ExpectsAdditionalFrame() bool
}

// ExecutorResetter is implemented by executors that hold per-session state.
// Reset is called when the field drops or the engine is reset.
type ExecutorResetter interface {
	Reset()
}

// CommMode is the communication mode of the current application session
type CommMode int

// Communication modes
const (
	CommModePlain CommMode = iota
	CommModeMAC
	CommModeEncrypted
)

func (m CommMode) String() string {
	switch m {
	case CommModePlain:
		return "PLAIN"
	case CommModeMAC:
		return "MAC"
	case CommModeEncrypted:
		return "ENCRYPTED"
	default:
		return "UNKNOWN"
	}
}

// CommModeReader is implemented by executors that track an authenticated
// session. Executors without it are treated as CommModePlain.
type CommModeReader interface {
	CommMode() CommMode
}

// APDUProcessor applies comm-mode processing to wrapped APDUs. Preprocess
// receives the bare command before execution and Postprocess the bare
// response after it. Returning nil from either drops the exchange.
type APDUProcessor interface {
	Preprocess(mode CommMode, cmd []byte) []byte
	Postprocess(mode CommMode, resp []byte) []byte
}

// PlainProcessor passes APDUs through unchanged in every mode
type PlainProcessor struct{}

// Preprocess implements APDUProcessor
func (PlainProcessor) Preprocess(_ CommMode, cmd []byte) []byte { return cmd }

// Postprocess implements APDUProcessor
func (PlainProcessor) Postprocess(_ CommMode, resp []byte) []byte { return resp }
