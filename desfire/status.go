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

// Package desfire is a minimal MIFARE DESFire application front-end. It
// answers the PICC-level discovery commands readers send while identifying
// a card and is meant to sit behind a picc.Engine as its CommandExecutor.
package desfire

import "fmt"

// Status is the native DESFire status byte sent first in every response
type Status byte

// Native status codes
const (
	StatusOK              Status = 0x00
	StatusIllegalCommand  Status = 0x1C
	StatusLengthError     Status = 0x7E
	StatusAdditionalFrame Status = 0xAF
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusIllegalCommand:
		return "ILLEGAL_COMMAND"
	case StatusLengthError:
		return "LENGTH_ERROR"
	case StatusAdditionalFrame:
		return "ADDITIONAL_FRAME"
	default:
		return fmt.Sprintf("Status(0x%02X)", byte(s))
	}
}

// Instruction bytes
const (
	InsGetVersion        = 0x60
	InsGetApplicationIDs = 0x6A
	InsAdditionalFrame   = 0xAF
	InsISOSelectFile     = 0xA4
)

// CommandState tracks a chained command between frames
type CommandState int

// Command states
const (
	StateIdle CommandState = iota
	StateGetVersion2
	StateGetVersion3
)

func (s CommandState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateGetVersion2:
		return "GET_VERSION2"
	case StateGetVersion3:
		return "GET_VERSION3"
	default:
		return "UNKNOWN"
	}
}
