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

package iso7816

import "fmt"

// StatusWord is the two-byte trailer (SW1-SW2) of a response APDU
type StatusWord uint16

// Status words answered by the card side
const (
	SWNoError          StatusWord = 0x9000
	SWWrongLength      StatusWord = 0x6700
	SWSecurityNotSat   StatusWord = 0x6982
	SWFuncNotSupported StatusWord = 0x6A81
	SWFileNotFound     StatusWord = 0x6A82
	SWIncorrectP1P2    StatusWord = 0x6A86
	SWInsNotSupported  StatusWord = 0x6D00
	SWClaNotSupported  StatusWord = 0x6E00
)

// NewStatusWord builds a StatusWord from its two bytes
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the high byte
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the low byte
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// Bytes returns SW1 SW2 as sent on the wire
func (sw StatusWord) Bytes() []byte {
	return []byte{sw.SW1(), sw.SW2()}
}

// IsSuccess reports 9000 or 61XX (response bytes available)
func (sw StatusWord) IsSuccess() bool {
	return sw == SWNoError || sw.SW1() == 0x61
}

// IsError reports an execution or checking error (64XX to 6FXX)
func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	return sw1 >= 0x64 && sw1 <= 0x6F
}

func (sw StatusWord) String() string {
	switch sw {
	case SWNoError:
		return "no error"
	case SWWrongLength:
		return "wrong length"
	case SWSecurityNotSat:
		return "security status not satisfied"
	case SWFuncNotSupported:
		return "function not supported"
	case SWFileNotFound:
		return "file not found"
	case SWIncorrectP1P2:
		return "incorrect parameters P1-P2"
	case SWInsNotSupported:
		return "instruction not supported"
	case SWClaNotSupported:
		return "class not supported"
	default:
		return fmt.Sprintf("StatusWord(%04X)", uint16(sw))
	}
}
