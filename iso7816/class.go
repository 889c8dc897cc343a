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

// Package iso7816 decodes the parts of ISO/IEC 7816-4 command APDUs that a
// card-side front-end needs to recognize wrapped commands: the class byte,
// short-length command structure and status words.
package iso7816

import "errors"

// ErrReservedClass is returned for the reserved CLA value 0xFF
var ErrReservedClass = errors.New("invalid CLA value: 0xFF is reserved")

// Class byte (CLA) structure:
//
//	Bit 8: proprietary (1) or interindustry (0)
//	Bit 7: first (0) or further (1) interindustry range
//	Bit 5: command chaining
//
// First interindustry (00xx xxxx): bits 4-3 secure messaging, bits 2-1
// logical channel 0-3. Further interindustry (01xx xxxx): bit 6 secure
// messaging, bits 4-1 logical channel minus 4.
const (
	claProprietary = 0x80
	claFurther     = 0x40
	claFurtherSM   = 0x20
	claChaining    = 0x10
	claFirstSM     = 0x0C
	claFirstChan   = 0x03
	claFurtherChan = 0x0F
	claReserved    = 0xFF

	firstSMShift       = 2
	furtherChannelBase = 4
)

// SecureMessaging is the security level indicated by the class byte
type SecureMessaging int

// Secure messaging indications
const (
	// SMNone indicates no secure messaging or no indication given
	SMNone SecureMessaging = iota
	// SMProprietary is a proprietary format (first interindustry only)
	SMProprietary
	// SMHeaderNoProc is ISO secure messaging, header not processed
	SMHeaderNoProc
	// SMHeaderAuth is ISO secure messaging, header authenticated (first interindustry only)
	SMHeaderAuth
)

// Class is a decoded CLA byte
type Class struct {
	SecureMessaging SecureMessaging
	Raw             byte
	Channel         uint8 // 0-19
	IsProprietary   bool
	IsChained       bool
}

// NewClass decodes a raw CLA byte
func NewClass(cla byte) (Class, error) {
	if cla == claReserved {
		return Class{}, ErrReservedClass
	}

	c := Class{Raw: cla}
	if cla&claProprietary != 0 {
		c.IsProprietary = true
		return c, nil
	}

	c.IsChained = cla&claChaining != 0
	if cla&claFurther == 0 {
		c.SecureMessaging = SecureMessaging((cla & claFirstSM) >> firstSMShift)
		c.Channel = cla & claFirstChan
		return c, nil
	}

	if cla&claFurtherSM != 0 {
		c.SecureMessaging = SMHeaderNoProc
	}
	c.Channel = cla&claFurtherChan + furtherChannelBase
	return c, nil
}

// IsInterindustry reports whether the class follows ISO/IEC 7816-4 coding
func (c Class) IsInterindustry() bool {
	return !c.IsProprietary
}

// IsPlain reports an interindustry class on the basic channel with neither
// chaining nor secure messaging
func (c Class) IsPlain() bool {
	return c.IsInterindustry() && !c.IsChained && c.SecureMessaging == SMNone && c.Channel == 0
}
