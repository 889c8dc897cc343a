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

// Command is a short-length command APDU. The encoding cases are:
//
//	Case 1: CLA INS P1 P2
//	Case 2: CLA INS P1 P2 Le
//	Case 3: CLA INS P1 P2 Lc data
//	Case 4: CLA INS P1 P2 Lc data Le
type Command struct {
	Data []byte
	// Ne is the expected response length; 0 when Le is absent
	Ne  int
	CLA byte
	INS byte
	P1  byte
	P2  byte
}

// Short length limits
const (
	HeaderSize = 4
	MaxShortLe = 256
)

// Class decodes the command's CLA byte
func (c Command) Class() (Class, error) {
	return NewClass(c.CLA)
}

// ParseCommand decodes p as a short-length command APDU. ok is false when
// the length bytes do not account for exactly the bytes present. Data
// aliases p.
func ParseCommand(p []byte) (cmd Command, ok bool) {
	if len(p) < HeaderSize {
		return Command{}, false
	}
	cmd = Command{CLA: p[0], INS: p[1], P1: p[2], P2: p[3]}
	body := p[HeaderSize:]

	switch {
	case len(body) == 0:
		return cmd, true
	case len(body) == 1:
		cmd.Ne = decodeLe(body[0])
		return cmd, true
	}

	lc := int(body[0])
	if lc == 0 {
		// Extended length is not used by the readers this serves
		return Command{}, false
	}
	switch len(body) - 1 - lc {
	case 0:
		cmd.Data = body[1:]
		return cmd, true
	case 1:
		cmd.Data = body[1 : 1+lc]
		cmd.Ne = decodeLe(body[1+lc])
		return cmd, true
	default:
		return Command{}, false
	}
}

func decodeLe(le byte) int {
	if le == 0 {
		return MaxShortLe
	}
	return int(le)
}

// Encode serializes the command in short-length form
func (c Command) Encode() []byte {
	out := make([]byte, 0, HeaderSize+2+len(c.Data))
	out = append(out, c.CLA, c.INS, c.P1, c.P2)
	if len(c.Data) > 0 {
		out = append(out, byte(len(c.Data)))
		out = append(out, c.Data...)
	}
	if c.Ne > 0 {
		out = append(out, byte(c.Ne))
	}
	return out
}
