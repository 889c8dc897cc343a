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

// frameCache remembers the last frame received from and sent to the PCD.
// It is only used to resend a response and to absorb retransmissions.
type frameCache struct {
	in  frame.Buffer
	out frame.Buffer
}

// isDuplicate reports whether b repeats the last incoming frame, comparing
// up to the shorter of the two. Frames shorter than two bytes never match.
func (c *frameCache) isDuplicate(b *frame.Buffer) bool {
	if b.Len() < 2 || c.in.Bits() == 0 {
		return false
	}
	return c.in.HasCommonPrefix(b)
}

func (c *frameCache) recordIncoming(b *frame.Buffer) {
	c.in.CopyFrom(b)
}

func (c *frameCache) recordOutgoing(b *frame.Buffer) {
	c.out.CopyFrom(b)
}

// replay copies the last outgoing frame into b and returns its bit length
func (c *frameCache) replay(b *frame.Buffer) int {
	b.CopyFrom(&c.out)
	return b.Bits()
}

func (c *frameCache) hasOutgoing() bool {
	return c.out.Bits() > 0
}

func (c *frameCache) clearOutgoing() {
	c.out.Reset()
}

func (c *frameCache) clear() {
	c.in.Reset()
	c.out.Reset()
}
