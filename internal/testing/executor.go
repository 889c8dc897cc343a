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

package testing

import "github.com/ZaparooProject/go-picc/internal/syncutil"

// ScriptedExecutor answers commands from a table keyed by the raw
// command and records every call. It implements the executor interfaces
// of the engine structurally so it can be used without importing it.
type ScriptedExecutor struct {
	responses map[string][]byte
	calls     [][]byte
	resets    int
	mu        syncutil.Mutex
	// Expecting drives ExpectsAdditionalFrame
	Expecting bool
}

// NewScriptedExecutor returns an executor with no scripted responses
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{responses: make(map[string][]byte)}
}

// On scripts the response to an exact command
func (s *ScriptedExecutor) On(cmd, resp []byte) *ScriptedExecutor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[string(cmd)] = append([]byte(nil), resp...)
	return s
}

// Execute returns the scripted response or nil
func (s *ScriptedExecutor) Execute(cmd []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]byte(nil), cmd...))
	resp, ok := s.responses[string(cmd)]
	if !ok {
		return nil
	}
	return append([]byte(nil), resp...)
}

// ExpectsAdditionalFrame reports the Expecting field
func (s *ScriptedExecutor) ExpectsAdditionalFrame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Expecting
}

// Reset counts session resets
func (s *ScriptedExecutor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

// Calls returns a copy of every command received so far
func (s *ScriptedExecutor) Calls() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times cmd was executed
func (s *ScriptedExecutor) CallCount(cmd []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if string(c) == string(cmd) {
			n++
		}
	}
	return n
}

// Resets returns how many times Reset was called
func (s *ScriptedExecutor) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}
