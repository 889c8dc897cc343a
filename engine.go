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
	"github.com/ZaparooProject/go-picc/internal/syncutil"
)

// Engine emulates the contactless front-end of an ISO14443-A card. It
// feeds frames received from a PCD through duplicate suppression, reader
// wrapping detection, the application executor and the ISO14443-3A and
// ISO14443-4 state machines, and returns the frame to send back.
//
// An Engine is not safe for concurrent use; see SyncEngine.
type Engine struct {
	executor  CommandExecutor
	logger    Logger
	processor APDUProcessor
	cfg       *Config
	buf       frame.Buffer
	cache     frameCache

	l3          Layer3AState
	idleReturn  Layer3AState
	l4          Layer4State
	retries     int
	blockNumber byte
	cardID      byte
}

// State is a snapshot of the protocol state of an Engine
type State struct {
	Layer3A     Layer3AState
	Layer4      Layer4State
	Retries     int
	BlockNumber byte
	CardID      byte
}

// New creates an engine answering as a freshly powered card in IDLE
func New(executor CommandExecutor, opts ...Option) (*Engine, error) {
	if executor == nil {
		return nil, ErrNilExecutor
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		executor:  executor,
		cfg:       cfg,
		logger:    cfg.Logger,
		processor: cfg.Processor,
	}
	e.reset3A()
	e.reset4()
	return e, nil
}

// ProcessFrame handles one frame of bits length received from the PCD and
// returns the response and its length in bits. A nil response means the card
// stays silent. bits == 0 signals that the RF field dropped.
//
// The returned slice is only valid until the next call.
func (e *Engine) ProcessFrame(data []byte, bits int) (resp []byte, respBits int) {
	if bits == 0 {
		e.FieldOff()
		return nil, 0
	}
	if err := e.buf.SetFrame(data, bits); err != nil {
		Debugf("engine: dropping frame: %v", err)
		return nil, 0
	}
	e.logger.Log(EventIncomingData, e.buf.Bytes())

	respBits = e.dispatch(&e.buf)
	if respBits == 0 {
		return nil, 0
	}
	return e.buf.Bytes(), respBits
}

// FieldOff resets the card as if it lost power: both layers go back to their
// baseline, the card halts and the frame cache is emptied.
func (e *Engine) FieldOff() {
	Debugln("engine: field off")
	e.reset4()
	e.halt3A()
	e.cache.clear()
	e.resetExecutor()
}

// Reset returns the engine to its power-on state
func (e *Engine) Reset() {
	e.reset3A()
	e.reset4()
	e.retries = 0
	e.cardID = 0
	e.cache.clear()
	e.resetExecutor()
}

func (e *Engine) resetExecutor() {
	if r, ok := e.executor.(ExecutorResetter); ok {
		r.Reset()
	}
}

// State returns a snapshot of the protocol state
func (e *Engine) State() State {
	return State{
		Layer3A:     e.l3,
		Layer4:      e.l4,
		Retries:     e.retries,
		BlockNumber: e.blockNumber,
		CardID:      e.cardID,
	}
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() Config {
	return *e.cfg
}

// SyncEngine serializes access to an Engine for hosts that deliver frames
// and field events from different goroutines.
type SyncEngine struct {
	engine *Engine
	mu     syncutil.Mutex
}

// NewSyncEngine creates an engine guarded by a mutex
func NewSyncEngine(executor CommandExecutor, opts ...Option) (*SyncEngine, error) {
	e, err := New(executor, opts...)
	if err != nil {
		return nil, err
	}
	return &SyncEngine{engine: e}, nil
}

// ProcessFrame is Engine.ProcessFrame under the lock. The response is copied
// so it stays valid after the lock is released.
func (s *SyncEngine) ProcessFrame(data []byte, bits int) ([]byte, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, respBits := s.engine.ProcessFrame(data, bits)
	if resp == nil {
		return nil, 0
	}
	return append([]byte(nil), resp...), respBits
}

// FieldOff is Engine.FieldOff under the lock
func (s *SyncEngine) FieldOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.FieldOff()
}

// Reset is Engine.Reset under the lock
func (s *SyncEngine) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
}

// State is Engine.State under the lock
func (s *SyncEngine) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}
