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
	"fmt"
)

// Default card identity
var (
	// DefaultUID is a double-size NXP-style UID
	DefaultUID = []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	// DefaultATS is the answer to select sent after RATS: TL, T0, TA, TB, TC, T1
	DefaultATS = []byte{0x06, 0x75, 0x77, 0x81, 0x02, 0x80}
)

const (
	// DefaultATQA is a DESFire-style answer to request (double-size UID)
	DefaultATQA uint16 = 0x0344
	// DefaultMaxStateRetries is how many unrecognized frames a waiting
	// state tolerates before falling back to its idle baseline
	DefaultMaxStateRetries = 4
)

// UID sizes supported by the anticollision loop
const (
	UIDSizeSingle = 4
	UIDSizeDouble = 7
)

// minATSLength covers TL and the four bytes echoed in the ATS reply
const minATSLength = 5

// Config holds the card identity and protocol options of an Engine
type Config struct {
	// Logger receives protocol events. Nil means NopLogger.
	Logger Logger
	// Processor runs the comm-mode pre/post processing of wrapped APDUs.
	// Nil means PlainProcessor.
	Processor APDUProcessor
	// UID is the 4 or 7 byte card identifier
	UID []byte
	// ATS supplies the bytes echoed after RATS; ATS[1..4] are sent
	ATS []byte
	// MaxStateRetries bounds unrecognized frames before a state reset
	MaxStateRetries int
	// ATQA is sent LSB first in reply to REQA/WUPA
	ATQA uint16
	// ISO14443_4 enables the block protocol. When false the card stays a
	// plain ISO14443-3 card and never answers RATS.
	ISO14443_4 bool
	// ATSWithCRC appends CRC_A to the ATS reply. Off by default: readers
	// in the field have been seen to expect the bare ATS.
	ATSWithCRC bool
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		UID:             append([]byte(nil), DefaultUID...),
		ATQA:            DefaultATQA,
		ATS:             append([]byte(nil), DefaultATS...),
		MaxStateRetries: DefaultMaxStateRetries,
		ISO14443_4:      true,
		Logger:          NopLogger{},
		Processor:       PlainProcessor{},
	}
}

// Validate checks the configuration for values the engine cannot serve
func (c *Config) Validate() error {
	if len(c.UID) != UIDSizeSingle && len(c.UID) != UIDSizeDouble {
		return fmt.Errorf("%w: got %d bytes, want %d or %d", ErrInvalidUID, len(c.UID), UIDSizeSingle, UIDSizeDouble)
	}
	if c.UID[0] == cascadeTag {
		return fmt.Errorf("%w: first byte must not be the cascade tag 0x%02X", ErrInvalidUID, cascadeTag)
	}
	if len(c.ATS) < minATSLength {
		return fmt.Errorf("%w: got %d bytes, want at least %d", ErrInvalidATS, len(c.ATS), minATSLength)
	}
	if c.MaxStateRetries < 0 {
		return fmt.Errorf("%w: max state retries must not be negative, got %d", ErrInvalidParameter, c.MaxStateRetries)
	}
	return nil
}

// Option configures an Engine
type Option func(*Config) error

// WithUID sets the card UID (4 or 7 bytes)
func WithUID(uid []byte) Option {
	return func(c *Config) error {
		c.UID = append([]byte(nil), uid...)
		return nil
	}
}

// WithATQA sets the answer to request
func WithATQA(atqa uint16) Option {
	return func(c *Config) error {
		c.ATQA = atqa
		return nil
	}
}

// WithATS sets the answer to select template
func WithATS(ats []byte) Option {
	return func(c *Config) error {
		c.ATS = append([]byte(nil), ats...)
		return nil
	}
}

// WithATSCRC appends CRC_A to the ATS reply
func WithATSCRC() Option {
	return func(c *Config) error {
		c.ATSWithCRC = true
		return nil
	}
}

// WithMaxStateRetries sets how many unrecognized frames are tolerated
func WithMaxStateRetries(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("max state retries must not be negative, got %d", n)
		}
		c.MaxStateRetries = n
		return nil
	}
}

// WithoutISO14443_4 makes the card a plain ISO14443-3 card
func WithoutISO14443_4() Option {
	return func(c *Config) error {
		c.ISO14443_4 = false
		return nil
	}
}

// WithLogger sets the protocol event logger
func WithLogger(l Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithAPDUProcessor sets the comm-mode processor for wrapped APDUs
func WithAPDUProcessor(p APDUProcessor) Option {
	return func(c *Config) error {
		c.Processor = p
		return nil
	}
}

func applyOptions(opts []Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger{}
	}
	if cfg.Processor == nil {
		cfg.Processor = PlainProcessor{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
