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
	"context"
	"errors"
	"fmt"
)

// Link carries over-the-air frames between an RF front-end and the engine.
// A frame with zero bits reports that the RF field dropped.
type Link interface {
	// ReadFrame blocks until the front-end delivers a frame received from
	// the PCD or ctx ends
	ReadFrame(ctx context.Context) (data []byte, bits int, err error)
	// WriteFrame hands a response to the front-end for transmission
	WriteFrame(ctx context.Context, data []byte, bits int) error
	Close() error
}

// FrameProcessor is the card side of Serve. Engine and SyncEngine
// implement it.
type FrameProcessor interface {
	ProcessFrame(data []byte, bits int) ([]byte, int)
	FieldOff()
}

// ServeConfig configures Serve
type ServeConfig struct {
	// Retry is applied to writes; nil means DefaultRetryConfig
	Retry *RetryConfig
	// Port names the link in errors and traces
	Port string
	// TraceFrames is how many recent frames fatal errors carry
	TraceFrames int
}

const defaultTraceFrames = 32

// DefaultServeConfig returns the default Serve configuration
func DefaultServeConfig() *ServeConfig {
	return &ServeConfig{
		Retry:       DefaultRetryConfig(),
		TraceFrames: defaultTraceFrames,
	}
}

// Serve answers frames from link with p until ctx ends or the link fails
// permanently. Transient link errors are logged and the loop carries on.
// Permanent errors are returned wrapped with the recent air trace; the
// end of ctx is returned as ctx.Err(). Serve does not close the link.
func Serve(ctx context.Context, link Link, p FrameProcessor, cfg *ServeConfig) error {
	if cfg == nil {
		cfg = DefaultServeConfig()
	}
	trace := NewTraceBuffer(cfg.Port, cfg.TraceFrames)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, bits, err := link.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if stop := linkFailure("read", err); stop {
				return trace.WrapError(fmt.Errorf("read frame: %w", err))
			}
			sleepContext(ctx, LinkInitialBackoff)
			continue
		}

		trace.RecordRX(data, bits, "")
		if bits == 0 {
			p.FieldOff()
			continue
		}

		resp, respBits := p.ProcessFrame(data, bits)
		if respBits == 0 {
			continue
		}
		trace.RecordTX(resp, respBits, "")

		err = RetryWithConfig(ctx, cfg.Retry, func(ctx context.Context) error {
			return link.WriteFrame(ctx, resp, respBits)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if stop := linkFailure("write", err); stop {
				return trace.WrapError(fmt.Errorf("write frame: %w", err))
			}
		}
	}
}

// linkFailure logs a link error and reports whether serving must stop
func linkFailure(op string, err error) bool {
	switch {
	case IsFatal(err):
		Debugf("serve: %s failed, link gone: %v", op, err)
		return true
	case IsRetryable(err), errors.Is(err, context.DeadlineExceeded):
		Debugf("serve: %s failed, continuing: %v", op, err)
		return false
	default:
		Debugf("serve: %s failed: %v", op, err)
		return true
	}
}
