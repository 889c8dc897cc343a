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
	"os"
	"sync/atomic"
)

// debugEnvVars switch console debug output on when any of them is set
var debugEnvVars = []string{"PICC_DEBUG", "DEBUG"}

var debugEnabled atomic.Bool

func init() {
	for _, name := range debugEnvVars {
		if os.Getenv(name) != "" {
			debugEnabled.Store(true)
			return
		}
	}
}

// Debugf logs a debug line. It always goes to the session log when one is
// open and to stdout only in debug mode.
func Debugf(format string, args ...any) {
	debugLine(fmt.Sprintf(format, args...))
}

// Debugln is Debugf with fmt.Sprint formatting
func Debugln(args ...any) {
	debugLine(fmt.Sprint(args...))
}

func debugLine(msg string) {
	session.writeLine(msg)
	if debugEnabled.Load() {
		_, _ = fmt.Println("DEBUG: " + msg)
	}
}

// SetDebugEnabled turns console debug output on or off
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

func DebugEnabled() bool {
	return debugEnabled.Load()
}
