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
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ZaparooProject/go-picc/internal/syncutil"
)

const sessionLogTimeLayout = "20060102_150405"

// sessionLog is the optional file every debug line is copied to
type sessionLog struct {
	file *os.File
	w    io.Writer
	path string
	mu   syncutil.RWMutex
}

var session sessionLog

func (s *sessionLog) writeLine(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return
	}
	_, _ = fmt.Fprintf(s.w, "%s DEBUG: %s\n", time.Now().Format(traceTime), msg)
}

// redirect sends session lines to w and returns the previous writer
func (s *sessionLog) redirect(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}

func (s *sessionLog) open(dir string) (string, error) {
	name := filepath.Join(dir, "picc_"+time.Now().Format(sessionLogTimeLayout)+".log")
	f, err := os.Create(name) //nolint:gosec // name is built here from a timestamp
	if err != nil {
		return "", fmt.Errorf("failed to create session log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		_ = s.file.Close()
	}
	s.file, s.w, s.path = f, f, name
	writeSessionHeader(f)
	return name, nil
}

func (s *sessionLog) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	_, _ = fmt.Fprintf(s.w, "\n%s === Session ended ===\n", time.Now().Format(traceTime))
	err := s.file.Close()
	s.file, s.w, s.path = nil, nil, ""
	if err != nil {
		return fmt.Errorf("failed to close session log: %w", err)
	}
	return nil
}

// InitSessionLog opens picc_YYYYMMDD_HHMMSS.log in dir (the working
// directory when empty) and copies every debug line into it, whether or not
// console debug output is on. It returns the file path. An already open
// session log is closed first.
func InitSessionLog(dir string) (string, error) {
	return session.open(dir)
}

// CloseSessionLog writes the session footer and closes the file
func CloseSessionLog() error {
	return session.close()
}

// SessionLogPath returns the path of the open session log, or ""
func SessionLogPath() string {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.path
}

func writeSessionHeader(w io.Writer) {
	fields := [][2]string{
		{"Started", time.Now().Format(time.RFC3339)},
		{"PID", fmt.Sprint(os.Getpid())},
		{"OS", runtime.GOOS + "/" + runtime.GOARCH},
		{"Go Version", runtime.Version()},
		{"Deadlock detection", fmt.Sprint(syncutil.Enabled)},
		{"Command Line", strings.Join(os.Args, " ")},
	}
	if exe, err := os.Executable(); err == nil {
		fields = append(fields, [2]string{"Executable", exe})
	}

	_, _ = io.WriteString(w, "=== PICC Emulator Session Log ===\n")
	for _, f := range fields {
		_, _ = fmt.Fprintf(w, "%s: %s\n", f[0], f[1])
	}
	_, _ = io.WriteString(w, "=================================\n\n")
}
