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

package main

import (
	"os"
	"path/filepath"
	"testing"

	picc "github.com/ZaparooProject/go-picc"
	testutil "github.com/ZaparooProject/go-picc/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func defaultTestConfig() *config {
	return &config{
		uid:        picc.DefaultUID,
		atqa:       picc.DefaultATQA,
		maxRetries: picc.DefaultMaxStateRetries,
	}
}

func TestProfileApply(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, `
uid: "12:34:56:78"
atqa: "0x0004"
ats: "0578807002"
ats_crc: true
max_retries: 9
iso14443_4: false
`)
	p, err := loadProfile(path)
	require.NoError(t, err)

	cfg := defaultTestConfig()
	require.NoError(t, p.apply(cfg, map[string]bool{}))

	assert.Equal(t, testutil.TestUID4, cfg.uid)
	assert.Equal(t, uint16(0x0004), cfg.atqa)
	assert.Equal(t, []byte{0x05, 0x78, 0x80, 0x70, 0x02}, cfg.ats)
	assert.True(t, cfg.atsCRC)
	assert.Equal(t, 9, cfg.maxRetries)
	assert.True(t, cfg.noISO4)

	e, err := picc.New(testutil.NewScriptedExecutor(), engineOptions(cfg)...)
	require.NoError(t, err)
	got := e.Config()
	assert.Equal(t, cfg.ats, got.ATS)
	assert.True(t, got.ATSWithCRC)
}

func TestProfileFlagsTakePrecedence(t *testing.T) {
	t.Parallel()

	p, err := loadProfile(writeProfile(t, "uid: \"12345678\"\nmax_retries: 1\n"))
	require.NoError(t, err)

	cfg := defaultTestConfig()
	require.NoError(t, p.apply(cfg, map[string]bool{"uid": true, "max-retries": true}))
	assert.Equal(t, picc.DefaultUID, cfg.uid)
	assert.Equal(t, picc.DefaultMaxStateRetries, cfg.maxRetries)
	assert.False(t, cfg.noISO4)
}

func TestProfileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		load    bool
	}{
		{name: "unknown field", content: "serial: 123\n", load: true},
		{name: "not yaml", content: "uid: [\n", load: true},
		{name: "bad UID", content: "uid: \"0411\"\n"},
		{name: "bad ATQA", content: "atqa: \"zz\"\n"},
		{name: "bad ATS", content: "ats: \"06 75\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := loadProfile(writeProfile(t, tt.content))
			if tt.load {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Error(t, p.apply(defaultTestConfig(), map[string]bool{}))
		})
	}

	_, err := loadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
