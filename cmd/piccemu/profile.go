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
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// profile is a card identity stored as YAML:
//
//	uid: "04112233445566"
//	atqa: "0344"
//	ats: "0675778102"
//	ats_crc: false
//	max_retries: 4
//	iso14443_4: true
//
// Flags given on the command line take precedence over the profile.
type profile struct {
	MaxRetries *int   `yaml:"max_retries"`
	ISO14443_4 *bool  `yaml:"iso14443_4"`
	UID        string `yaml:"uid"`
	ATQA       string `yaml:"atqa"`
	ATS        string `yaml:"ats"`
	ATSCRC     bool   `yaml:"ats_crc"`
}

func loadProfile(path string) (*profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var p profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse profile yaml: %w", err)
	}
	return &p, nil
}

// apply copies the profile into cfg, skipping settings whose flag was set
func (p *profile) apply(cfg *config, explicit map[string]bool) error {
	if p.UID != "" && !explicit["uid"] {
		uid, err := parseUID(p.UID)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		cfg.uid = uid
	}
	if p.ATQA != "" && !explicit["atqa"] {
		atqa, err := parseATQA(p.ATQA)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		cfg.atqa = atqa
	}
	if p.ATS != "" {
		ats, err := hex.DecodeString(strings.ReplaceAll(p.ATS, ":", ""))
		if err != nil {
			return fmt.Errorf("profile: invalid ATS %q: %w", p.ATS, err)
		}
		cfg.ats = ats
	}
	cfg.atsCRC = p.ATSCRC
	if p.MaxRetries != nil && !explicit["max-retries"] {
		cfg.maxRetries = *p.MaxRetries
	}
	if p.ISO14443_4 != nil && !explicit["no-iso14443-4"] {
		cfg.noISO4 = !*p.ISO14443_4
	}
	return nil
}
