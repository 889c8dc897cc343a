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

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// FCI template tags
const (
	TagFCI    = "6F"
	TagDFName = "84"
)

// ErrNoFCI is returned when a response carries no FCI template
var ErrNoFCI = errors.New("no FCI template")

// BuildFCI encodes the file control information returned by SELECT for a DF
func BuildFCI(dfName []byte) ([]byte, error) {
	fci := []bertlv.TLV{
		{Tag: TagFCI, TLVs: []bertlv.TLV{
			{Tag: TagDFName, Value: dfName},
		}},
	}
	out, err := bertlv.Encode(fci)
	if err != nil {
		return nil, fmt.Errorf("FCI encode: %w", err)
	}
	return out, nil
}

// ParseFCIName extracts the DF name from an FCI template
func ParseFCIName(data []byte) ([]byte, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}
	for _, p := range packets {
		if !strings.EqualFold(p.Tag, TagFCI) {
			continue
		}
		for _, child := range p.TLVs {
			if strings.EqualFold(child.Tag, TagDFName) {
				return child.Value, nil
			}
		}
	}
	return nil, ErrNoFCI
}
