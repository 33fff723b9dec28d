// Copyright 2026 Blink Labs Software
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

package test_test

import (
	"testing"

	"github.com/blinklabs-io/genesis-ingest/internal/test"
	"github.com/stretchr/testify/assert"
)

func TestDecodeHexStringWhitespace(t *testing.T) {
	assert.Equal(t, []byte{0x83, 0x01, 0x02, 0x03}, test.DecodeHexString(" 83\n01 02\t03 "))
	assert.Panics(t, func() { test.DecodeHexString("8") })
}

func TestEncodeHexString(t *testing.T) {
	data := []byte{0x85, 0x1a, 0x2d, 0x96, 0x4a}
	assert.Equal(t, "851a 2d96 4a", test.EncodeHexString(data, 2))
	assert.Equal(t, "851a2d964a", test.EncodeHexString(data, 0))
	assert.Equal(t, data, test.DecodeHexString(test.EncodeHexString(data, 3)))
}
