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

package test

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DecodeHexString is a helper function for tests that decodes hex strings. It doesn't return
// an error value, which makes it usable inline. Whitespace anywhere in the input is ignored
// so that fixtures can be split into fields
func DecodeHexString(hexData string) []byte {
	hexData = strings.Join(strings.Fields(hexData), "")
	decoded, err := hex.DecodeString(hexData)
	if err != nil {
		panic(fmt.Sprintf("error decoding hex: %s", err))
	}
	return decoded
}

// EncodeHexString returns the hex encoding of data split into groups of size bytes,
// matching the layout DecodeHexString accepts
func EncodeHexString(data []byte, size int) string {
	if size <= 0 {
		return hex.EncodeToString(data)
	}
	var ret strings.Builder
	for i := 0; i < len(data); i += size {
		if i > 0 {
			ret.WriteByte(' ')
		}
		ret.WriteString(hex.EncodeToString(data[i:min(i+size, len(data))]))
	}
	return ret.String()
}
