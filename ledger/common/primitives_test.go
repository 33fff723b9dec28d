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

package common

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolMagicMainnet(t *testing.T) {
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var magic ProtocolMagic
			require.NoError(t, cbor.DecodeBytes(test.DecodeHexString("1a2d964a09"), &magic, path))
			assert.Equal(t, ProtocolMagic(764824073), magic)
			encoded, err := cbor.EncodeValue(magic)
			require.NoError(t, err)
			assert.Equal(t, "1a2d964a09", hex.EncodeToString(encoded))
		})
	}
}

func TestProtocolMagicOverflow(t *testing.T) {
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var magic ProtocolMagic
			err := cbor.DecodeBytes(test.DecodeHexString("1b0000000100000000"), &magic, path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "overflows uint32")
			assert.Equal(t, ProtocolMagic(0), magic)
		})
	}
}

func TestChainDifficulty(t *testing.T) {
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var difficulty ChainDifficulty
			require.NoError(t, cbor.DecodeBytes(test.DecodeHexString("8118ff"), &difficulty, path))
			assert.Equal(t, uint64(255), difficulty.Value)

			// Two elements where one is expected
			err := cbor.DecodeBytes(test.DecodeHexString("820102"), &difficulty, path)
			require.Error(t, err)
			if path == cbor.DecodePathValue {
				assert.ErrorIs(t, err, cbor.ErrTrailingData)
				assert.Equal(t, "ChainDifficulty: 1 unparsed elements remaining", err.Error())
			} else {
				assert.ErrorIs(t, err, cbor.ErrStructuralMismatch)
				assert.Equal(t, "ChainDifficulty: expected array of 1 elements, got 2", err.Error())
			}
			assert.Equal(t, uint64(255), difficulty.Value)

			// Empty array fails the arity check on both paths
			err = cbor.DecodeBytes(test.DecodeHexString("80"), &difficulty, path)
			assert.ErrorIs(t, err, cbor.ErrStructuralMismatch)
		})
	}
	encoded, err := cbor.EncodeValue(ChainDifficulty{Value: 7})
	require.NoError(t, err)
	assert.Equal(t, "8107", hex.EncodeToString(encoded))
}

func TestEpochId(t *testing.T) {
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var epoch EpochId
			require.NoError(t, cbor.DecodeBytes(test.DecodeHexString("18d0"), &epoch, path))
			assert.Equal(t, EpochId(208), epoch)
			err := cbor.DecodeBytes(test.DecodeHexString("40"), &epoch, path)
			assert.ErrorIs(t, err, cbor.ErrStructuralMismatch)
		})
	}
}

func TestStakeholderId(t *testing.T) {
	id := NewStakeholderId(make([]byte, Blake2b224Size))
	assert.Equal(t, strings.Repeat("1", Blake2b224Size), id.Base58())
	assert.Equal(t, strings.Repeat("00", Blake2b224Size), id.String())

	cborData := test.DecodeHexString("581c" + strings.Repeat("01", Blake2b224Size))
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var tmpId StakeholderId
			require.NoError(t, cbor.DecodeBytes(cborData, &tmpId, path))
			assert.Equal(t, strings.Repeat("01", Blake2b224Size), tmpId.String())
		})
	}
}

func TestAttributesEmpty(t *testing.T) {
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var attrs Attributes
			require.NoError(t, cbor.DecodeBytes(test.DecodeHexString("a0"), &attrs, path))
			assert.Equal(t, 0, attrs.Len())
			assert.Equal(t, NewAttributes(), attrs)
			encoded, err := attrs.MarshalCBOR()
			require.NoError(t, err)
			assert.Equal(t, "a0", hex.EncodeToString(encoded))
		})
	}
}

func TestAttributesUnknownKeysKept(t *testing.T) {
	// {0: h'0102', 2: [1, 2]}
	cborData := test.DecodeHexString("a20042010202820102")
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var attrs Attributes
			require.NoError(t, cbor.DecodeBytes(cborData, &attrs, path))
			assert.Equal(t, []uint64{0, 2}, attrs.Keys())
			raw, ok := attrs.Get(2)
			require.True(t, ok)
			assert.Equal(t, "820102", hex.EncodeToString(raw))
			_, ok = attrs.Get(1)
			assert.False(t, ok)
			encoded, err := attrs.MarshalCBOR()
			require.NoError(t, err)
			assert.Equal(t, cborData, encoded)
		})
	}
}

func TestAttributesSet(t *testing.T) {
	attrs := NewAttributes()
	require.NoError(t, attrs.Set(1, uint64(5)))
	require.NoError(t, attrs.Set(0, []byte{0xab}))
	encoded, err := attrs.MarshalCBOR()
	require.NoError(t, err)
	assert.Equal(t, "a20041ab0105", hex.EncodeToString(encoded))
}

func TestAttributesErrors(t *testing.T) {
	testDefs := []struct {
		name     string
		hex      string
		expected error
	}{
		{name: "not a map", hex: "80", expected: cbor.ErrStructuralMismatch},
		{name: "text key", hex: "a1616101", expected: cbor.ErrStructuralMismatch},
		{name: "truncated", hex: "a20001", expected: cbor.ErrTruncated},
	}
	for _, testDef := range testDefs {
		for _, path := range decodePaths {
			t.Run(testDef.name+"/"+path.String(), func(t *testing.T) {
				var attrs Attributes
				err := cbor.DecodeBytes(test.DecodeHexString(testDef.hex), &attrs, path)
				require.Error(t, err)
				assert.ErrorIs(t, err, testDef.expected)
			})
		}
	}
}

func TestAttributesDuplicateKey(t *testing.T) {
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var attrs Attributes
			err := cbor.DecodeBytes(test.DecodeHexString("a200010002"), &attrs, path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "duplicate key 0")
		})
	}
}
