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

package cbor_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPair is a fixed 2-element record implementing both decode paths
type testPair struct {
	A uint64
	B uint64
}

func (p *testPair) DecodeValue(v cbor.Value) error {
	arr, err := cbor.NewArrayDecoder(v, "pair")
	if err != nil {
		return err
	}
	a, err := arr.Uint("a")
	if err != nil {
		return cbor.Embed(err, "pair")
	}
	b, err := arr.Uint("b")
	if err != nil {
		return cbor.Embed(err, "pair")
	}
	if err := arr.Finish(); err != nil {
		return err
	}
	p.A, p.B = a, b
	return nil
}

func (p *testPair) DecodeStream(d *cbor.StreamDecoder) error {
	if err := d.ExpectArray("pair", 2); err != nil {
		return err
	}
	a, err := d.Uint()
	if err != nil {
		return cbor.Embed(err, "pair: a")
	}
	b, err := d.Uint()
	if err != nil {
		return cbor.Embed(err, "pair: b")
	}
	p.A, p.B = a, b
	return nil
}

var decodePaths = []cbor.DecodePath{cbor.DecodePathStream, cbor.DecodePathValue}

func TestDecodeBytesBothPaths(t *testing.T) {
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var p testPair
			require.NoError(t, cbor.DecodeBytes(test.DecodeHexString("820102"), &p, path))
			assert.Equal(t, testPair{A: 1, B: 2}, p)
		})
	}
}

func TestDecodeBytesTrailingBytes(t *testing.T) {
	for _, path := range decodePaths {
		t.Run(path.String(), func(t *testing.T) {
			var p testPair
			err := cbor.DecodeBytes(test.DecodeHexString("82010203"), &p, path)
			require.Error(t, err)
			assert.ErrorIs(t, err, cbor.ErrTrailingData)
			var trailingErr cbor.TrailingDataError
			require.True(t, errors.As(err, &trailingErr))
			assert.Equal(t, 1, trailingErr.Remaining)
			assert.Equal(t, "bytes", trailingErr.Unit)
			assert.Equal(t, "item: 1 unparsed bytes remaining", err.Error())
			// The item itself decoded fine, but nothing is assigned
			assert.Equal(t, testPair{}, p)
		})
	}
}

func TestDecodeBytesArityMismatch(t *testing.T) {
	// Value path: leftover element is trailing data
	var p testPair
	err := cbor.DecodeBytes(test.DecodeHexString("83010203"), &p, cbor.DecodePathValue)
	assert.ErrorIs(t, err, cbor.ErrTrailingData)
	// Stream path: declared count is checked up front
	err = cbor.DecodeBytes(test.DecodeHexString("83010203"), &p, cbor.DecodePathStream)
	assert.ErrorIs(t, err, cbor.ErrStructuralMismatch)
	// Failed decodes leave the destination untouched
	assert.Equal(t, testPair{}, p)
}

func TestArrayDecoderMissingElement(t *testing.T) {
	v := decodeValueHex(t, "8101")
	arr, err := cbor.NewArrayDecoder(v, "pair")
	require.NoError(t, err)
	_, err = arr.Uint("a")
	require.NoError(t, err)
	_, err = arr.Uint("b")
	require.Error(t, err)
	assert.ErrorIs(t, err, cbor.ErrTruncated)
	assert.Equal(t, []string{"b"}, cbor.ErrorPath(err))
}

func TestNewFixedArrayDecoder(t *testing.T) {
	v := decodeValueHex(t, "83010203")
	_, err := cbor.NewFixedArrayDecoder(v, "Quad", 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, cbor.ErrStructuralMismatch)
	assert.Equal(t, "Quad: expected array of 4 elements, got 3", err.Error())

	_, err = cbor.NewFixedArrayDecoder(decodeValueHex(t, "9f0102ff"), "Consensus", 2)
	assert.ErrorIs(t, err, cbor.ErrStructuralMismatch)

	// Extra elements surface from Finish once the fields are consumed
	arr, err := cbor.NewFixedArrayDecoder(v, "Consensus", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, arr.Remaining())
	_, err = arr.Uint("epoch")
	require.NoError(t, err)
	_, err = arr.Uint("chain difficulty")
	require.NoError(t, err)
	err = arr.Finish()
	require.Error(t, err)
	assert.ErrorIs(t, err, cbor.ErrTrailingData)
	assert.Equal(t, "Consensus: 1 unparsed elements remaining", err.Error())
}

func TestEmbedChain(t *testing.T) {
	cause := cbor.TypeError{Expected: "unsigned integer", Actual: "byte string"}
	err := cbor.Embed(cbor.Embed(cbor.Embed(cause, "protocol magic"), "header"), "genesis block")
	assert.Equal(
		t,
		"genesis block: header: protocol magic: expected unsigned integer, got byte string",
		err.Error(),
	)
	assert.Equal(t, []string{"genesis block", "header", "protocol magic"}, cbor.ErrorPath(err))
	assert.ErrorIs(t, err, cbor.ErrStructuralMismatch)
	assert.NotErrorIs(t, err, cbor.ErrTruncated)
	// Context survives fmt wrapping at API boundaries
	wrapped := fmt.Errorf("decode failed: %w", err)
	assert.Equal(t, []string{"genesis block", "header", "protocol magic"}, cbor.ErrorPath(wrapped))
	assert.NoError(t, cbor.Embed(nil, "unused"))
}

func TestParseDecodePath(t *testing.T) {
	path, err := cbor.ParseDecodePath("value")
	require.NoError(t, err)
	assert.Equal(t, cbor.DecodePathValue, path)
	path, err = cbor.ParseDecodePath("STREAM")
	require.NoError(t, err)
	assert.Equal(t, cbor.DecodePathStream, path)
	_, err = cbor.ParseDecodePath("lazy")
	assert.Error(t, err)

	var tmpPath cbor.DecodePath
	require.NoError(t, tmpPath.UnmarshalText([]byte("value")))
	assert.Equal(t, cbor.DecodePathValue, tmpPath)
}
