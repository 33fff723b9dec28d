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

package ingest_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	ingest "github.com/blinklabs-io/genesis-ingest"
	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/internal/testdata"
	"github.com/blinklabs-io/genesis-ingest/ledger/byron"
	"github.com/blinklabs-io/genesis-ingest/ledger/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func genesisBlockCbor() []byte {
	return testdata.MustDecodeHex(testdata.GenesisBlockHex)
}

func TestIngestGenesisBlock(t *testing.T) {
	for _, path := range []cbor.DecodePath{cbor.DecodePathStream, cbor.DecodePathValue} {
		t.Run(path.String(), func(t *testing.T) {
			i := ingest.New(
				ingest.WithNetwork(ingest.NetworkMainnet),
				ingest.WithDecodePath(path),
			)
			for _, tb := range testdata.GetTestBlocks() {
				block, err := i.IngestGenesisBlock(tb.Cbor)
				require.NoError(t, err, tb.Name)
				assert.Equal(t, tb.Hash, block.Hash().String())
				assert.Equal(t, tb.SlotLeaders, block.Body().Len())
			}
		})
	}
}

func TestIngestResult(t *testing.T) {
	i := ingest.New()
	result, err := i.Ingest(0, genesisBlockCbor())
	require.NoError(t, err)
	assert.True(t, result.Version.Equal(version.Genesis))
	genesisBlock, ok := result.Block.(*byron.GenesisBlock)
	require.True(t, ok)
	assert.Equal(t, uint64(0), genesisBlock.SlotNumber())
}

func TestIngestUnsupportedBlockVersion(t *testing.T) {
	i := ingest.New()
	result, err := i.Ingest(42, genesisBlockCbor())
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrUnsupportedBlockVersion)
	var versionErr ingest.UnsupportedBlockVersionError
	require.True(t, errors.As(err, &versionErr))
	assert.Equal(t, uint16(42), versionErr.Code)
	// The classification is available even though the block was rejected
	require.NotNil(t, result)
	assert.False(t, result.Version.IsSupported())
	assert.Equal(t, uint16(42), result.Version.Code())
	assert.Nil(t, result.Block)
}

func TestIngestNoDecoder(t *testing.T) {
	i := ingest.New()
	result, err := i.Ingest(version.Ed25519Signed.Code(), genesisBlockCbor())
	assert.ErrorIs(t, err, ingest.ErrNoDecoder)
	assert.True(t, result.Version.Equal(version.Ed25519Signed))
}

func TestIngestConsensusVersion(t *testing.T) {
	i := ingest.New(ingest.WithConsensusVersion(version.Bft))
	// Genesis requires no consensus and is always accepted
	_, err := i.Ingest(version.Genesis.Code(), genesisBlockCbor())
	require.NoError(t, err)
	_, err = i.Ingest(version.KesVrfproof.Code(), genesisBlockCbor())
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrIncompatibleConsensus)
	assert.Equal(
		t,
		"block version KesVrfproof is not supported by consensus version bft",
		err.Error(),
	)
	// Compatible block versions move on to the decoder registry
	_, err = i.Ingest(version.Ed25519Signed.Code(), genesisBlockCbor())
	assert.ErrorIs(t, err, ingest.ErrNoDecoder)
}

func TestIngestNetworkMagicMismatch(t *testing.T) {
	i := ingest.New(ingest.WithNetwork(ingest.NetworkPreview))
	_, err := i.IngestGenesisBlock(genesisBlockCbor())
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrNetworkMagicMismatch)
	var magicErr ingest.NetworkMagicMismatchError
	require.True(t, errors.As(err, &magicErr))
	assert.Equal(t, uint32(2), magicErr.Expected)
	assert.Equal(t, uint32(764824073), magicErr.Actual)
}

func TestIngestDecodeError(t *testing.T) {
	data := genesisBlockCbor()
	data = append(data, 0x00)
	i := ingest.New()
	result, err := i.Ingest(0, data)
	require.Error(t, err)
	assert.ErrorIs(t, err, cbor.ErrTrailingData)
	assert.True(t, result.Version.Equal(version.Genesis))
	assert.Nil(t, result.Block)

	// Truncated input keeps the field path through the ingest error
	_, err = i.Ingest(0, genesisBlockCbor()[:10])
	require.Error(t, err)
	assert.ErrorIs(t, err, cbor.ErrTruncated)
	assert.Equal(t, []string{"genesis block", "header", "previous header hash"}, cbor.ErrorPath(err))
}

func TestIngestCustomDecoder(t *testing.T) {
	called := false
	i := ingest.New(
		ingest.WithBlockDecoder(
			version.Ed25519Signed,
			func(data []byte, path cbor.DecodePath) (ingest.Block, error) {
				called = true
				return byron.NewGenesisBlockFromCbor(data, path)
			},
		),
	)
	result, err := i.Ingest(version.Ed25519Signed.Code(), genesisBlockCbor())
	require.NoError(t, err)
	assert.True(t, called)
	assert.NotNil(t, result.Block)
}

func TestIngestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	i := ingest.New(ingest.WithLogger(logger))
	_, err := i.IngestGenesisBlock(genesisBlockCbor())
	require.NoError(t, err)
	_, err = i.Ingest(9, nil)
	require.Error(t, err)
	output := buf.String()
	assert.Contains(t, output, "component=ingest")
	assert.Contains(t, output, `msg="accepted genesis block"`)
	assert.Contains(t, output, "slot_leaders=0")
	assert.Contains(t, output, `msg="rejected block"`)
	assert.Contains(t, output, "block_version=Unsupported(9)")
	assert.Contains(t, output, "decode_path=stream")
}

func TestIngestConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)
	i := ingest.New(ingest.WithNetwork(ingest.NetworkMainnet))
	testBlocks := testdata.GetTestBlocks()
	var wg sync.WaitGroup
	errs := make([]error, 64)
	for idx := range errs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			tb := testBlocks[idx%len(testBlocks)]
			block, err := i.IngestGenesisBlock(tb.Cbor)
			if err == nil && block.Hash().String() != tb.Hash {
				err = errors.New("hash mismatch for " + tb.Name)
			}
			errs[idx] = err
		}(idx)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestNetworkLookup(t *testing.T) {
	assert.Equal(t, ingest.NetworkMainnet, ingest.NetworkByName("mainnet"))
	assert.Equal(t, ingest.NetworkPreprod, ingest.NetworkByNetworkMagic(1))
	assert.Equal(t, ingest.NetworkInvalid, ingest.NetworkByName("nope"))
	assert.Equal(t, "preview", ingest.NetworkPreview.String())
}
