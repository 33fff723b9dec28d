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

// Package ingest is the entry point for blocks arriving from the wire. It classifies
// the declared block version, decodes the block with the decoder registered for that
// version and checks that the block belongs to the configured network and consensus
// version.
package ingest

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/ledger/byron"
	"github.com/blinklabs-io/genesis-ingest/ledger/common"
	"github.com/blinklabs-io/genesis-ingest/ledger/version"
)

type Block = common.Block

// BlockDecoderFunc decodes the bytes of a single block using the given decode path
type BlockDecoderFunc func(data []byte, path cbor.DecodePath) (Block, error)

// networkBlock is implemented by blocks that declare their network
type networkBlock interface {
	ProtocolMagic() common.ProtocolMagic
}

// Result is the outcome of ingesting a block. Version is always set, even when the
// block is rejected
type Result struct {
	Version version.AnyBlockVersion
	Block   Block
}

// Ingestor decodes and classifies blocks. It holds no mutable state after New and is
// safe for concurrent use
type Ingestor struct {
	logger           *slog.Logger
	networkMagic     uint32
	decodePath       cbor.DecodePath
	consensusVersion version.ConsensusVersion
	checkConsensus   bool
	decoders         map[version.BlockVersion]BlockDecoderFunc
}

// New returns an Ingestor with the genesis block decoder registered
func New(options ...IngestorOptionFunc) *Ingestor {
	i := &Ingestor{
		decoders: map[version.BlockVersion]BlockDecoderFunc{
			version.Genesis: decodeGenesisBlock,
		},
	}
	for _, option := range options {
		option(i)
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	i.logger = i.logger.With("component", "ingest")
	return i
}

func decodeGenesisBlock(data []byte, path cbor.DecodePath) (Block, error) {
	block, err := byron.NewGenesisBlockFromCbor(data, path)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// Classify returns the version classification of a block version code
func (i *Ingestor) Classify(code uint16) version.AnyBlockVersion {
	return version.NewAnyBlockVersion(code)
}

// Ingest decodes a block declared with the given block version code. The returned
// Result is non-nil even on error so that callers can inspect the classification
func (i *Ingestor) Ingest(blockVersion uint16, data []byte) (*Result, error) {
	ret := &Result{
		Version: i.Classify(blockVersion),
	}
	knownVersion, ok := ret.Version.BlockVersion()
	if !ok {
		err := UnsupportedBlockVersionError{Code: blockVersion}
		i.logRejected(ret.Version, err)
		return ret, err
	}
	if i.checkConsensus && knownVersion != version.Genesis &&
		!i.consensusVersion.Supports(knownVersion) {
		err := IncompatibleConsensusError{
			BlockVersion:     knownVersion,
			ConsensusVersion: i.consensusVersion,
		}
		i.logRejected(ret.Version, err)
		return ret, err
	}
	decoder, ok := i.decoders[knownVersion]
	if !ok || decoder == nil {
		err := NoDecoderError{BlockVersion: knownVersion}
		i.logRejected(ret.Version, err)
		return ret, err
	}
	block, err := decoder(data, i.decodePath)
	if err != nil {
		i.logRejected(ret.Version, err)
		return ret, fmt.Errorf("%s block: %w", knownVersion, err)
	}
	if i.networkMagic != 0 {
		if tmpBlock, ok := block.(networkBlock); ok {
			magic := uint32(tmpBlock.ProtocolMagic())
			if magic != i.networkMagic {
				err := NetworkMagicMismatchError{Expected: i.networkMagic, Actual: magic}
				i.logRejected(ret.Version, err)
				return ret, err
			}
		}
	}
	ret.Block = block
	i.logAccepted(ret.Version, block)
	return ret, nil
}

// IngestGenesisBlock ingests data as a genesis block
func (i *Ingestor) IngestGenesisBlock(data []byte) (*byron.GenesisBlock, error) {
	result, err := i.Ingest(version.Genesis.Code(), data)
	if err != nil {
		return nil, err
	}
	genesisBlock, ok := result.Block.(*byron.GenesisBlock)
	if !ok {
		return nil, errors.New("genesis block decoder returned an unexpected block type")
	}
	return genesisBlock, nil
}

func (i *Ingestor) logRejected(blockVersion version.AnyBlockVersion, err error) {
	i.logger.Debug(
		"rejected block",
		"block_version",
		blockVersion.String(),
		"decode_path",
		i.decodePath.String(),
		"error",
		err.Error(),
	)
}

func (i *Ingestor) logAccepted(blockVersion version.AnyBlockVersion, block Block) {
	if genesisBlock, ok := block.(*byron.GenesisBlock); ok {
		i.logger.Debug(
			"accepted genesis block",
			"block_version",
			blockVersion.String(),
			"epoch",
			uint64(genesisBlock.Epoch()),
			"slot_leaders",
			genesisBlock.Body().Len(),
			"hash",
			genesisBlock.Hash().String(),
		)
		return
	}
	i.logger.Debug(
		"accepted block",
		"block_version",
		blockVersion.String(),
		"slot",
		block.SlotNumber(),
		"hash",
		block.Hash().String(),
	)
}
