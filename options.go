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

package ingest

import (
	"log/slog"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/ledger/version"
)

// IngestorOptionFunc is a type that represents functions that modify the Ingestor config
type IngestorOptionFunc func(*Ingestor)

// WithLogger specifies the logger to use. If none is provided, slog.Default() is used
func WithLogger(logger *slog.Logger) IngestorOptionFunc {
	return func(i *Ingestor) {
		i.logger = logger
	}
}

// WithNetwork specifies the network that blocks must belong to
func WithNetwork(network Network) IngestorOptionFunc {
	return func(i *Ingestor) {
		i.networkMagic = network.NetworkMagic
	}
}

// WithNetworkMagic specifies the network magic value that blocks must carry. A value of 0
// disables the check
func WithNetworkMagic(networkMagic uint32) IngestorOptionFunc {
	return func(i *Ingestor) {
		i.networkMagic = networkMagic
	}
}

// WithDecodePath selects the decoder used for block bytes
func WithDecodePath(path cbor.DecodePath) IngestorOptionFunc {
	return func(i *Ingestor) {
		i.decodePath = path
	}
}

// WithConsensusVersion restricts accepted blocks to those that run under the given
// consensus version. Genesis blocks require no consensus and are always accepted
func WithConsensusVersion(consensusVersion version.ConsensusVersion) IngestorOptionFunc {
	return func(i *Ingestor) {
		i.consensusVersion = consensusVersion
		i.checkConsensus = true
	}
}

// WithBlockDecoder registers the decoder for a block version, replacing any existing one
func WithBlockDecoder(
	blockVersion version.BlockVersion,
	decoder BlockDecoderFunc,
) IngestorOptionFunc {
	return func(i *Ingestor) {
		i.decoders[blockVersion] = decoder
	}
}
