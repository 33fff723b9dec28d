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
	"errors"
	"fmt"

	"github.com/blinklabs-io/genesis-ingest/ledger/version"
)

var (
	ErrUnsupportedBlockVersion = errors.New("unsupported block version")
	ErrNoDecoder               = errors.New("no decoder for block version")
	ErrIncompatibleConsensus   = errors.New("block version incompatible with consensus version")
	ErrNetworkMagicMismatch    = errors.New("network magic mismatch")
)

// UnsupportedBlockVersionError indicates a block version code this node doesn't know
type UnsupportedBlockVersionError struct {
	Code uint16
}

func (e UnsupportedBlockVersionError) Error() string {
	return fmt.Sprintf("unsupported block version: %d", e.Code)
}

func (UnsupportedBlockVersionError) Is(target error) bool {
	return target == ErrUnsupportedBlockVersion
}

// NoDecoderError indicates a known block version with no registered decoder
type NoDecoderError struct {
	BlockVersion version.BlockVersion
}

func (e NoDecoderError) Error() string {
	return fmt.Sprintf("no decoder registered for block version %s", e.BlockVersion)
}

func (NoDecoderError) Is(target error) bool {
	return target == ErrNoDecoder
}

// IncompatibleConsensusError indicates a block version that doesn't run under the
// configured consensus version
type IncompatibleConsensusError struct {
	BlockVersion     version.BlockVersion
	ConsensusVersion version.ConsensusVersion
}

func (e IncompatibleConsensusError) Error() string {
	return fmt.Sprintf(
		"block version %s is not supported by consensus version %s",
		e.BlockVersion,
		e.ConsensusVersion,
	)
}

func (IncompatibleConsensusError) Is(target error) bool {
	return target == ErrIncompatibleConsensus
}

// NetworkMagicMismatchError indicates a block from another network
type NetworkMagicMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e NetworkMagicMismatchError) Error() string {
	return fmt.Sprintf(
		"network magic mismatch: expected %d, got %d",
		e.Expected,
		e.Actual,
	)
}

func (NetworkMagicMismatchError) Is(target error) bool {
	return target == ErrNetworkMagicMismatch
}
