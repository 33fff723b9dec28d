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

package pipeline

import (
	"slices"
	"sync"
	"time"

	ingest "github.com/blinklabs-io/genesis-ingest"
	"github.com/blinklabs-io/genesis-ingest/ledger/version"
)

// BlockItem represents a block as it moves through the pipeline.
// It is thread-safe and tracks the outcome of each stage.
type BlockItem struct {
	// Set at construction and never modified
	blockVersion   uint16
	rawCbor        []byte
	sequenceNumber uint64
	receivedAt     time.Time

	mu sync.RWMutex

	// Ingest stage results
	version        version.AnyBlockVersion
	block          ingest.Block
	ingestError    error
	ingestDuration time.Duration

	// Apply stage results
	applied       bool
	applyError    error
	applyDuration time.Duration
}

// NewBlockItem creates a new BlockItem. The raw CBOR is copied so that the caller may
// reuse its buffer
func NewBlockItem(blockVersion uint16, rawCbor []byte, seq uint64) *BlockItem {
	return &BlockItem{
		blockVersion:   blockVersion,
		rawCbor:        slices.Clone(rawCbor),
		sequenceNumber: seq,
		receivedAt:     time.Now(),
		version:        version.NewAnyBlockVersion(blockVersion),
	}
}

// BlockVersion returns the block version code the block was submitted with
func (b *BlockItem) BlockVersion() uint16 {
	return b.blockVersion
}

// RawCbor returns the raw CBOR bytes of the block.
// The returned slice should not be modified.
func (b *BlockItem) RawCbor() []byte {
	return b.rawCbor
}

func (b *BlockItem) SequenceNumber() uint64 {
	return b.sequenceNumber
}

func (b *BlockItem) ReceivedAt() time.Time {
	return b.receivedAt
}

// Version returns the classification of the submitted block version code
func (b *BlockItem) Version() version.AnyBlockVersion {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Block returns the decoded block, or nil if not yet ingested or ingest failed.
func (b *BlockItem) Block() ingest.Block {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.block
}

// SetResult records the outcome of ingesting the block
func (b *BlockItem) SetResult(result *ingest.Result, err error, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if result != nil {
		b.version = result.Version
		b.block = result.Block
	}
	if err != nil {
		b.block = nil
	}
	b.ingestError = err
	b.ingestDuration = duration
}

func (b *BlockItem) IngestError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ingestError
}

func (b *BlockItem) IngestDuration() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ingestDuration
}

// IsAccepted returns true if the block passed ingest
func (b *BlockItem) IsAccepted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.block != nil && b.ingestError == nil
}

func (b *BlockItem) SetApplied(applied bool, err error, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applied = applied
	b.applyError = err
	b.applyDuration = duration
}

func (b *BlockItem) IsApplied() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.applied
}

func (b *BlockItem) ApplyError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.applyError
}

func (b *BlockItem) ApplyDuration() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.applyDuration
}

// TotalDuration returns the time since the block was received
func (b *BlockItem) TotalDuration() time.Duration {
	return time.Since(b.receivedAt)
}
