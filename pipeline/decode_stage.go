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
	"context"
	"errors"
	"fmt"
	"time"

	ingest "github.com/blinklabs-io/genesis-ingest"
)

var (
	// ErrNilStage is returned when a nil stage is passed to a worker pool.
	ErrNilStage = errors.New("pipeline: nil stage")
	// ErrNilIngestor is returned when a decode stage is built without an ingestor
	ErrNilIngestor = errors.New("pipeline: nil ingestor")
)

// DecodeStage classifies and decodes raw blocks with an ingest.Ingestor
type DecodeStage struct {
	ingestor *ingest.Ingestor
}

func NewDecodeStage(ingestor *ingest.Ingestor) *DecodeStage {
	if ingestor == nil {
		panic(ErrNilIngestor)
	}
	return &DecodeStage{
		ingestor: ingestor,
	}
}

func (s *DecodeStage) Name() string {
	return "decode"
}

// Process ingests the raw CBOR in the block item and records the outcome on it
func (s *DecodeStage) Process(ctx context.Context, item *BlockItem) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	start := time.Now()
	result, err := s.ingestor.Ingest(item.BlockVersion(), item.RawCbor())
	item.SetResult(result, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("block %d: %w", item.SequenceNumber(), err)
	}
	return nil
}
