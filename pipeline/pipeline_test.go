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
	"sync"
	"testing"
	"time"

	ingest "github.com/blinklabs-io/genesis-ingest"
	"github.com/blinklabs-io/genesis-ingest/internal/testdata"
	"github.com/blinklabs-io/genesis-ingest/ledger/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func getValidBlockCbor(t *testing.T) []byte {
	t.Helper()
	return testdata.MustDecodeHex(testdata.GenesisBlockHex)
}

// getInvalidBlockCbor returns a block array with too few elements
func getInvalidBlockCbor() []byte {
	return []byte{0x82, 0x00, 0x01}
}

func ingestedItem(t *testing.T, ingestor *ingest.Ingestor, blockVersion uint16, rawCbor []byte, seq uint64) *BlockItem {
	t.Helper()
	item := NewBlockItem(blockVersion, rawCbor, seq)
	result, err := ingestor.Ingest(blockVersion, rawCbor)
	item.SetResult(result, err, time.Millisecond)
	return item
}

func TestBlockItem_NewBlockItem(t *testing.T) {
	rawCbor := []byte{0x01, 0x02}
	item := NewBlockItem(7, rawCbor, 3)
	rawCbor[0] = 0xff
	assert.Equal(t, []byte{0x01, 0x02}, item.RawCbor())
	assert.Equal(t, uint16(7), item.BlockVersion())
	assert.Equal(t, uint64(3), item.SequenceNumber())
	assert.Equal(t, "Unsupported(7)", item.Version().String())
	assert.False(t, item.IsAccepted())
	assert.Nil(t, item.Block())
}

func TestBlockItem_SetResult(t *testing.T) {
	ingestor := ingest.New()
	item := ingestedItem(t, ingestor, 0, getValidBlockCbor(t), 0)
	assert.True(t, item.IsAccepted())
	assert.NotNil(t, item.Block())
	assert.True(t, item.Version().Equal(version.Genesis))

	item = ingestedItem(t, ingestor, 0, getInvalidBlockCbor(), 1)
	assert.False(t, item.IsAccepted())
	assert.Error(t, item.IngestError())
}

func TestDecodeStage(t *testing.T) {
	stage := NewDecodeStage(ingest.New())
	assert.Equal(t, "decode", stage.Name())

	item := NewBlockItem(0, getValidBlockCbor(t), 0)
	require.NoError(t, stage.Process(context.Background(), item))
	assert.True(t, item.IsAccepted())

	item = NewBlockItem(9, getValidBlockCbor(t), 5)
	err := stage.Process(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrUnsupportedBlockVersion)
	assert.Contains(t, err.Error(), "block 5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	item = NewBlockItem(0, getValidBlockCbor(t), 6)
	assert.ErrorIs(t, stage.Process(ctx, item), context.Canceled)
	assert.False(t, item.IsAccepted())

	assert.PanicsWithValue(t, ErrNilIngestor, func() { NewDecodeStage(nil) })
}

func TestApplyStageOrdering_OutOfOrderReordering(t *testing.T) {
	ingestor := ingest.New()
	var appliedOrder []uint64
	applyStage := NewApplyStage(func(item *BlockItem) error {
		appliedOrder = append(appliedOrder, item.SequenceNumber())
		return nil
	}, 0)
	items := make([]*BlockItem, 5)
	for i := range items {
		items[i] = ingestedItem(t, ingestor, 0, getValidBlockCbor(t), uint64(i))
	}
	var released []uint64
	for _, idx := range []int{2, 0, 4, 1, 3} {
		processed, err := applyStage.ProcessWithStatus(context.Background(), items[idx])
		require.NoError(t, err)
		for _, item := range processed {
			released = append(released, item.SequenceNumber())
		}
	}
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, appliedOrder)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, released)
	assert.Equal(t, 0, applyStage.PendingCount())
	for _, item := range items {
		assert.True(t, item.IsApplied())
	}
}

func TestApplyStageOrdering_SkipsRejectedItems(t *testing.T) {
	ingestor := ingest.New()
	var appliedOrder []uint64
	applyStage := NewApplyStage(func(item *BlockItem) error {
		appliedOrder = append(appliedOrder, item.SequenceNumber())
		return nil
	}, 0)
	items := []*BlockItem{
		ingestedItem(t, ingestor, 0, getValidBlockCbor(t), 0),
		ingestedItem(t, ingestor, 0, getInvalidBlockCbor(), 1),
		ingestedItem(t, ingestor, 0, getValidBlockCbor(t), 2),
	}
	for _, item := range items {
		require.NoError(t, applyStage.Process(context.Background(), item))
	}
	assert.Equal(t, []uint64{0, 2}, appliedOrder)
	assert.False(t, items[1].IsApplied())
}

func TestApplyStage_ApplyError(t *testing.T) {
	applyErr := errors.New("apply failed")
	applyStage := NewApplyStage(func(*BlockItem) error { return applyErr }, 0)
	item := ingestedItem(t, ingest.New(), 0, getValidBlockCbor(t), 0)
	require.NoError(t, applyStage.Process(context.Background(), item))
	assert.False(t, item.IsApplied())
	assert.ErrorIs(t, item.ApplyError(), applyErr)
}

func TestApplyStage_PendingLimit(t *testing.T) {
	ingestor := ingest.New()
	applyStage := NewApplyStage(nil, 1)
	_, err := applyStage.ProcessWithStatus(
		context.Background(),
		ingestedItem(t, ingestor, 0, getValidBlockCbor(t), 1),
	)
	require.NoError(t, err)
	_, err = applyStage.ProcessWithStatus(
		context.Background(),
		ingestedItem(t, ingestor, 0, getValidBlockCbor(t), 2),
	)
	assert.ErrorIs(t, err, ErrPendingLimitExceeded)
	assert.Equal(t, 2, applyStage.PendingCount())
	// The gap is filled and everything buffered is released
	processed, err := applyStage.ProcessWithStatus(
		context.Background(),
		ingestedItem(t, ingestor, 0, getValidBlockCbor(t), 0),
	)
	require.NoError(t, err)
	assert.Len(t, processed, 3)
}

func TestStageWorkerPool_ForwardsAllItems(t *testing.T) {
	defer goleak.VerifyNone(t)
	const numItems = 20
	input := make(chan *BlockItem, numItems)
	output := make(chan *BlockItem, numItems)
	var recorded int
	var mu sync.Mutex
	pool := NewStageWorkerPool(StageWorkerPoolConfig{
		Stage: NewStageFunc("odd", func(_ context.Context, item *BlockItem) error {
			if item.SequenceNumber()%2 == 1 {
				return errors.New("odd")
			}
			return nil
		}),
		NumWorkers: 4,
		Input:      input,
		Output:     output,
		RecordMetrics: func(*BlockItem, error) {
			mu.Lock()
			recorded++
			mu.Unlock()
		},
	})
	pool.Start(context.Background())
	pool.Start(context.Background())
	for i := range numItems {
		input <- NewBlockItem(0, nil, uint64(i))
	}
	close(input)
	pool.Stop()
	close(output)
	count := 0
	for range output {
		count++
	}
	assert.Equal(t, numItems, count)
	assert.Equal(t, numItems, recorded)
}

func TestStageWorkerPool_NilStage(t *testing.T) {
	assert.PanicsWithValue(t, ErrNilStage, func() {
		NewStageWorkerPool(StageWorkerPoolConfig{})
	})
}

func TestBlockPipeline_NotStarted(t *testing.T) {
	p := NewBlockPipeline()
	_, err := p.Submit(context.Background(), 0, getValidBlockCbor(t))
	assert.ErrorIs(t, err, ErrPipelineNotStarted)
	_, ok := <-p.Results()
	assert.False(t, ok)
	assert.NoError(t, p.Stop())
	assert.Equal(t, 0, p.PendingCount())
}

func TestBlockPipeline_SubmitAndResults(t *testing.T) {
	defer goleak.VerifyNone(t)
	const numBlocks = 50
	var appliedOrder []uint64
	p := NewBlockPipeline(
		WithIngestor(ingest.New(ingest.WithNetwork(ingest.NetworkMainnet))),
		WithDecodeWorkers(4),
		WithBufferSize(4),
		WithApplyFunc(func(item *BlockItem) error {
			appliedOrder = append(appliedOrder, item.SequenceNumber())
			return nil
		}),
	)
	require.NoError(t, p.Start(context.Background()))

	var results []*BlockItem
	done := make(chan struct{})
	go func() {
		defer close(done)
		for item := range p.Results() {
			results = append(results, item)
		}
	}()

	testBlocks := testdata.GetTestBlocks()
	for i := range numBlocks {
		rawCbor := testBlocks[i%len(testBlocks)].Cbor
		blockVersion := uint16(0)
		if i%10 == 9 {
			blockVersion = 42
		}
		seq, err := p.Submit(context.Background(), blockVersion, rawCbor)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), seq)
	}
	require.NoError(t, p.Stop())
	<-done

	require.Len(t, results, numBlocks)
	var expectedApplied []uint64
	for i, item := range results {
		assert.Equal(t, uint64(i), item.SequenceNumber())
		if i%10 == 9 {
			assert.False(t, item.IsAccepted())
			assert.ErrorIs(t, item.IngestError(), ingest.ErrUnsupportedBlockVersion)
			continue
		}
		expectedApplied = append(expectedApplied, uint64(i))
		assert.Equal(t, testBlocks[i%len(testBlocks)].Hash, item.Block().Hash().String())
	}
	assert.Equal(t, expectedApplied, appliedOrder)

	stats := p.Stats()
	assert.Equal(t, uint64(numBlocks), stats.BlocksSubmitted)
	assert.Equal(t, uint64(45), stats.BlocksAccepted)
	assert.Equal(t, uint64(5), stats.BlocksRejected)
	assert.Equal(t, uint64(45), stats.BlocksApplied)

	_, err := p.Submit(context.Background(), 0, getValidBlockCbor(t))
	assert.ErrorIs(t, err, ErrPipelineStopped)
	assert.ErrorIs(t, p.Start(context.Background()), ErrPipelineStopped)
}

func TestBlockPipeline_ContextCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	p := NewBlockPipeline(WithBufferSize(1), WithDecodeWorkers(1))
	require.NoError(t, p.Start(ctx))
	cancel()
	// Nobody reads results, so submits eventually see the cancellation
	var err error
	for range 10 {
		if _, err = p.Submit(context.Background(), 0, getValidBlockCbor(t)); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrPipelineStopped)
	require.NoError(t, p.Stop())
}

func TestBlockPipeline_SubmitTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)
	p := NewBlockPipeline(WithBufferSize(1), WithDecodeWorkers(1))
	require.NoError(t, p.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	// Results are not read, so the pipeline fills up and Submit gives up
	var err error
	for range 10 {
		if _, err = p.Submit(ctx, 0, getValidBlockCbor(t)); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, p.PendingCount())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range p.Results() {
		}
	}()
	require.NoError(t, p.Stop())
	<-done
}
