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
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	ingest "github.com/blinklabs-io/genesis-ingest"
)

var (
	// ErrPipelineStopped is returned when trying to submit to a stopped pipeline.
	ErrPipelineStopped = errors.New("pipeline is stopped")
	// ErrPipelineNotStarted is returned when trying to use a pipeline that hasn't been started.
	ErrPipelineNotStarted = errors.New("pipeline not started")
)

// closedResultsChan is returned by Results before Start so that callers don't block
var closedResultsChan = func() <-chan *BlockItem {
	ch := make(chan *BlockItem)
	close(ch)
	return ch
}()

// BlockPipeline ingests blocks on a pool of decode workers and delivers them on
// Results in the order they were submitted
type BlockPipeline struct {
	config PipelineConfig
	logger *slog.Logger

	decodeStage *DecodeStage
	applyStage  *ApplyStage
	decodePool  *StageWorkerPool
	applyRunner *ApplyStageRunner

	submitChan  chan *BlockItem
	decodedChan chan *BlockItem
	resultsChan chan *BlockItem

	metrics *PipelineMetrics

	sequenceCounter uint64
	ctx             context.Context
	cancel          context.CancelFunc
	started         atomic.Bool
	stopped         atomic.Bool
	wg              sync.WaitGroup
	mu              sync.Mutex // protects Start/Stop
	submitMu        sync.Mutex // serializes Submit and guards submitChan against Stop
}

// NewBlockPipeline creates a new BlockPipeline using functional options.
//
// Example:
//
//	p := NewBlockPipeline(
//	    WithDecodeWorkers(4),
//	    WithApplyFunc(myApplyFunc),
//	)
func NewBlockPipeline(opts ...PipelineOption) *BlockPipeline {
	config := DefaultPipelineConfig()
	for _, opt := range opts {
		opt(&config)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Ingestor == nil {
		config.Ingestor = ingest.New(ingest.WithLogger(logger))
	}
	return &BlockPipeline{
		config:  config,
		logger:  logger.With("component", "pipeline"),
		metrics: NewPipelineMetrics(),
	}
}

// Start starts the pipeline. Cancelling ctx aborts processing without draining
func (p *BlockPipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped.Load() {
		return ErrPipelineStopped
	}
	if p.started.Load() {
		return nil
	}
	p.ctx, p.cancel = context.WithCancel(ctx)

	bufSize := p.config.BufferSize
	p.submitChan = make(chan *BlockItem, bufSize)
	p.decodedChan = make(chan *BlockItem, bufSize)
	p.resultsChan = make(chan *BlockItem, bufSize)

	p.decodeStage = NewDecodeStage(p.config.Ingestor)
	p.applyStage = NewApplyStage(p.config.ApplyFunc, p.config.MaxPendingBlocks)
	p.decodePool = NewStageWorkerPool(StageWorkerPoolConfig{
		Stage:         p.decodeStage,
		NumWorkers:    p.config.DecodeWorkers,
		Input:         p.submitChan,
		Output:        p.decodedChan,
		RecordMetrics: IngestMetricsRecorder(p.metrics),
		Logger:        p.logger,
	})
	p.applyRunner = NewApplyStageRunner(
		p.applyStage,
		p.decodedChan,
		p.resultsChan,
		p.metrics,
		p.logger,
	)

	p.decodePool.Start(p.ctx)  //nolint:contextcheck
	p.applyRunner.Start(p.ctx) //nolint:contextcheck
	p.wg.Add(1)
	go p.metricsCollector()

	p.started.Store(true)
	p.logger.Debug("pipeline started", "decode_workers", p.config.DecodeWorkers)
	return nil
}

// Submit submits a raw block declared with the given block version code and returns
// its sequence number. It blocks while the pipeline is full. Submit is safe to call
// concurrently with itself and with Stop
func (p *BlockPipeline) Submit(ctx context.Context, blockVersion uint16, rawCbor []byte) (uint64, error) {
	if !p.started.Load() {
		return 0, ErrPipelineNotStarted
	}
	p.submitMu.Lock()
	defer p.submitMu.Unlock()
	if p.stopped.Load() {
		return 0, ErrPipelineStopped
	}
	// Sequence numbers are only consumed by successful sends so the apply stage never
	// waits on a gap
	seq := p.sequenceCounter
	item := NewBlockItem(blockVersion, rawCbor, seq)
	select {
	case p.submitChan <- item:
		p.sequenceCounter++
		p.metrics.RecordSubmit()
		return seq, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-p.ctx.Done():
		return 0, ErrPipelineStopped
	}
}

// Results returns the channel of processed block items in submission order, accepted
// or not. It is closed by Stop. Results must be read for the pipeline to make progress
func (p *BlockPipeline) Results() <-chan *BlockItem {
	if !p.started.Load() {
		return closedResultsChan
	}
	return p.resultsChan
}

// Stop stops accepting blocks, waits for every submitted block to reach Results and
// closes it
func (p *BlockPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started.Load() || p.stopped.Load() {
		return nil
	}
	p.submitMu.Lock()
	p.stopped.Store(true)
	close(p.submitChan)
	p.submitMu.Unlock()

	p.decodePool.Stop()
	close(p.decodedChan)
	p.applyRunner.Stop()
	close(p.resultsChan)

	p.cancel()
	p.wg.Wait()
	stats := p.metrics.Stats()
	p.logger.Debug(
		"pipeline stopped",
		"submitted",
		stats.BlocksSubmitted,
		"accepted",
		stats.BlocksAccepted,
		"rejected",
		stats.BlocksRejected,
		"mean_ingest_duration",
		p.metrics.MeanIngestDuration(),
	)
	return nil
}

func (p *BlockPipeline) Stats() PipelineStats {
	return p.metrics.Stats()
}

// PendingCount returns the approximate number of submitted items not yet delivered
func (p *BlockPipeline) PendingCount() int {
	if !p.started.Load() {
		return 0
	}
	return len(p.submitChan) + len(p.decodedChan) + p.applyStage.PendingCount()
}

func (p *BlockPipeline) metricsCollector() {
	defer p.wg.Done()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.metrics.UpdateQueueDepth(len(p.submitChan) + len(p.decodedChan))
		}
	}
}
