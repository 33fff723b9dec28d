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
)

// MetricsRecorder records metrics for a processed block item and the error, if any,
// returned by the stage
type MetricsRecorder func(item *BlockItem, err error)

// StageWorkerPool runs multiple workers in parallel for a given stage. Every item read
// from the input is forwarded to the output, whether or not the stage failed on it
type StageWorkerPool struct {
	stage         Stage
	numWorkers    int
	input         <-chan *BlockItem
	output        chan<- *BlockItem
	recordMetrics MetricsRecorder
	logger        *slog.Logger
	wg            sync.WaitGroup
	started       atomic.Bool
}

// StageWorkerPoolConfig holds configuration for creating a StageWorkerPool.
type StageWorkerPoolConfig struct {
	// Stage is the processing stage to use (required, panics if nil).
	Stage Stage
	// NumWorkers is the number of parallel workers; defaults to 1 if <= 0.
	NumWorkers int
	Input      <-chan *BlockItem
	Output     chan<- *BlockItem
	// RecordMetrics is called after processing. If nil, no metrics are recorded.
	RecordMetrics MetricsRecorder
	// Logger receives stage failures at debug level. Defaults to slog.Default()
	Logger *slog.Logger
}

func NewStageWorkerPool(config StageWorkerPoolConfig) *StageWorkerPool {
	if config.Stage == nil {
		panic(ErrNilStage)
	}
	numWorkers := max(config.NumWorkers, 1)
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StageWorkerPool{
		stage:         config.Stage,
		numWorkers:    numWorkers,
		input:         config.Input,
		output:        config.Output,
		recordMetrics: config.RecordMetrics,
		logger:        logger.With("stage", config.Stage.Name()),
	}
}

// Start starts the worker pool. Calling it more than once has no effect.
func (p *StageWorkerPool) Start(ctx context.Context) {
	if p.started.Swap(true) {
		return
	}
	for range p.numWorkers {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Stop waits for all workers to exit. Workers exit when the input is closed and
// drained or the context passed to Start is cancelled
func (p *StageWorkerPool) Stop() {
	p.wg.Wait()
}

func (p *StageWorkerPool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-p.input:
			if !ok {
				return
			}
			err := p.stage.Process(ctx, item)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if err != nil {
				p.logger.Debug(
					"stage failed",
					"sequence",
					item.SequenceNumber(),
					"error",
					err.Error(),
				)
			}
			if p.recordMetrics != nil {
				p.recordMetrics(item, err)
			}
			select {
			case p.output <- item:
			case <-ctx.Done():
				return
			}
		}
	}
}

// IngestMetricsRecorder returns a MetricsRecorder for the decode stage.
func IngestMetricsRecorder(metrics *PipelineMetrics) MetricsRecorder {
	if metrics == nil {
		return nil
	}
	return func(item *BlockItem, err error) {
		metrics.RecordIngest(item.IngestDuration(), err)
	}
}
