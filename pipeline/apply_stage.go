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
	"time"
)

// ErrPendingLimitExceeded is returned when the apply stage's pending buffer is full.
var ErrPendingLimitExceeded = errors.New("pipeline: pending block limit exceeded")

// ApplyFunc is called for each accepted block in sequence order
type ApplyFunc func(*BlockItem) error

// ApplyStage buffers ingested blocks and releases them in sequence order. Blocks that
// ingest rejected are released in order too but never reach the ApplyFunc.
//
// ProcessWithStatus must be called from a single goroutine for ApplyFunc calls to be
// ordered. ApplyStageRunner does this.
type ApplyStage struct {
	applyFunc  ApplyFunc
	maxPending int
	mu         sync.Mutex
	// out-of-order items keyed by sequence number
	pending      map[uint64]*BlockItem
	nextSequence uint64
}

// NewApplyStage creates a new ApplyStage. maxPending limits the number of out-of-order
// blocks that can be buffered, 0 means unlimited
func NewApplyStage(applyFunc ApplyFunc, maxPending int) *ApplyStage {
	return &ApplyStage{
		applyFunc:  applyFunc,
		maxPending: maxPending,
		pending:    make(map[uint64]*BlockItem),
	}
}

func (s *ApplyStage) Name() string {
	return "apply"
}

func (s *ApplyStage) Process(ctx context.Context, item *BlockItem) error {
	_, err := s.ProcessWithStatus(ctx, item)
	return err
}

// ProcessWithStatus buffers item and returns every item that became ready, in sequence
// order. The result is empty when item is out of order. An item over the pending limit
// is still buffered and ErrPendingLimitExceeded is returned
func (s *ApplyStage) ProcessWithStatus(ctx context.Context, item *BlockItem) ([]*BlockItem, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.Lock()
	if item.SequenceNumber() != s.nextSequence {
		s.pending[item.SequenceNumber()] = item
		pendingCount := len(s.pending)
		s.mu.Unlock()
		if s.maxPending > 0 && pendingCount > s.maxPending {
			return nil, ErrPendingLimitExceeded
		}
		return nil, nil
	}
	s.nextSequence++
	s.mu.Unlock()
	s.applyItem(ctx, item)
	processed := []*BlockItem{item}
	for {
		s.mu.Lock()
		next, ok := s.pending[s.nextSequence]
		if !ok {
			s.mu.Unlock()
			return processed, nil
		}
		delete(s.pending, s.nextSequence)
		s.nextSequence++
		s.mu.Unlock()
		s.applyItem(ctx, next)
		processed = append(processed, next)
	}
}

func (s *ApplyStage) applyItem(ctx context.Context, item *BlockItem) {
	if !item.IsAccepted() {
		return
	}
	if ctx.Err() != nil {
		item.SetApplied(false, ctx.Err(), 0)
		return
	}
	start := time.Now()
	var err error
	if s.applyFunc != nil {
		err = s.applyFunc(item)
	}
	item.SetApplied(err == nil, err, time.Since(start))
}

// PendingCount returns the number of items waiting on an earlier sequence number
func (s *ApplyStage) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ApplyStageRunner runs the apply stage on a single goroutine and forwards released
// items to the output
type ApplyStageRunner struct {
	stage   *ApplyStage
	input   <-chan *BlockItem
	output  chan<- *BlockItem
	metrics *PipelineMetrics
	logger  *slog.Logger
	done    chan struct{}
}

func NewApplyStageRunner(
	stage *ApplyStage,
	input <-chan *BlockItem,
	output chan<- *BlockItem,
	metrics *PipelineMetrics,
	logger *slog.Logger,
) *ApplyStageRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyStageRunner{
		stage:   stage,
		input:   input,
		output:  output,
		metrics: metrics,
		logger:  logger.With("stage", stage.Name()),
		done:    make(chan struct{}),
	}
}

func (r *ApplyStageRunner) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop waits for the runner to exit. The runner exits when its input is closed or the
// context passed to Start is cancelled
func (r *ApplyStageRunner) Stop() {
	<-r.done
}

func (r *ApplyStageRunner) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-r.input:
			if !ok {
				if pending := r.stage.PendingCount(); pending > 0 {
					r.logger.Warn("input closed with blocks still pending", "pending", pending)
				}
				return
			}
			processed, err := r.stage.ProcessWithStatus(ctx, item)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				r.logger.Warn("apply stage backlog", "error", err.Error(), "pending", r.stage.PendingCount())
			}
			for _, p := range processed {
				if r.metrics != nil && p.IsAccepted() {
					r.metrics.RecordApply(p.ApplyError())
				}
				select {
				case r.output <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
