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
	"sync"
	"sync/atomic"
	"time"
)

// PipelineMetrics tracks metrics for the entire pipeline.
type PipelineMetrics struct {
	blocksSubmitted atomic.Uint64
	blocksAccepted  atomic.Uint64
	blocksRejected  atomic.Uint64
	blocksApplied   atomic.Uint64
	applyErrors     atomic.Uint64
	ingestNanos     atomic.Int64

	mu                sync.RWMutex
	currentQueueDepth int
	peakQueueDepth    int
	lastBlockTime     time.Time
	startTime         time.Time
}

func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		startTime: time.Now(),
	}
}

func (m *PipelineMetrics) RecordSubmit() {
	m.blocksSubmitted.Add(1)
}

// RecordIngest records the outcome of the decode stage
func (m *PipelineMetrics) RecordIngest(duration time.Duration, err error) {
	m.ingestNanos.Add(int64(duration))
	if err != nil {
		m.blocksRejected.Add(1)
	} else {
		m.blocksAccepted.Add(1)
	}
}

func (m *PipelineMetrics) RecordApply(err error) {
	if err != nil {
		m.applyErrors.Add(1)
		return
	}
	m.blocksApplied.Add(1)
	m.mu.Lock()
	m.lastBlockTime = time.Now()
	m.mu.Unlock()
}

// MeanIngestDuration returns the average time spent ingesting a block
func (m *PipelineMetrics) MeanIngestDuration() time.Duration {
	count := m.blocksAccepted.Load() + m.blocksRejected.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(uint64(m.ingestNanos.Load()) / count)
}

func (m *PipelineMetrics) UpdateQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentQueueDepth = depth
	if depth > m.peakQueueDepth {
		m.peakQueueDepth = depth
	}
}

// Stats returns a snapshot of the current metrics.
func (m *PipelineMetrics) Stats() PipelineStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return PipelineStats{
		BlocksSubmitted:   m.blocksSubmitted.Load(),
		BlocksAccepted:    m.blocksAccepted.Load(),
		BlocksRejected:    m.blocksRejected.Load(),
		BlocksApplied:     m.blocksApplied.Load(),
		ApplyErrors:       m.applyErrors.Load(),
		CurrentQueueDepth: m.currentQueueDepth,
		PeakQueueDepth:    m.peakQueueDepth,
		LastBlockTime:     m.lastBlockTime,
		StartTime:         m.startTime,
	}
}
