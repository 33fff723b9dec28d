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
	"log/slog"
	"runtime"

	ingest "github.com/blinklabs-io/genesis-ingest"
)

// DefaultMaxPendingBlocks is the default limit for out-of-order blocks buffered
// in the apply stage
const DefaultMaxPendingBlocks = 2160

// PipelineConfig holds configuration for a BlockPipeline.
type PipelineConfig struct {
	// Ingestor classifies and decodes blocks. Defaults to ingest.New() with the logger
	Ingestor *ingest.Ingestor
	// DecodeWorkers is the number of parallel decode workers.
	DecodeWorkers int
	// BufferSize is the buffer size for inter-stage channels.
	BufferSize int
	// MaxPendingBlocks limits out-of-order blocks buffered in the apply stage.
	MaxPendingBlocks int
	// ApplyFunc is called for accepted blocks in submission order.
	ApplyFunc ApplyFunc
	Logger    *slog.Logger
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		DecodeWorkers:    max(runtime.NumCPU()/2, 2),
		BufferSize:       256,
		MaxPendingBlocks: DefaultMaxPendingBlocks,
	}
}

// PipelineOption is a functional option for configuring a BlockPipeline.
type PipelineOption func(*PipelineConfig)

// WithConfig replaces all values. Options applied after it still override them
func WithConfig(config PipelineConfig) PipelineOption {
	return func(c *PipelineConfig) {
		*c = config
	}
}

func WithIngestor(ingestor *ingest.Ingestor) PipelineOption {
	return func(c *PipelineConfig) {
		c.Ingestor = ingestor
	}
}

func WithDecodeWorkers(n int) PipelineOption {
	return func(c *PipelineConfig) {
		if n > 0 {
			c.DecodeWorkers = n
		}
	}
}

func WithBufferSize(size int) PipelineOption {
	return func(c *PipelineConfig) {
		if size > 0 {
			c.BufferSize = size
		}
	}
}

func WithMaxPendingBlocks(n int) PipelineOption {
	return func(c *PipelineConfig) {
		if n > 0 {
			c.MaxPendingBlocks = n
		}
	}
}

// WithApplyFunc sets the apply function. A nil function is ignored
func WithApplyFunc(fn ApplyFunc) PipelineOption {
	return func(c *PipelineConfig) {
		if fn != nil {
			c.ApplyFunc = fn
		}
	}
}

func WithLogger(logger *slog.Logger) PipelineOption {
	return func(c *PipelineConfig) {
		c.Logger = logger
	}
}
