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

package common

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/config"
)

type GlobalFlags struct {
	Flagset          *flag.FlagSet
	ConfigFile       string
	Network          string
	NetworkMagic     uint
	DecodePath       string
	ConsensusVersion string
	LogLevel         string
	Hex              bool
}

func NewGlobalFlags(name string) *GlobalFlags {
	f := &GlobalFlags{
		Flagset: flag.NewFlagSet(name, flag.ContinueOnError),
	}
	f.Flagset.StringVar(
		&f.ConfigFile,
		"config",
		"",
		"path to YAML config file",
	)
	f.Flagset.StringVar(
		&f.Network,
		"network",
		"",
		"specifies network that blocks are expected on (defaults to mainnet)",
	)
	f.Flagset.UintVar(
		&f.NetworkMagic,
		"network-magic",
		0,
		"specifies network magic value. this overrides the -network option",
	)
	f.Flagset.StringVar(
		&f.DecodePath,
		"decode-path",
		"",
		"CBOR decode path to use (stream or value)",
	)
	f.Flagset.StringVar(
		&f.ConsensusVersion,
		"consensus",
		"",
		"consensus version blocks must be compatible with (bft or genesis)",
	)
	f.Flagset.StringVar(
		&f.LogLevel,
		"log-level",
		"",
		"log level (debug, info, warn, error)",
	)
	f.Flagset.BoolVar(&f.Hex, "hex", false, "input files contain hex-encoded CBOR")
	return f
}

func (f *GlobalFlags) Parse(args []string) error {
	if err := f.Flagset.Parse(args); err != nil {
		return fmt.Errorf("failed to parse command args: %w", err)
	}
	return nil
}

// Config loads the config file, if any, and applies flags that were set on top of it
func (f *GlobalFlags) Config() (*config.Config, error) {
	cfg := config.Default()
	if f.ConfigFile != "" {
		tmpCfg, err := config.Load(f.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = tmpCfg
	}
	if f.Network != "" {
		cfg.Network = f.Network
		cfg.NetworkMagic = 0
	}
	if f.NetworkMagic != 0 {
		if uint64(f.NetworkMagic) > uint64(^uint32(0)) {
			return nil, fmt.Errorf("network magic %d overflows uint32", f.NetworkMagic)
		}
		cfg.NetworkMagic = uint32(f.NetworkMagic)
	}
	if f.DecodePath != "" {
		path, err := cbor.ParseDecodePath(f.DecodePath)
		if err != nil {
			return nil, err
		}
		cfg.DecodePath = path
	}
	if f.ConsensusVersion != "" {
		cfg.ConsensusVersion = f.ConsensusVersion
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger returns a text logger writing to w at the configured level
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	), nil
}
