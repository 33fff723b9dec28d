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

// Package config loads ingestor settings from a YAML file
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ingest "github.com/blinklabs-io/genesis-ingest"
	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/ledger/version"
	"gopkg.in/yaml.v3"
)

const DefaultNetwork = "mainnet"

// Config is the on-disk YAML shape
type Config struct {
	Network      string          `yaml:"network"`
	NetworkMagic uint32          `yaml:"networkMagic"`
	DecodePath   cbor.DecodePath `yaml:"decodePath"`
	// Empty means blocks are not checked against a consensus version
	ConsensusVersion string `yaml:"consensusVersion"`
	LogLevel         string `yaml:"logLevel"`
}

func Default() *Config {
	return &Config{
		Network:    DefaultNetwork,
		DecodePath: cbor.DecodePathStream,
		LogLevel:   "info",
	}
}

// Load reads the YAML file at path over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the network, consensus version and log level are known.
// A nonzero network magic takes precedence over the network name
func (c *Config) Validate() error {
	if c.NetworkMagic == 0 && c.Network != "" {
		if ingest.NetworkByName(c.Network) == ingest.NetworkInvalid {
			return fmt.Errorf("invalid network: %s", c.Network)
		}
	}
	if _, _, err := c.consensusVersion(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.DecodePath {
	case cbor.DecodePathStream, cbor.DecodePathValue:
	default:
		return errors.New("invalid decode path: " + c.DecodePath.String())
	}
	return nil
}

// Magic returns the network magic blocks are checked against. Zero disables the check
func (c *Config) Magic() uint32 {
	if c.NetworkMagic != 0 {
		return c.NetworkMagic
	}
	if c.Network == "" {
		return 0
	}
	return ingest.NetworkByName(c.Network).NetworkMagic
}

// Level parses LogLevel into a slog level
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return level, nil
}

func (c *Config) consensusVersion() (version.ConsensusVersion, bool, error) {
	if c.ConsensusVersion == "" {
		return 0, false, nil
	}
	ret, err := version.ParseConsensusVersion(c.ConsensusVersion)
	if err != nil {
		return 0, false, err
	}
	return ret, true, nil
}

// IngestOptions converts the config into options for ingest.New. The config must
// have passed Validate
func (c *Config) IngestOptions(logger *slog.Logger) []ingest.IngestorOptionFunc {
	ret := []ingest.IngestorOptionFunc{
		ingest.WithNetworkMagic(c.Magic()),
		ingest.WithDecodePath(c.DecodePath),
	}
	if logger != nil {
		ret = append(ret, ingest.WithLogger(logger))
	}
	if consensus, ok, err := c.consensusVersion(); err == nil && ok {
		ret = append(ret, ingest.WithConsensusVersion(consensus))
	}
	return ret
}
