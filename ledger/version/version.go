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

// Package version classifies the block and consensus versions declared on the wire.
//
// Numeric codes are permanent wire constants. Classification never fails: a code that
// doesn't match a known BlockVersion is kept as an unsupported version so that callers
// can decide what to do with blocks from newer protocol versions.
package version

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/blinklabs-io/genesis-ingest/cbor"
)

// BlockVersion is a known block schema variant
type BlockVersion uint16

const (
	Genesis       BlockVersion = 0
	Ed25519Signed BlockVersion = 1
	KesVrfproof   BlockVersion = 2
)

// Declaration order, which is also the order of SupportedBlockVersions
var blockVersions = []BlockVersion{
	Genesis,
	Ed25519Signed,
	KesVrfproof,
}

// AllBlockVersions returns every known block version in declaration order
func AllBlockVersions() []BlockVersion {
	return slices.Clone(blockVersions)
}

// Code returns the wire code of the block version
func (v BlockVersion) Code() uint16 {
	return uint16(v)
}

// Consensus returns the consensus version the block version runs under. Genesis blocks
// don't require one
func (v BlockVersion) Consensus() (ConsensusVersion, bool) {
	switch v {
	case Ed25519Signed:
		return Bft, true
	case KesVrfproof:
		return GenesisPraos, true
	default:
		return 0, false
	}
}

func (v BlockVersion) String() string {
	switch v {
	case Genesis:
		return "Genesis"
	case Ed25519Signed:
		return "Ed25519Signed"
	case KesVrfproof:
		return "KesVrfproof"
	default:
		return fmt.Sprintf("BlockVersion(%d)", uint16(v))
	}
}

// ConsensusVersion identifies the consensus algorithm a block runs under
type ConsensusVersion uint16

const (
	Bft          ConsensusVersion = 1
	GenesisPraos ConsensusVersion = 2
)

var consensusVersions = []ConsensusVersion{
	Bft,
	GenesisPraos,
}

func AllConsensusVersions() []ConsensusVersion {
	return slices.Clone(consensusVersions)
}

func (c ConsensusVersion) Code() uint16 {
	return uint16(c)
}

func (c ConsensusVersion) String() string {
	switch c {
	case Bft:
		return "bft"
	case GenesisPraos:
		return "genesis"
	default:
		return fmt.Sprintf("ConsensusVersion(%d)", uint16(c))
	}
}

// ParseConsensusVersion parses the names returned by ConsensusVersion.String
func ParseConsensusVersion(name string) (ConsensusVersion, error) {
	for _, c := range consensusVersions {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown consensus version: %s", name)
}

func (c ConsensusVersion) MarshalText() ([]byte, error) {
	switch c {
	case Bft, GenesisPraos:
		return []byte(c.String()), nil
	default:
		return nil, fmt.Errorf("unknown consensus version: %d", uint16(c))
	}
}

func (c *ConsensusVersion) UnmarshalText(text []byte) error {
	tmpVersion, err := ParseConsensusVersion(string(text))
	if err != nil {
		return err
	}
	*c = tmpVersion
	return nil
}

var (
	supportedBlockVersions     map[ConsensusVersion][]BlockVersion
	supportedBlockVersionsOnce sync.Once
)

// buildSupportedBlockVersions derives the consensus to block version table from
// BlockVersion.Consensus
func buildSupportedBlockVersions() {
	ret := make(map[ConsensusVersion][]BlockVersion, len(consensusVersions))
	for _, blockVersion := range blockVersions {
		consensus, ok := blockVersion.Consensus()
		if !ok {
			continue
		}
		ret[consensus] = append(ret[consensus], blockVersion)
	}
	supportedBlockVersions = ret
}

// SupportedBlockVersions returns the block versions that run under this consensus
// version, in declaration order. The result is empty for a consensus version no
// block version maps to
func (c ConsensusVersion) SupportedBlockVersions() []BlockVersion {
	supportedBlockVersionsOnce.Do(buildSupportedBlockVersions)
	return slices.Clone(supportedBlockVersions[c])
}

// Supports reports whether blocks of the given version run under this consensus version
func (c ConsensusVersion) Supports(blockVersion BlockVersion) bool {
	supportedBlockVersionsOnce.Do(buildSupportedBlockVersions)
	return slices.Contains(supportedBlockVersions[c], blockVersion)
}

// AnyBlockVersion is any 16-bit block version code, classified as either a supported
// BlockVersion or an unsupported raw code
type AnyBlockVersion struct {
	code      uint16
	supported bool
}

// NewAnyBlockVersion classifies code. It is defined for every input
func NewAnyBlockVersion(code uint16) AnyBlockVersion {
	for _, blockVersion := range blockVersions {
		if blockVersion.Code() == code {
			return AnyBlockVersion{code: code, supported: true}
		}
	}
	return AnyBlockVersion{code: code}
}

// FromBlockVersion returns the supported AnyBlockVersion for v
func FromBlockVersion(v BlockVersion) AnyBlockVersion {
	return NewAnyBlockVersion(v.Code())
}

// BlockVersion narrows a supported version to its BlockVersion. Unsupported versions
// return false
func (a AnyBlockVersion) BlockVersion() (BlockVersion, bool) {
	if !a.supported {
		return 0, false
	}
	return BlockVersion(a.code), true
}

func (a AnyBlockVersion) IsSupported() bool {
	return a.supported
}

// Code returns the raw wire code
func (a AnyBlockVersion) Code() uint16 {
	return a.code
}

// Equal reports whether a is the supported version v
func (a AnyBlockVersion) Equal(v BlockVersion) bool {
	blockVersion, ok := a.BlockVersion()
	return ok && blockVersion == v
}

func (a AnyBlockVersion) String() string {
	if blockVersion, ok := a.BlockVersion(); ok {
		return blockVersion.String()
	}
	return fmt.Sprintf("Unsupported(%d)", a.code)
}

func (a AnyBlockVersion) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(a.code)
}

func (a *AnyBlockVersion) UnmarshalCBOR(data []byte) error {
	var tmpCode uint16
	if _, err := cbor.Decode(data, &tmpCode); err != nil {
		return err
	}
	*a = NewAnyBlockVersion(tmpCode)
	return nil
}
