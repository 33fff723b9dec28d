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

// Package testdata provides shared test block data for benchmarks and tests.
package testdata

import (
	_ "embed"
	"encoding/hex"
	"strings"
)

// Genesis block on mainnet magic with no slot leaders and [[], {}] extra data
// Epoch: 0
// Hash: 9facdfbf1ab9ca14269150f82cf92334933d7dd10ca18c799ef6611667a94d48
//
//go:embed genesis_block.hex
var GenesisBlockHex string

// Epoch boundary block on mainnet magic with two slot leaders
// Epoch: 208
// Difficulty: 261407
// Hash: ec7578f4b6aa8cd5a26418660adbbbd5b501e60d3eb47dc5dff839f97333d11d
//
//go:embed epoch_boundary_block.hex
var EpochBoundaryBlockHex string

// TestBlock contains block data for testing.
type TestBlock struct {
	Name        string
	Hash        string
	Epoch       uint64
	SlotLeaders int
	Cbor        []byte
}

// GetTestBlocks returns the genesis blocks used across tests.
func GetTestBlocks() []TestBlock {
	return []TestBlock{
		{
			Name:        "Genesis",
			Hash:        "9facdfbf1ab9ca14269150f82cf92334933d7dd10ca18c799ef6611667a94d48",
			Epoch:       0,
			SlotLeaders: 0,
			Cbor:        MustDecodeHex(GenesisBlockHex),
		},
		{
			Name:        "EpochBoundary",
			Hash:        "ec7578f4b6aa8cd5a26418660adbbbd5b501e60d3eb47dc5dff839f97333d11d",
			Epoch:       208,
			SlotLeaders: 2,
			Cbor:        MustDecodeHex(EpochBoundaryBlockHex),
		},
	}
}

// MustDecodeHex decodes a hex string to bytes, panicking on error.
func MustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		panic(err)
	}
	return b
}
