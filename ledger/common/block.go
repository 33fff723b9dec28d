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

import utxorpc "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"

// Block is implemented by every decoded block type
type Block interface {
	Hash() HeaderHash
	BlockNumber() uint64
	SlotNumber() uint64
	Type() int
	Cbor() []byte
	Utxorpc() *utxorpc.Block
}

type BlockHeader interface {
	Hash() HeaderHash
	PrevHash() HeaderHash
	BlockNumber() uint64
	SlotNumber() uint64
	Cbor() []byte
}
