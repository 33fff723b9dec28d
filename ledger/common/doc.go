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

// Package common provides the primitives shared by block types.
//
// # Key Files by Purpose
//
//   - common.go: Blake2b256 and Blake2b224 hashes
//   - primitives.go: ProtocolMagic, EpochId, ChainDifficulty, StakeholderId and Attributes
//   - block.go: Block and BlockHeader interfaces
//
// Every type decodes from either a cbor.Value or a cbor.StreamDecoder and both paths
// accept and reject the same inputs.
package common
