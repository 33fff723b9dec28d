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

// Package cbor provides the CBOR codec used for genesis block ingestion.
//
// It wraps github.com/fxamacker/cbor/v2 and offers two decode paths over the same
// wire data:
//
//   - Value: bytes are parsed into a generic Value tree, and types implement
//     ValueDecoder to build themselves from it. ArrayDecoder walks fixed-arity
//     arrays positionally and rejects leftover elements.
//   - StreamDecoder: types implement StreamDecodable and read headers and
//     elements directly from the byte cursor. Indefinite-length arrays are walked
//     until their break marker.
//
// Types implementing both satisfy Decodable, and DecodeBytes picks the path at
// runtime. Both paths reject bytes left after the top-level item.
//
// # Errors
//
// Decode failures fall into four classes, each with a sentinel for errors.Is:
//
//   - ErrStructuralMismatch: ArityError, TypeError, NestingError
//   - ErrTrailingData: TrailingDataError
//   - ErrTruncated: TruncatedError
//   - ErrUnexpectedToken: UnexpectedTokenError
//
// Decoders wrap nested failures with Embed, so the message reads from the
// top-level type down to the failing field:
//
//	genesis block: header: protocol magic: expected unsigned integer, got byte string
//
// ErrorPath returns those segments as a slice.
package cbor
