// Copyright 2025 Blink Labs Software
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
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"golang.org/x/crypto/blake2b"
)

const (
	Blake2b256Size = 32
	Blake2b224Size = 28
)

type Blake2b256 [Blake2b256Size]byte

func NewBlake2b256(data []byte) Blake2b256 {
	b := Blake2b256{}
	copy(b[:], data)
	return b
}

func (b Blake2b256) String() string {
	return hex.EncodeToString(b[:])
}

func (b Blake2b256) Bytes() []byte {
	return b[:]
}

func (b Blake2b256) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b Blake2b256) MarshalCBOR() ([]byte, error) {
	// Ensure we always encode a full-sized bytestring, even if the hash is zero-valued
	return cbor.Encode(b[:])
}

func (Blake2b256) CborTypeName() string {
	return "Blake2b256"
}

func (b *Blake2b256) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, b, cbor.DecodePathStream)
}

func (b Blake2b256) EncodeValue() cbor.Value {
	return cbor.NewBytes(b[:])
}

func (b *Blake2b256) DecodeValue(v cbor.Value) error {
	tmpBytes, err := v.Bytes()
	if err != nil {
		return err
	}
	return decodeFixedBytes(b[:], tmpBytes)
}

func (b *Blake2b256) DecodeStream(d *cbor.StreamDecoder) error {
	tmpBytes, err := d.Bytes()
	if err != nil {
		return err
	}
	return decodeFixedBytes(b[:], tmpBytes)
}

// Blake2b256Hash generates a Blake2b-256 hash from the provided data
func Blake2b256Hash(data []byte) Blake2b256 {
	tmpHash, err := blake2b.New(Blake2b256Size, nil)
	if err != nil {
		panic(
			fmt.Sprintf(
				"unexpected error generating empty blake2b hash: %s",
				err,
			),
		)
	}
	tmpHash.Write(data)
	return Blake2b256(tmpHash.Sum(nil))
}

type Blake2b224 [Blake2b224Size]byte

func NewBlake2b224(data []byte) Blake2b224 {
	b := Blake2b224{}
	copy(b[:], data)
	return b
}

func (b Blake2b224) String() string {
	return hex.EncodeToString(b[:])
}

func (b Blake2b224) Bytes() []byte {
	return b[:]
}

func (b Blake2b224) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b Blake2b224) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(b[:])
}

func (Blake2b224) CborTypeName() string {
	return "Blake2b224"
}

func (b *Blake2b224) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, b, cbor.DecodePathStream)
}

func (b Blake2b224) EncodeValue() cbor.Value {
	return cbor.NewBytes(b[:])
}

func (b *Blake2b224) DecodeValue(v cbor.Value) error {
	tmpBytes, err := v.Bytes()
	if err != nil {
		return err
	}
	return decodeFixedBytes(b[:], tmpBytes)
}

func (b *Blake2b224) DecodeStream(d *cbor.StreamDecoder) error {
	tmpBytes, err := d.Bytes()
	if err != nil {
		return err
	}
	return decodeFixedBytes(b[:], tmpBytes)
}

// Blake2b224Hash generates a Blake2b-224 hash from the provided data
func Blake2b224Hash(data []byte) Blake2b224 {
	tmpHash, err := blake2b.New(Blake2b224Size, nil)
	if err != nil {
		panic(
			fmt.Sprintf(
				"unexpected error generating empty blake2b hash: %s",
				err,
			),
		)
	}
	tmpHash.Write(data)
	return Blake2b224(tmpHash.Sum(nil))
}

// decodeFixedBytes copies src into dest, which must be exactly as long as src
func decodeFixedBytes(dest []byte, src []byte) error {
	if len(src) != len(dest) {
		return cbor.TypeError{
			Expected: fmt.Sprintf("%d-byte string", len(dest)),
			Actual:   fmt.Sprintf("%d-byte string", len(src)),
		}
	}
	copy(dest, src)
	return nil
}
