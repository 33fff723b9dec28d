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
	"fmt"
	"math"
	"slices"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/btcsuite/btcd/btcutil/base58"
)

const ByronSlotsPerEpoch = 21600

// ProtocolMagic identifies the network a block belongs to
type ProtocolMagic uint32

func (m ProtocolMagic) EncodeValue() cbor.Value {
	return cbor.NewUint(uint64(m))
}

func (m *ProtocolMagic) DecodeValue(v cbor.Value) error {
	tmpMagic, err := v.Uint()
	if err != nil {
		return err
	}
	return m.set(tmpMagic)
}

func (m *ProtocolMagic) DecodeStream(d *cbor.StreamDecoder) error {
	tmpMagic, err := d.Uint()
	if err != nil {
		return err
	}
	return m.set(tmpMagic)
}

func (m *ProtocolMagic) set(val uint64) error {
	if val > math.MaxUint32 {
		return fmt.Errorf("protocol magic %d overflows uint32", val)
	}
	*m = ProtocolMagic(val)
	return nil
}

// HeaderHash references a block header by its hash
type HeaderHash = Blake2b256

// EpochId is the sequence number of an epoch
type EpochId uint64

func (e EpochId) EncodeValue() cbor.Value {
	return cbor.NewUint(uint64(e))
}

func (e *EpochId) DecodeValue(v cbor.Value) error {
	tmpEpoch, err := v.Uint()
	if err != nil {
		return err
	}
	*e = EpochId(tmpEpoch)
	return nil
}

func (e *EpochId) DecodeStream(d *cbor.StreamDecoder) error {
	tmpEpoch, err := d.Uint()
	if err != nil {
		return err
	}
	*e = EpochId(tmpEpoch)
	return nil
}

// ChainDifficulty is the number of blocks since genesis. It is encoded as a
// single-element array
type ChainDifficulty struct {
	Value uint64
}

func (c ChainDifficulty) EncodeValue() cbor.Value {
	return cbor.NewArray(cbor.NewUint(c.Value))
}

func (ChainDifficulty) CborTypeName() string {
	return "ChainDifficulty"
}

func (c *ChainDifficulty) DecodeValue(v cbor.Value) error {
	arr, err := cbor.NewFixedArrayDecoder(v, "ChainDifficulty", 1)
	if err != nil {
		return err
	}
	tmpValue, err := arr.Uint("value")
	if err != nil {
		return cbor.Embed(err, "ChainDifficulty")
	}
	if err := arr.Finish(); err != nil {
		return err
	}
	c.Value = tmpValue
	return nil
}

func (c *ChainDifficulty) DecodeStream(d *cbor.StreamDecoder) error {
	if err := d.ExpectArray("ChainDifficulty", 1); err != nil {
		return err
	}
	tmpValue, err := d.Uint()
	if err != nil {
		return cbor.Embed(err, "ChainDifficulty")
	}
	c.Value = tmpValue
	return nil
}

// StakeholderId identifies a stakeholder by the hash of its public key
type StakeholderId Blake2b224

func NewStakeholderId(data []byte) StakeholderId {
	return StakeholderId(NewBlake2b224(data))
}

func (s StakeholderId) String() string {
	return Blake2b224(s).String()
}

func (s StakeholderId) Bytes() []byte {
	return s[:]
}

// Base58 renders the id the way Byron tooling displays stakeholders
func (s StakeholderId) Base58() string {
	return base58.Encode(s[:])
}

func (s StakeholderId) MarshalJSON() ([]byte, error) {
	return Blake2b224(s).MarshalJSON()
}

func (s StakeholderId) MarshalCBOR() ([]byte, error) {
	return Blake2b224(s).MarshalCBOR()
}

func (StakeholderId) CborTypeName() string {
	return "StakeholderId"
}

func (s *StakeholderId) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, s, cbor.DecodePathStream)
}

func (s StakeholderId) EncodeValue() cbor.Value {
	return Blake2b224(s).EncodeValue()
}

func (s *StakeholderId) DecodeValue(v cbor.Value) error {
	return (*Blake2b224)(s).DecodeValue(v)
}

func (s *StakeholderId) DecodeStream(d *cbor.StreamDecoder) error {
	return (*Blake2b224)(s).DecodeStream(d)
}

// Attributes is an open map of unsigned keys to arbitrary CBOR values. Unknown
// keys are kept so that blocks carrying newer attributes still decode
type Attributes struct {
	entries map[uint64]cbor.RawMessage
}

func NewAttributes() Attributes {
	return Attributes{}
}

// Set encodes value and stores it under key
func (a *Attributes) Set(key uint64, value any) error {
	data, err := cbor.Encode(value)
	if err != nil {
		return err
	}
	if a.entries == nil {
		a.entries = make(map[uint64]cbor.RawMessage)
	}
	a.entries[key] = data
	return nil
}

// Get returns the raw CBOR stored under key
func (a Attributes) Get(key uint64) (cbor.RawMessage, bool) {
	ret, ok := a.entries[key]
	return ret, ok
}

// Keys returns the attribute keys in ascending order
func (a Attributes) Keys() []uint64 {
	ret := make([]uint64, 0, len(a.entries))
	for key := range a.entries {
		ret = append(ret, key)
	}
	slices.Sort(ret)
	return ret
}

func (a Attributes) Len() int {
	return len(a.entries)
}

func (a Attributes) EncodeValue() cbor.Value {
	entries := make([]cbor.MapEntry, 0, len(a.entries))
	for _, key := range a.Keys() {
		var tmpValue cbor.Value
		// Entries only ever hold CBOR produced by the encoder or taken from decoded input
		if _, err := cbor.Decode(a.entries[key], &tmpValue); err != nil {
			panic(fmt.Sprintf("unexpected error decoding stored attribute %d: %s", key, err))
		}
		entries = append(entries, cbor.MapEntry{Key: cbor.NewUint(key), Value: tmpValue})
	}
	return cbor.NewMap(entries...)
}

func (a Attributes) MarshalCBOR() ([]byte, error) {
	return cbor.EncodeValue(a)
}

func (Attributes) CborTypeName() string {
	return "Attributes"
}

func (a *Attributes) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, a, cbor.DecodePathStream)
}

func (a *Attributes) DecodeValue(v cbor.Value) error {
	mapEntries, err := v.Map()
	if err != nil {
		return cbor.Embed(err, "Attributes")
	}
	var tmpEntries map[uint64]cbor.RawMessage
	for idx, entry := range mapEntries {
		key, err := entry.Key.Uint()
		if err != nil {
			return cbor.Embed(err, fmt.Sprintf("Attributes: key %d", idx))
		}
		raw := entry.Value.Cbor()
		if raw == nil {
			if raw, err = entry.Value.MarshalCBOR(); err != nil {
				return cbor.Embed(err, fmt.Sprintf("Attributes: value %d", key))
			}
		}
		if tmpEntries, err = addAttribute(tmpEntries, key, raw); err != nil {
			return err
		}
	}
	a.entries = tmpEntries
	return nil
}

func (a *Attributes) DecodeStream(d *cbor.StreamDecoder) error {
	length, err := d.DecodeMapHeader()
	if err != nil {
		return cbor.Embed(err, "Attributes")
	}
	var tmpEntries map[uint64]cbor.RawMessage
	for i := uint64(0); length.Indefinite || i < length.Count; i++ {
		if length.Indefinite {
			isBreak, err := d.PeekBreak()
			if err != nil {
				return cbor.Embed(err, "Attributes")
			}
			if isBreak {
				if err := d.ReadBreak(); err != nil {
					return cbor.Embed(err, "Attributes")
				}
				break
			}
		}
		key, err := d.Uint()
		if err != nil {
			return cbor.Embed(err, fmt.Sprintf("Attributes: key %d", i))
		}
		raw, err := d.SkipRaw()
		if err != nil {
			return cbor.Embed(err, fmt.Sprintf("Attributes: value %d", key))
		}
		if tmpEntries, err = addAttribute(tmpEntries, key, raw); err != nil {
			return err
		}
	}
	a.entries = tmpEntries
	return nil
}

func addAttribute(
	entries map[uint64]cbor.RawMessage,
	key uint64,
	raw []byte,
) (map[uint64]cbor.RawMessage, error) {
	if entries == nil {
		entries = make(map[uint64]cbor.RawMessage)
	}
	if _, ok := entries[key]; ok {
		return nil, fmt.Errorf("Attributes: duplicate key %d", key)
	}
	entries[key] = cbor.RawMessage(raw)
	return entries, nil
}
