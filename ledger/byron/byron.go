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

package byron

import (
	"fmt"
	"slices"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/ledger/common"
)

const (
	// Block type tag used in the header hash preimage
	BlockTypeByronEbb = 0

	ByronSlotsPerEpoch = common.ByronSlotsPerEpoch
)

// BodyProof is the Blake2b-256 digest of a Body's encoding
type BodyProof common.Blake2b256

// NewBodyProof hashes the encoding of body
func NewBodyProof(body Body) (BodyProof, error) {
	data, err := body.MarshalCBOR()
	if err != nil {
		return BodyProof{}, err
	}
	return BodyProof(common.Blake2b256Hash(data)), nil
}

func (p BodyProof) String() string {
	return common.Blake2b256(p).String()
}

func (p BodyProof) Bytes() []byte {
	return p[:]
}

func (p BodyProof) MarshalCBOR() ([]byte, error) {
	return common.Blake2b256(p).MarshalCBOR()
}

func (BodyProof) CborTypeName() string {
	return "BodyProof"
}

func (p *BodyProof) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, p, cbor.DecodePathStream)
}

func (p BodyProof) EncodeValue() cbor.Value {
	return common.Blake2b256(p).EncodeValue()
}

func (p *BodyProof) DecodeValue(v cbor.Value) error {
	return (*common.Blake2b256)(p).DecodeValue(v)
}

func (p *BodyProof) DecodeStream(d *cbor.StreamDecoder) error {
	return (*common.Blake2b256)(p).DecodeStream(d)
}

// Body holds the slot leaders of an epoch. The leader at index N is scheduled for
// slot N of the epoch
type Body struct {
	slotLeaders []common.StakeholderId
}

func NewBody(slotLeaders ...common.StakeholderId) Body {
	if len(slotLeaders) == 0 {
		return Body{}
	}
	return Body{slotLeaders: slices.Clone(slotLeaders)}
}

// SlotLeaders returns a copy of the slot leader schedule
func (b Body) SlotLeaders() []common.StakeholderId {
	return slices.Clone(b.slotLeaders)
}

func (b Body) Len() int {
	return len(b.slotLeaders)
}

// EncodeValue renders the body as an indefinite-length array
func (b Body) EncodeValue() cbor.Value {
	items := make([]cbor.Value, 0, len(b.slotLeaders))
	for _, leader := range b.slotLeaders {
		items = append(items, leader.EncodeValue())
	}
	return cbor.NewIndefArray(items...)
}

func (b Body) MarshalCBOR() ([]byte, error) {
	return cbor.EncodeValue(b)
}

func (Body) CborTypeName() string {
	return "Body"
}

func (b *Body) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, b, cbor.DecodePathStream)
}

func (b *Body) DecodeValue(v cbor.Value) error {
	items, err := v.Array()
	if err != nil {
		return cbor.Embed(err, "Body")
	}
	if !v.IsIndefinite() {
		return cbor.Embed(
			cbor.TypeError{
				Expected: "indefinite-length array",
				Actual:   fmt.Sprintf("array of %d elements", len(items)),
			},
			"Body",
		)
	}
	var tmpLeaders []common.StakeholderId
	for idx, item := range items {
		var leader common.StakeholderId
		if err := leader.DecodeValue(item); err != nil {
			return cbor.Embed(err, fmt.Sprintf("Body[%d]", idx))
		}
		tmpLeaders = append(tmpLeaders, leader)
	}
	b.slotLeaders = tmpLeaders
	return nil
}

func (b *Body) DecodeStream(d *cbor.StreamDecoder) error {
	var tmpLeaders []common.StakeholderId
	err := d.DecodeIndefiniteArray("Body", func(int) error {
		var leader common.StakeholderId
		if err := leader.DecodeStream(d); err != nil {
			return err
		}
		tmpLeaders = append(tmpLeaders, leader)
		return nil
	})
	if err != nil {
		return err
	}
	b.slotLeaders = tmpLeaders
	return nil
}

// Consensus is the consensus data of an epoch boundary block
type Consensus struct {
	epoch      common.EpochId
	difficulty common.ChainDifficulty
}

func NewConsensus(epoch common.EpochId, difficulty common.ChainDifficulty) Consensus {
	return Consensus{epoch: epoch, difficulty: difficulty}
}

func (c Consensus) Epoch() common.EpochId {
	return c.epoch
}

func (c Consensus) Difficulty() common.ChainDifficulty {
	return c.difficulty
}

func (c Consensus) EncodeValue() cbor.Value {
	return cbor.NewArray(c.epoch.EncodeValue(), c.difficulty.EncodeValue())
}

func (c Consensus) MarshalCBOR() ([]byte, error) {
	return cbor.EncodeValue(c)
}

func (Consensus) CborTypeName() string {
	return "Consensus"
}

func (c *Consensus) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, c, cbor.DecodePathStream)
}

func (c *Consensus) DecodeValue(v cbor.Value) error {
	arr, err := cbor.NewFixedArrayDecoder(v, "Consensus", 2)
	if err != nil {
		return err
	}
	var tmpConsensus Consensus
	if err := arr.Decode("epoch", &tmpConsensus.epoch); err != nil {
		return err
	}
	if err := arr.Decode("chain difficulty", &tmpConsensus.difficulty); err != nil {
		return err
	}
	if err := arr.Finish(); err != nil {
		return err
	}
	*c = tmpConsensus
	return nil
}

func (c *Consensus) DecodeStream(d *cbor.StreamDecoder) error {
	if err := d.ExpectArray("Consensus", 2); err != nil {
		return err
	}
	var tmpConsensus Consensus
	if err := tmpConsensus.epoch.DecodeStream(d); err != nil {
		return cbor.Embed(err, "epoch")
	}
	if err := tmpConsensus.difficulty.DecodeStream(d); err != nil {
		return cbor.Embed(err, "chain difficulty")
	}
	*c = tmpConsensus
	return nil
}
