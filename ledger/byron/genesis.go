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
	"strings"

	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/ledger/common"
	utxorpc "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"
)

var (
	_ common.Block       = (*GenesisBlock)(nil)
	_ common.BlockHeader = (*GenesisBlockHeader)(nil)
)

// DefaultGenesisBlockExtra is the extra data of a constructed block, [[], {}]
var DefaultGenesisBlockExtra = cbor.RawMessage{0x82, 0x80, 0xa0}

// GenesisBlockHeader is the header of an epoch boundary (genesis) block
type GenesisBlockHeader struct {
	protocolMagic common.ProtocolMagic
	prevHash      common.HeaderHash
	bodyProof     BodyProof
	consensus     Consensus
	attributes    common.Attributes
	cborData      []byte
}

func NewGenesisBlockHeader(
	protocolMagic common.ProtocolMagic,
	prevHash common.HeaderHash,
	bodyProof BodyProof,
	consensus Consensus,
	attributes common.Attributes,
) *GenesisBlockHeader {
	return &GenesisBlockHeader{
		protocolMagic: protocolMagic,
		prevHash:      prevHash,
		bodyProof:     bodyProof,
		consensus:     consensus,
		attributes:    attributes,
	}
}

func NewGenesisBlockHeaderFromCbor(
	data []byte,
	path cbor.DecodePath,
) (*GenesisBlockHeader, error) {
	var header GenesisBlockHeader
	if err := cbor.DecodeBytes(data, &header, path); err != nil {
		return nil, fmt.Errorf("genesis block header decode error: %w", err)
	}
	return &header, nil
}

func (h *GenesisBlockHeader) ProtocolMagic() common.ProtocolMagic {
	return h.protocolMagic
}

// PrevHash references the previous header by hash only
func (h *GenesisBlockHeader) PrevHash() common.HeaderHash {
	return h.prevHash
}

func (h *GenesisBlockHeader) BodyProof() BodyProof {
	return h.bodyProof
}

func (h *GenesisBlockHeader) Consensus() Consensus {
	return h.consensus
}

func (h *GenesisBlockHeader) Attributes() common.Attributes {
	return h.attributes
}

func (h *GenesisBlockHeader) Epoch() common.EpochId {
	return h.consensus.epoch
}

// BlockNumber returns the chain difficulty, which counts the blocks since genesis
func (h *GenesisBlockHeader) BlockNumber() uint64 {
	return h.consensus.difficulty.Value
}

func (h *GenesisBlockHeader) SlotNumber() uint64 {
	return uint64(h.consensus.epoch) * ByronSlotsPerEpoch
}

// Cbor returns the original CBOR for a decoded header and a fresh encoding otherwise
func (h *GenesisBlockHeader) Cbor() []byte {
	if h.cborData != nil {
		return h.cborData
	}
	data, err := h.MarshalCBOR()
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding genesis block header: %s", err))
	}
	return data
}

func (h *GenesisBlockHeader) Hash() common.HeaderHash {
	// The block hash is calculated over the header wrapped in a [type, header] list
	return common.Blake2b256Hash(
		append(
			[]byte{0x82, BlockTypeByronEbb},
			h.Cbor()...,
		),
	)
}

func (h *GenesisBlockHeader) String() string {
	return fmt.Sprintf(
		"Magic: 0x%x Previous Header: %s",
		uint32(h.protocolMagic),
		h.prevHash.String(),
	)
}

func (h *GenesisBlockHeader) EncodeValue() cbor.Value {
	return cbor.NewArray(
		h.protocolMagic.EncodeValue(),
		h.prevHash.EncodeValue(),
		h.bodyProof.EncodeValue(),
		h.consensus.EncodeValue(),
		h.attributes.EncodeValue(),
	)
}

func (h *GenesisBlockHeader) MarshalCBOR() ([]byte, error) {
	return cbor.EncodeValue(h)
}

func (GenesisBlockHeader) CborTypeName() string {
	return "BlockHeader"
}

func (h *GenesisBlockHeader) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, h, cbor.DecodePathStream)
}

func (h *GenesisBlockHeader) DecodeValue(v cbor.Value) error {
	arr, err := cbor.NewFixedArrayDecoder(v, "BlockHeader", 5)
	if err != nil {
		return err
	}
	var tmpHeader GenesisBlockHeader
	if err := arr.Decode("protocol magic", &tmpHeader.protocolMagic); err != nil {
		return err
	}
	if err := arr.Decode("previous header hash", &tmpHeader.prevHash); err != nil {
		return err
	}
	if err := arr.Decode("body proof", &tmpHeader.bodyProof); err != nil {
		return err
	}
	if err := arr.Decode("consensus", &tmpHeader.consensus); err != nil {
		return err
	}
	if err := arr.Decode("extra data", &tmpHeader.attributes); err != nil {
		return err
	}
	if err := arr.Finish(); err != nil {
		return err
	}
	tmpHeader.cborData = v.Cbor()
	*h = tmpHeader
	return nil
}

func (h *GenesisBlockHeader) DecodeStream(d *cbor.StreamDecoder) error {
	start := d.Position()
	if err := d.ExpectArray("BlockHeader", 5); err != nil {
		return err
	}
	var tmpHeader GenesisBlockHeader
	if err := tmpHeader.protocolMagic.DecodeStream(d); err != nil {
		return cbor.Embed(err, "protocol magic")
	}
	if err := tmpHeader.prevHash.DecodeStream(d); err != nil {
		return cbor.Embed(err, "previous header hash")
	}
	if err := tmpHeader.bodyProof.DecodeStream(d); err != nil {
		return cbor.Embed(err, "body proof")
	}
	if err := tmpHeader.consensus.DecodeStream(d); err != nil {
		return cbor.Embed(err, "consensus")
	}
	if err := tmpHeader.attributes.DecodeStream(d); err != nil {
		return cbor.Embed(err, "extra data")
	}
	tmpHeader.cborData = slices.Clone(d.RawBytes(start, d.Position()-start))
	*h = tmpHeader
	return nil
}

// GenesisBlock is an epoch boundary block: a header, the slot leader schedule of the
// epoch and opaque extra data
type GenesisBlock struct {
	header   *GenesisBlockHeader
	body     Body
	extra    cbor.RawMessage
	cborData []byte
}

// NewGenesisBlock assembles a block from validated parts. A nil extra is replaced
// with DefaultGenesisBlockExtra
func NewGenesisBlock(
	header *GenesisBlockHeader,
	body Body,
	extra cbor.RawMessage,
) *GenesisBlock {
	if extra == nil {
		extra = DefaultGenesisBlockExtra
	}
	return &GenesisBlock{
		header: header,
		body:   body,
		extra:  slices.Clone(extra),
	}
}

func NewGenesisBlockFromCbor(data []byte, path cbor.DecodePath) (*GenesisBlock, error) {
	var block GenesisBlock
	if err := cbor.DecodeBytes(data, &block, path); err != nil {
		return nil, fmt.Errorf("genesis block decode error: %w", err)
	}
	return &block, nil
}

func (GenesisBlock) Type() int {
	return BlockTypeByronEbb
}

func (b *GenesisBlock) Header() *GenesisBlockHeader {
	return b.header
}

func (b *GenesisBlock) Body() Body {
	return b.body
}

// Extra returns the raw CBOR of the extra data. Its contents are not interpreted
func (b *GenesisBlock) Extra() cbor.RawMessage {
	return b.extra
}

func (b *GenesisBlock) Hash() common.HeaderHash {
	return b.header.Hash()
}

func (b *GenesisBlock) ProtocolMagic() common.ProtocolMagic {
	return b.header.ProtocolMagic()
}

func (b *GenesisBlock) Epoch() common.EpochId {
	return b.header.Epoch()
}

func (b *GenesisBlock) SlotNumber() uint64 {
	return b.header.SlotNumber()
}

func (b *GenesisBlock) BlockNumber() uint64 {
	return b.header.BlockNumber()
}

// Cbor returns the original CBOR for a decoded block and a fresh encoding otherwise
func (b *GenesisBlock) Cbor() []byte {
	if b.cborData != nil {
		return b.cborData
	}
	data, err := b.MarshalCBOR()
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding genesis block: %s", err))
	}
	return data
}

func (b *GenesisBlock) Utxorpc() *utxorpc.Block {
	// Boundary blocks carry no transactions
	body := &utxorpc.BlockBody{
		Tx: []*utxorpc.Tx{},
	}
	header := &utxorpc.BlockHeader{
		Hash:   b.Hash().Bytes(),
		Height: b.BlockNumber(),
		Slot:   b.SlotNumber(),
	}
	return &utxorpc.Block{
		Body:   body,
		Header: header,
	}
}

func (b *GenesisBlock) String() string {
	var ret strings.Builder
	ret.WriteString(b.header.String())
	ret.WriteString("\n[")
	for idx, leader := range b.body.slotLeaders {
		if idx > 0 {
			ret.WriteString(", ")
		}
		ret.WriteString(leader.String())
	}
	ret.WriteString("]")
	return ret.String()
}

func (b *GenesisBlock) EncodeValue() cbor.Value {
	var extra cbor.Value
	if _, err := cbor.Decode(b.extra, &extra); err != nil {
		// Extra only ever holds a decoded array or DefaultGenesisBlockExtra
		panic(fmt.Sprintf("unexpected error decoding genesis block extra: %s", err))
	}
	return cbor.NewArray(
		b.header.EncodeValue(),
		b.body.EncodeValue(),
		extra,
	)
}

// MarshalCBOR encodes the block. The extra data is written back as it was received
func (b *GenesisBlock) MarshalCBOR() ([]byte, error) {
	headerCbor, err := b.header.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	bodyCbor, err := b.body.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	ret := make([]byte, 0, 1+len(headerCbor)+len(bodyCbor)+len(b.extra))
	ret = append(ret, byte(cbor.CborTypeArray)|3)
	ret = append(ret, headerCbor...)
	ret = append(ret, bodyCbor...)
	ret = append(ret, b.extra...)
	return ret, nil
}

func (GenesisBlock) CborTypeName() string {
	return "Block"
}

func (b *GenesisBlock) UnmarshalCBOR(data []byte) error {
	return cbor.DecodeBytes(data, b, cbor.DecodePathStream)
}

func (b *GenesisBlock) DecodeValue(v cbor.Value) error {
	if err := b.decodeValue(v); err != nil {
		return cbor.Embed(err, "genesis block")
	}
	return nil
}

func (b *GenesisBlock) decodeValue(v cbor.Value) error {
	arr, err := cbor.NewFixedArrayDecoder(v, "Block", 3)
	if err != nil {
		return err
	}
	tmpBlock := GenesisBlock{
		header: &GenesisBlockHeader{},
	}
	if err := arr.Decode("header", tmpBlock.header); err != nil {
		return err
	}
	if err := arr.Decode("body", &tmpBlock.body); err != nil {
		return err
	}
	extra, err := arr.Next("extra")
	if err != nil {
		return err
	}
	if extra.Kind() != cbor.KindArray {
		return cbor.Embed(
			cbor.TypeError{Expected: cbor.KindArray.String(), Actual: extra.Kind().String()},
			"extra",
		)
	}
	if err := arr.Finish(); err != nil {
		return err
	}
	tmpBlock.extra = extra.Cbor()
	if tmpBlock.extra == nil {
		if tmpBlock.extra, err = extra.MarshalCBOR(); err != nil {
			return cbor.Embed(err, "extra")
		}
	}
	if err := checkExtra(tmpBlock.extra); err != nil {
		return cbor.Embed(err, "extra")
	}
	tmpBlock.cborData = v.Cbor()
	*b = tmpBlock
	return nil
}

func (b *GenesisBlock) DecodeStream(d *cbor.StreamDecoder) error {
	if err := b.decodeStream(d); err != nil {
		return cbor.Embed(err, "genesis block")
	}
	return nil
}

func (b *GenesisBlock) decodeStream(d *cbor.StreamDecoder) error {
	start := d.Position()
	if err := d.ExpectArray("Block", 3); err != nil {
		return err
	}
	tmpBlock := GenesisBlock{
		header: &GenesisBlockHeader{},
	}
	if err := tmpBlock.header.DecodeStream(d); err != nil {
		return cbor.Embed(err, "header")
	}
	if err := tmpBlock.body.DecodeStream(d); err != nil {
		return cbor.Embed(err, "body")
	}
	// The extra data is skipped as a whole, keeping only its raw bytes
	majorType, err := d.PeekMajorType()
	if err != nil {
		return cbor.Embed(err, "extra")
	}
	if majorType != cbor.MajorTypeArray {
		return cbor.Embed(
			cbor.TypeError{Expected: cbor.MajorTypeArray.String(), Actual: majorType.String()},
			"extra",
		)
	}
	if tmpBlock.extra, err = d.SkipRaw(); err != nil {
		return cbor.Embed(err, "extra")
	}
	if err := checkExtra(tmpBlock.extra); err != nil {
		return cbor.Embed(err, "extra")
	}
	tmpBlock.cborData = slices.Clone(d.RawBytes(start, d.Position()-start))
	*b = tmpBlock
	return nil
}

// checkExtra verifies the [array, map] shape of the extra data without decoding
// what the two entries hold
func checkExtra(raw []byte) error {
	d, err := cbor.NewStreamDecoder(raw)
	if err != nil {
		return err
	}
	length, err := d.DecodeArrayHeader()
	if err != nil {
		return err
	}
	if length.Indefinite || length.Count != 2 {
		return cbor.ArityError{
			Type:       "Extra",
			Expected:   2,
			Actual:     length.Count,
			Indefinite: length.Indefinite,
		}
	}
	for _, expected := range []cbor.MajorType{cbor.MajorTypeArray, cbor.MajorTypeMap} {
		majorType, err := d.PeekMajorType()
		if err != nil {
			return err
		}
		if majorType != expected {
			return cbor.TypeError{Expected: expected.String(), Actual: majorType.String()}
		}
		if _, _, err := d.Skip(); err != nil {
			return err
		}
	}
	return nil
}
