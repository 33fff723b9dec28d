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

package cbor

import (
	"fmt"

	_cbor "github.com/fxamacker/cbor/v2"
)

const (
	CborTypeUint        uint8 = 0x00
	CborTypeNegInt      uint8 = 0x20
	CborTypeByteString  uint8 = 0x40
	CborTypeTextString  uint8 = 0x60
	CborTypeArray       uint8 = 0x80
	CborTypeMap         uint8 = 0xa0
	CborTypeTag         uint8 = 0xc0
	CborTypeSimpleFloat uint8 = 0xe0

	// Only the top 3 bits are used to specify the type
	CborTypeMask uint8 = 0xe0

	// Lower 5 bits carry the length/value or the additional info marker
	CborAdditionalInfoMask uint8 = 0x1f

	// Max value able to be stored in a single byte without type prefix
	CborMaxUintSimple uint8 = 0x17

	// Additional info value marking an indefinite length item
	CborIndefiniteLength uint8 = 0x1f

	// Start of an indefinite-length array
	CborIndefiniteArray uint8 = CborTypeArray | CborIndefiniteLength

	// Terminates an indefinite-length item
	CborBreak uint8 = 0xff
)

// MajorType is the CBOR major type of an item, stored in the top 3 bits of its
// initial byte
type MajorType uint8

const (
	MajorTypeUint        = MajorType(CborTypeUint)
	MajorTypeNegInt      = MajorType(CborTypeNegInt)
	MajorTypeByteString  = MajorType(CborTypeByteString)
	MajorTypeTextString  = MajorType(CborTypeTextString)
	MajorTypeArray       = MajorType(CborTypeArray)
	MajorTypeMap         = MajorType(CborTypeMap)
	MajorTypeTag         = MajorType(CborTypeTag)
	MajorTypeSimpleFloat = MajorType(CborTypeSimpleFloat)
)

func majorTypeOf(b byte) MajorType {
	return MajorType(b & CborTypeMask)
}

func (m MajorType) String() string {
	switch m {
	case MajorTypeUint:
		return "unsigned integer"
	case MajorTypeNegInt:
		return "negative integer"
	case MajorTypeByteString:
		return "byte string"
	case MajorTypeTextString:
		return "text string"
	case MajorTypeArray:
		return "array"
	case MajorTypeMap:
		return "map"
	case MajorTypeTag:
		return "tag"
	case MajorTypeSimpleFloat:
		return "special"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(m))
	}
}

// Create an alias for RawMessage for convenience
type RawMessage = _cbor.RawMessage

// Alias for Tag for convenience
type Tag = _cbor.Tag

// Useful for embedding and easier to remember
type StructAsArray struct {
	// Tells the CBOR decoder to convert to/from a struct and a CBOR array
	_ struct{} `cbor:",toarray"`
}
