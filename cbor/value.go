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
	"math"
)

// Kind identifies the shape held by a Value
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUint
	KindNegInt
	KindBytes
	KindText
	KindArray
	KindMap
	KindTag
	KindBool
	KindNull
	KindUndefined
	KindFloat
	KindSimple
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "unsigned integer"
	case KindNegInt:
		return "negative integer"
	case KindBytes:
		return "byte string"
	case KindText:
		return "text string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindTag:
		return "tag"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindFloat:
		return "float"
	case KindSimple:
		return "simple value"
	default:
		return "invalid"
	}
}

const (
	simpleFalse     = 20
	simpleTrue      = 21
	simpleNull      = 22
	simpleUndefined = 23
)

// MapEntry is a single key/value pair of a CBOR map. Maps are kept as ordered
// entries because CBOR allows keys that can't be used as Go map keys
type MapEntry struct {
	Key   Value
	Value Value
}

// Value is a generic, self-describing CBOR item. It is the structured-value side of
// the codec: decode the bytes into a Value tree once, then walk it with the typed
// accessors, which fail with a TypeError when the shape doesn't match
type Value struct {
	kind       Kind
	num        uint64 // uint, negint (-1-num), tag number, simple value
	float      float64
	bytes      []byte // byte string, text string
	items      []Value
	entries    []MapEntry
	indefinite bool
	// Original CBOR when the value was decoded
	cborData string
}

func NewUint(v uint64) Value {
	return Value{kind: KindUint, num: v}
}

// NewNegInt returns the negative integer -1-n
func NewNegInt(n uint64) Value {
	return Value{kind: KindNegInt, num: n}
}

func NewBytes(b []byte) Value {
	return Value{kind: KindBytes, bytes: append([]byte{}, b...)}
}

func NewText(s string) Value {
	return Value{kind: KindText, bytes: []byte(s)}
}

func NewArray(items ...Value) Value {
	return Value{kind: KindArray, items: append([]Value{}, items...)}
}

// NewIndefArray returns an array that encodes as an indefinite-length array
func NewIndefArray(items ...Value) Value {
	ret := NewArray(items...)
	ret.indefinite = true
	return ret
}

func NewMap(entries ...MapEntry) Value {
	return Value{kind: KindMap, entries: append([]MapEntry{}, entries...)}
}

func NewTag(number uint64, content Value) Value {
	return Value{kind: KindTag, num: number, items: []Value{content}}
}

func NewBool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: simpleTrue}
	}
	return Value{kind: KindBool, num: simpleFalse}
}

func NewFloat(f float64) Value {
	return Value{kind: KindFloat, float: f}
}

func Null() Value {
	return Value{kind: KindNull, num: simpleNull}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsIndefinite reports whether the value was (or will be) encoded with an indefinite length
func (v Value) IsIndefinite() bool {
	return v.indefinite
}

// Cbor returns the original CBOR for a decoded value, or nil for a constructed one
func (v Value) Cbor() []byte {
	if v.cborData == "" {
		return nil
	}
	return []byte(v.cborData)
}

func (v Value) typeError(expected Kind) error {
	return TypeError{Expected: expected.String(), Actual: v.kind.String()}
}

func (v Value) Uint() (uint64, error) {
	if v.kind != KindUint {
		return 0, v.typeError(KindUint)
	}
	return v.num, nil
}

// Int returns the value of an unsigned or negative integer that fits in an int64
func (v Value) Int() (int64, error) {
	switch v.kind {
	case KindUint:
		if v.num > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", v.num)
		}
		return int64(v.num), nil
	case KindNegInt:
		if v.num > math.MaxInt64 {
			return 0, fmt.Errorf("integer -1-%d overflows int64", v.num)
		}
		return -1 - int64(v.num), nil
	default:
		return 0, v.typeError(KindUint)
	}
}

func (v Value) Bytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, v.typeError(KindBytes)
	}
	return v.bytes, nil
}

func (v Value) Text() (string, error) {
	if v.kind != KindText {
		return "", v.typeError(KindText)
	}
	return string(v.bytes), nil
}

func (v Value) Array() ([]Value, error) {
	if v.kind != KindArray {
		return nil, v.typeError(KindArray)
	}
	return v.items, nil
}

func (v Value) Map() ([]MapEntry, error) {
	if v.kind != KindMap {
		return nil, v.typeError(KindMap)
	}
	return v.entries, nil
}

// Tag returns the tag number and tagged content
func (v Value) Tag() (uint64, Value, error) {
	if v.kind != KindTag {
		return 0, Value{}, v.typeError(KindTag)
	}
	return v.num, v.items[0], nil
}

func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, v.typeError(KindBool)
	}
	return v.num == simpleTrue, nil
}

func (v Value) Float() (float64, error) {
	if v.kind != KindFloat {
		return 0, v.typeError(KindFloat)
	}
	return v.float, nil
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v *Value) UnmarshalCBOR(data []byte) error {
	d, err := NewStreamDecoder(data)
	if err != nil {
		return err
	}
	tmpValue, err := decodeValue(d, 0)
	if err != nil {
		return err
	}
	*v = tmpValue
	return nil
}

// DecodeValue decodes the next item of the stream into a Value tree, recording the
// original CBOR of every node. Containers nested deeper than MaxNestedLevels are
// rejected
func DecodeValue(d *StreamDecoder) (Value, error) {
	return decodeValue(d, 0)
}

func decodeValue(d *StreamDecoder, depth int) (Value, error) {
	start := d.Position()
	hdr, err := d.peekHeader()
	if err != nil {
		return Value{}, err
	}
	switch hdr.major {
	case MajorTypeArray, MajorTypeMap, MajorTypeTag:
		depth++
		if depth > MaxNestedLevels {
			return Value{}, NestingError{Offset: start, Limit: MaxNestedLevels}
		}
	}
	var ret Value
	switch hdr.major {
	case MajorTypeUint:
		if err := d.Advance(hdr.size); err != nil {
			return Value{}, err
		}
		ret = NewUint(hdr.arg)
	case MajorTypeNegInt:
		if err := d.Advance(hdr.size); err != nil {
			return Value{}, err
		}
		ret = NewNegInt(hdr.arg)
	case MajorTypeByteString:
		// Let the library deal with chunked indefinite-length strings
		var tmpBytes []byte
		if _, _, err := d.Decode(&tmpBytes); err != nil {
			return Value{}, err
		}
		ret = Value{kind: KindBytes, bytes: tmpBytes, indefinite: hdr.indefinite}
	case MajorTypeTextString:
		var tmpText string
		if _, _, err := d.Decode(&tmpText); err != nil {
			return Value{}, err
		}
		ret = Value{kind: KindText, bytes: []byte(tmpText), indefinite: hdr.indefinite}
	case MajorTypeArray:
		ret, err = decodeArrayValue(d, depth)
		if err != nil {
			return Value{}, err
		}
	case MajorTypeMap:
		ret, err = decodeMapValue(d, depth)
		if err != nil {
			return Value{}, err
		}
	case MajorTypeTag:
		if err := d.Advance(hdr.size); err != nil {
			return Value{}, err
		}
		content, err := decodeValue(d, depth)
		if err != nil {
			return Value{}, Embed(err, fmt.Sprintf("tag %d", hdr.arg))
		}
		ret = NewTag(hdr.arg, content)
	case MajorTypeSimpleFloat:
		ret, err = decodeSpecialValue(d, hdr)
		if err != nil {
			return Value{}, err
		}
	}
	ret.cborData = string(d.data[start:d.Position()])
	return ret, nil
}

func decodeArrayValue(d *StreamDecoder, depth int) (Value, error) {
	length, err := d.DecodeArrayHeader()
	if err != nil {
		return Value{}, err
	}
	ret := Value{kind: KindArray, indefinite: length.Indefinite}
	if !length.Indefinite {
		// Don't trust the declared count for preallocation beyond what the input could hold
		ret.items = make([]Value, 0, min(length.Count, uint64(len(d.data)-d.Position())))
		for i := uint64(0); i < length.Count; i++ {
			item, err := decodeValue(d, depth)
			if err != nil {
				return Value{}, Embed(err, fmt.Sprintf("array element %d", i))
			}
			ret.items = append(ret.items, item)
		}
		return ret, nil
	}
	ret.items = []Value{}
	for {
		isBreak, err := d.PeekBreak()
		if err != nil {
			return Value{}, err
		}
		if isBreak {
			return ret, d.Advance(1)
		}
		item, err := decodeValue(d, depth)
		if err != nil {
			return Value{}, Embed(err, fmt.Sprintf("array element %d", len(ret.items)))
		}
		ret.items = append(ret.items, item)
	}
}

func decodeMapValue(d *StreamDecoder, depth int) (Value, error) {
	length, err := d.DecodeMapHeader()
	if err != nil {
		return Value{}, err
	}
	ret := Value{kind: KindMap, indefinite: length.Indefinite, entries: []MapEntry{}}
	for i := uint64(0); length.Indefinite || i < length.Count; i++ {
		if length.Indefinite {
			isBreak, err := d.PeekBreak()
			if err != nil {
				return Value{}, err
			}
			if isBreak {
				return ret, d.Advance(1)
			}
		}
		key, err := decodeValue(d, depth)
		if err != nil {
			return Value{}, Embed(err, fmt.Sprintf("map key %d", i))
		}
		val, err := decodeValue(d, depth)
		if err != nil {
			return Value{}, Embed(err, fmt.Sprintf("map value %d", i))
		}
		ret.entries = append(ret.entries, MapEntry{Key: key, Value: val})
	}
	return ret, nil
}

func decodeSpecialValue(d *StreamDecoder, hdr itemHeader) (Value, error) {
	if hdr.isBreak() {
		return Value{}, UnexpectedTokenError{Offset: d.Position(), Token: hdr.initial}
	}
	additionalInfo := hdr.initial & CborAdditionalInfoMask
	if additionalInfo >= 25 && additionalInfo <= 27 {
		var tmpFloat float64
		if _, _, err := d.Decode(&tmpFloat); err != nil {
			return Value{}, err
		}
		return NewFloat(tmpFloat), nil
	}
	if err := d.Advance(hdr.size); err != nil {
		return Value{}, err
	}
	switch hdr.arg {
	case simpleFalse, simpleTrue:
		return Value{kind: KindBool, num: hdr.arg}, nil
	case simpleNull:
		return Null(), nil
	case simpleUndefined:
		return Value{kind: KindUndefined, num: hdr.arg}, nil
	default:
		return Value{kind: KindSimple, num: hdr.arg}, nil
	}
}
