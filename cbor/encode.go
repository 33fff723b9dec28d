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
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
)

var (
	cachedEncMode     _cbor.EncMode
	cachedEncModeErr  error
	cachedEncModeOnce sync.Once
)

func getEncMode() (_cbor.EncMode, error) {
	cachedEncModeOnce.Do(func() {
		opts := _cbor.EncOptions{
			// Make sure that maps have ordered keys
			Sort: _cbor.SortCoreDeterministic,
		}
		cachedEncMode, cachedEncModeErr = opts.EncMode()
	})
	return cachedEncMode, cachedEncModeErr
}

func Encode(data any) ([]byte, error) {
	em, err := getEncMode()
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	enc := em.NewEncoder(buf)
	err = enc.Encode(data)
	return buf.Bytes(), err
}

type IndefLengthList []any

func (i IndefLengthList) MarshalCBOR() ([]byte, error) {
	ret := []byte{
		// Start indefinite-length list
		CborIndefiniteArray,
	}
	for _, item := range []any(i) {
		data, err := Encode(&item)
		if err != nil {
			return nil, err
		}
		ret = append(ret, data...)
	}
	ret = append(
		ret,
		// End indefinite length array
		CborBreak,
	)
	return ret, nil
}

// appendHeader appends the shortest header for the given major type and argument
func appendHeader(buf []byte, major MajorType, arg uint64) []byte {
	switch {
	case arg <= uint64(CborMaxUintSimple):
		return append(buf, byte(major)|byte(arg))
	case arg <= 0xff:
		return append(buf, byte(major)|24, byte(arg))
	case arg <= 0xffff:
		return binary.BigEndian.AppendUint16(append(buf, byte(major)|25), uint16(arg))
	case arg <= 0xffffffff:
		return binary.BigEndian.AppendUint32(append(buf, byte(major)|26), uint32(arg))
	default:
		return binary.BigEndian.AppendUint64(append(buf, byte(major)|27), arg)
	}
}

// MarshalCBOR encodes the value. Arrays and maps keep their element order and
// indefinite-length arrays stay indefinite
func (v Value) MarshalCBOR() ([]byte, error) {
	return v.appendCbor(nil)
}

func (v Value) appendCbor(buf []byte) ([]byte, error) {
	switch v.kind {
	case KindUint:
		return appendHeader(buf, MajorTypeUint, v.num), nil
	case KindNegInt:
		return appendHeader(buf, MajorTypeNegInt, v.num), nil
	case KindBytes:
		buf = appendHeader(buf, MajorTypeByteString, uint64(len(v.bytes)))
		return append(buf, v.bytes...), nil
	case KindText:
		buf = appendHeader(buf, MajorTypeTextString, uint64(len(v.bytes)))
		return append(buf, v.bytes...), nil
	case KindArray:
		if v.indefinite {
			buf = append(buf, CborIndefiniteArray)
		} else {
			buf = appendHeader(buf, MajorTypeArray, uint64(len(v.items)))
		}
		var err error
		for _, item := range v.items {
			if buf, err = item.appendCbor(buf); err != nil {
				return nil, err
			}
		}
		if v.indefinite {
			buf = append(buf, CborBreak)
		}
		return buf, nil
	case KindMap:
		buf = appendHeader(buf, MajorTypeMap, uint64(len(v.entries)))
		var err error
		for _, entry := range v.entries {
			if buf, err = entry.Key.appendCbor(buf); err != nil {
				return nil, err
			}
			if buf, err = entry.Value.appendCbor(buf); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case KindTag:
		buf = appendHeader(buf, MajorTypeTag, v.num)
		return v.items[0].appendCbor(buf)
	case KindBool, KindNull, KindUndefined, KindSimple:
		return appendHeader(buf, MajorTypeSimpleFloat, v.num), nil
	case KindFloat:
		data, err := Encode(v.float)
		if err != nil {
			return nil, err
		}
		return append(buf, data...), nil
	default:
		return nil, fmt.Errorf("cannot encode value of kind %s", v.kind)
	}
}
