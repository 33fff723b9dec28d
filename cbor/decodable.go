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
	"strings"
)

// ValueEncoder is implemented by types that can render themselves as a Value tree
type ValueEncoder interface {
	EncodeValue() Value
}

// ValueDecoder is implemented by types that can be built from a Value tree. On
// failure the receiver must be left untouched
type ValueDecoder interface {
	DecodeValue(Value) error
}

// StreamDecodable is implemented by types that decode straight from a StreamDecoder
// without building an intermediate Value
type StreamDecodable interface {
	DecodeStream(*StreamDecoder) error
}

// Decodable types support both decode paths
type Decodable interface {
	ValueDecoder
	StreamDecodable
}

// DecodePath selects which decoder DecodeBytes uses
type DecodePath int

const (
	// DecodePathStream decodes directly from the byte cursor
	DecodePathStream DecodePath = iota
	// DecodePathValue decodes the bytes into a Value first and builds the type from it
	DecodePathValue
)

func (p DecodePath) String() string {
	switch p {
	case DecodePathStream:
		return "stream"
	case DecodePathValue:
		return "value"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParseDecodePath parses the names returned by DecodePath.String
func ParseDecodePath(name string) (DecodePath, error) {
	switch strings.ToLower(name) {
	case "stream", "":
		return DecodePathStream, nil
	case "value":
		return DecodePathValue, nil
	default:
		return 0, fmt.Errorf("unknown decode path: %s", name)
	}
}

func (p DecodePath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *DecodePath) UnmarshalText(text []byte) error {
	tmpPath, err := ParseDecodePath(string(text))
	if err != nil {
		return err
	}
	*p = tmpPath
	return nil
}

// TypeNamer is implemented by types that report their wire name in top-level
// decode errors
type TypeNamer interface {
	CborTypeName() string
}

func itemTypeName(v any) string {
	if namer, ok := v.(TypeNamer); ok {
		return namer.CborTypeName()
	}
	return "item"
}

// DecodeBytes decodes data into dest using the selected path. The data must hold
// exactly one CBOR item; any bytes after it are rejected. The item is decoded into
// a fresh value and dest is only assigned once the whole input checks out
func DecodeBytes[T any, PT interface {
	*T
	Decodable
}](data []byte, dest PT, path DecodePath) error {
	d, err := NewStreamDecoder(data)
	if err != nil {
		return err
	}
	var tmpDest T
	if err := decodeItem(d, PT(&tmpDest), path); err != nil {
		return err
	}
	if !d.EOF() {
		return TrailingDataError{
			Type:      itemTypeName(dest),
			Remaining: len(data) - d.Position(),
			Unit:      "bytes",
		}
	}
	*dest = tmpDest
	return nil
}

func decodeItem(d *StreamDecoder, dest Decodable, path DecodePath) error {
	switch path {
	case DecodePathStream:
		return dest.DecodeStream(d)
	case DecodePathValue:
		v, err := DecodeValue(d)
		if err != nil {
			return err
		}
		return dest.DecodeValue(v)
	default:
		return fmt.Errorf("unknown decode path: %d", int(path))
	}
}

// EncodeValue encodes the Value form of src
func EncodeValue(src ValueEncoder) ([]byte, error) {
	return src.EncodeValue().MarshalCBOR()
}
