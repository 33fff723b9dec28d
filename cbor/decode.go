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
	"errors"
	"fmt"
	"math"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
)

// MaxNestedLevels is the deepest container nesting accepted by either decode path
const MaxNestedLevels = 256

var (
	cachedDecMode     _cbor.DecMode
	cachedDecModeErr  error
	cachedDecModeOnce sync.Once
)

// getDecMode returns a cached DecMode, initializing it on first use.
// Uses sync.Once for thread-safe lazy initialization.
// Returns the cached error if initialization failed.
func getDecMode() (_cbor.DecMode, error) {
	cachedDecModeOnce.Do(func() {
		decOptions := _cbor.DecOptions{
			ExtraReturnErrors: _cbor.ExtraDecErrorUnknownField,
			// This defaults to 32, but there are blocks in the wild using >64 nested levels
			MaxNestedLevels: MaxNestedLevels,
		}
		cachedDecMode, cachedDecModeErr = decOptions.DecMode()
	})
	return cachedDecMode, cachedDecModeErr
}

// Decode decodes the first CBOR item in dataBytes into dest and returns the number of
// bytes consumed
func Decode(dataBytes []byte, dest any) (int, error) {
	decMode, err := getDecMode()
	if err != nil {
		return 0, err
	}
	if decMode == nil {
		return 0, errors.New("CBOR decoder mode not initialized")
	}
	dec := decMode.NewDecoder(bytes.NewReader(dataBytes))
	err = dec.Decode(dest)
	return dec.NumBytesRead(), truncatedOr(err, dec.NumBytesRead(), "decoding item")
}

// Length is a decoded array or map length. Count is only meaningful for definite
// lengths
type Length struct {
	Count      uint64
	Indefinite bool
}

func (l Length) String() string {
	if l.Indefinite {
		return "indefinite"
	}
	return fmt.Sprintf("%d", l.Count)
}

// itemHeader is the parsed initial byte(s) of a CBOR item
type itemHeader struct {
	initial    byte
	major      MajorType
	arg        uint64
	indefinite bool
	size       int
}

// isBreak reports whether the header is the break stop code
func (h itemHeader) isBreak() bool {
	return h.initial == CborBreak
}

// parseHeader parses the item header at the given offset without consuming anything
func parseHeader(data []byte, offset int) (itemHeader, error) {
	if offset >= len(data) {
		return itemHeader{}, TruncatedError{Offset: offset, Reason: "reading item header"}
	}
	ret := itemHeader{
		initial: data[offset],
		major:   majorTypeOf(data[offset]),
	}
	additionalInfo := data[offset] & CborAdditionalInfoMask
	var argLen int
	switch {
	case additionalInfo < 24:
		// Value encoded in the first byte
		ret.arg = uint64(additionalInfo)
	case additionalInfo == 24:
		argLen = 1
	case additionalInfo == 25:
		argLen = 2
	case additionalInfo == 26:
		argLen = 4
	case additionalInfo == 27:
		argLen = 8
	case additionalInfo == CborIndefiniteLength:
		switch ret.major {
		case MajorTypeByteString, MajorTypeTextString, MajorTypeArray, MajorTypeMap, MajorTypeSimpleFloat:
			ret.indefinite = true
		default:
			return itemHeader{}, fmt.Errorf(
				"invalid indefinite length for %s at offset %d",
				ret.major,
				offset,
			)
		}
	default:
		return itemHeader{}, fmt.Errorf(
			"invalid additional info %d at offset %d",
			additionalInfo,
			offset,
		)
	}
	if offset+1+argLen > len(data) {
		return itemHeader{}, TruncatedError{
			Offset: offset,
			Reason: fmt.Sprintf("reading %s header", ret.major),
		}
	}
	// Length/value follows the initial byte in big-endian order
	switch argLen {
	case 1:
		ret.arg = uint64(data[offset+1])
	case 2:
		ret.arg = uint64(binary.BigEndian.Uint16(data[offset+1:]))
	case 4:
		ret.arg = uint64(binary.BigEndian.Uint32(data[offset+1:]))
	case 8:
		ret.arg = binary.BigEndian.Uint64(data[offset+1:])
	}
	ret.size = 1 + argLen
	return ret, nil
}

// StreamDecoder provides sequential CBOR decoding with position tracking.
// It wraps the underlying decoder to track byte offsets of each decoded item, and
// parses container headers by hand so that array and map contents can be walked
// one element at a time without materializing them.
type StreamDecoder struct {
	dec      *_cbor.Decoder
	decMode  _cbor.DecMode // cached decode mode for reuse in Advance()
	data     []byte
	consumed int // bytes consumed by Advance() calls
}

// NewStreamDecoder creates a decoder for sequential CBOR item extraction with position tracking.
func NewStreamDecoder(data []byte) (*StreamDecoder, error) {
	decMode, err := getDecMode()
	if err != nil {
		return nil, err
	}
	if decMode == nil {
		return nil, errors.New("CBOR decoder mode not initialized")
	}
	return &StreamDecoder{
		dec:     decMode.NewDecoder(bytes.NewReader(data)),
		decMode: decMode,
		data:    data,
	}, nil
}

// Position returns the current byte position in the stream.
func (d *StreamDecoder) Position() int {
	return d.consumed + d.dec.NumBytesRead()
}

// Decode decodes the next CBOR item into dest and returns its byte range.
// Returns (startOffset, length, error).
func (d *StreamDecoder) Decode(dest any) (int, int, error) {
	start := d.Position()
	if err := d.dec.Decode(dest); err != nil {
		return 0, 0, truncatedOr(err, start, "decoding item")
	}
	return start, d.Position() - start, nil
}

// Skip skips the next CBOR item and returns its byte range.
// Returns (startOffset, length, error).
func (d *StreamDecoder) Skip() (int, int, error) {
	start := d.Position()
	if err := d.dec.Skip(); err != nil {
		return 0, 0, truncatedOr(err, start, "skipping item")
	}
	return start, d.Position() - start, nil
}

// SkipN skips n CBOR items and returns the total byte range skipped.
// Returns (startOffset, totalLength, error).
func (d *StreamDecoder) SkipN(n int) (int, int, error) {
	start := d.Position()
	for i := 0; i < n; i++ {
		if _, _, err := d.Skip(); err != nil {
			return 0, 0, fmt.Errorf("skip item %d: %w", i, err)
		}
	}
	return start, d.Position() - start, nil
}

// DecodeRaw decodes the next CBOR item and returns both its value and raw bytes.
// Returns (startOffset, rawBytes, error).
func (d *StreamDecoder) DecodeRaw(dest any) (int, []byte, error) {
	start, length, err := d.Decode(dest)
	if err != nil {
		return 0, nil, err
	}
	return start, d.data[start : start+length], nil
}

// SkipRaw skips the next CBOR item and returns a copy of its raw bytes
func (d *StreamDecoder) SkipRaw() ([]byte, error) {
	start, length, err := d.Skip()
	if err != nil {
		return nil, err
	}
	ret := make([]byte, length)
	copy(ret, d.data[start:start+length])
	return ret, nil
}

// RawBytes returns the raw bytes for the given offset and length.
func (d *StreamDecoder) RawBytes(offset, length int) []byte {
	// Check for negative values and integer overflow
	if offset < 0 || length < 0 {
		return nil
	}
	end := offset + length
	// Check for integer overflow: if end < offset, overflow occurred
	if end < offset || end > len(d.data) {
		return nil
	}
	return d.data[offset:end]
}

// Data returns the underlying byte slice.
func (d *StreamDecoder) Data() []byte {
	return d.data
}

// EOF returns true if the decoder has reached the end of the data.
func (d *StreamDecoder) EOF() bool {
	return d.Position() >= len(d.data)
}

// Advance moves the decoder position forward by n bytes without decoding.
// This is useful for skipping past headers that were parsed manually.
// Returns an error if n would advance past the end of data.
func (d *StreamDecoder) Advance(n int) error {
	if n < 0 {
		return errors.New("cannot advance by negative amount")
	}
	newPos := d.Position() + n
	if newPos > len(d.data) {
		return TruncatedError{Offset: d.Position(), Reason: "advance would exceed data bounds"}
	}
	d.consumed = newPos
	// Reinitialize decoder with remaining data, reusing cached DecMode
	d.dec = d.decMode.NewDecoder(bytes.NewReader(d.data[d.consumed:]))
	return nil
}

func (d *StreamDecoder) peekHeader() (itemHeader, error) {
	return parseHeader(d.data, d.Position())
}

// PeekMajorType returns the major type of the next item without consuming it
func (d *StreamDecoder) PeekMajorType() (MajorType, error) {
	hdr, err := d.peekHeader()
	if err != nil {
		return 0, err
	}
	return hdr.major, nil
}

// DecodeArrayHeader decodes a CBOR array header, definite or indefinite.
// This advances the position past the header only, not the array contents.
func (d *StreamDecoder) DecodeArrayHeader() (Length, error) {
	return d.decodeContainerHeader(MajorTypeArray)
}

// DecodeMapHeader decodes a CBOR map header, definite or indefinite.
// This advances the position past the header only, not the map contents.
func (d *StreamDecoder) DecodeMapHeader() (Length, error) {
	return d.decodeContainerHeader(MajorTypeMap)
}

func (d *StreamDecoder) decodeContainerHeader(major MajorType) (Length, error) {
	hdr, err := d.peekHeader()
	if err != nil {
		return Length{}, err
	}
	if hdr.major != major {
		return Length{}, TypeError{Expected: major.String(), Actual: hdr.major.String()}
	}
	// Lengths beyond this can't be backed by the remaining input anyway
	if !hdr.indefinite && hdr.arg > uint64(math.MaxInt32) {
		return Length{}, fmt.Errorf("%s length %d exceeds maximum int32 value", major, hdr.arg)
	}
	if err := d.Advance(hdr.size); err != nil {
		return Length{}, err
	}
	return Length{Count: hdr.arg, Indefinite: hdr.indefinite}, nil
}

// ExpectArray decodes an array header and verifies that it declares exactly n elements
func (d *StreamDecoder) ExpectArray(typeName string, n uint64) error {
	length, err := d.DecodeArrayHeader()
	if err != nil {
		return Embed(err, typeName)
	}
	if length.Indefinite || length.Count != n {
		return ArityError{
			Type:       typeName,
			Expected:   n,
			Actual:     length.Count,
			Indefinite: length.Indefinite,
		}
	}
	return nil
}

// ExpectIndefiniteArray decodes an array header and verifies that it is indefinite-length
func (d *StreamDecoder) ExpectIndefiniteArray(typeName string) error {
	length, err := d.DecodeArrayHeader()
	if err != nil {
		return Embed(err, typeName)
	}
	if !length.Indefinite {
		return Embed(
			TypeError{
				Expected: "indefinite-length array",
				Actual:   fmt.Sprintf("array of %d elements", length.Count),
			},
			typeName,
		)
	}
	return nil
}

// PeekBreak reports whether the next byte is the break marker. Running out of
// input is a truncation error
func (d *StreamDecoder) PeekBreak() (bool, error) {
	pos := d.Position()
	if pos >= len(d.data) {
		return false, TruncatedError{Offset: pos, Reason: "expected element or break"}
	}
	return d.data[pos] == CborBreak, nil
}

// ReadBreak consumes the break marker. Any other special token is rejected
func (d *StreamDecoder) ReadBreak() error {
	hdr, err := d.peekHeader()
	if err != nil {
		return err
	}
	if !hdr.isBreak() {
		if hdr.major == MajorTypeSimpleFloat {
			return UnexpectedTokenError{Offset: d.Position(), Token: hdr.initial}
		}
		return TypeError{Expected: "break", Actual: hdr.major.String()}
	}
	return d.Advance(1)
}

// DecodeIndefiniteArray reads an indefinite-length array header and calls fn once
// per element until the break marker is consumed. A special token in element
// position must be the break marker
func (d *StreamDecoder) DecodeIndefiniteArray(
	typeName string,
	fn func(index int) error,
) error {
	if err := d.ExpectIndefiniteArray(typeName); err != nil {
		return err
	}
	for idx := 0; ; idx++ {
		hdr, err := d.peekHeader()
		if err != nil {
			return Embed(err, typeName)
		}
		if hdr.major == MajorTypeSimpleFloat {
			if err := d.ReadBreak(); err != nil {
				return Embed(err, typeName)
			}
			return nil
		}
		if err := fn(idx); err != nil {
			return Embed(err, fmt.Sprintf("%s[%d]", typeName, idx))
		}
	}
}

// Uint decodes an unsigned integer
func (d *StreamDecoder) Uint() (uint64, error) {
	hdr, err := d.peekHeader()
	if err != nil {
		return 0, err
	}
	if hdr.major != MajorTypeUint {
		return 0, TypeError{Expected: MajorTypeUint.String(), Actual: hdr.major.String()}
	}
	if err := d.Advance(hdr.size); err != nil {
		return 0, err
	}
	return hdr.arg, nil
}

// Bytes decodes a byte string, definite or chunked
func (d *StreamDecoder) Bytes() ([]byte, error) {
	hdr, err := d.peekHeader()
	if err != nil {
		return nil, err
	}
	if hdr.major != MajorTypeByteString {
		return nil, TypeError{Expected: MajorTypeByteString.String(), Actual: hdr.major.String()}
	}
	var ret []byte
	if _, _, err := d.Decode(&ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// DecodeStreamItem decodes the next item into dest using its streaming decoder and
// returns the item's byte range
func (d *StreamDecoder) DecodeStreamItem(dest StreamDecodable) (int, int, error) {
	start := d.Position()
	if err := dest.DecodeStream(d); err != nil {
		return 0, 0, err
	}
	return start, d.Position() - start, nil
}
