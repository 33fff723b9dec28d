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

import "fmt"

// ArrayDecoder consumes the elements of an array Value strictly in order. Call
// Finish once all expected fields are decoded to reject leftover elements
type ArrayDecoder struct {
	typeName string
	items    []Value
	pos      int
}

// NewArrayDecoder returns a decoder over the elements of v, which must be an array
func NewArrayDecoder(v Value, typeName string) (*ArrayDecoder, error) {
	items, err := v.Array()
	if err != nil {
		return nil, Embed(err, typeName)
	}
	return &ArrayDecoder{typeName: typeName, items: items}, nil
}

// NewFixedArrayDecoder is NewArrayDecoder for a record of n positional fields. A
// definite array with fewer than n elements fails with an ArityError. Extra
// elements are left for Finish to report
func NewFixedArrayDecoder(v Value, typeName string, n int) (*ArrayDecoder, error) {
	a, err := NewArrayDecoder(v, typeName)
	if err != nil {
		return nil, err
	}
	if v.IsIndefinite() || len(a.items) < n {
		return nil, ArityError{
			Type:       typeName,
			Expected:   uint64(n),
			Actual:     uint64(len(a.items)),
			Indefinite: v.IsIndefinite(),
		}
	}
	return a, nil
}

// Next returns the next element. Running out of elements is a truncation error
func (a *ArrayDecoder) Next(field string) (Value, error) {
	if a.pos >= len(a.items) {
		return Value{}, Embed(
			TruncatedError{
				Offset: a.pos,
				Reason: fmt.Sprintf("%s has no element for %s", a.typeName, field),
			},
			field,
		)
	}
	ret := a.items[a.pos]
	a.pos++
	return ret, nil
}

// Decode decodes the next element into dest, naming the field in any error
func (a *ArrayDecoder) Decode(field string, dest ValueDecoder) error {
	item, err := a.Next(field)
	if err != nil {
		return err
	}
	return Embed(dest.DecodeValue(item), field)
}

// Uint decodes the next element as an unsigned integer
func (a *ArrayDecoder) Uint(field string) (uint64, error) {
	item, err := a.Next(field)
	if err != nil {
		return 0, err
	}
	ret, err := item.Uint()
	return ret, Embed(err, field)
}

// Remaining returns the number of elements not consumed yet
func (a *ArrayDecoder) Remaining() int {
	return len(a.items) - a.pos
}

// Finish fails if any element was left unconsumed
func (a *ArrayDecoder) Finish() error {
	if remaining := a.Remaining(); remaining > 0 {
		return TrailingDataError{Type: a.typeName, Remaining: remaining}
	}
	return nil
}
