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
	"errors"
	"fmt"
	"io"
)

// Sentinel errors for the decode failure classes. Every typed error below matches
// exactly one of these with errors.Is
var (
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrTrailingData       = errors.New("trailing data")
	ErrTruncated          = errors.New("truncated input")
	ErrUnexpectedToken    = errors.New("unexpected token")
)

// ArityError indicates an array whose element count does not match the fixed
// arity of the type being decoded
type ArityError struct {
	Type       string
	Expected   uint64
	Actual     uint64
	Indefinite bool
}

func (e ArityError) Error() string {
	if e.Indefinite {
		return fmt.Sprintf(
			"%s: expected array of %d elements, got indefinite-length array",
			e.Type,
			e.Expected,
		)
	}
	return fmt.Sprintf(
		"%s: expected array of %d elements, got %d",
		e.Type,
		e.Expected,
		e.Actual,
	)
}

func (ArityError) Is(target error) bool {
	return target == ErrStructuralMismatch
}

// TypeError indicates a CBOR item of a different shape than the one expected
type TypeError struct {
	Expected string
	Actual   string
}

func (e TypeError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

func (TypeError) Is(target error) bool {
	return target == ErrStructuralMismatch
}

// NestingError indicates containers nested deeper than the decoder allows
type NestingError struct {
	Offset int
	Limit  int
}

func (e NestingError) Error() string {
	return fmt.Sprintf("exceeded max nested level %d at offset %d", e.Limit, e.Offset)
}

func (NestingError) Is(target error) bool {
	return target == ErrStructuralMismatch
}

// TrailingDataError indicates unconsumed elements (or bytes, at the top level)
// after all required fields were decoded
type TrailingDataError struct {
	Type      string
	Remaining int
	Unit      string
}

func (e TrailingDataError) Error() string {
	unit := e.Unit
	if unit == "" {
		unit = "elements"
	}
	return fmt.Sprintf("%s: %d unparsed %s remaining", e.Type, e.Remaining, unit)
}

func (TrailingDataError) Is(target error) bool {
	return target == ErrTrailingData
}

// TruncatedError indicates that the input ended before a terminator or a
// required field
type TruncatedError struct {
	Offset int
	Reason string
}

func (e TruncatedError) Error() string {
	return fmt.Sprintf("unexpected end of data at offset %d: %s", e.Offset, e.Reason)
}

func (TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}

// UnexpectedTokenError indicates a special token where only a break marker is valid
type UnexpectedTokenError struct {
	Offset int
	Token  byte
}

func (e UnexpectedTokenError) Error() string {
	return fmt.Sprintf(
		"unexpected special token 0x%02x at offset %d, expected break",
		e.Token,
		e.Offset,
	)
}

func (UnexpectedTokenError) Is(target error) bool {
	return target == ErrUnexpectedToken
}

// ContextError annotates a decode failure with the name of the structure or field
// being decoded. Nested ContextErrors form the path from the top-level type down
// to the failing primitive
type ContextError struct {
	Context string
	Err     error
}

func (e *ContextError) Error() string {
	return e.Context + ": " + e.Err.Error()
}

func (e *ContextError) Unwrap() error { return e.Err }

// Embed wraps err with the given context. A nil error stays nil
func Embed(err error, context string) error {
	if err == nil {
		return nil
	}
	return &ContextError{Context: context, Err: err}
}

// ErrorPath returns the chain of contexts attached to err, outermost first
func ErrorPath(err error) []string {
	var ret []string
	for err != nil {
		var ctxErr *ContextError
		if !errors.As(err, &ctxErr) {
			break
		}
		ret = append(ret, ctxErr.Context)
		err = ctxErr.Err
	}
	return ret
}

// truncatedOr converts EOF conditions reported by the underlying decoder into a
// TruncatedError and passes anything else through
func truncatedOr(err error, offset int, reason string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return TruncatedError{Offset: offset, Reason: reason}
	}
	return err
}
