// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package option

import (
	"errors"
	"fmt"
	"sort"
)

// Options is the ordered sequence of options carried by a message. An
// Options value keeps one Option entry per wire occurrence: repeatable
// options (Uri-Path, Uri-Query, ...) appear as several entries sharing
// the same Number.
type Options []Option

// Add appends an option value, preserving wire order. Callers are
// responsible for keeping Options sorted by Number before Marshal;
// Marshal itself does not re-sort so that repeated options retain
// caller-chosen ordering among same-numbered occurrences.
func (o *Options) Add(number Number, value Value) {
	*o = append(*o, Option{Number: number, Value: value})
}

// Get returns the first occurrence of number, if any.
func (o Options) Get(number Number) (Value, bool) {
	for _, opt := range o {
		if opt.Number == number {
			return opt.Value, true
		}
	}
	return Value{}, false
}

// GetAll returns every occurrence of number, in wire order.
func (o Options) GetAll(number Number) []Value {
	var values []Value
	for _, opt := range o {
		if opt.Number == number {
			values = append(values, opt.Value)
		}
	}
	return values
}

// SortByNumber orders options by ascending number, the wire invariant
// required before Marshal (RFC 7252 §3.1: options are encoded as
// deltas from the previous option number, so they must be emitted in
// ascending order). Equal numbers retain their relative order
// (stable), preserving repeatable-option sequencing.
func (o Options) SortByNumber() {
	sort.SliceStable(o, func(i, j int) bool { return o[i].Number < o[j].Number })
}

// Marshal writes the option sequence to buf in wire order, assuming
// options have already been sorted by Number. buf == nil (or too
// small) returns the required size alongside ErrTooSmall.
func (o Options) Marshal(buf []byte) (int, error) {
	total := 0
	previous := Number(0)
	tooSmall := false
	for _, opt := range o {
		var dst []byte
		if buf != nil && !tooSmall {
			dst = buf[total:]
		}
		n, err := opt.marshal(dst, previous)
		if err != nil {
			if !errors.Is(err, ErrTooSmall) {
				return -1, err
			}
			tooSmall = true
		}
		total += n
		previous = opt.Number
	}
	if buf == nil || tooSmall {
		return total, ErrTooSmall
	}
	return total, nil
}

// Unmarshal parses the option sequence starting at data[0], stopping
// at the payload marker 0xFF or end of data, and returns the number
// of bytes consumed (NOT including the marker byte itself, if
// present). Unknown critical option numbers fail with
// ErrUnrecognizedCritical (RFC 7252 §5.4.1); unknown elective numbers
// are skipped.
func (o *Options) Unmarshal(data []byte) (int, error) {
	*o = (*o)[:0]
	pos := 0
	previous := Number(0)

	for pos < len(data) {
		if data[pos] == 0xff {
			break
		}

		deltaHeader := int(data[pos] >> 4)
		lengthHeader := int(data[pos] & 0x0f)
		pos++

		if deltaHeader == extReserved || lengthHeader == extReserved {
			return -1, ErrOptionGapTooLarge
		}

		delta, n, err := joinExtended(deltaHeader, data[pos:])
		if err != nil {
			return -1, err
		}
		pos += n

		length, n, err := joinExtended(lengthHeader, data[pos:])
		if err != nil {
			return -1, err
		}
		pos += n

		if len(data)-pos < length {
			return -1, ErrOptionTruncated
		}
		value := data[pos : pos+length]
		pos += length

		number := previous + Number(delta)
		previous = number

		def, known := Catalogue[number]
		if !known {
			if number.IsCritical() {
				return -1, fmt.Errorf("%w: %d", ErrUnrecognizedCritical, number)
			}
			continue
		}
		if length < def.MinLen || length > def.MaxLen {
			return -1, fmt.Errorf("%w: option %d length %d", ErrOptionInvalidLength, number, length)
		}
		_ = def
		*o = append(*o, Option{Number: number, Value: NewOpaque(append([]byte(nil), value...))})
	}
	return pos, nil
}
