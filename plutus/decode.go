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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package plutus

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"
)

// CBOR major types (high 3 bits of the header byte)
const (
	majorUnsignedInt = 0
	majorNegativeInt = 1
	majorByteString  = 2
	majorTextString  = 3
	majorArray       = 4
	majorMap         = 5
	majorTag         = 6
)

// Constructor tag ranges per the Plutus data encoding convention.
// Tags 121-127 cover alternatives 0-6 directly, tags 1280-1400 cover
// alternatives 7-127, and tag 102 carries the alternative index
// explicitly as the first element of a two-element list.
const (
	tagCompactConstrMin  = 121
	tagCompactConstrMax  = 127
	tagExtendedConstrMin = 1280
	tagExtendedConstrMax = 1400
	tagGeneralConstr     = 102

	extendedConstrBase = 7
)

// Decode decodes a single data item from data starting at offset and
// returns the decoded tree along with the offset of the first byte
// after the item. Position is explicit so the function is reentrant
// and nested items can be decoded in isolation. Lengths and tags
// beyond 2^63 are out of scope for this protocol and are rejected.
func Decode(data []byte, offset int) (Data, int, error) {
	if offset < 0 || offset >= len(data) {
		return nil, 0, NewMalformedInputError(
			offset,
			"unexpected end of input",
		)
	}
	major := data[offset] >> 5
	switch major {
	case majorUnsignedInt:
		val, next, err := decodeArg(data, offset)
		if err != nil {
			return nil, 0, err
		}
		return Int{Value: new(big.Int).SetUint64(val)}, next, nil
	case majorNegativeInt:
		val, next, err := decodeArg(data, offset)
		if err != nil {
			return nil, 0, err
		}
		// Wire value encodes -1 - val
		tmp := new(big.Int).SetUint64(val)
		tmp.Add(tmp, big.NewInt(1))
		tmp.Neg(tmp)
		return Int{Value: tmp}, next, nil
	case majorByteString:
		length, next, err := decodeArg(data, offset)
		if err != nil {
			return nil, 0, err
		}
		count, err := checkAvailable(data, offset, next, length)
		if err != nil {
			return nil, 0, err
		}
		buf := make([]byte, count)
		copy(buf, data[next:next+count])
		return Bytes(buf), next + count, nil
	case majorTextString:
		length, next, err := decodeArg(data, offset)
		if err != nil {
			return nil, 0, err
		}
		count, err := checkAvailable(data, offset, next, length)
		if err != nil {
			return nil, 0, err
		}
		buf := data[next : next+count]
		if !utf8.Valid(buf) {
			return nil, 0, NewMalformedInputError(
				offset,
				"text string is not valid UTF-8",
			)
		}
		return Text(buf), next + count, nil
	case majorArray:
		length, next, err := decodeArg(data, offset)
		if err != nil {
			return nil, 0, err
		}
		// Each child consumes at least one byte
		count, err := checkAvailable(data, offset, next, length)
		if err != nil {
			return nil, 0, err
		}
		items := make(List, 0, count)
		for range count {
			var item Data
			item, next, err = Decode(data, next)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, item)
		}
		return items, next, nil
	case majorMap:
		length, next, err := decodeArg(data, offset)
		if err != nil {
			return nil, 0, err
		}
		count, err := checkAvailable(data, offset, next, length)
		if err != nil {
			return nil, 0, err
		}
		pairs := make(Map, 0, count)
		for range count {
			var key, val Data
			key, next, err = Decode(data, next)
			if err != nil {
				return nil, 0, err
			}
			val, next, err = Decode(data, next)
			if err != nil {
				return nil, 0, err
			}
			pairs = append(pairs, KeyValue{Key: key, Value: val})
		}
		return pairs, next, nil
	case majorTag:
		tag, next, err := decodeArg(data, offset)
		if err != nil {
			return nil, 0, err
		}
		child, next, err := Decode(data, next)
		if err != nil {
			return nil, 0, err
		}
		mapped, err := mapConstructorTag(tag, child, offset)
		if err != nil {
			return nil, 0, err
		}
		return mapped, next, nil
	default:
		return nil, 0, NewMalformedInputError(
			offset,
			fmt.Sprintf("unsupported major type %d", major),
		)
	}
}

// DecodeHex decodes a complete data item from a hex string, requiring
// the entire buffer to be consumed.
func DecodeHex(raw string) (Data, error) {
	data, err := hex.DecodeString(raw)
	if err != nil {
		return nil, NewMalformedInputError(
			0,
			"invalid hex: "+err.Error(),
		)
	}
	item, next, err := Decode(data, 0)
	if err != nil {
		return nil, err
	}
	if next != len(data) {
		return nil, NewMalformedInputError(
			next,
			"trailing data after item",
		)
	}
	return item, nil
}

// decodeArg reads the additional-info argument for the header byte at
// offset: values 0-23 are literal, 24-27 select 1/2/4/8 following
// big-endian bytes. Values 28-31 (indefinite lengths, reserved) are
// not used by this protocol.
func decodeArg(data []byte, offset int) (uint64, int, error) {
	info := data[offset] & 0x1f
	switch {
	case info < 24:
		return uint64(info), offset + 1, nil
	case info <= 27:
		numBytes := 1 << (info - 24)
		if offset+1+numBytes > len(data) {
			return 0, 0, NewMalformedInputError(
				offset,
				fmt.Sprintf(
					"truncated %d-byte argument",
					numBytes,
				),
			)
		}
		var val uint64
		for _, b := range data[offset+1 : offset+1+numBytes] {
			val = val*256 + uint64(b)
		}
		return val, offset + 1 + numBytes, nil
	default:
		return 0, 0, NewMalformedInputError(
			offset,
			fmt.Sprintf("unsupported additional info %d", info),
		)
	}
}

// checkAvailable verifies that length items/bytes can possibly be
// satisfied by the bytes remaining after next, and returns length as
// an int. The item header offset is used for error reporting.
func checkAvailable(
	data []byte,
	offset int,
	next int,
	length uint64,
) (int, error) {
	if length > math.MaxInt64 ||
		length > uint64(len(data)-next) {
		return 0, NewMalformedInputError(
			offset,
			fmt.Sprintf(
				"length %d exceeds remaining %d bytes",
				length,
				len(data)-next,
			),
		)
	}
	return int(length), nil
}

// mapConstructorTag interprets a decoded tag per the Plutus data
// convention. Constructor tags require a list child; tag 102 requires
// a two-element [index, fields] list. Tags outside the constructor
// vocabulary pass the child through unchanged.
func mapConstructorTag(
	tag uint64,
	child Data,
	offset int,
) (Data, error) {
	switch {
	case tag >= tagCompactConstrMin && tag <= tagCompactConstrMax:
		fields, ok := child.(List)
		if !ok {
			return nil, NewUnexpectedShapeError(
				tag,
				offset,
				"constructor content is not a list",
			)
		}
		return Constructor{
			Index:  tag - tagCompactConstrMin,
			Fields: fields,
		}, nil
	case tag >= tagExtendedConstrMin && tag <= tagExtendedConstrMax:
		fields, ok := child.(List)
		if !ok {
			return nil, NewUnexpectedShapeError(
				tag,
				offset,
				"constructor content is not a list",
			)
		}
		return Constructor{
			Index:  (tag - tagExtendedConstrMin) + extendedConstrBase,
			Fields: fields,
		}, nil
	case tag == tagGeneralConstr:
		pair, ok := child.(List)
		if !ok || len(pair) != 2 {
			return nil, NewUnexpectedShapeError(
				tag,
				offset,
				"content is not an [index, fields] pair",
			)
		}
		idx, ok := pair[0].(Int)
		if !ok {
			return nil, NewUnexpectedShapeError(
				tag,
				offset,
				"alternative index is not an integer",
			)
		}
		idxVal, fits := idx.Int64()
		if !fits || idxVal < 0 {
			return nil, NewUnexpectedShapeError(
				tag,
				offset,
				"alternative index out of range",
			)
		}
		fields, ok := pair[1].(List)
		if !ok {
			return nil, NewUnexpectedShapeError(
				tag,
				offset,
				"second pair element is not a field list",
			)
		}
		return Constructor{
			Index:  uint64(idxVal),
			Fields: fields,
		}, nil
	default:
		// Non-constructor tags are not part of this protocol's
		// vocabulary but must not fail the decode
		return child, nil
	}
}
