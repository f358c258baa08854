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

// Package plutus decodes raw CBOR-encoded Plutus data into a typed
// structured-data tree. The tree is a closed sum over the wire-level
// node kinds, so downstream consumers can match exhaustively instead
// of poking at untyped maps.
package plutus

import (
	"encoding/hex"
	"math/big"
)

// Data is the structured-data tree produced by the decoder. It is a
// sealed interface: the only implementations are Int, Bytes, Text,
// List, Map, and Constructor.
type Data interface {
	isData()
}

// Int is a signed integer of arbitrary magnitude.
type Int struct {
	Value *big.Int
}

func (Int) isData() {}

// NewInt returns an Int wrapping the given value.
func NewInt(v int64) Int {
	return Int{Value: big.NewInt(v)}
}

// Int64 returns the value as an int64 and whether it fits.
func (i Int) Int64() (int64, bool) {
	if i.Value == nil || !i.Value.IsInt64() {
		return 0, false
	}
	return i.Value.Int64(), true
}

// Bytes is a raw byte string.
type Bytes []byte

func (Bytes) isData() {}

// Hex returns the lowercase hex encoding of the byte string. Byte
// fields are addressed as hex at the API boundary.
func (b Bytes) Hex() string {
	return hex.EncodeToString(b)
}

// Text is a UTF-8 text string. Rare in this protocol.
type Text string

func (Text) isData() {}

// List is an ordered sequence of items.
type List []Data

func (List) isData() {}

// KeyValue is a single map entry.
type KeyValue struct {
	Key   Data
	Value Data
}

// Map is an ordered sequence of key/value pairs. Order is preserved
// from the wire encoding.
type Map []KeyValue

func (Map) isData() {}

// Constructor is a tagged sum-type value: an alternative index plus
// an ordered field list. The index is derived from the CBOR tag and
// has no fixed upper bound.
type Constructor struct {
	Fields []Data
	Index  uint64
}

func (Constructor) isData() {}
