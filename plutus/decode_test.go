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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInt(t *testing.T) {
	testDefs := []struct {
		name     string
		cborHex  string
		expected int64
	}{
		{"zero", "00", 0},
		{"max literal", "17", 23},
		{"one byte arg", "1818", 24},
		{"two byte arg", "190100", 256},
		{"four byte arg", "1a00010000", 65536},
		{"eight byte arg", "1b0000000100000000", 4294967296},
		{"negative one", "20", -1},
		{"negative literal", "29", -10},
		{"negative one byte arg", "3818", -25},
		{"negative two byte arg", "3903e7", -1000},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			item, err := DecodeHex(testDef.cborHex)
			require.NoError(t, err)
			intItem, ok := item.(Int)
			require.True(t, ok, "expected Int, got %T", item)
			val, fits := intItem.Int64()
			require.True(t, fits)
			assert.Equal(t, testDef.expected, val)
		})
	}
}

func TestDecodeBytes(t *testing.T) {
	item, err := DecodeHex("43010203")
	require.NoError(t, err)
	bytesItem, ok := item.(Bytes)
	require.True(t, ok, "expected Bytes, got %T", item)
	assert.Equal(t, "010203", bytesItem.Hex())
}

func TestDecodeText(t *testing.T) {
	item, err := DecodeHex("63616263")
	require.NoError(t, err)
	textItem, ok := item.(Text)
	require.True(t, ok, "expected Text, got %T", item)
	assert.Equal(t, "abc", string(textItem))
}

func TestDecodeTextInvalidUtf8(t *testing.T) {
	_, err := DecodeHex("61ff")
	var malformedErr MalformedInputError
	require.ErrorAs(t, err, &malformedErr)
	assert.Equal(t, 0, malformedErr.Offset)
}

func TestDecodeList(t *testing.T) {
	item, err := DecodeHex("83010203")
	require.NoError(t, err)
	listItem, ok := item.(List)
	require.True(t, ok, "expected List, got %T", item)
	assert.Equal(
		t,
		List{NewInt(1), NewInt(2), NewInt(3)},
		listItem,
	)
}

func TestDecodeMap(t *testing.T) {
	item, err := DecodeHex("a201020304")
	require.NoError(t, err)
	mapItem, ok := item.(Map)
	require.True(t, ok, "expected Map, got %T", item)
	assert.Equal(
		t,
		Map{
			{Key: NewInt(1), Value: NewInt(2)},
			{Key: NewInt(3), Value: NewInt(4)},
		},
		mapItem,
	)
}

func TestDecodeConstructorTagRanges(t *testing.T) {
	testDefs := []struct {
		name          string
		cborHex       string
		expectedIndex uint64
	}{
		// Tags 121-127 map to alternatives 0-6
		{"tag 121", "d87980", 0},
		{"tag 122", "d87a80", 1},
		{"tag 127", "d87f80", 6},
		// Tags 1280-1400 map to alternatives 7-127
		{"tag 1280", "d9050080", 7},
		{"tag 1285", "d9050580", 12},
		{"tag 1400", "d9057880", 127},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			item, err := DecodeHex(testDef.cborHex)
			require.NoError(t, err)
			constr, ok := item.(Constructor)
			require.True(
				t,
				ok,
				"expected Constructor, got %T",
				item,
			)
			assert.Equal(t, testDef.expectedIndex, constr.Index)
			assert.Empty(t, constr.Fields)
		})
	}
}

func TestDecodeConstructorFieldOrder(t *testing.T) {
	// Constructor 0 with fields [1, h'ff', 2]
	item, err := DecodeHex("d879830141ff02")
	require.NoError(t, err)
	constr, ok := item.(Constructor)
	require.True(t, ok, "expected Constructor, got %T", item)
	assert.Equal(
		t,
		Constructor{
			Index: 0,
			Fields: []Data{
				NewInt(1),
				Bytes{0xff},
				NewInt(2),
			},
		},
		constr,
	)
}

func TestDecodeConstructorTag102(t *testing.T) {
	// Tag 102 wrapping [5, [1]]
	item, err := DecodeHex("d86682058101")
	require.NoError(t, err)
	constr, ok := item.(Constructor)
	require.True(t, ok, "expected Constructor, got %T", item)
	assert.Equal(t, uint64(5), constr.Index)
	assert.Equal(t, []Data{NewInt(1)}, constr.Fields)
}

func TestDecodeConstructorTag102BadShape(t *testing.T) {
	testDefs := []struct {
		name    string
		cborHex string
	}{
		// Tag 102 wrapping a bare int
		{"not a pair", "d86605"},
		// Tag 102 wrapping [5] (missing field list)
		{"one element", "d8668105"},
		// Tag 102 wrapping [5, 6] (second element not a list)
		{"fields not a list", "d866820506"},
		// Tag 102 wrapping [h'ff', []] (index not an int)
		{"index not an int", "d8668241ff80"},
		// Tag 102 wrapping [-1, []] (negative index)
		{"negative index", "d866822080"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := DecodeHex(testDef.cborHex)
			var shapeErr UnexpectedShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, uint64(102), shapeErr.Tag)
		})
	}
}

func TestDecodeConstructorNonListContent(t *testing.T) {
	// Tag 121 wrapping a bare int
	_, err := DecodeHex("d87905")
	var shapeErr UnexpectedShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, uint64(121), shapeErr.Tag)
	assert.Equal(t, 0, shapeErr.Offset)
}

func TestDecodeNonConstructorTagPassthrough(t *testing.T) {
	testDefs := []struct {
		name     string
		cborHex  string
		expected Data
	}{
		// Tag 128 is just above the compact constructor range
		{"tag 128", "d8808102", List{NewInt(2)}},
		// Tag 1401 is just above the extended constructor range
		{"tag 1401", "d905798102", List{NewInt(2)}},
		// Tag 2 (bignum) is not constructor vocabulary
		{"tag 2", "c243010203", Bytes{0x01, 0x02, 0x03}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			item, err := DecodeHex(testDef.cborHex)
			require.NoError(t, err)
			_, isConstr := item.(Constructor)
			assert.False(
				t,
				isConstr,
				"tag must not be classified as a constructor",
			)
			assert.Equal(t, testDef.expected, item)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	testDefs := []struct {
		name           string
		cborHex        string
		expectedOffset int
	}{
		{"empty input", "", 0},
		// Byte string claiming 10 bytes with only 3 remaining
		{"truncated byte string", "4a010203", 0},
		// Truncated two-byte length argument
		{"truncated argument", "19ff", 0},
		// Additional info 28-31 is unsupported
		{"additional info 28", "5c", 0},
		{"additional info 31", "5f", 0},
		// Array claiming more children than bytes remain
		{"truncated array", "8501", 0},
		// Truncated child of a list
		{"truncated nested item", "82014a0102", 2},
		// Major type 7 (simple/float) is not protocol vocabulary
		{"major type 7", "f5", 0},
		// Map with a key but no value
		{"dangling map key", "a101", 2},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := DecodeHex(testDef.cborHex)
			var malformedErr MalformedInputError
			require.ErrorAs(t, err, &malformedErr)
			assert.Equal(
				t,
				testDef.expectedOffset,
				malformedErr.Offset,
			)
		})
	}
}

func TestDecodeOffsetReentrant(t *testing.T) {
	// Two consecutive items in one buffer
	data := []byte{0x01, 0x43, 0xaa, 0xbb, 0xcc}
	first, next, err := Decode(data, 0)
	require.NoError(t, err)
	assert.Equal(t, NewInt(1), first)
	assert.Equal(t, 1, next)
	second, next, err := Decode(data, next)
	require.NoError(t, err)
	assert.Equal(t, Bytes{0xaa, 0xbb, 0xcc}, second)
	assert.Equal(t, len(data), next)
}

func TestDecodeIdempotent(t *testing.T) {
	// Re-decoding the same buffer yields structurally identical
	// trees
	cborHex := "d8798341aad87a80a1014101"
	first, err := DecodeHex(cborHex)
	require.NoError(t, err)
	second, err := DecodeHex(cborHex)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeTrailingData(t *testing.T) {
	_, err := DecodeHex("0102")
	var malformedErr MalformedInputError
	require.ErrorAs(t, err, &malformedErr)
	assert.Equal(t, 1, malformedErr.Offset)
}
