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
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// DataFromJSON decodes the pre-decoded JSON node representation used
// by chain-indexing services: {"int": n}, {"bytes": "<hex>"},
// {"string": s}, {"list": [...]}, {"map": [{"k":..., "v":...}]}, and
// {"constructor": n, "fields": [...]}. The "text" key is accepted as
// an alias for "string".
func DataFromJSON(raw []byte) (Data, error) {
	return dataFromJSONNode(raw)
}

func dataFromJSONNode(raw json.RawMessage) (Data, error) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("invalid data node: %w", err)
	}
	if rawVal, ok := node["int"]; ok {
		val := new(big.Int)
		if _, ok := val.SetString(
			strings.TrimSpace(string(rawVal)),
			10,
		); !ok {
			return nil, fmt.Errorf(
				"invalid int node: %s",
				rawVal,
			)
		}
		return Int{Value: val}, nil
	}
	if rawVal, ok := node["bytes"]; ok {
		var hexStr string
		if err := json.Unmarshal(rawVal, &hexStr); err != nil {
			return nil, fmt.Errorf("invalid bytes node: %w", err)
		}
		buf, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes node: %w", err)
		}
		return Bytes(buf), nil
	}
	for _, key := range []string{"string", "text"} {
		rawVal, ok := node[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(rawVal, &s); err != nil {
			return nil, fmt.Errorf("invalid string node: %w", err)
		}
		return Text(s), nil
	}
	if rawVal, ok := node["list"]; ok {
		var rawItems []json.RawMessage
		if err := json.Unmarshal(rawVal, &rawItems); err != nil {
			return nil, fmt.Errorf("invalid list node: %w", err)
		}
		items := make(List, 0, len(rawItems))
		for _, rawItem := range rawItems {
			item, err := dataFromJSONNode(rawItem)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}
	if rawVal, ok := node["map"]; ok {
		var rawPairs []struct {
			K json.RawMessage `json:"k"`
			V json.RawMessage `json:"v"`
		}
		if err := json.Unmarshal(rawVal, &rawPairs); err != nil {
			return nil, fmt.Errorf("invalid map node: %w", err)
		}
		pairs := make(Map, 0, len(rawPairs))
		for _, rawPair := range rawPairs {
			key, err := dataFromJSONNode(rawPair.K)
			if err != nil {
				return nil, err
			}
			val, err := dataFromJSONNode(rawPair.V)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, KeyValue{Key: key, Value: val})
		}
		return pairs, nil
	}
	if rawVal, ok := node["constructor"]; ok {
		var index uint64
		if err := json.Unmarshal(rawVal, &index); err != nil {
			return nil, fmt.Errorf(
				"invalid constructor node: %w",
				err,
			)
		}
		rawFields, ok := node["fields"]
		if !ok {
			return nil, fmt.Errorf(
				"constructor node %d has no fields",
				index,
			)
		}
		var rawItems []json.RawMessage
		if err := json.Unmarshal(rawFields, &rawItems); err != nil {
			return nil, fmt.Errorf(
				"invalid constructor fields: %w",
				err,
			)
		}
		fields := make([]Data, 0, len(rawItems))
		for _, rawItem := range rawItems {
			item, err := dataFromJSONNode(rawItem)
			if err != nil {
				return nil, err
			}
			fields = append(fields, item)
		}
		return Constructor{Index: index, Fields: fields}, nil
	}
	return nil, fmt.Errorf("unknown data node shape: %s", raw)
}

func (i Int) MarshalJSON() ([]byte, error) {
	if i.Value == nil {
		return []byte(`{"int":0}`), nil
	}
	return []byte(`{"int":` + i.Value.String() + `}`), nil
}

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Bytes string `json:"bytes"`
	}{Bytes: b.Hex()})
}

func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		String string `json:"string"`
	}{String: string(t)})
}

func (l List) MarshalJSON() ([]byte, error) {
	items := []Data(l)
	if items == nil {
		items = []Data{}
	}
	return json.Marshal(struct {
		List []Data `json:"list"`
	}{List: items})
}

func (m Map) MarshalJSON() ([]byte, error) {
	type jsonPair struct {
		K Data `json:"k"`
		V Data `json:"v"`
	}
	pairs := make([]jsonPair, 0, len(m))
	for _, pair := range m {
		pairs = append(pairs, jsonPair{K: pair.Key, V: pair.Value})
	}
	return json.Marshal(struct {
		Map []jsonPair `json:"map"`
	}{Map: pairs})
}

func (c Constructor) MarshalJSON() ([]byte, error) {
	fields := c.Fields
	if fields == nil {
		fields = []Data{}
	}
	return json.Marshal(struct {
		Constructor uint64 `json:"constructor"`
		Fields      []Data `json:"fields"`
	}{Constructor: c.Index, Fields: fields})
}
