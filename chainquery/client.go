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

// Package chainquery defines the narrow fetch contract consumed by
// the marketplace aggregation and level-reconstruction logic, along
// with a Blockfrost-backed implementation. Any chain-indexing service
// can stand in behind the Client interface.
package chainquery

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/blinklabs-io/souk/plutus"
)

// ErrNoInlineDatum is returned when datum decoding is requested for
// an output that carries no inline datum.
var ErrNoInlineDatum = errors.New("output has no inline datum")

// Asset is a native asset attached to a UTxO.
type Asset struct {
	PolicyID string
	NameHex  string
	Amount   uint64
}

// Utxo is a single unspent output at an address. The inline datum is
// carried in whichever representation the indexing service provides:
// raw CBOR hex, the pre-decoded JSON node form, or both.
type Utxo struct {
	TxHash          string
	Address         string
	InlineDatumHex  string
	InlineDatumJSON json.RawMessage
	Assets          []Asset
	OutputIndex     uint32
	Lovelace        uint64
}

// Datum decodes the UTxO's inline datum into a structured-data tree,
// preferring the pre-decoded JSON form when present.
func (u Utxo) Datum() (plutus.Data, error) {
	return decodeDatum(u.InlineDatumJSON, u.InlineDatumHex)
}

// HistoryEntry is one transaction that touched an asset.
type HistoryEntry struct {
	TxHash      string
	BlockHeight uint64
}

// TxOutput is a single output within a transaction.
type TxOutput struct {
	Address         string
	InlineDatumHex  string
	InlineDatumJSON json.RawMessage
}

// Datum decodes the output's inline datum into a structured-data
// tree, preferring the pre-decoded JSON form when present.
func (o TxOutput) Datum() (plutus.Data, error) {
	return decodeDatum(o.InlineDatumJSON, o.InlineDatumHex)
}

// TxDetails carries the outputs and chain position of a transaction.
type TxDetails struct {
	TxHash      string
	Outputs     []TxOutput
	BlockHeight uint64
	BlockTime   int64
}

// Client is the chain-query collaborator contract. Implementations
// own connection lifecycle and any caller-level timeout semantics;
// errors are propagated, never retried, by the consumers in this
// module.
type Client interface {
	// UtxosAtAddress returns the current unspent outputs at an
	// address.
	UtxosAtAddress(
		ctx context.Context,
		address string,
	) ([]Utxo, error)
	// TransactionHistory returns every transaction that ever
	// touched the given asset, not just unspent state.
	TransactionHistory(
		ctx context.Context,
		policyID string,
		tokenNameHex string,
	) ([]HistoryEntry, error)
	// TransactionDetails fetches outputs and chain position for a
	// batch of transaction hashes.
	TransactionDetails(
		ctx context.Context,
		txHashes []string,
	) ([]TxDetails, error)
	// TransactionMetadata returns the off-chain metadata attached
	// to a transaction, keyed by metadata label.
	TransactionMetadata(
		ctx context.Context,
		txHash string,
	) (map[string]json.RawMessage, error)
}

func decodeDatum(
	jsonForm json.RawMessage,
	hexForm string,
) (plutus.Data, error) {
	if len(jsonForm) > 0 {
		return plutus.DataFromJSON(jsonForm)
	}
	if hexForm != "" {
		return plutus.DecodeHex(hexForm)
	}
	return nil, ErrNoInlineDatum
}
