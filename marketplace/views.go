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

package marketplace

import (
	"encoding/hex"
	"encoding/json"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/souk/chainquery"
)

// MetadataLabel is the transaction-metadata label carrying the
// off-chain descriptive metadata for a listing.
const MetadataLabel = "674"

// Display statuses derived at read time. Accepted bids burn their
// token and disappear from the live set, so a bid's terminal state is
// implicit absence and every live bid reads as pending.
const (
	DisplayStatusActive  = "active"
	DisplayStatusPending = "pending"
)

// OffchainMetadata is the descriptive metadata attached to a
// listing's transaction outside the datum.
type OffchainMetadata struct {
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	Storage     string `json:"storage,omitempty"`
}

// ListingView is the display-ready projection of a listing UTxO: the
// parsed datum plus its transaction reference, creation time, asset
// fingerprint, and any off-chain metadata.
type ListingView struct {
	TxHash      string           `json:"tx_hash"`
	TokenName   string           `json:"token_name"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Status      string           `json:"status"`
	Metadata    OffchainMetadata `json:"metadata"`
	Datum       ListingDatum     `json:"datum"`
	CreatedAt   int64            `json:"created_at,omitempty"`
	OutputIndex uint32           `json:"output_index"`
}

// BidView is the display-ready projection of a bid UTxO. Amount is
// the lovelace locked at the script address, which is the bid itself,
// not a datum field.
type BidView struct {
	TxHash       string   `json:"tx_hash"`
	TokenName    string   `json:"token_name"`
	ListingToken string   `json:"listing_token"`
	Fingerprint  string   `json:"fingerprint,omitempty"`
	Status       string   `json:"status"`
	Datum        BidDatum `json:"datum"`
	CreatedAt    int64    `json:"created_at,omitempty"`
	Amount       uint64   `json:"amount"`
	OutputIndex  uint32   `json:"output_index"`
}

// parseOffchainMetadata extracts the descriptive fields from a
// transaction-metadata map. A missing label yields the zero value.
func parseOffchainMetadata(
	entries map[string]json.RawMessage,
) (OffchainMetadata, error) {
	raw, ok := entries[MetadataLabel]
	if !ok {
		return OffchainMetadata{}, nil
	}
	var tmp struct {
		Description string      `json:"description"`
		Price       json.Number `json:"price"`
		Storage     string      `json:"storage"`
	}
	if err := json.Unmarshal(raw, &tmp); err != nil {
		return OffchainMetadata{}, err
	}
	return OffchainMetadata{
		Description: tmp.Description,
		Price:       tmp.Price.String(),
		Storage:     tmp.Storage,
	}, nil
}

// resolveTokenName finds the asset name minted under the marketplace
// policy among a UTxO's attached assets. When asset-list enrichment
// was unavailable it falls back to the datum's self-declared token
// name.
func resolveTokenName(
	assets []chainquery.Asset,
	policyID string,
	fallback string,
) string {
	for _, asset := range assets {
		if asset.PolicyID == policyID {
			return asset.NameHex
		}
	}
	return fallback
}

// assetFingerprint computes the CIP-14 fingerprint for a policy and
// asset name, both hex-encoded. Returns empty on undecodable input.
func assetFingerprint(policyID string, nameHex string) string {
	policyBytes, err := hex.DecodeString(policyID)
	if err != nil {
		return ""
	}
	nameBytes, err := hex.DecodeString(nameHex)
	if err != nil {
		return ""
	}
	return lcommon.NewAssetFingerprint(
		policyBytes,
		nameBytes,
	).String()
}

// buildListingView combines a UTxO, its parsed datum, and auxiliary
// lookups into a display record.
func buildListingView(
	utxo chainquery.Utxo,
	datum ListingDatum,
	policyID string,
	createdAt int64,
	metadata OffchainMetadata,
) ListingView {
	tokenName := resolveTokenName(
		utxo.Assets,
		policyID,
		datum.TokenName,
	)
	status := DisplayStatusActive
	if datum.Status.Kind == StatusPending {
		status = DisplayStatusPending
	}
	return ListingView{
		TxHash:      utxo.TxHash,
		OutputIndex: utxo.OutputIndex,
		TokenName:   tokenName,
		Fingerprint: assetFingerprint(policyID, tokenName),
		Status:      status,
		Metadata:    metadata,
		Datum:       datum,
		CreatedAt:   createdAt,
	}
}

// buildBidView combines a bid UTxO and its parsed datum into a
// display record.
func buildBidView(
	utxo chainquery.Utxo,
	datum BidDatum,
	policyID string,
	createdAt int64,
) BidView {
	tokenName := resolveTokenName(
		utxo.Assets,
		policyID,
		datum.Pointer,
	)
	return BidView{
		TxHash:       utxo.TxHash,
		OutputIndex:  utxo.OutputIndex,
		TokenName:    tokenName,
		ListingToken: datum.Token,
		Fingerprint:  assetFingerprint(policyID, tokenName),
		Status:       DisplayStatusPending,
		Datum:        datum,
		CreatedAt:    createdAt,
		Amount:       utxo.Lovelace,
	}
}
