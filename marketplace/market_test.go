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
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/blinklabs-io/souk/chainquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testListingPolicy = "7eae28af2208be856f7a119668ae52a49b73725e326dc16579dcc373"
	testBidPolicy     = "1e349c9bdea19fd6c147626a5260bc44b71635f398b67c59881df209"
	testListingAddr   = "addr_test1listing"
	testBidAddr       = "addr_test1bid"
)

// fakeClient is an in-memory chainquery.Client for aggregation and
// reconstruction tests.
type fakeClient struct {
	utxosByAddress map[string][]chainquery.Utxo
	history        []chainquery.HistoryEntry
	details        []chainquery.TxDetails
	metadata       map[string]map[string]json.RawMessage
	utxosErr       error
	historyErr     error
	detailsErr     error
	metadataErr    error
}

func (f *fakeClient) UtxosAtAddress(
	_ context.Context,
	address string,
) ([]chainquery.Utxo, error) {
	if f.utxosErr != nil {
		return nil, f.utxosErr
	}
	return f.utxosByAddress[address], nil
}

func (f *fakeClient) TransactionHistory(
	_ context.Context,
	_ string,
	_ string,
) ([]chainquery.HistoryEntry, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeClient) TransactionDetails(
	_ context.Context,
	txHashes []string,
) ([]chainquery.TxDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	wanted := make(map[string]bool, len(txHashes))
	for _, txHash := range txHashes {
		wanted[txHash] = true
	}
	var ret []chainquery.TxDetails
	for _, detail := range f.details {
		if wanted[detail.TxHash] {
			ret = append(ret, detail)
		}
	}
	return ret, nil
}

func (f *fakeClient) TransactionMetadata(
	_ context.Context,
	txHash string,
) (map[string]json.RawMessage, error) {
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.metadata[txHash], nil
}

func testMarket(client chainquery.Client) *Market {
	return NewMarket(MarketConfig{
		Client:          client,
		PromRegistry:    prometheus.NewRegistry(),
		ListingPolicyID: testListingPolicy,
		BidPolicyID:     testBidPolicy,
		ListingAddress:  testListingAddr,
		BidAddress:      testBidAddr,
	})
}

// listingDatumJSON builds a listing datum in the JSON node form. An
// empty fullParts yields None for the optional full level.
func listingDatumJSON(
	owner string,
	token string,
	halfParts [3]string,
	fullParts []string,
	pending bool,
) json.RawMessage {
	fullNode := `{"constructor": 1, "fields": []}`
	if len(fullParts) == 4 {
		fullNode = fmt.Sprintf(
			`{"constructor": 0, "fields": [
				{"constructor": 0, "fields": [
					{"bytes": %q}, {"bytes": %q},
					{"bytes": %q}, {"bytes": %q}
				]}
			]}`,
			fullParts[0],
			fullParts[1],
			fullParts[2],
			fullParts[3],
		)
	}
	statusNode := `{"constructor": 0, "fields": []}`
	if pending {
		statusNode = `{"constructor": 1, "fields": [
			{"list": [{"bytes": "01"}]},
			{"int": 1700000000}
		]}`
	}
	return json.RawMessage(fmt.Sprintf(
		`{"constructor": 0, "fields": [
			{"bytes": %q},
			{"constructor": 0, "fields": [
				{"bytes": "0a"}, {"bytes": "0b"}
			]},
			{"bytes": %q},
			{"constructor": 0, "fields": [
				{"bytes": %q}, {"bytes": %q}, {"bytes": %q}
			]},
			%s,
			{"constructor": 0, "fields": [
				{"bytes": "a1"}, {"bytes": "a2"}, {"bytes": "a3"}
			]},
			%s
		]}`,
		owner,
		token,
		halfParts[0],
		halfParts[1],
		halfParts[2],
		fullNode,
		statusNode,
	))
}

func bidDatumJSON(
	owner string,
	pointer string,
	token string,
) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"constructor": 0, "fields": [
			{"bytes": %q},
			{"constructor": 0, "fields": [
				{"bytes": "0a"}, {"bytes": "0b"}
			]},
			{"bytes": %q},
			{"bytes": %q}
		]}`,
		owner,
		pointer,
		token,
	))
}

func TestListAllListings(t *testing.T) {
	client := &fakeClient{
		utxosByAddress: map[string][]chainquery.Utxo{
			testListingAddr: {
				{
					TxHash:      "tx1",
					Address:     testListingAddr,
					OutputIndex: 0,
					InlineDatumJSON: listingDatumJSON(
						"ee",
						"cafe",
						[3]string{"11", "22", "44"},
						nil,
						false,
					),
					Assets: []chainquery.Asset{
						{
							PolicyID: testListingPolicy,
							NameHex:  "cafe",
							Amount:   1,
						},
					},
				},
			},
		},
		details: []chainquery.TxDetails{
			{TxHash: "tx1", BlockHeight: 100, BlockTime: 1690000000},
		},
		metadata: map[string]map[string]json.RawMessage{
			"tx1": {
				MetadataLabel: json.RawMessage(
					`{"description": "rare item", "price": 5000000, "storage": "ipfs://x"}`,
				),
			},
		},
	}
	market := testMarket(client)
	listings, err := market.ListAllListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	listing := listings[0]
	assert.Equal(t, "tx1", listing.TxHash)
	assert.Equal(t, "cafe", listing.TokenName)
	assert.Equal(t, DisplayStatusActive, listing.Status)
	assert.Equal(t, int64(1690000000), listing.CreatedAt)
	assert.Equal(t, "rare item", listing.Metadata.Description)
	assert.Equal(t, "5000000", listing.Metadata.Price)
	assert.Equal(t, "ipfs://x", listing.Metadata.Storage)
	assert.NotEmpty(t, listing.Fingerprint)
}

func TestListAllListingsSkipsMalformed(t *testing.T) {
	// One well-formed listing, one with a truncated datum, one
	// with no datum at all. The batch returns the good record.
	client := &fakeClient{
		utxosByAddress: map[string][]chainquery.Utxo{
			testListingAddr: {
				{
					TxHash: "txbad1",
					InlineDatumJSON: json.RawMessage(
						`{"constructor": 0, "fields": [{"bytes": "ee"}]}`,
					),
				},
				{
					TxHash: "txgood",
					InlineDatumJSON: listingDatumJSON(
						"ee",
						"cafe",
						[3]string{"11", "22", "44"},
						nil,
						false,
					),
				},
				{TxHash: "txbad2"},
			},
		},
	}
	market := testMarket(client)
	listings, err := market.ListAllListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "txgood", listings[0].TxHash)
}

func TestListAllListingsFetchError(t *testing.T) {
	client := &fakeClient{
		utxosErr: chainquery.NewClientError(
			"http://indexer",
			500,
			"boom",
		),
	}
	market := testMarket(client)
	_, err := market.ListAllListings(context.Background())
	require.Error(t, err)
	var clientErr chainquery.ClientError
	assert.ErrorAs(t, err, &clientErr)
}

func TestListingTokenNameFallback(t *testing.T) {
	// No attached assets match the policy, so the token name
	// comes from the datum
	client := &fakeClient{
		utxosByAddress: map[string][]chainquery.Utxo{
			testListingAddr: {
				{
					TxHash: "tx1",
					InlineDatumJSON: listingDatumJSON(
						"ee",
						"cafe",
						[3]string{"11", "22", "44"},
						nil,
						false,
					),
				},
			},
		},
	}
	market := testMarket(client)
	listings, err := market.ListAllListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "cafe", listings[0].TokenName)
}

func TestListingPendingStatus(t *testing.T) {
	client := &fakeClient{
		utxosByAddress: map[string][]chainquery.Utxo{
			testListingAddr: {
				{
					TxHash: "tx1",
					InlineDatumJSON: listingDatumJSON(
						"ee",
						"cafe",
						[3]string{"11", "22", "44"},
						nil,
						true,
					),
				},
			},
		},
	}
	market := testMarket(client)
	listings, err := market.ListAllListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, DisplayStatusPending, listings[0].Status)
}

func TestGetListingByToken(t *testing.T) {
	client := &fakeClient{
		utxosByAddress: map[string][]chainquery.Utxo{
			testListingAddr: {
				{
					TxHash: "tx1",
					InlineDatumJSON: listingDatumJSON(
						"ee",
						"cafe",
						[3]string{"11", "22", "44"},
						nil,
						false,
					),
				},
			},
		},
	}
	market := testMarket(client)
	listing, err := market.GetListingByToken(
		context.Background(),
		"cafe",
	)
	require.NoError(t, err)
	assert.Equal(t, "tx1", listing.TxHash)

	_, err = market.GetListingByToken(
		context.Background(),
		"beef",
	)
	var notFoundErr ListingNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "beef", notFoundErr.TokenName)
}

func TestListAllBids(t *testing.T) {
	client := &fakeClient{
		utxosByAddress: map[string][]chainquery.Utxo{
			testBidAddr: {
				{
					TxHash:   "txb1",
					Lovelace: 5_000_000,
					InlineDatumJSON: bidDatumJSON(
						"ee",
						"b1d0",
						"cafe",
					),
				},
			},
		},
		details: []chainquery.TxDetails{
			{TxHash: "txb1", BlockHeight: 90, BlockTime: 1680000000},
		},
	}
	market := testMarket(client)
	bids, err := market.ListAllBids(context.Background())
	require.NoError(t, err)
	require.Len(t, bids, 1)
	bid := bids[0]
	// The bid amount is the locked lovelace, not a datum field
	assert.Equal(t, uint64(5_000_000), bid.Amount)
	assert.Equal(t, DisplayStatusPending, bid.Status)
	assert.Equal(t, "b1d0", bid.TokenName)
	assert.Equal(t, "cafe", bid.ListingToken)
	assert.Equal(t, int64(1680000000), bid.CreatedAt)
}

func TestBidFiltering(t *testing.T) {
	client := &fakeClient{
		utxosByAddress: map[string][]chainquery.Utxo{
			testBidAddr: {
				{
					TxHash: "txb1",
					InlineDatumJSON: bidDatumJSON(
						"ee",
						"b1d0",
						"cafe",
					),
				},
				{
					TxHash: "txb2",
					InlineDatumJSON: bidDatumJSON(
						"ff",
						"b1d1",
						"cafe",
					),
				},
				{
					TxHash: "txb3",
					InlineDatumJSON: bidDatumJSON(
						"ee",
						"b1d2",
						"beef",
					),
				},
			},
		},
	}
	market := testMarket(client)

	byUser, err := market.GetBidsByUser(
		context.Background(),
		"ee",
	)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	for _, bid := range byUser {
		assert.Equal(t, "ee", bid.Datum.OwnerKeyHash)
	}

	forListing, err := market.GetBidsForListing(
		context.Background(),
		"cafe",
	)
	require.NoError(t, err)
	require.Len(t, forListing, 2)
	for _, bid := range forListing {
		assert.Equal(t, "cafe", bid.ListingToken)
	}
}

func TestMetadataFailureDoesNotDropListing(t *testing.T) {
	client := &fakeClient{
		utxosByAddress: map[string][]chainquery.Utxo{
			testListingAddr: {
				{
					TxHash: "tx1",
					InlineDatumJSON: listingDatumJSON(
						"ee",
						"cafe",
						[3]string{"11", "22", "44"},
						nil,
						false,
					),
				},
			},
		},
		metadataErr: chainquery.NewClientError(
			"http://indexer",
			500,
			"boom",
		),
	}
	market := testMarket(client)
	listings, err := market.ListAllListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, OffchainMetadata{}, listings[0].Metadata)
}

func TestAssetFingerprint(t *testing.T) {
	// CIP-14 test vector
	assert.Equal(
		t,
		"asset1rjklcrnsdzqp65wjgrg55sy9723kw09mlgvlc3",
		assetFingerprint(testListingPolicy, ""),
	)
	assert.Equal(t, "", assetFingerprint("zz", ""))
}
