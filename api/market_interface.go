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

package api

import (
	"context"

	"github.com/blinklabs-io/souk/marketplace"
)

// MarketQuerier is the interface that the API server uses to query
// the marketplace read model. This decouples the HTTP server from the
// concrete Market struct and enables testing with mock
// implementations.
type MarketQuerier interface {
	// ListAllListings returns every live listing.
	ListAllListings(
		ctx context.Context,
	) ([]marketplace.ListingView, error)

	// GetListingByToken returns the listing carrying the given
	// token name (hex).
	GetListingByToken(
		ctx context.Context,
		tokenName string,
	) (marketplace.ListingView, error)

	// ListAllBids returns every live bid.
	ListAllBids(
		ctx context.Context,
	) ([]marketplace.BidView, error)

	// GetBidsByUser returns the live bids owned by a key hash.
	GetBidsByUser(
		ctx context.Context,
		ownerKeyHash string,
	) ([]marketplace.BidView, error)

	// GetBidsForListing returns the live bids targeting a listing
	// token name (hex).
	GetBidsForListing(
		ctx context.Context,
		tokenName string,
	) ([]marketplace.BidView, error)

	// ReconstructLevels returns the ordered key-rotation history
	// for a listing token name (hex).
	ReconstructLevels(
		ctx context.Context,
		tokenName string,
	) ([]marketplace.EncryptionLevel, error)
}
