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
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blinklabs-io/souk/chainquery"
	"github.com/blinklabs-io/souk/marketplace"
)

const apiVersion = "0.1.0"

// writeJSON writes a JSON response with the given status code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error-envelope response.
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// writeMarketError maps marketplace and chain-query failures onto
// HTTP statuses: missing records are 404, upstream indexer failures
// are 502, everything else is 500.
func (a *Api) writeMarketError(
	w http.ResponseWriter,
	err error,
	message string,
) {
	var notFoundListing marketplace.ListingNotFoundError
	var notFoundHistory marketplace.NoHistoryFoundError
	var clientErr chainquery.ClientError
	switch {
	case errors.As(err, &notFoundListing),
		errors.As(err, &notFoundHistory):
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			err.Error(),
		)
	case errors.As(err, &clientErr):
		a.logger.Error(message, "error", err)
		writeError(
			w,
			http.StatusBadGateway,
			"Bad Gateway",
			message,
		)
	default:
		a.logger.Error(message, "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			message,
		)
	}
}

// hexPathValue extracts and validates a hex-encoded path parameter.
// The empty return signals an already-written 400 response.
func hexPathValue(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (string, bool) {
	val := r.PathValue(name)
	if _, err := hex.DecodeString(val); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			name+" must be hex-encoded",
		)
		return "", false
	}
	return val, true
}

// handleRoot handles GET / and returns API metadata.
func (a *Api) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		URL:     "https://blinklabs.io/",
		Version: apiVersion,
	})
}

// handleHealth handles GET /health.
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleListings handles GET /api/v0/listings and returns the live
// listing set.
func (a *Api) handleListings(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	listings, err := a.market.ListAllListings(r.Context())
	if err != nil {
		a.writeMarketError(
			w,
			err,
			"failed to retrieve listings",
		)
		return
	}
	SetPaginationHeaders(w, len(listings), params)
	writeJSON(w, http.StatusOK, paginate(listings, params))
}

// handleListingByToken handles GET /api/v0/listings/{token}.
func (a *Api) handleListingByToken(
	w http.ResponseWriter,
	r *http.Request,
) {
	token, ok := hexPathValue(w, r, "token")
	if !ok {
		return
	}
	listing, err := a.market.GetListingByToken(
		r.Context(),
		token,
	)
	if err != nil {
		a.writeMarketError(
			w,
			err,
			"failed to retrieve listing",
		)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// handleListingBids handles GET /api/v0/listings/{token}/bids and
// returns the live bids targeting a listing.
func (a *Api) handleListingBids(
	w http.ResponseWriter,
	r *http.Request,
) {
	token, ok := hexPathValue(w, r, "token")
	if !ok {
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	bids, err := a.market.GetBidsForListing(
		r.Context(),
		token,
	)
	if err != nil {
		a.writeMarketError(
			w,
			err,
			"failed to retrieve listing bids",
		)
		return
	}
	SetPaginationHeaders(w, len(bids), params)
	writeJSON(w, http.StatusOK, paginate(bids, params))
}

// handleListingLevels handles GET /api/v0/listings/{token}/levels
// and returns the reconstructed key-rotation history. Entry order is
// part of the contract and is returned exactly as reconstructed.
func (a *Api) handleListingLevels(
	w http.ResponseWriter,
	r *http.Request,
) {
	token, ok := hexPathValue(w, r, "token")
	if !ok {
		return
	}
	levels, err := a.market.ReconstructLevels(
		r.Context(),
		token,
	)
	if err != nil {
		a.writeMarketError(
			w,
			err,
			"failed to reconstruct levels",
		)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

// handleBids handles GET /api/v0/bids and returns the live bid set.
func (a *Api) handleBids(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	bids, err := a.market.ListAllBids(r.Context())
	if err != nil {
		a.writeMarketError(
			w,
			err,
			"failed to retrieve bids",
		)
		return
	}
	SetPaginationHeaders(w, len(bids), params)
	writeJSON(w, http.StatusOK, paginate(bids, params))
}

// handleBidsByUser handles GET /api/v0/bids/user/{owner} and returns
// the live bids owned by a payment key hash.
func (a *Api) handleBidsByUser(
	w http.ResponseWriter,
	r *http.Request,
) {
	owner, ok := hexPathValue(w, r, "owner")
	if !ok {
		return
	}
	bids, err := a.market.GetBidsByUser(r.Context(), owner)
	if err != nil {
		a.writeMarketError(
			w,
			err,
			"failed to retrieve user bids",
		)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}
