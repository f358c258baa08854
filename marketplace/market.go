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
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/souk/chainquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// MarketConfig wires a Market to its collaborators. The chain-query
// client is referenced, not owned: the caller manages its lifecycle,
// which keeps the market testable with a fake client.
type MarketConfig struct {
	Client       chainquery.Client
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// ListingPolicyID and BidPolicyID identify the marketplace's
	// minting policies (hex).
	ListingPolicyID string
	BidPolicyID     string
	// ListingAddress and BidAddress are the marketplace's script
	// addresses (bech32).
	ListingAddress string
	BidAddress     string
}

// Market exposes the read-side marketplace contract: listing and bid
// views aggregated from chain state, and encryption-level history
// reconstruction.
type Market struct {
	config  MarketConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics struct {
		utxosAggregated prometheus.Counter
		utxosSkipped    prometheus.Counter
		levelsEmitted   prometheus.Counter
	}
}

// NewMarket creates a Market instance.
func NewMarket(cfg MarketConfig) *Market {
	logger := cfg.Logger
	if logger == nil {
		// Default logger throws away logs so we don't need
		// guards around every log operation
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	m := &Market{
		config: cfg,
		logger: logger.With("component", "marketplace"),
		tracer: otel.Tracer("marketplace"),
	}
	promautoFactory := promauto.With(cfg.PromRegistry)
	m.metrics.utxosAggregated = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "souk_utxos_aggregated_total",
			Help: "total UTxOs aggregated into display records",
		},
	)
	m.metrics.utxosSkipped = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "souk_utxos_skipped_total",
			Help: "total malformed UTxOs skipped during aggregation",
		},
	)
	m.metrics.levelsEmitted = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "souk_levels_emitted_total",
			Help: "total encryption level entries reconstructed",
		},
	)
	return m
}

// ListAllListings aggregates every UTxO at the listing contract
// address into display records. Individually malformed UTxOs are
// logged and excluded; the batch never aborts for one bad record.
func (m *Market) ListAllListings(
	ctx context.Context,
) ([]ListingView, error) {
	ctx, span := m.tracer.Start(ctx, "ListAllListings")
	defer span.End()
	utxos, err := m.config.Client.UtxosAtAddress(
		ctx,
		m.config.ListingAddress,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to fetch listing UTxOs: %w",
			err,
		)
	}
	blockTimes := m.fetchBlockTimes(ctx, utxos)
	ret := make([]ListingView, 0, len(utxos))
	for _, utxo := range utxos {
		view, err := m.buildListing(ctx, utxo, blockTimes)
		if err != nil {
			m.logger.Warn(
				"skipping malformed listing UTxO",
				"tx_hash", utxo.TxHash,
				"output_index", utxo.OutputIndex,
				"error", err,
			)
			m.metrics.utxosSkipped.Inc()
			continue
		}
		ret = append(ret, view)
		m.metrics.utxosAggregated.Inc()
	}
	return ret, nil
}

// GetListingByToken returns the listing whose resolved token name
// matches tokenName (hex). A missing listing is a typed failure.
func (m *Market) GetListingByToken(
	ctx context.Context,
	tokenName string,
) (ListingView, error) {
	ctx, span := m.tracer.Start(ctx, "GetListingByToken")
	defer span.End()
	listings, err := m.ListAllListings(ctx)
	if err != nil {
		return ListingView{}, err
	}
	for _, listing := range listings {
		if listing.TokenName == tokenName {
			return listing, nil
		}
	}
	return ListingView{}, NewListingNotFoundError(tokenName)
}

// ListAllBids aggregates every UTxO at the bid contract address into
// display records, with the same per-record failure isolation as
// ListAllListings.
func (m *Market) ListAllBids(
	ctx context.Context,
) ([]BidView, error) {
	ctx, span := m.tracer.Start(ctx, "ListAllBids")
	defer span.End()
	utxos, err := m.config.Client.UtxosAtAddress(
		ctx,
		m.config.BidAddress,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to fetch bid UTxOs: %w",
			err,
		)
	}
	blockTimes := m.fetchBlockTimes(ctx, utxos)
	ret := make([]BidView, 0, len(utxos))
	for _, utxo := range utxos {
		datum, err := utxo.Datum()
		if err == nil {
			var bidDatum BidDatum
			bidDatum, err = ParseBidDatum(datum)
			if err == nil {
				ret = append(ret, buildBidView(
					utxo,
					bidDatum,
					m.config.BidPolicyID,
					blockTimes[utxo.TxHash],
				))
				m.metrics.utxosAggregated.Inc()
				continue
			}
		}
		m.logger.Warn(
			"skipping malformed bid UTxO",
			"tx_hash", utxo.TxHash,
			"output_index", utxo.OutputIndex,
			"error", err,
		)
		m.metrics.utxosSkipped.Inc()
	}
	return ret, nil
}

// GetBidsByUser returns the live bids owned by the given key hash.
func (m *Market) GetBidsByUser(
	ctx context.Context,
	ownerKeyHash string,
) ([]BidView, error) {
	ctx, span := m.tracer.Start(ctx, "GetBidsByUser")
	defer span.End()
	bids, err := m.ListAllBids(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]BidView, 0, len(bids))
	for _, bid := range bids {
		if bid.Datum.OwnerKeyHash == ownerKeyHash {
			ret = append(ret, bid)
		}
	}
	return ret, nil
}

// GetBidsForListing returns the live bids targeting the given listing
// token name (hex). The match is on the datum's token field, not the
// bid's own pointer.
func (m *Market) GetBidsForListing(
	ctx context.Context,
	tokenName string,
) ([]BidView, error) {
	ctx, span := m.tracer.Start(ctx, "GetBidsForListing")
	defer span.End()
	bids, err := m.ListAllBids(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]BidView, 0, len(bids))
	for _, bid := range bids {
		if bid.Datum.Token == tokenName {
			ret = append(ret, bid)
		}
	}
	return ret, nil
}

// buildListing parses a single listing UTxO and enriches it with
// off-chain metadata.
func (m *Market) buildListing(
	ctx context.Context,
	utxo chainquery.Utxo,
	blockTimes map[string]int64,
) (ListingView, error) {
	datum, err := utxo.Datum()
	if err != nil {
		return ListingView{}, err
	}
	listingDatum, err := ParseListingDatum(datum)
	if err != nil {
		return ListingView{}, err
	}
	// Metadata enrichment failures don't invalidate the listing
	var metadata OffchainMetadata
	entries, err := m.config.Client.TransactionMetadata(
		ctx,
		utxo.TxHash,
	)
	if err != nil {
		m.logger.Warn(
			"failed to fetch listing metadata",
			"tx_hash", utxo.TxHash,
			"error", err,
		)
	} else {
		metadata, err = parseOffchainMetadata(entries)
		if err != nil {
			m.logger.Warn(
				"failed to parse listing metadata",
				"tx_hash", utxo.TxHash,
				"error", err,
			)
		}
	}
	return buildListingView(
		utxo,
		listingDatum,
		m.config.ListingPolicyID,
		blockTimes[utxo.TxHash],
		metadata,
	), nil
}

// fetchBlockTimes batch-fetches creation times for the transactions
// behind a UTxO set. Failures degrade to missing creation times
// rather than failing the batch.
func (m *Market) fetchBlockTimes(
	ctx context.Context,
	utxos []chainquery.Utxo,
) map[string]int64 {
	if len(utxos) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(utxos))
	txHashes := make([]string, 0, len(utxos))
	for _, utxo := range utxos {
		if !seen[utxo.TxHash] {
			seen[utxo.TxHash] = true
			txHashes = append(txHashes, utxo.TxHash)
		}
	}
	details, err := m.config.Client.TransactionDetails(
		ctx,
		txHashes,
	)
	if err != nil {
		m.logger.Warn(
			"failed to fetch transaction details for creation times",
			"error", err,
		)
		return nil
	}
	ret := make(map[string]int64, len(details))
	for _, detail := range details {
		ret[detail.TxHash] = detail.BlockTime
	}
	return ret
}
