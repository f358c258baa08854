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
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/blinklabs-io/souk/chainquery"
	"github.com/blinklabs-io/souk/plutus"
)

// LevelKind distinguishes half from full key-rotation entries.
type LevelKind int

const (
	LevelHalf LevelKind = iota
	LevelFull
)

func (k LevelKind) String() string {
	switch k {
	case LevelHalf:
		return "half"
	case LevelFull:
		return "full"
	default:
		return fmt.Sprintf("unknown (%d)", int(k))
	}
}

func (k LevelKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// EncryptionLevel is one key-rotation entry reconstructed from a
// token's transaction history. Parts carries the hex-encoded key
// material in source field order: r1, r2g1, r4 for a half entry and
// r1, r2g1, r2g2, r4 for a full entry. Callers must apply entries in
// emission order and never re-sort them.
type EncryptionLevel struct {
	Parts []string  `json:"parts"`
	Kind  LevelKind `json:"kind"`
}

// Equal reports whether two entries carry byte-identical material.
func (l EncryptionLevel) Equal(other EncryptionLevel) bool {
	return l.Kind == other.Kind &&
		slices.Equal(l.Parts, other.Parts)
}

func newHalfEntry(level HalfLevel) EncryptionLevel {
	return EncryptionLevel{
		Kind:  LevelHalf,
		Parts: []string{level.R1, level.R2G1, level.R4},
	}
}

func newFullEntry(level FullLevel) EncryptionLevel {
	return EncryptionLevel{
		Kind: LevelFull,
		Parts: []string{
			level.R1,
			level.R2G1,
			level.R2G2,
			level.R4,
		},
	}
}

// ReconstructLevels walks every transaction that ever touched the
// given listing token (hex name) and extracts the ordered,
// deduplicated sequence of key-rotation entries.
//
// The walk runs newest-first by block height; this ordering is
// load-bearing. The half entry is valid only from the newest
// qualifying transaction and appears exactly once. A full entry is
// appended per qualifying transaction unless byte-identical to the
// immediately preceding appended full entry: a rotation step may
// leave the full level untouched across consecutive transactions,
// and those repeats must not appear in the output.
func (m *Market) ReconstructLevels(
	ctx context.Context,
	tokenName string,
) ([]EncryptionLevel, error) {
	ctx, span := m.tracer.Start(ctx, "ReconstructLevels")
	defer span.End()
	history, err := m.config.Client.TransactionHistory(
		ctx,
		m.config.ListingPolicyID,
		tokenName,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to fetch token history: %w",
			err,
		)
	}
	if len(history) == 0 {
		return nil, NewNoHistoryFoundError(
			m.config.ListingPolicyID,
			tokenName,
		)
	}
	txHashes := make([]string, 0, len(history))
	for _, entry := range history {
		txHashes = append(txHashes, entry.TxHash)
	}
	details, err := m.config.Client.TransactionDetails(
		ctx,
		txHashes,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to fetch transaction details: %w",
			err,
		)
	}
	// Newest first
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].BlockHeight > details[j].BlockHeight
	})
	var levels []EncryptionLevel
	var lastFull *EncryptionLevel
	haveNewest := false
	for _, tx := range details {
		halfLevel, fullLevel, found := m.extractLevels(tx)
		if !found {
			continue
		}
		if !haveNewest {
			haveNewest = true
			levels = append(levels, newHalfEntry(halfLevel))
			m.metrics.levelsEmitted.Inc()
		}
		if fullLevel == nil {
			continue
		}
		entry := newFullEntry(*fullLevel)
		if lastFull != nil && entry.Equal(*lastFull) {
			continue
		}
		levels = append(levels, entry)
		lastFull = &entry
		m.metrics.levelsEmitted.Inc()
	}
	return levels, nil
}

// extractLevels locates the qualifying output within a transaction:
// the first output at the listing contract address carrying an inline
// datum with at least five positional fields. Outputs elsewhere or
// without a usable datum are skipped; extraction failures are logged
// and do not abort the walk.
func (m *Market) extractLevels(
	tx chainquery.TxDetails,
) (HalfLevel, *FullLevel, bool) {
	for _, output := range tx.Outputs {
		if output.Address != m.config.ListingAddress {
			continue
		}
		datum, err := output.Datum()
		if err != nil {
			if !errors.Is(err, chainquery.ErrNoInlineDatum) {
				m.logger.Warn(
					"failed to decode datum during level walk",
					"tx_hash", tx.TxHash,
					"error", err,
				)
			}
			continue
		}
		halfLevel, fullLevel, err := parseLevelFields(datum)
		if err != nil {
			m.logger.Warn(
				"failed to extract levels from datum",
				"tx_hash", tx.TxHash,
				"error", err,
			)
			continue
		}
		return halfLevel, fullLevel, true
	}
	return HalfLevel{}, nil, false
}

// parseLevelFields is the loose listing-datum projection used during
// the history walk: only the half and full level positions are
// required, so older or newer datum revisions with extra trailing
// fields still qualify.
func parseLevelFields(
	data plutus.Data,
) (HalfLevel, *FullLevel, error) {
	constr, ok := data.(plutus.Constructor)
	if !ok {
		return HalfLevel{}, nil, NewFieldMismatchError(
			"listing",
			fmt.Sprintf("expected a constructor, got %T", data),
		)
	}
	if constr.Index != 0 {
		return HalfLevel{}, nil, NewFieldMismatchError(
			"listing",
			fmt.Sprintf(
				"constructor index %d, expected 0",
				constr.Index,
			),
		)
	}
	if len(constr.Fields) < 5 {
		return HalfLevel{}, nil, NewFieldMismatchError(
			"listing",
			fmt.Sprintf(
				"%d fields, expected at least 5",
				len(constr.Fields),
			),
		)
	}
	halfLevel, err := parseHalfLevel(
		constr.Fields[3],
		"listing.half_level",
	)
	if err != nil {
		return HalfLevel{}, nil, err
	}
	fullLevel, err := parseOptionalFullLevel(
		constr.Fields[4],
		"listing.full_level",
	)
	if err != nil {
		return HalfLevel{}, nil, err
	}
	return halfLevel, fullLevel, nil
}
