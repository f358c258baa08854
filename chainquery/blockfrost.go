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

package chainquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	blockfrostPageSize       = 100
	blockfrostDefaultTimeout = 30 * time.Second
)

// BlockfrostConfig configures a Blockfrost-compatible API client.
type BlockfrostConfig struct {
	// BaseURL is the API root, e.g.
	// https://cardano-preprod.blockfrost.io/api/v0
	BaseURL string
	// ProjectID is the Blockfrost API key. Optional for
	// self-hosted Blockfrost-compatible services.
	ProjectID string
	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
}

// BlockfrostClient implements Client against a Blockfrost-compatible
// REST API.
type BlockfrostClient struct {
	config     BlockfrostConfig
	logger     *slog.Logger
	httpClient *http.Client
}

// NewBlockfrostClient creates a Blockfrost-backed chain-query client.
func NewBlockfrostClient(
	cfg BlockfrostConfig,
	logger *slog.Logger,
) *BlockfrostClient {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "chainquery")
	if cfg.Timeout == 0 {
		cfg.Timeout = blockfrostDefaultTimeout
	}
	return &BlockfrostClient{
		config: cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type blockfrostAmount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

type blockfrostUtxo struct {
	Address     string             `json:"address"`
	TxHash      string             `json:"tx_hash"`
	InlineDatum *string            `json:"inline_datum"`
	Amount      []blockfrostAmount `json:"amount"`
	OutputIndex uint32             `json:"output_index"`
}

type blockfrostAssetTx struct {
	TxHash      string `json:"tx_hash"`
	BlockHeight uint64 `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

type blockfrostTx struct {
	Hash        string `json:"hash"`
	BlockHeight uint64 `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

type blockfrostTxUtxos struct {
	Hash    string           `json:"hash"`
	Outputs []blockfrostUtxo `json:"outputs"`
}

type blockfrostTxMetadata struct {
	Label        string          `json:"label"`
	JSONMetadata json.RawMessage `json:"json_metadata"`
}

// UtxosAtAddress implements Client.
func (c *BlockfrostClient) UtxosAtAddress(
	ctx context.Context,
	address string,
) ([]Utxo, error) {
	var ret []Utxo
	for page := 1; ; page++ {
		var tmpUtxos []blockfrostUtxo
		err := c.get(
			ctx,
			fmt.Sprintf(
				"/addresses/%s/utxos",
				url.PathEscape(address),
			),
			page,
			&tmpUtxos,
		)
		if err != nil {
			return nil, err
		}
		for _, tmpUtxo := range tmpUtxos {
			utxo, err := convertBlockfrostUtxo(address, tmpUtxo)
			if err != nil {
				return nil, err
			}
			ret = append(ret, utxo)
		}
		if len(tmpUtxos) < blockfrostPageSize {
			break
		}
	}
	return ret, nil
}

// TransactionHistory implements Client. The full on-chain history of
// the asset is returned, including transactions whose outputs have
// since been spent. An unknown asset yields an empty history.
func (c *BlockfrostClient) TransactionHistory(
	ctx context.Context,
	policyID string,
	tokenNameHex string,
) ([]HistoryEntry, error) {
	asset := policyID + tokenNameHex
	var ret []HistoryEntry
	for page := 1; ; page++ {
		var tmpTxs []blockfrostAssetTx
		err := c.get(
			ctx,
			fmt.Sprintf(
				"/assets/%s/transactions",
				url.PathEscape(asset),
			),
			page,
			&tmpTxs,
		)
		if err != nil {
			var clientErr ClientError
			if errors.As(err, &clientErr) &&
				clientErr.StatusCode == http.StatusNotFound {
				// Asset was never minted
				return nil, nil
			}
			return nil, err
		}
		for _, tmpTx := range tmpTxs {
			ret = append(ret, HistoryEntry{
				TxHash:      tmpTx.TxHash,
				BlockHeight: tmpTx.BlockHeight,
			})
		}
		if len(tmpTxs) < blockfrostPageSize {
			break
		}
	}
	return ret, nil
}

// TransactionDetails implements Client.
func (c *BlockfrostClient) TransactionDetails(
	ctx context.Context,
	txHashes []string,
) ([]TxDetails, error) {
	ret := make([]TxDetails, 0, len(txHashes))
	for _, txHash := range txHashes {
		var tmpTx blockfrostTx
		err := c.get(
			ctx,
			"/txs/"+url.PathEscape(txHash),
			0,
			&tmpTx,
		)
		if err != nil {
			return nil, err
		}
		var tmpUtxos blockfrostTxUtxos
		err = c.get(
			ctx,
			fmt.Sprintf(
				"/txs/%s/utxos",
				url.PathEscape(txHash),
			),
			0,
			&tmpUtxos,
		)
		if err != nil {
			return nil, err
		}
		outputs := make([]TxOutput, 0, len(tmpUtxos.Outputs))
		for _, tmpOutput := range tmpUtxos.Outputs {
			output := TxOutput{
				Address: tmpOutput.Address,
			}
			if tmpOutput.InlineDatum != nil {
				output.InlineDatumHex = *tmpOutput.InlineDatum
			}
			outputs = append(outputs, output)
		}
		ret = append(ret, TxDetails{
			TxHash:      txHash,
			BlockHeight: tmpTx.BlockHeight,
			BlockTime:   tmpTx.BlockTime,
			Outputs:     outputs,
		})
	}
	return ret, nil
}

// TransactionMetadata implements Client. A transaction with no
// metadata yields an empty map.
func (c *BlockfrostClient) TransactionMetadata(
	ctx context.Context,
	txHash string,
) (map[string]json.RawMessage, error) {
	var tmpEntries []blockfrostTxMetadata
	err := c.get(
		ctx,
		fmt.Sprintf(
			"/txs/%s/metadata",
			url.PathEscape(txHash),
		),
		0,
		&tmpEntries,
	)
	if err != nil {
		var clientErr ClientError
		if errors.As(err, &clientErr) &&
			clientErr.StatusCode == http.StatusNotFound {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	ret := make(map[string]json.RawMessage, len(tmpEntries))
	for _, tmpEntry := range tmpEntries {
		ret[tmpEntry.Label] = tmpEntry.JSONMetadata
	}
	return ret, nil
}

// get performs a GET request against the API and decodes the JSON
// response body into out. A page value of 0 disables pagination
// parameters.
func (c *BlockfrostClient) get(
	ctx context.Context,
	path string,
	page int,
	out any,
) error {
	reqURL := c.config.BaseURL + path
	if page > 0 {
		reqURL += fmt.Sprintf(
			"?count=%d&page=%d",
			blockfrostPageSize,
			page,
		)
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		reqURL,
		nil,
	)
	if err != nil {
		return NewClientError(reqURL, 0, err.Error())
	}
	if c.config.ProjectID != "" {
		req.Header.Set("project_id", c.config.ProjectID)
	}
	c.logger.Debug(
		"chain query request",
		"url", reqURL,
	)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewClientError(reqURL, 0, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(
			io.LimitReader(resp.Body, 1024),
		)
		return NewClientError(
			reqURL,
			resp.StatusCode,
			string(body),
		)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewClientError(
			reqURL,
			0,
			"invalid response body: "+err.Error(),
		)
	}
	return nil
}

func convertBlockfrostUtxo(
	address string,
	tmpUtxo blockfrostUtxo,
) (Utxo, error) {
	utxo := Utxo{
		TxHash:      tmpUtxo.TxHash,
		OutputIndex: tmpUtxo.OutputIndex,
		Address:     address,
	}
	if tmpUtxo.InlineDatum != nil {
		utxo.InlineDatumHex = *tmpUtxo.InlineDatum
	}
	for _, amount := range tmpUtxo.Amount {
		quantity, err := strconv.ParseUint(
			amount.Quantity,
			10,
			64,
		)
		if err != nil {
			return Utxo{}, fmt.Errorf(
				"invalid asset quantity %q for unit %q: %w",
				amount.Quantity,
				amount.Unit,
				err,
			)
		}
		if amount.Unit == "lovelace" {
			utxo.Lovelace = quantity
			continue
		}
		// Units are policy ID (28 bytes hex) + asset name hex
		if len(amount.Unit) < 56 {
			return Utxo{}, fmt.Errorf(
				"invalid asset unit %q",
				amount.Unit,
			)
		}
		utxo.Assets = append(utxo.Assets, Asset{
			PolicyID: amount.Unit[:56],
			NameHex:  amount.Unit[56:],
			Amount:   quantity,
		})
	}
	return utxo, nil
}
