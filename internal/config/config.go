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

package config

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ouroboros "github.com/blinklabs-io/gouroboros"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "souk.config"

const DefaultShutdownTimeout = "30s"

// Minting policy IDs are blake2b-224 script hashes
const policyIDBytes = 28

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	Network             string `yaml:"network"`
	BlockfrostURL       string `yaml:"blockfrostUrl"       split_words:"true"`
	BlockfrostProjectID string `yaml:"blockfrostProjectId" envconfig:"BLOCKFROST_PROJECT_ID"`
	ListingPolicyID     string `yaml:"listingPolicyId"     envconfig:"LISTING_POLICY_ID"`
	BidPolicyID         string `yaml:"bidPolicyId"         envconfig:"BID_POLICY_ID"`
	ListingAddress      string `yaml:"listingAddress"                                        split_words:"true"`
	BidAddress          string `yaml:"bidAddress"                                            split_words:"true"`
	ApiListenAddress    string `yaml:"apiListenAddress"    envconfig:"API_LISTEN_ADDRESS"`
	QueryTimeout        string `yaml:"queryTimeout"                                          split_words:"true"`
	ShutdownTimeout     string `yaml:"shutdownTimeout"                                       split_words:"true"`
	Tracing             bool   `yaml:"tracing"`
	TracingStdout       bool   `yaml:"tracingStdout"       split_words:"true"`
}

var globalConfig = &Config{
	Network:          "preview",
	ApiListenAddress: ":3000",
	QueryTimeout:     "30s",
	ShutdownTimeout:  DefaultShutdownTimeout,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.souk/souk.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".souk", "souk.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/souk/souk.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/souk/souk.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf(
				"error reading config file: %w",
				err,
			)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf(
				"error parsing config file: %w",
				err,
			)
		}
	}

	// Process environment variables
	if err := envconfig.Process("souk", globalConfig); err != nil {
		return nil, fmt.Errorf(
			"error processing environment: %w",
			err,
		)
	}

	// Fill in the Blockfrost URL from the named network when not
	// given explicitly
	if globalConfig.BlockfrostURL == "" {
		globalConfig.BlockfrostURL = fmt.Sprintf(
			"https://cardano-%s.blockfrost.io/api/v0",
			globalConfig.Network,
		)
	}

	return globalConfig, nil
}

// Validate checks that the configured network, policy IDs, and
// contract addresses are well formed before anything connects to the
// chain-query service.
func (c *Config) Validate() error {
	if _, ok := ouroboros.NetworkByName(c.Network); !ok {
		return fmt.Errorf("unknown network name: %s", c.Network)
	}
	if c.BlockfrostProjectID == "" {
		return errors.New("no Blockfrost project ID configured")
	}
	for _, policy := range []struct {
		name string
		id   string
	}{
		{"listing", c.ListingPolicyID},
		{"bid", c.BidPolicyID},
	} {
		name, policyID := policy.name, policy.id
		raw, err := hex.DecodeString(policyID)
		if err != nil {
			return fmt.Errorf(
				"%s policy ID is not hex-encoded: %w",
				name,
				err,
			)
		}
		if len(raw) != policyIDBytes {
			return fmt.Errorf(
				"%s policy ID must be %d bytes, got %d",
				name,
				policyIDBytes,
				len(raw),
			)
		}
	}
	for _, addr := range []struct {
		name  string
		value string
	}{
		{"listing", c.ListingAddress},
		{"bid", c.BidAddress},
	} {
		name, address := addr.name, addr.value
		if address == "" {
			return fmt.Errorf(
				"no %s contract address configured",
				name,
			)
		}
		if _, err := lcommon.NewAddress(address); err != nil {
			return fmt.Errorf(
				"invalid %s contract address: %w",
				name,
				err,
			)
		}
	}
	return nil
}
