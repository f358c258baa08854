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
	"fmt"
)

// FieldMismatchError indicates a datum whose field count, field type,
// or nested constructor index fell outside the known set. Path names
// the field position that failed, e.g. "listing.status".
type FieldMismatchError struct {
	Path string
	What string
}

func NewFieldMismatchError(
	path string,
	what string,
) FieldMismatchError {
	return FieldMismatchError{
		Path: path,
		What: what,
	}
}

func (e FieldMismatchError) Error() string {
	return fmt.Sprintf(
		"field mismatch at %s: %s",
		e.Path,
		e.What,
	)
}

// NoHistoryFoundError indicates a token with no recorded on-chain
// transactions. Fatal to a level-reconstruction call.
type NoHistoryFoundError struct {
	PolicyID  string
	TokenName string
}

func NewNoHistoryFoundError(
	policyID string,
	tokenName string,
) NoHistoryFoundError {
	return NoHistoryFoundError{
		PolicyID:  policyID,
		TokenName: tokenName,
	}
}

func (e NoHistoryFoundError) Error() string {
	return fmt.Sprintf(
		"no transaction history found for token %s.%s",
		e.PolicyID,
		e.TokenName,
	)
}

// ListingNotFoundError indicates no live listing carries the given
// token name.
type ListingNotFoundError struct {
	TokenName string
}

func NewListingNotFoundError(
	tokenName string,
) ListingNotFoundError {
	return ListingNotFoundError{
		TokenName: tokenName,
	}
}

func (e ListingNotFoundError) Error() string {
	return fmt.Sprintf(
		"no listing found for token %s",
		e.TokenName,
	)
}
