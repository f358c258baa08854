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

// Package marketplace maps decoded Plutus data onto the typed
// marketplace domain model, aggregates UTxOs into display records,
// and reconstructs encryption-level history for resold items.
//
// The wire format carries no field names, so each record is
// destructured by position exactly once, here at the boundary. No
// code beyond this package should index into a structured-data tree
// by position again.
package marketplace

import (
	"fmt"

	"github.com/blinklabs-io/souk/plutus"
)

// Register is an owner's verifiable public identity: a discrete-log
// style public key pair over BLS12-381 G1. Both elements are
// hex-encoded compressed points.
type Register struct {
	Generator   string
	PublicValue string
}

// Capsule is the ciphertext container for a listing's encrypted
// payload. All fields are hex-encoded.
type Capsule struct {
	Nonce          string
	AssociatedData string
	Ciphertext     string
}

// HalfLevel is the key-rotation material published with a listing's
// creation and every subsequent rotation. Fields are hex-encoded.
type HalfLevel struct {
	R1   string
	R2G1 string
	R4   string
}

// FullLevel is the completed key-rotation material, published once
// per rotation, one step behind the half level it accompanies.
// Fields are hex-encoded.
type FullLevel struct {
	R1   string
	R2G1 string
	R2G2 string
	R4   string
}

// StatusKind enumerates the listing status alternatives.
type StatusKind int

const (
	StatusOpen StatusKind = iota
	StatusPending
)

func (k StatusKind) String() string {
	switch k {
	case StatusOpen:
		return "open"
	case StatusPending:
		return "pending"
	default:
		return fmt.Sprintf("unknown (%d)", int(k))
	}
}

// Status is a listing's on-chain sale state. PublicInputs and
// Deadline are only populated for StatusPending.
type Status struct {
	PublicInputs []string
	Deadline     int64
	Kind         StatusKind
}

// ListingDatum is the typed form of a listing UTxO's inline datum.
// Byte fields are hex-encoded at this boundary.
type ListingDatum struct {
	OwnerKeyHash string
	Owner        Register
	TokenName    string
	HalfLevel    HalfLevel
	// FullLevel is nil until a sale completes a second rotation
	FullLevel *FullLevel
	Capsule    Capsule
	Status     Status
}

// BidDatum is the typed form of a bid UTxO's inline datum.
//
// Pointer and Token are easy to transpose: Pointer is the bid's own
// token name (validated on-chain to equal the minted token name),
// while Token references the listing the bid targets. They are never
// interchangeable.
type BidDatum struct {
	OwnerKeyHash string
	Owner        Register
	Pointer      string
	Token        string
}

const (
	listingDatumArity = 7
	bidDatumArity     = 4
)

// ParseListingDatum maps a structured-data tree onto a ListingDatum.
// The root must be constructor 0 with exactly 7 fields.
func ParseListingDatum(data plutus.Data) (ListingDatum, error) {
	fields, err := constrFields(
		data,
		0,
		listingDatumArity,
		"listing",
	)
	if err != nil {
		return ListingDatum{}, err
	}
	ownerKeyHash, err := bytesField(fields[0], "listing.owner")
	if err != nil {
		return ListingDatum{}, err
	}
	owner, err := parseRegister(fields[1], "listing.register")
	if err != nil {
		return ListingDatum{}, err
	}
	tokenName, err := bytesField(fields[2], "listing.token")
	if err != nil {
		return ListingDatum{}, err
	}
	halfLevel, err := parseHalfLevel(
		fields[3],
		"listing.half_level",
	)
	if err != nil {
		return ListingDatum{}, err
	}
	fullLevel, err := parseOptionalFullLevel(
		fields[4],
		"listing.full_level",
	)
	if err != nil {
		return ListingDatum{}, err
	}
	capsule, err := parseCapsule(fields[5], "listing.capsule")
	if err != nil {
		return ListingDatum{}, err
	}
	status, err := parseStatus(fields[6], "listing.status")
	if err != nil {
		return ListingDatum{}, err
	}
	return ListingDatum{
		OwnerKeyHash: ownerKeyHash,
		Owner:        owner,
		TokenName:    tokenName,
		HalfLevel:    halfLevel,
		FullLevel:    fullLevel,
		Capsule:      capsule,
		Status:       status,
	}, nil
}

// ParseBidDatum maps a structured-data tree onto a BidDatum. The root
// must be constructor 0 with exactly 4 fields.
func ParseBidDatum(data plutus.Data) (BidDatum, error) {
	fields, err := constrFields(data, 0, bidDatumArity, "bid")
	if err != nil {
		return BidDatum{}, err
	}
	ownerKeyHash, err := bytesField(fields[0], "bid.owner")
	if err != nil {
		return BidDatum{}, err
	}
	owner, err := parseRegister(fields[1], "bid.register")
	if err != nil {
		return BidDatum{}, err
	}
	pointer, err := bytesField(fields[2], "bid.pointer")
	if err != nil {
		return BidDatum{}, err
	}
	token, err := bytesField(fields[3], "bid.token")
	if err != nil {
		return BidDatum{}, err
	}
	return BidDatum{
		OwnerKeyHash: ownerKeyHash,
		Owner:        owner,
		Pointer:      pointer,
		Token:        token,
	}, nil
}

func parseRegister(
	data plutus.Data,
	path string,
) (Register, error) {
	fields, err := constrFields(data, 0, 2, path)
	if err != nil {
		return Register{}, err
	}
	generator, err := bytesField(fields[0], path+".generator")
	if err != nil {
		return Register{}, err
	}
	publicValue, err := bytesField(fields[1], path+".value")
	if err != nil {
		return Register{}, err
	}
	return Register{
		Generator:   generator,
		PublicValue: publicValue,
	}, nil
}

func parseHalfLevel(
	data plutus.Data,
	path string,
) (HalfLevel, error) {
	fields, err := constrFields(data, 0, 3, path)
	if err != nil {
		return HalfLevel{}, err
	}
	var level HalfLevel
	for i, dst := range []*string{
		&level.R1,
		&level.R2G1,
		&level.R4,
	} {
		val, err := bytesField(
			fields[i],
			fmt.Sprintf("%s[%d]", path, i),
		)
		if err != nil {
			return HalfLevel{}, err
		}
		*dst = val
	}
	return level, nil
}

func parseFullLevel(
	data plutus.Data,
	path string,
) (FullLevel, error) {
	fields, err := constrFields(data, 0, 4, path)
	if err != nil {
		return FullLevel{}, err
	}
	var level FullLevel
	for i, dst := range []*string{
		&level.R1,
		&level.R2G1,
		&level.R2G2,
		&level.R4,
	} {
		val, err := bytesField(
			fields[i],
			fmt.Sprintf("%s[%d]", path, i),
		)
		if err != nil {
			return FullLevel{}, err
		}
		*dst = val
	}
	return level, nil
}

// parseOptionalFullLevel parses the wire-level option: constructor 0
// with one field is Some, constructor 1 with no fields is None.
func parseOptionalFullLevel(
	data plutus.Data,
	path string,
) (*FullLevel, error) {
	inner, err := parseOption(data, path)
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return nil, nil
	}
	level, err := parseFullLevel(inner, path)
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func parseOption(
	data plutus.Data,
	path string,
) (plutus.Data, error) {
	constr, ok := data.(plutus.Constructor)
	if !ok {
		return nil, NewFieldMismatchError(
			path,
			fmt.Sprintf("expected an option, got %T", data),
		)
	}
	switch constr.Index {
	case 0:
		if len(constr.Fields) != 1 {
			return nil, NewFieldMismatchError(
				path,
				fmt.Sprintf(
					"Some with %d fields",
					len(constr.Fields),
				),
			)
		}
		return constr.Fields[0], nil
	case 1:
		if len(constr.Fields) != 0 {
			return nil, NewFieldMismatchError(
				path,
				fmt.Sprintf(
					"None with %d fields",
					len(constr.Fields),
				),
			)
		}
		return nil, nil
	default:
		return nil, NewFieldMismatchError(
			path,
			fmt.Sprintf(
				"option constructor index %d outside the known set",
				constr.Index,
			),
		)
	}
}

func parseCapsule(
	data plutus.Data,
	path string,
) (Capsule, error) {
	fields, err := constrFields(data, 0, 3, path)
	if err != nil {
		return Capsule{}, err
	}
	nonce, err := bytesField(fields[0], path+".nonce")
	if err != nil {
		return Capsule{}, err
	}
	aad, err := bytesField(fields[1], path+".aad")
	if err != nil {
		return Capsule{}, err
	}
	ciphertext, err := bytesField(fields[2], path+".ciphertext")
	if err != nil {
		return Capsule{}, err
	}
	return Capsule{
		Nonce:          nonce,
		AssociatedData: aad,
		Ciphertext:     ciphertext,
	}, nil
}

// parseStatus maps the status alternative: index 0 is Open, index 1
// is Pending carrying a public-proof-input list and a deadline
// timestamp. Any other index fails.
func parseStatus(
	data plutus.Data,
	path string,
) (Status, error) {
	constr, ok := data.(plutus.Constructor)
	if !ok {
		return Status{}, NewFieldMismatchError(
			path,
			fmt.Sprintf("expected a status, got %T", data),
		)
	}
	switch constr.Index {
	case 0:
		return Status{Kind: StatusOpen}, nil
	case 1:
		if len(constr.Fields) != 2 {
			return Status{}, NewFieldMismatchError(
				path,
				fmt.Sprintf(
					"Pending with %d fields",
					len(constr.Fields),
				),
			)
		}
		inputList, ok := constr.Fields[0].(plutus.List)
		if !ok {
			return Status{}, NewFieldMismatchError(
				path+".public_inputs",
				fmt.Sprintf(
					"expected a list, got %T",
					constr.Fields[0],
				),
			)
		}
		publicInputs := make([]string, 0, len(inputList))
		for i, item := range inputList {
			input, err := bytesField(
				item,
				fmt.Sprintf(
					"%s.public_inputs[%d]",
					path,
					i,
				),
			)
			if err != nil {
				return Status{}, err
			}
			publicInputs = append(publicInputs, input)
		}
		deadline, err := intField(
			constr.Fields[1],
			path+".deadline",
		)
		if err != nil {
			return Status{}, err
		}
		return Status{
			Kind:         StatusPending,
			PublicInputs: publicInputs,
			Deadline:     deadline,
		}, nil
	default:
		return Status{}, NewFieldMismatchError(
			path,
			fmt.Sprintf(
				"status constructor index %d outside the known set",
				constr.Index,
			),
		)
	}
}

// constrFields requires data to be a constructor with the given index
// and exact field count, returning its fields. A negative arity skips
// the field count check.
func constrFields(
	data plutus.Data,
	wantIndex uint64,
	wantArity int,
	path string,
) ([]plutus.Data, error) {
	constr, ok := data.(plutus.Constructor)
	if !ok {
		return nil, NewFieldMismatchError(
			path,
			fmt.Sprintf("expected a constructor, got %T", data),
		)
	}
	if constr.Index != wantIndex {
		return nil, NewFieldMismatchError(
			path,
			fmt.Sprintf(
				"constructor index %d, expected %d",
				constr.Index,
				wantIndex,
			),
		)
	}
	if wantArity >= 0 && len(constr.Fields) != wantArity {
		return nil, NewFieldMismatchError(
			path,
			fmt.Sprintf(
				"%d fields, expected %d",
				len(constr.Fields),
				wantArity,
			),
		)
	}
	return constr.Fields, nil
}

func bytesField(
	data plutus.Data,
	path string,
) (string, error) {
	bytesItem, ok := data.(plutus.Bytes)
	if !ok {
		return "", NewFieldMismatchError(
			path,
			fmt.Sprintf("expected bytes, got %T", data),
		)
	}
	return bytesItem.Hex(), nil
}

func intField(
	data plutus.Data,
	path string,
) (int64, error) {
	intItem, ok := data.(plutus.Int)
	if !ok {
		return 0, NewFieldMismatchError(
			path,
			fmt.Sprintf("expected an integer, got %T", data),
		)
	}
	val, fits := intItem.Int64()
	if !fits {
		return 0, NewFieldMismatchError(
			path,
			"integer does not fit in 64 bits",
		)
	}
	return val, nil
}
