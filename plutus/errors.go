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

package plutus

import (
	"fmt"
)

// MalformedInputError indicates the decoder hit truncated or invalid
// bytes. Offset is the position of the data item whose encoding could
// not be decoded.
type MalformedInputError struct {
	What   string
	Offset int
}

func NewMalformedInputError(
	offset int,
	what string,
) MalformedInputError {
	return MalformedInputError{
		Offset: offset,
		What:   what,
	}
}

func (e MalformedInputError) Error() string {
	return fmt.Sprintf(
		"malformed input at offset %d: %s",
		e.Offset,
		e.What,
	)
}

// UnexpectedShapeError indicates a constructor tag whose content did
// not have the expected shape (e.g. a non-list child, or a malformed
// tag 102 pair).
type UnexpectedShapeError struct {
	What   string
	Tag    uint64
	Offset int
}

func NewUnexpectedShapeError(
	tag uint64,
	offset int,
	what string,
) UnexpectedShapeError {
	return UnexpectedShapeError{
		Tag:    tag,
		Offset: offset,
		What:   what,
	}
}

func (e UnexpectedShapeError) Error() string {
	return fmt.Sprintf(
		"unexpected shape for tag %d at offset %d: %s",
		e.Tag,
		e.Offset,
		e.What,
	)
}
