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
	"fmt"
)

// ClientError indicates the chain-query service failed or returned an
// error status. It is propagated to callers as-is; this module does
// not retry.
type ClientError struct {
	URL        string
	Message    string
	StatusCode int
}

func NewClientError(
	url string,
	statusCode int,
	message string,
) ClientError {
	return ClientError{
		URL:        url,
		StatusCode: statusCode,
		Message:    message,
	}
}

func (e ClientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf(
			"chain query failed: %s: HTTP %d: %s",
			e.URL,
			e.StatusCode,
			e.Message,
		)
	}
	return fmt.Sprintf(
		"chain query failed: %s: %s",
		e.URL,
		e.Message,
	)
}
