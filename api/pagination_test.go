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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationDefaultValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v0/test", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)

	assert.Equal(t, DefaultPaginationCount, params.Count)
	assert.Equal(t, DefaultPaginationPage, params.Page)
	assert.Equal(t, DefaultPaginationOrderAsc, params.Order)
}

func TestParsePaginationValid(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v0/test?count=25&page=3&order=DESC",
		nil,
	)
	params, err := ParsePagination(req)
	require.NoError(t, err)

	assert.Equal(t, 25, params.Count)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, PaginationOrderDesc, params.Order)
}

func TestParsePaginationClampBounds(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v0/test?count=999&page=0",
		nil,
	)
	params, err := ParsePagination(req)
	require.NoError(t, err)

	assert.Equal(t, MaxPaginationCount, params.Count)
	assert.Equal(t, 1, params.Page)
}

func TestParsePaginationInvalid(t *testing.T) {
	for _, target := range []string{
		"/api/v0/test?count=bogus",
		"/api/v0/test?page=bogus",
		"/api/v0/test?order=sideways",
	} {
		req := httptest.NewRequest(
			http.MethodGet,
			target,
			nil,
		)
		_, err := ParsePagination(req)
		assert.ErrorIs(
			t,
			err,
			ErrInvalidPaginationParameters,
			"target %s",
			target,
		)
	}
}

func TestSetPaginationHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SetPaginationHeaders(w, 101, PaginationParams{Count: 25})
	assert.Equal(
		t,
		"101",
		w.Header().Get("X-Pagination-Count-Total"),
	)
	assert.Equal(
		t,
		"5",
		w.Header().Get("X-Pagination-Page-Total"),
	)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page := paginate(items, PaginationParams{Count: 2, Page: 1})
	assert.Equal(t, []int{1, 2}, page)

	page = paginate(items, PaginationParams{Count: 2, Page: 3})
	assert.Equal(t, []int{5}, page)

	page = paginate(items, PaginationParams{Count: 2, Page: 4})
	assert.Empty(t, page)

	page = paginate(items, PaginationParams{
		Count: 2,
		Page:  1,
		Order: PaginationOrderDesc,
	})
	assert.Equal(t, []int{5, 4}, page)
}
