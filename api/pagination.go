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
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 100
	orderAsc        = "asc"
	orderDesc       = "desc"

	headerCountTotal = "X-Pagination-Count-Total"
	headerPageTotal  = "X-Pagination-Page-Total"
)

var ErrInvalidPagination = errors.New("invalid pagination parameters")

// pageParams holds the count/page/order query values of a list endpoint
type pageParams struct {
	count int
	page  int
	order string
}

// parsePageParams reads count, page and order, clamping count to
// 1..MaxPageSize and page to at least 1
func parsePageParams(r *http.Request) (pageParams, error) {
	params := pageParams{
		count: DefaultPageSize,
		page:  1,
		order: orderAsc,
	}
	query := r.URL.Query()
	if v := query.Get("count"); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil {
			return pageParams{}, ErrInvalidPagination
		}
		params.count = min(max(count, 1), MaxPageSize)
	}
	if v := query.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return pageParams{}, ErrInvalidPagination
		}
		params.page = max(page, 1)
	}
	if v := query.Get("order"); v != "" {
		switch order := strings.ToLower(v); order {
		case orderAsc, orderDesc:
			params.order = order
		default:
			return pageParams{}, ErrInvalidPagination
		}
	}
	return params, nil
}

// paginate returns the requested page of items in wallet order, or reversed
// for order=desc, and sets the total count headers. A page past the end is
// empty, never nil.
func paginate[T any](w http.ResponseWriter, items []T, params pageParams) []T {
	total := len(items)
	pages := (total + params.count - 1) / params.count
	w.Header().Set(headerCountTotal, strconv.Itoa(total))
	w.Header().Set(headerPageTotal, strconv.Itoa(pages))
	if params.order == orderDesc {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	start := (params.page - 1) * params.count
	if start >= total {
		return []T{}
	}
	end := min(start+params.count, total)
	return items[start:end]
}
