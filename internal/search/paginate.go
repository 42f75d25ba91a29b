// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "github.com/pdiddy/bioscience-explorer/pkg/types"

// DefaultPageSize applies when Paginate receives a non-positive page size.
const DefaultPageSize = 50

// Paginate returns the 1-based page of pubs. A page outside [1, TotalPages]
// yields empty Data with HasMore false; it is not an error.
func Paginate(pubs []types.Publication, page, pageSize int) types.Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(pubs)
	meta := types.Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: total / pageSize,
	}
	if total%pageSize != 0 {
		meta.TotalPages++
	}

	if page < 1 || page > meta.TotalPages {
		return types.Page{Data: []types.Publication{}, Pagination: meta}
	}

	start := (page - 1) * pageSize
	end := start + min(pageSize, total-start)
	meta.HasMore = end < total

	return types.Page{Data: pubs[start:end], Pagination: meta}
}
