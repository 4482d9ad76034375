package common

import (
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Pagination is the resolved page window for a list query
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	Skip        int `json:"-"`
}

// Page wraps one page of results
type Page[T any] struct {
	List        []T `json:"list"`
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// ParsePagination reads the raw page/perPage query values. Anything missing,
// non-numeric or below one falls back to the defaults.
func ParsePagination(rawPage, rawPerPage string) Pagination {
	perPage := parsePositive(rawPerPage, DefaultPerPage)
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	page := parsePositive(rawPage, 1)

	return Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Skip:        perPage * (page - 1),
	}
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// NewPage builds the response page from a window and the total count
func NewPage[T any](list []T, p Pagination, total int) Page[T] {
	if list == nil {
		list = []T{}
	}
	totalPages := 0
	if p.PerPage > 0 {
		totalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return Page[T]{
		List:        list,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		TotalPages:  totalPages,
		TotalItems:  total,
	}
}

//   This project is the monolithic backend API for the campus services team.
//   API Copyright (C) 2025 OpenSourceDUTH
//       This program is free software: you can redistribute it and/or modify
//       it under the terms of the GNU General Public License as published by
//       the Free Software Foundation, either version 3 of the License, or
//       (at your option) any later version.

//       This program is distributed in the hope that it will be useful,
//       but WITHOUT ANY WARRANTY; without even the implied warranty of
//       MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//       GNU General Public License for more details.

//       You should have received a copy of the GNU General Public License
//       along with this program.  If not, see <https://www.gnu.org/licenses/>.
