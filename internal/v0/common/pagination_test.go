package common

import "testing"

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		perPage string
		want    Pagination
	}{
		{"defaults", "", "", Pagination{CurrentPage: 1, PerPage: 10, Skip: 0}},
		{"third page", "3", "20", Pagination{CurrentPage: 3, PerPage: 20, Skip: 40}},
		{"garbage", "abc", "-5", Pagination{CurrentPage: 1, PerPage: 10, Skip: 0}},
		{"capped", "2", "1000", Pagination{CurrentPage: 2, PerPage: 100, Skip: 100}},
		{"whitespace", " 2 ", " 5", Pagination{CurrentPage: 2, PerPage: 5, Skip: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePagination(tt.page, tt.perPage)
			if got != tt.want {
				t.Errorf("ParsePagination(%q, %q) = %+v, want %+v", tt.page, tt.perPage, got, tt.want)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	p := ParsePagination("2", "10")
	page := NewPage([]string{"a"}, p, 11)
	if page.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", page.TotalPages)
	}
	if page.TotalItems != 11 || page.CurrentPage != 2 || page.PerPage != 10 {
		t.Errorf("unexpected page %+v", page)
	}

	empty := NewPage[string](nil, ParsePagination("", ""), 0)
	if empty.List == nil {
		t.Error("List should never be nil")
	}
	if empty.TotalPages != 0 {
		t.Errorf("TotalPages = %d, want 0", empty.TotalPages)
	}
}
