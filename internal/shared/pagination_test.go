package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name           string
		page, perPage  int
		total          int
		wantPage       int
		wantPerPage    int
		wantTotalPages int
	}{
		{"defaults", 0, 0, 45, 1, 15, 3},
		{"partial last page", 2, 10, 25, 2, 10, 3},
		{"empty result", 1, 15, 0, 1, 15, 0},
		{"negative inputs", -3, -1, 5, 1, 15, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.perPage, tc.total)
			require.Equal(t, tc.wantPage, p.Page)
			require.Equal(t, tc.wantPerPage, p.PerPage)
			require.Equal(t, tc.total, p.Total)
			require.Equal(t, tc.wantTotalPages, p.TotalPages)
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	require.Equal(t, 0, NewPagination(1, 15, 100).Offset())
	require.Equal(t, 30, NewPagination(3, 15, 100).Offset())
}
