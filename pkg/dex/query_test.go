package dex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dex/pkg/dex"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestParseViewQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  dex.ViewState
	}{
		{
			name:  "empty",
			query: "",
			want:  dex.DefaultViewState(),
		},
		{
			name:  "full view",
			query: "?page=3&name=char&type=Fire&generation=1&minHeight=1.5&maxWeight=90.5&sort=height-desc",
			want: dex.ViewState{
				Page: 3,
				Filters: dex.Filters{
					Name: "char", Type: "fire", Generation: "1",
					MinHeight: dex.Float(1.5), MaxWeight: dex.Float(90.5),
				},
				Sort: dex.SortConfig{Field: dex.SortByHeight, Direction: dex.SortDesc},
			},
		},
		{
			name:  "q alias and separate order",
			query: "q=bulba&sort=weight&order=desc",
			want: dex.ViewState{
				Page:    1,
				Filters: dex.Filters{Name: "bulba"},
				Sort:    dex.SortConfig{Field: dex.SortByWeight, Direction: dex.SortDesc},
			},
		},
		{
			name:  "malformed values fall back",
			query: "page=zero&minHeight=tall&sort=color-up",
			want:  dex.DefaultViewState(),
		},
		{
			name:  "page below one",
			query: "page=-2",
			want:  dex.DefaultViewState(),
		},
		{
			name:  "bad escape keeps the rest",
			query: "type=water&name=%zz",
			want: dex.ViewState{
				Page:    1,
				Filters: dex.Filters{Type: "water"},
				Sort:    dex.DefaultSortConfig(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := dex.ParseViewQuery(tt.query)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestViewState_Encode(t *testing.T) {
	t.Parallel()

	assert.Empty(t, dex.DefaultViewState().Encode())

	view := dex.ViewState{
		Page:    2,
		Filters: dex.Filters{Type: "fire"},
		Sort:    dex.SortConfig{Field: dex.SortByHeight, Direction: dex.SortDesc},
	}
	assert.Equal(t, "page=2&sort=height-desc&type=fire", view.Encode())

	roundTrip := dex.ParseViewQuery(view.Encode())
	require.Equal(t, view, roundTrip)
}
