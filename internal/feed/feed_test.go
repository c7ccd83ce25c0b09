package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdeck/blogdeck/internal/api"
)

func post(id string, title string, likes, comments int, created time.Time) api.BlogSummary {
	return api.BlogSummary{
		PostID:    api.ID(id),
		Title:     title,
		Likes:     likes,
		Comments:  comments,
		CreatedAt: api.Timestamp{Time: created},
	}
}

func samplePosts() []api.BlogSummary {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []api.BlogSummary{
		post("1", "Go channels", 5, 1, base),
		post("2", "Gardening tips", 10, 0, base.Add(time.Hour)),
		post("3", "Going further with Go", 1, 7, base.Add(2*time.Hour)),
		post("4", "Cooking", 10, 3, base.Add(3*time.Hour)),
	}
}

func ids(posts []api.BlogSummary) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.PostID.String()
	}
	return out
}

func TestNormalize(t *testing.T) {
	opts := Options{Page: -2, PageSize: 0, Sort: "random", Query: "  go "}.Normalize()
	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, DefaultPageSize, opts.PageSize)
	assert.Equal(t, SortNewest, opts.Sort)
	assert.Equal(t, "go", opts.Query)
}

func TestPaginate_Sorts(t *testing.T) {
	tests := []struct {
		sort string
		want []string
	}{
		{sort: "", want: []string{"4", "3", "2", "1"}},
		{sort: SortLikes, want: []string{"4", "2", "1", "3"}},
		{sort: SortComments, want: []string{"3", "4", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run("sort "+tt.sort, func(t *testing.T) {
			page := Paginate(samplePosts(), Options{Sort: tt.sort})
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func TestPaginate_Query(t *testing.T) {
	page := Paginate(samplePosts(), Options{Query: "GO"})
	assert.Equal(t, []string{"3", "1"}, ids(page.Items))
	assert.Equal(t, 2, page.Total)
}

func TestPaginate_Pages(t *testing.T) {
	posts := samplePosts()

	first := Paginate(posts, Options{PageSize: 3})
	assert.Equal(t, 2, first.Pages)
	assert.Len(t, first.Items, 3)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)
	assert.Equal(t, 2, first.NextPage())

	second := Paginate(posts, Options{PageSize: 3, Page: 2})
	require.Len(t, second.Items, 1)
	assert.Equal(t, "1", second.Items[0].PostID.String())
	assert.True(t, second.HasPrev)
	assert.False(t, second.HasNext)

	clamped := Paginate(posts, Options{PageSize: 3, Page: 99})
	assert.Equal(t, 2, clamped.Page)
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate(nil, Options{})
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Pages)
	assert.Equal(t, 0, page.Total)
	assert.False(t, page.HasNext)
}

func TestPaginate_DoesNotModifyInput(t *testing.T) {
	posts := samplePosts()
	Paginate(posts, Options{Sort: SortLikes})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(posts))
}

func TestSortPosts_TieBreaksByID(t *testing.T) {
	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := []api.BlogSummary{post("9", "a", 0, 0, same), post("10", "b", 0, 0, same)}
	SortPosts(posts, SortNewest)
	assert.Equal(t, []string{"10", "9"}, ids(posts))
}
