// Package feed applies search, ordering and pagination to post lists fetched
// from the backend, which returns them unpaged.
package feed

import (
	"sort"
	"strconv"
	"strings"

	"github.com/blogdeck/blogdeck/internal/api"
)

// DefaultPageSize fills a three column grid
const DefaultPageSize = 9

// Sort orders
const (
	SortNewest   = "newest"
	SortLikes    = "likes"
	SortComments = "comments"
)

// Options is the view state of a post list
type Options struct {
	Page     int    `form:"page"`
	PageSize int    `form:"size"`
	Query    string `form:"q"`
	Sort     string `form:"sort"`
}

// Normalize fills defaults and clamps out-of-range values
func (o Options) Normalize() Options {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	switch o.Sort {
	case SortLikes, SortComments:
	default:
		o.Sort = SortNewest
	}
	o.Query = strings.TrimSpace(o.Query)
	return o
}

// Page is one page of a post list
type Page struct {
	Items   []api.BlogSummary
	Page    int
	Pages   int
	Total   int
	HasPrev bool
	HasNext bool
	Options Options
}

// PrevPage returns the previous page number
func (p Page) PrevPage() int { return p.Page - 1 }

// NextPage returns the next page number
func (p Page) NextPage() int { return p.Page + 1 }

// Paginate filters, sorts and slices posts. The input is not modified.
func Paginate(posts []api.BlogSummary, opts Options) Page {
	opts = opts.Normalize()

	items := Filter(posts, opts.Query)
	SortPosts(items, opts.Sort)

	total := len(items)
	pages := (total + opts.PageSize - 1) / opts.PageSize
	if pages == 0 {
		pages = 1
	}
	if opts.Page > pages {
		opts.Page = pages
	}

	start := (opts.Page - 1) * opts.PageSize
	end := start + opts.PageSize
	if end > total {
		end = total
	}

	return Page{
		Items:   items[start:end],
		Page:    opts.Page,
		Pages:   pages,
		Total:   total,
		HasPrev: opts.Page > 1,
		HasNext: opts.Page < pages,
		Options: opts,
	}
}

// Filter returns a copy of posts whose title contains query, ignoring case
func Filter(posts []api.BlogSummary, query string) []api.BlogSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]api.BlogSummary, 0, len(posts))
	for _, p := range posts {
		if query == "" || strings.Contains(strings.ToLower(p.Title), query) {
			out = append(out, p)
		}
	}
	return out
}

// SortPosts orders posts in place. Ties fall back to newest first.
func SortPosts(posts []api.BlogSummary, order string) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch order {
		case SortLikes:
			if a.Likes != b.Likes {
				return a.Likes > b.Likes
			}
		case SortComments:
			if a.Comments != b.Comments {
				return a.Comments > b.Comments
			}
		}
		return newer(a, b)
	})
}

func newer(a, b api.BlogSummary) bool {
	if !a.CreatedAt.Equal(b.CreatedAt.Time) {
		return a.CreatedAt.After(b.CreatedAt.Time)
	}
	// Fall back to numeric ids, which the backend assigns in order
	ai, aerr := strconv.Atoi(a.PostID.String())
	bi, berr := strconv.Atoi(b.PostID.String())
	if aerr == nil && berr == nil {
		return ai > bi
	}
	return a.PostID.String() > b.PostID.String()
}
