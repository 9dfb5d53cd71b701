package apiclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchan-dev/strapikit/shared/api"
)

func TestEncodeParams(t *testing.T) {
	withCount := true

	tests := []struct {
		name   string
		params any
		want   string
	}{
		{
			name: "filters and page pagination",
			params: api.Params{
				Filters:    api.Filters{"name": api.Filters{"$eq": "a"}},
				Pagination: api.PaginationByPage{Page: 1, PageSize: 10},
			},
			want: "pagination[page]=1&pagination[pageSize]=10&filters[name][$eq]=a",
		},
		{
			name: "plain maps sort their keys",
			params: map[string]any{
				"pagination": map[string]any{"pageSize": 10, "page": 1},
				"filters":    map[string]any{"name": map[string]any{"$eq": "a"}},
			},
			want: "filters[name][$eq]=a&pagination[page]=1&pagination[pageSize]=10",
		},
		{
			name: "arrays are indexed",
			params: api.Params{
				Fields: []string{"title", "slug"},
				Sort:   []string{"publishedAt:desc"},
			},
			want: "fields[0]=title&fields[1]=slug&sort[0]=publishedAt%3Adesc",
		},
		{
			name:   "values are escaped and spaces become %20",
			params: map[string]any{"filters": map[string]any{"title": map[string]any{"$containsi": "hello world & co"}}},
			want:   "filters[title][$containsi]=hello%20world%20%26%20co",
		},
		{
			name: "offset pagination with count, locale and publication state",
			params: api.Params{
				Pagination:       api.PaginationByOffset{Start: 20, Limit: 10, WithCount: &withCount},
				PublicationState: api.PublicationPreview,
				Locale:           "fr",
			},
			want: "pagination[start]=20&pagination[limit]=10&pagination[withCount]=true&publicationState=preview&locale=fr",
		},
		{
			name:   "populate wildcard",
			params: api.Params{Populate: "*"},
			want:   "populate=%2A",
		},
		{
			name: "nested populate and $or arrays",
			params: api.Params{
				Populate: map[string]any{"author": map[string]any{"fields": []string{"name"}}},
				Filters: api.Filters{"$or": []api.Filters{
					{"views": api.Filters{"$gt": 100}},
					{"featured": api.Filters{"$eq": true}},
				}},
			},
			want: "populate[author][fields][0]=name&filters[$or][0][views][$gt]=100&filters[$or][1][featured][$eq]=true",
		},
		{
			name:   "nil values are skipped",
			params: map[string]any{"a": nil, "b": "x", "c": (*string)(nil)},
			want:   "b=x",
		},
		{
			name:   "times use their text form",
			params: map[string]any{"filters": map[string]any{"createdAt": map[string]any{"$gte": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}}},
			want:   "filters[createdAt][$gte]=2024-01-02T03%3A04%3A05Z",
		},
		{
			name:   "floats",
			params: map[string]any{"price": 1.5},
			want:   "price=1.5",
		},
		{
			name:   "raw query passes through",
			params: RawQuery("filters[slug][$eq]=a%20b"),
			want:   "filters[slug][$eq]=a%20b",
		},
		{
			name:   "nil params",
			params: nil,
			want:   "",
		},
		{
			name:   "empty params",
			params: &api.Params{},
			want:   "",
		},
		{
			name:   "access token for provider callback",
			params: map[string]string{"access_token": "abc+/="},
			want:   "access_token=abc%2B%2F%3D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeParams(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeParams_StructTags(t *testing.T) {
	type inner struct {
		Slug string `json:"slug"`
	}
	type base struct {
		Locale string `json:"locale,omitempty"`
	}
	type custom struct {
		base
		Ignored  string `json:"-"`
		Renamed  int    `json:"n"`
		Empty    string `json:"empty,omitempty"`
		NoTag    bool
		Nested   inner  `json:"filters"`
		internal string
	}

	got, err := EncodeParams(custom{base: base{Locale: "en"}, Ignored: "x", Renamed: 3, NoTag: true, Nested: inner{Slug: "s"}, internal: "y"})
	require.NoError(t, err)
	assert.Equal(t, "locale=en&n=3&NoTag=true&filters[slug]=s", got)
}

func TestEncodeParams_Errors(t *testing.T) {
	_, err := EncodeParams("bare")
	assert.Error(t, err)

	_, err = EncodeParams(map[int]string{1: "a"})
	assert.Error(t, err)

	_, err = EncodeParams(map[string]any{"f": func() {}})
	assert.Error(t, err)
}

func TestAppendQuery(t *testing.T) {
	assert.Equal(t, "articles", appendQuery("articles", ""))
	assert.Equal(t, "articles?a=1", appendQuery("articles", "a=1"))
	assert.Equal(t, "upload?id=5&a=1", appendQuery("upload?id=5", "a=1"))
}
